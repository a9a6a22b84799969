package billing

// Kind identifies a document type. Every kind has exactly one Profile.
type Kind string

const (
	KindInvoice         Kind = "invoice"
	KindQuotation       Kind = "quotation"
	KindDeliveryChallan Kind = "delivery_challan"
	KindPurchase        Kind = "purchase"
	KindSalesReturn     Kind = "sales_return"
	KindPurchaseReturn  Kind = "purchase_return"
	KindPOSSale         Kind = "pos_sale"
)

// LineMode selects which terms take part in a line's total.
type LineMode int

const (
	// LineSelling: tax and a per-line discount.
	LineSelling LineMode = iota
	// LinePurchase: tax, no discount term. Used by purchases and returns.
	LinePurchase
	// LineChallan: neither tax nor discount, total = qty * unit price.
	LineChallan
	// LinePOS: selling price, no discount, tax only when explicitly broken out.
	LinePOS
)

// PriceTier is the product price a new line is seeded from.
type PriceTier int

const (
	TierSelling PriceTier = iota
	TierPurchase
	TierWholesale
	TierMRP
)

type PartyRole string

const (
	PartyCustomer PartyRole = "customer"
	PartySupplier PartyRole = "supplier"
)

// Movement is the stock effect of saving a document of a kind.
type Movement string

const (
	MovementNone              Movement = ""
	MovementPurchaseIn        Movement = "purchase_in"
	MovementSalesOut          Movement = "sales_out"
	MovementSalesReturnIn     Movement = "sales_return_in"
	MovementPurchaseReturnOut Movement = "purchase_return_out"
	MovementPOSSaleOut        Movement = "pos_sale_out"
)

// ChargeSet lists the document-level charges a kind accepts.
type ChargeSet struct {
	Discount     bool
	RoundOff     bool
	Transport    bool
	Installation bool
	Custom       bool
}

// Series describes how document numbers are laid out for a kind.
// Period-scoped series embed YYYYMM after the prefix.
type Series struct {
	Prefix       string
	PeriodScoped bool
	Width        int
}

type Profile struct {
	Kind  Kind
	Label string
	// Route is the API collection the kind is served under.
	Route         string
	LineMode      LineMode
	Charges       ChargeSet
	Party         PartyRole
	PartyRequired bool
	PriceTier     PriceTier
	Movement      Movement
	Series        Series
	// InitialStatus is the status a freshly created document gets.
	InitialStatus string
	// Payable documents carry a paid amount and payment status.
	Payable bool
}

var profiles = map[Kind]Profile{
	KindInvoice: {
		Kind:          KindInvoice,
		Label:         "Invoice",
		Route:         "invoices",
		LineMode:      LineSelling,
		Charges:       ChargeSet{Discount: true, RoundOff: true, Transport: true, Installation: true, Custom: true},
		Party:         PartyCustomer,
		PartyRequired: true,
		PriceTier:     TierSelling,
		Movement:      MovementSalesOut,
		Series:        Series{Prefix: "INV", PeriodScoped: true, Width: 3},
		InitialStatus: StatusUnpaid,
		Payable:       true,
	},
	KindQuotation: {
		Kind:          KindQuotation,
		Label:         "Quotation",
		Route:         "quotations",
		LineMode:      LineSelling,
		Charges:       ChargeSet{Transport: true, Installation: true, Custom: true},
		Party:         PartyCustomer,
		PartyRequired: true,
		PriceTier:     TierSelling,
		Movement:      MovementNone,
		Series:        Series{Prefix: "QT", PeriodScoped: true, Width: 3},
		InitialStatus: StatusOpen,
	},
	KindDeliveryChallan: {
		Kind:          KindDeliveryChallan,
		Label:         "Delivery Challan",
		Route:         "delivery-challans",
		LineMode:      LineChallan,
		Charges:       ChargeSet{Transport: true, Custom: true},
		Party:         PartyCustomer,
		PartyRequired: true,
		PriceTier:     TierSelling,
		Movement:      MovementNone,
		Series:        Series{Prefix: "DC", PeriodScoped: true, Width: 3},
		InitialStatus: StatusOpen,
	},
	KindPurchase: {
		Kind:          KindPurchase,
		Label:         "Purchase",
		Route:         "purchases",
		LineMode:      LinePurchase,
		Charges:       ChargeSet{Discount: true, RoundOff: true, Transport: true, Custom: true},
		Party:         PartySupplier,
		PartyRequired: true,
		PriceTier:     TierPurchase,
		Movement:      MovementPurchaseIn,
		Series:        Series{Prefix: "PUR", Width: 4},
		InitialStatus: StatusUnpaid,
		Payable:       true,
	},
	KindSalesReturn: {
		Kind:          KindSalesReturn,
		Label:         "Sales Return",
		Route:         "sales-returns",
		LineMode:      LinePurchase,
		Party:         PartyCustomer,
		PartyRequired: true,
		PriceTier:     TierSelling,
		Movement:      MovementSalesReturnIn,
		Series:        Series{Prefix: "SR", Width: 4},
		InitialStatus: StatusCompleted,
	},
	KindPurchaseReturn: {
		Kind:          KindPurchaseReturn,
		Label:         "Purchase Return",
		Route:         "purchase-returns",
		LineMode:      LinePurchase,
		Party:         PartySupplier,
		PartyRequired: true,
		PriceTier:     TierPurchase,
		Movement:      MovementPurchaseReturnOut,
		Series:        Series{Prefix: "PR", Width: 4},
		InitialStatus: StatusCompleted,
	},
	KindPOSSale: {
		Kind:          KindPOSSale,
		Label:         "POS Sale",
		Route:         "pos/sales",
		LineMode:      LinePOS,
		Charges:       ChargeSet{Discount: true, RoundOff: true},
		Party:         PartyCustomer,
		PartyRequired: false,
		PriceTier:     TierSelling,
		Movement:      MovementPOSSaleOut,
		Series:        Series{Prefix: "POS", Width: 4},
		InitialStatus: StatusPaid,
	},
}

// Document statuses.
const (
	StatusUnpaid    = "unpaid"
	StatusPartial   = "partial"
	StatusPaid      = "paid"
	StatusOpen      = "open"
	StatusConverted = "converted"
	StatusCompleted = "completed"
)

// ProfileOf returns the profile for k. ok is false for unknown kinds.
func ProfileOf(k Kind) (Profile, bool) {
	p, ok := profiles[k]
	return p, ok
}

// MustProfile is ProfileOf for kinds known at compile time.
func MustProfile(k Kind) Profile {
	p, ok := profiles[k]
	if !ok {
		panic("billing: unknown document kind " + string(k))
	}
	return p
}

func (k Kind) Valid() bool {
	_, ok := profiles[k]
	return ok
}

// Kinds lists every document kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindInvoice, KindQuotation, KindDeliveryChallan, KindPurchase,
		KindSalesReturn, KindPurchaseReturn, KindPOSSale,
	}
}
