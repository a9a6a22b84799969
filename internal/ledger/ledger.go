// Package ledger rebuilds a product's stock history from the rows that moved
// it. Nothing here writes; the live counter on the product is only compared.
package ledger

import (
	"fmt"
	"sort"
	"time"
)

// Source is where an entry came from. Its numeric order breaks ties between
// entries that share a date and creation time.
type Source int

const (
	SourceSale Source = iota
	SourcePurchase
	SourceReturn
	SourceAdjustment
)

type Entry struct {
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	Source    Source    `json:"-"`
	// Kind is the document kind, or "stock_adjustment".
	Kind       string `json:"kind"`
	Label      string `json:"label"`
	PartyName  string `json:"party_name,omitempty"`
	Link       string `json:"link,omitempty"`
	Number     string `json:"number,omitempty"`
	DocumentID uint   `json:"document_id,omitempty"`
	LineID     uint   `json:"-"`
	QtyIn      int64  `json:"qty_in"`
	QtyOut     int64  `json:"qty_out"`
	Balance    int64  `json:"balance"`
}

func before(a, b Entry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.DocumentID != b.DocumentID {
		return a.DocumentID < b.DocumentID
	}
	return a.LineID < b.LineID
}

// Build orders entries chronologically, computes the running balance and
// returns them latest first. The input slice is not modified.
func Build(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return before(out[i], out[j]) })

	var balance int64
	for i := range out {
		balance += out[i].QtyIn - out[i].QtyOut
		out[i].Balance = balance
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Closing is the balance after the last movement, zero for an empty ledger.
// built must be the latest-first output of Build.
func Closing(built []Entry) int64 {
	if len(built) == 0 {
		return 0
	}
	return built[0].Balance
}

// Totals sums both quantity columns.
func Totals(entries []Entry) (in, out int64) {
	for _, e := range entries {
		in += e.QtyIn
		out += e.QtyOut
	}
	return in, out
}

func link(route string, id uint) string {
	return fmt.Sprintf("/%s/%d", route, id)
}
