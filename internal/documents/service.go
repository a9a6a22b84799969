// Package documents implements the save flows shared by every document kind:
// header, lines, custom charges and the stock movement are written in one
// transaction.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"billing-backend/internal/apperr"
	"billing-backend/internal/audit"
	"billing-backend/internal/billing"
	"billing-backend/internal/logging"
	"billing-backend/internal/metrics"
	"billing-backend/internal/models"
	"billing-backend/internal/numbering"
	"billing-backend/internal/stock"
)

type Options struct {
	AllowNegativeStock  bool
	InvoiceDeductsStock bool
}

type Service struct {
	db      *gorm.DB
	numbers *numbering.Generator
	opts    Options
}

func NewService(db *gorm.DB, numbers *numbering.Generator, opts Options) *Service {
	return &Service{db: db, numbers: numbers, opts: opts}
}

type ListFilter struct {
	From    time.Time
	To      time.Time
	PartyID uint
	Status  string
	Search  string
}

func profileFor(kind billing.Kind) (billing.Profile, error) {
	p, ok := billing.ProfileOf(kind)
	if !ok {
		return billing.Profile{}, apperr.Validation(fmt.Sprintf("unknown document kind %q", kind))
	}
	return p, nil
}

// direction reports the stock movement saving a document of p causes.
func (s *Service) direction(p billing.Profile) (stock.Direction, bool) {
	if p.Kind == billing.KindInvoice && !s.opts.InvoiceDeductsStock {
		return "", false
	}
	return stock.ForDocument(p.Movement)
}

func (s *Service) adjuster(tx *gorm.DB) *stock.Adjuster {
	return stock.NewAdjuster(stock.NewGormStore(tx, s.opts.AllowNegativeStock))
}

// prepare resolves the party and catalog rows the request points at and
// returns an unsaved document with priced lines and totals.
func (s *Service) prepare(ctx context.Context, userID uint, p billing.Profile, req SaveRequest, date time.Time) (*models.Document, error) {
	db := s.db.WithContext(ctx)

	var partyID *uint
	if req.PartyID != nil && *req.PartyID != 0 {
		var party models.Party
		if err := db.Where("id = ? AND user_id = ?", *req.PartyID, userID).First(&party).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validation(fmt.Sprintf("party %d not found", *req.PartyID))
			}
			return nil, err
		}
		if party.Type != p.Party {
			return nil, apperr.Validation(fmt.Sprintf("%s needs a %s, party %d is a %s", strings.ToLower(p.Label), p.Party, party.ID, party.Type))
		}
		partyID = &party.ID
	}

	var sourceID *uint
	if req.SourceDocumentID != nil && *req.SourceDocumentID != 0 {
		var src models.Document
		if err := db.Select("id", "kind").Where("id = ? AND user_id = ?", *req.SourceDocumentID, userID).First(&src).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validation(fmt.Sprintf("source document %d not found", *req.SourceDocumentID))
			}
			return nil, err
		}
		if err := CheckSource(p.Kind, src.Kind); err != nil {
			return nil, err
		}
		sourceID = &src.ID
	}

	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID != nil && *it.ProductID != 0 {
			ids = append(ids, *it.ProductID)
		}
	}
	catalog := map[uint]billing.CatalogItem{}
	if len(ids) > 0 {
		var products []models.Product
		if err := db.Where("user_id = ? AND id IN ?", userID, ids).Find(&products).Error; err != nil {
			return nil, err
		}
		for _, pr := range products {
			catalog[pr.ID] = pr.CatalogItem()
		}
		for _, id := range ids {
			if _, ok := catalog[id]; !ok {
				return nil, apperr.Validation(fmt.Sprintf("product %d not found", id))
			}
		}
	}

	lines := BuildLines(p, req.Items, catalog)
	charges := req.Charges()
	totals, err := billing.Aggregate(p.Kind, lines, charges)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		UserID:           userID,
		Kind:             p.Kind,
		Date:             date,
		PartyID:          partyID,
		Notes:            strings.TrimSpace(req.Notes),
		PaymentMethod:    strings.TrimSpace(req.PaymentMethod),
		SourceDocumentID: sourceID,
	}
	doc.SetCharges(charges)
	doc.SetTotals(totals)
	doc.Items = make([]models.DocumentItem, 0, len(lines))
	for _, l := range lines {
		doc.Items = append(doc.Items, models.ItemFromLine(l))
	}
	return doc, nil
}

func duplicateNumber(err error, kind billing.Kind, number string) error {
	if apperr.IsUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w", kind, number, apperr.ErrDuplicateNumber)
	}
	return err
}

func (s *Service) Create(ctx context.Context, userID uint, kind billing.Kind, req SaveRequest) (*models.Document, error) {
	return s.create(ctx, userID, kind, req, nil)
}

// create saves a new document. within, when set, runs inside the same
// transaction after the document row exists.
func (s *Service) create(ctx context.Context, userID uint, kind billing.Kind, req SaveRequest, within func(tx *gorm.DB, doc *models.Document) error) (*models.Document, error) {
	p, err := profileFor(kind)
	if err != nil {
		return nil, err
	}
	if err := Validate(p, req); err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	doc, err := s.prepare(ctx, userID, p, req, date)
	if err != nil {
		return nil, err
	}
	doc.Status = p.InitialStatus
	if p.InitialStatus == billing.StatusPaid {
		doc.PaidAmount = doc.TotalAmount
	}

	save := func(number string) error {
		doc.Number = number
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(doc).Error; err != nil {
				return duplicateNumber(err, kind, number)
			}
			if dir, ok := s.direction(p); ok {
				if err := s.adjuster(tx).Apply(ctx, userID, dir, doc.Lines()); err != nil {
					return err
				}
			}
			if within != nil {
				if err := within(tx, doc); err != nil {
					return err
				}
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  string(kind),
				EntityID:    doc.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("%s %s created, total %s", p.Label, doc.Number, doc.TotalAmount.StringFixed(2)),
				After:       doc,
			})
		})
	}

	if number := strings.TrimSpace(req.Number); number != "" {
		err = save(number)
	} else {
		err = s.numbers.Allocate(ctx, userID, kind, date, save)
	}
	if err != nil {
		return nil, err
	}

	metrics.DocumentsSaved.WithLabelValues(string(kind), "create").Inc()
	logging.GetLogger().WithFields(logrus.Fields{
		"kind":    kind,
		"id":      doc.ID,
		"number":  doc.Number,
		"user_id": userID,
	}).Info("document created")
	return doc, nil
}

// editable rejects changes to a document that has been converted into
// another one; the target would no longer match its source.
func editable(doc *models.Document) error {
	if doc.Status == billing.StatusConverted {
		return apperr.Validation(fmt.Sprintf("%s is converted and can no longer be edited", doc.Number))
	}
	return nil
}

func (s *Service) load(tx *gorm.DB, userID uint, kind billing.Kind, id uint, lock bool) (*models.Document, error) {
	q := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("CustomCharges", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var doc models.Document
	if err := q.Where("id = ? AND user_id = ? AND kind = ?", id, userID, kind).First(&doc).Error; err != nil {
		return nil, apperr.NotFoundIfMissing(err)
	}
	return &doc, nil
}

// Update replaces the document's header, lines and custom charges. Stock
// moved by the old lines is reversed and the new lines applied in the same
// transaction.
func (s *Service) Update(ctx context.Context, userID uint, kind billing.Kind, id uint, req SaveRequest) (*models.Document, error) {
	p, err := profileFor(kind)
	if err != nil {
		return nil, err
	}
	if err := Validate(p, req); err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	next, err := s.prepare(ctx, userID, p, req, date)
	if err != nil {
		return nil, err
	}

	var saved *models.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.load(tx, userID, kind, id, true)
		if err != nil {
			return err
		}
		if err := editable(existing); err != nil {
			return err
		}
		before := *existing
		oldLines := existing.Lines()

		number := strings.TrimSpace(req.Number)
		if number == "" {
			number = existing.Number
		}
		if p.Payable && existing.PaidAmount.GreaterThan(next.TotalAmount) {
			return apperr.Validation(fmt.Sprintf("total %s is below the %s already paid", next.TotalAmount.StringFixed(2), existing.PaidAmount.StringFixed(2)))
		}

		next.ID = existing.ID
		next.Number = number
		next.PaidAmount = existing.PaidAmount
		next.CreatedAt = existing.CreatedAt
		next.Status = existing.Status
		if p.Payable {
			next.Status = billing.PaymentStatus(next.PaidAmount, next.TotalAmount)
		}
		if next.SourceDocumentID == nil {
			next.SourceDocumentID = existing.SourceDocumentID
		}

		if err := tx.Omit(clause.Associations).Save(next).Error; err != nil {
			return duplicateNumber(err, kind, number)
		}

		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentCharge{}).Error; err != nil {
			return err
		}
		for i := range next.Items {
			next.Items[i].DocumentID = id
		}
		for i := range next.CustomCharges {
			next.CustomCharges[i].DocumentID = id
		}
		if len(next.Items) > 0 {
			if err := tx.Create(&next.Items).Error; err != nil {
				return err
			}
		}
		if len(next.CustomCharges) > 0 {
			if err := tx.Create(&next.CustomCharges).Error; err != nil {
				return err
			}
		}

		if dir, ok := s.direction(p); ok {
			if err := s.adjuster(tx).Replace(ctx, userID, dir, oldLines, next.Lines()); err != nil {
				return err
			}
		}

		saved = next
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      userID,
			EntityType:  string(kind),
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%s %s updated, total %s -> %s", p.Label, number, before.TotalAmount.StringFixed(2), next.TotalAmount.StringFixed(2)),
			Before:      before,
			After:       next,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.DocumentsSaved.WithLabelValues(string(kind), "update").Inc()
	return saved, nil
}

// Delete removes a document and reverses its stock movement. Documents with
// recorded payments must have those payments deleted first.
func (s *Service) Delete(ctx context.Context, userID uint, kind billing.Kind, id uint) error {
	p, err := profileFor(kind)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.load(tx, userID, kind, id, true)
		if err != nil {
			return err
		}

		var payments int64
		if err := tx.Model(&models.Payment{}).Where("document_id = ?", id).Count(&payments).Error; err != nil {
			return err
		}
		if payments > 0 {
			return apperr.Validation(fmt.Sprintf("%s %s has %d payment(s), delete them first", strings.ToLower(p.Label), doc.Number, payments))
		}

		if dir, ok := s.direction(p); ok {
			if err := s.adjuster(tx).Reverse(ctx, userID, dir, doc.Lines()); err != nil {
				return err
			}
		}

		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentCharge{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Document{}, id).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      userID,
			EntityType:  string(kind),
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("%s %s deleted", p.Label, doc.Number),
			Before:      doc,
		})
	})
	if err != nil {
		return err
	}

	metrics.DocumentsSaved.WithLabelValues(string(kind), "delete").Inc()
	return nil
}

func (s *Service) Get(ctx context.Context, userID uint, kind billing.Kind, id uint) (*models.Document, error) {
	if _, err := profileFor(kind); err != nil {
		return nil, err
	}
	doc, err := s.load(s.db.WithContext(ctx).Preload("Party"), userID, kind, id, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns headers newest first. Lines are not loaded.
func (s *Service) List(ctx context.Context, userID uint, kind billing.Kind, f ListFilter) ([]models.Document, error) {
	if _, err := profileFor(kind); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Preload("Party").Where("user_id = ? AND kind = ?", userID, kind)
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", f.To)
	}
	if f.PartyID > 0 {
		q = q.Where("party_id = ?", f.PartyID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("number ILIKE ?", "%"+f.Search+"%")
	}

	var docs []models.Document
	if err := q.Order("date DESC, id DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// NextNumber suggests the number the next document of kind dated date gets.
func (s *Service) NextNumber(ctx context.Context, userID uint, kind billing.Kind, date time.Time) (string, error) {
	if _, err := profileFor(kind); err != nil {
		return "", err
	}
	return s.numbers.Suggest(ctx, userID, kind, date)
}
