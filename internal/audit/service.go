package audit

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"billing-backend/internal/models"
)

type LogOptions struct {
	UserID      uint
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// snapshot renders v for a jsonb column. jsonb rejects "", so nil becomes
// JSON null.
func snapshot(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteLog stores one audit row through db. Pass the transaction handle so
// the row commits or rolls back with the change it describes.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	before, err := snapshot(opts.Before)
	if err != nil {
		return fmt.Errorf("audit %s %d before: %w", opts.EntityType, opts.EntityID, err)
	}
	after, err := snapshot(opts.After)
	if err != nil {
		return fmt.Errorf("audit %s %d after: %w", opts.EntityType, opts.EntityID, err)
	}

	row := models.AuditLog{
		UserID:      opts.UserID,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  before,
		AfterData:   after,
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
