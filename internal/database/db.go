package database

import (
	"billing-backend/internal/config"
	"billing-backend/internal/logging"
	"billing-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) *gorm.DB {
	log := logging.GetLogger()

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Info("database connected, migration complete")
	return DB
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Party{},
		&models.Document{},
		&models.DocumentItem{},
		&models.DocumentCharge{},
		&models.Payment{},
		&models.StockAdjustment{},
		&models.AuditLog{},
	)
	if err != nil {
		return err
	}

	// AutoMigrate does not add CHECK constraints to existing tables
	return db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_document_items_quantity') THEN
				ALTER TABLE document_items ADD CONSTRAINT chk_document_items_quantity CHECK (quantity > 0);
			END IF;
		END $$;
	`).Error
}
