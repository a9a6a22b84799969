// Package testdb starts a throwaway Postgres for tests that need the real
// SQL: atomic stock updates, unique indexes and row locks.
package testdb

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"billing-backend/internal/billing"
	"billing-backend/internal/database"
	"billing-backend/internal/models"
)

var (
	once     sync.Once
	shared   *gorm.DB
	startErr error
)

func start(ctx context.Context) (*gorm.DB, error) {
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("billing_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Open returns a migrated, emptied database. The container is started once
// per test binary and reaped by testcontainers when the binary exits. Tests
// are skipped under -short or without a container runtime.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres tests need a container runtime, skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() { shared, startErr = start(context.Background()) })
	if startErr != nil {
		t.Skipf("postgres unavailable: %v", startErr)
	}

	err := shared.Exec(`TRUNCATE audit_logs, payments, stock_adjustments, document_charges,
		document_items, documents, parties, products, users RESTART IDENTITY CASCADE`).Error
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
	return shared
}

func User(t *testing.T, db *gorm.DB, email string) uint {
	t.Helper()
	u := models.User{Name: "Test Owner", Email: email, PasswordHash: "x"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func Product(t *testing.T, db *gorm.DB, userID uint, name string, stock int64) models.Product {
	t.Helper()
	p := models.Product{
		UserID:        userID,
		Name:          name,
		Unit:          "pcs",
		TaxRate:       decimal.NewFromInt(18),
		SellingPrice:  decimal.NewFromInt(250),
		PurchasePrice: decimal.NewFromInt(180),
		StockQuantity: stock,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func Party(t *testing.T, db *gorm.DB, userID uint, role billing.PartyRole, name string) models.Party {
	t.Helper()
	p := models.Party{UserID: userID, Type: role, Name: name}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create party: %v", err)
	}
	return p
}

// Stock reads the live counter of a product.
func Stock(t *testing.T, db *gorm.DB, productID uint) int64 {
	t.Helper()
	var p models.Product
	if err := db.First(&p, productID).Error; err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return p.StockQuantity
}

// Count counts rows of model matching where.
func Count(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
