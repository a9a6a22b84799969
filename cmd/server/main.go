package main

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"billing-backend/internal/audit"
	"billing-backend/internal/auth"
	"billing-backend/internal/cache"
	"billing-backend/internal/catalog"
	"billing-backend/internal/config"
	"billing-backend/internal/dashboard"
	"billing-backend/internal/database"
	"billing-backend/internal/documents"
	"billing-backend/internal/export"
	"billing-backend/internal/ledger"
	"billing-backend/internal/logging"
	"billing-backend/internal/metrics"
	"billing-backend/internal/numbering"
	"billing-backend/internal/payment"
	"billing-backend/internal/pos"
	"billing-backend/internal/stock"
)

func main() {
	cfg := config.Load()
	logging.SetLevel(cfg.LogLevel)
	log := logging.GetLogger()

	db := database.Init(cfg)
	rdb, locker := cache.Connect(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	numbers := numbering.NewGenerator(db, locker, cfg.NumberLockTTL)
	docs := documents.NewService(db, numbers, documents.Options{
		AllowNegativeStock:  cfg.StockAllowNegative,
		InvoiceDeductsStock: cfg.InvoiceDeductsStock,
	})
	checkout := pos.NewCheckout(docs)
	payments := payment.NewService(db)
	adjustments := stock.NewAdjustments(db, cfg.StockAllowNegative)
	ledgers := ledger.NewService(db, cfg.InvoiceDeductsStock)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logging.LogError("main", "ErrorHandler", c.Path(), nil, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logging.RequestLogger())
	app.Use(metrics.Middleware())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok", "redis": rdb != nil})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg, db))
	api.Post("/auth/login", auth.LoginHandler(cfg, db))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))

	// Catalog
	protected.Get("/products", catalog.ListProductsHandler(db))
	protected.Post("/products", catalog.CreateProductHandler(db))
	protected.Post("/products/import", catalog.ImportProductsHandler(db))
	protected.Get("/products/:id", catalog.GetProductHandler(db))
	protected.Put("/products/:id", catalog.UpdateProductHandler(db))
	protected.Delete("/products/:id", catalog.DeleteProductHandler(db))
	protected.Get("/products/:id/ledger", ledger.ProductLedgerHandler(ledgers))

	protected.Get("/parties", catalog.ListPartiesHandler(db))
	protected.Post("/parties", catalog.CreatePartyHandler(db))
	protected.Get("/parties/:id", catalog.GetPartyHandler(db))
	protected.Put("/parties/:id", catalog.UpdatePartyHandler(db))
	protected.Delete("/parties/:id", catalog.DeletePartyHandler(db))

	// Invoices, quotations, challans, purchases and returns
	documents.Register(protected, docs)

	// POS
	protected.Post("/pos/checkout", pos.CheckoutHandler(checkout))
	protected.Get("/pos/sales", pos.ListSalesHandler(checkout))
	protected.Get("/pos/sales/:id", pos.GetSaleHandler(checkout))

	// Payments
	protected.Get("/payments", payment.ListPaymentsHandler(payments))
	protected.Post("/payments", payment.RecordPaymentHandler(payments))
	protected.Delete("/payments/:id", payment.DeletePaymentHandler(payments))

	// Manual stock adjustments
	protected.Get("/stock-adjustments", stock.ListAdjustmentsHandler(adjustments))
	protected.Post("/stock-adjustments", stock.CreateAdjustmentHandler(adjustments))
	protected.Delete("/stock-adjustments/:id", stock.DeleteAdjustmentHandler(adjustments))

	// CA export
	protected.Get("/exports/ca", export.CAExportHandler(db))

	// Dashboard
	protected.Get("/dashboard/summary", dashboard.SummaryHandler(db))
	protected.Get("/dashboard/sales-chart", dashboard.SalesChartHandler(db))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	log.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
