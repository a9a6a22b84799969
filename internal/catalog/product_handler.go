package catalog

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"billing-backend/internal/apperr"
	"billing-backend/internal/audit"
	"billing-backend/internal/auth"
	"billing-backend/internal/models"
)

var validate = validator.New()

type CreateProductRequest struct {
	Name           string          `json:"name" validate:"required,max=150"`
	Unit           string          `json:"unit" validate:"max=20"`
	HSNCode        string          `json:"hsn_code" validate:"max=20"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	MRP            decimal.Decimal `json:"mrp"`
	OpeningStock   int64           `json:"opening_stock"`
}

// UpdateProductRequest changes catalog fields only. Stock moves through
// documents and adjustments.
type UpdateProductRequest struct {
	Name           *string          `json:"name" validate:"omitempty,max=150"`
	Unit           *string          `json:"unit" validate:"omitempty,max=20"`
	HSNCode        *string          `json:"hsn_code" validate:"omitempty,max=20"`
	TaxRate        *decimal.Decimal `json:"tax_rate"`
	SellingPrice   *decimal.Decimal `json:"selling_price"`
	PurchasePrice  *decimal.Decimal `json:"purchase_price"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price"`
	MRP            *decimal.Decimal `json:"mrp"`
}

func checkMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, field+" cannot be negative")
	}
	return nil
}

func checkRate(v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
		return fiber.NewError(fiber.StatusBadRequest, "tax_rate must be between 0 and 100")
	}
	return nil
}

// GET /api/products?q=cable
func ListProductsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		dbq := db.WithContext(c.UserContext()).Where("user_id = ?", userID)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name ILIKE ? OR hsn_code ILIKE ?", "%"+q+"%", "%"+q+"%")
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(products)
	}
}

// GET /api/products/:id
func GetProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var p models.Product
		if err := db.WithContext(c.UserContext()).
			Where("id = ? AND user_id = ?", c.Params("id"), userID).
			First(&p).Error; err != nil {
			return apperr.ToFiber(apperr.NotFoundIfMissing(err))
		}
		return c.JSON(p)
	}
}

// POST /api/products
func CreateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := checkRate(body.TaxRate); err != nil {
			return err
		}
		for field, v := range map[string]decimal.Decimal{
			"selling_price":   body.SellingPrice,
			"purchase_price":  body.PurchasePrice,
			"wholesale_price": body.WholesalePrice,
			"mrp":             body.MRP,
		} {
			if err := checkMoney(field, v); err != nil {
				return err
			}
		}
		if body.Unit == "" {
			body.Unit = "pcs"
		}

		p := models.Product{
			UserID:         userID,
			Name:           body.Name,
			Unit:           body.Unit,
			HSNCode:        strings.TrimSpace(body.HSNCode),
			TaxRate:        body.TaxRate,
			SellingPrice:   body.SellingPrice,
			PurchasePrice:  body.PurchasePrice,
			WholesalePrice: body.WholesalePrice,
			MRP:            body.MRP,
			StockQuantity:  body.OpeningStock,
		}

		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  "product",
				EntityID:    p.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("product %s created, opening stock %d", p.Name, p.StockQuantity),
				After:       p,
			})
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// PUT /api/products/:id
func UpdateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		updates := map[string]any{}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name cannot be empty")
			}
			updates["name"] = name
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "unit cannot be empty")
			}
			updates["unit"] = unit
		}
		if body.HSNCode != nil {
			updates["hsn_code"] = strings.TrimSpace(*body.HSNCode)
		}
		if body.TaxRate != nil {
			if err := checkRate(*body.TaxRate); err != nil {
				return err
			}
			updates["tax_rate"] = *body.TaxRate
		}
		prices := []struct {
			column string
			value  *decimal.Decimal
		}{
			{"selling_price", body.SellingPrice},
			{"purchase_price", body.PurchasePrice},
			{"wholesale_price", body.WholesalePrice},
			{"mrp", body.MRP},
		}
		for _, pr := range prices {
			if pr.value == nil {
				continue
			}
			if err := checkMoney(pr.column, *pr.value); err != nil {
				return err
			}
			updates[pr.column] = *pr.value
		}

		var p models.Product
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ? AND user_id = ?", c.Params("id"), userID).First(&p).Error; err != nil {
				return apperr.NotFoundIfMissing(err)
			}
			before := p
			if len(updates) > 0 {
				if err := tx.Model(&p).Updates(updates).Error; err != nil {
					return err
				}
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  "product",
				EntityID:    p.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("product %s updated", p.Name),
				Before:      before,
				After:       p,
			})
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(p)
	}
}

// DELETE /api/products/:id
func DeleteProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var p models.Product
			if err := tx.Where("id = ? AND user_id = ?", c.Params("id"), userID).First(&p).Error; err != nil {
				return apperr.NotFoundIfMissing(err)
			}

			var used int64
			if err := tx.Model(&models.DocumentItem{}).Where("product_id = ?", p.ID).Count(&used).Error; err != nil {
				return err
			}
			if used == 0 {
				if err := tx.Model(&models.StockAdjustment{}).Where("product_id = ?", p.ID).Count(&used).Error; err != nil {
					return err
				}
			}
			if used > 0 {
				return apperr.Validation(fmt.Sprintf("product %s has stock history and cannot be deleted", p.Name))
			}

			if err := tx.Delete(&p).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  "product",
				EntityID:    p.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("product %s deleted", p.Name),
				Before:      p,
			})
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
