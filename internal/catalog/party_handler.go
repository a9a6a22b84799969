package catalog

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"billing-backend/internal/apperr"
	"billing-backend/internal/audit"
	"billing-backend/internal/auth"
	"billing-backend/internal/billing"
	"billing-backend/internal/models"
)

type CreatePartyRequest struct {
	Type    billing.PartyRole `json:"type" validate:"required,oneof=customer supplier"`
	Name    string            `json:"name" validate:"required,max=150"`
	Phone   string            `json:"phone" validate:"max=30"`
	Email   string            `json:"email" validate:"omitempty,email,max=100"`
	GSTIN   string            `json:"gstin" validate:"omitempty,len=15,alphanum"`
	Address string            `json:"address" validate:"max=255"`
}

type UpdatePartyRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=150"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Email   *string `json:"email" validate:"omitempty,email,max=100"`
	GSTIN   *string `json:"gstin" validate:"omitempty,len=15,alphanum"`
	Address *string `json:"address" validate:"omitempty,max=255"`
}

// GET /api/parties?type=customer&q=acme
func ListPartiesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		t := c.Query("type")
		if t != "" && t != string(billing.PartyCustomer) && t != string(billing.PartySupplier) {
			return fiber.NewError(fiber.StatusBadRequest, "type must be customer or supplier")
		}

		dbq := db.WithContext(c.UserContext()).Where("user_id = ?", userID)
		if t != "" {
			dbq = dbq.Where("type = ?", t)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name ILIKE ? OR phone ILIKE ?", "%"+q+"%", "%"+q+"%")
		}

		var parties []models.Party
		if err := dbq.Order("name asc").Find(&parties).Error; err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(parties)
	}
}

// GET /api/parties/:id
func GetPartyHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var p models.Party
		if err := db.WithContext(c.UserContext()).
			Where("id = ? AND user_id = ?", c.Params("id"), userID).
			First(&p).Error; err != nil {
			return apperr.ToFiber(apperr.NotFoundIfMissing(err))
		}
		return c.JSON(p)
	}
}

// POST /api/parties
func CreatePartyHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreatePartyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.GSTIN = strings.ToUpper(strings.TrimSpace(body.GSTIN))
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		party := models.Party{
			UserID:  userID,
			Type:    body.Type,
			Name:    body.Name,
			Phone:   strings.TrimSpace(body.Phone),
			Email:   strings.TrimSpace(body.Email),
			GSTIN:   body.GSTIN,
			Address: strings.TrimSpace(body.Address),
		}

		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&party).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  "party",
				EntityID:    party.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("%s %s created", party.Type, party.Name),
				After:       party,
			})
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(party)
	}
}

// PUT /api/parties/:id
func UpdatePartyHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body UpdatePartyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.GSTIN != nil {
			g := strings.ToUpper(strings.TrimSpace(*body.GSTIN))
			body.GSTIN = &g
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var party models.Party
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ? AND user_id = ?", c.Params("id"), userID).First(&party).Error; err != nil {
				return apperr.NotFoundIfMissing(err)
			}
			before := party

			if body.Name != nil {
				name := strings.TrimSpace(*body.Name)
				if name == "" {
					return apperr.Validation("name cannot be empty")
				}
				party.Name = name
			}
			if body.Phone != nil {
				party.Phone = strings.TrimSpace(*body.Phone)
			}
			if body.Email != nil {
				party.Email = strings.TrimSpace(*body.Email)
			}
			if body.GSTIN != nil {
				party.GSTIN = *body.GSTIN
			}
			if body.Address != nil {
				party.Address = strings.TrimSpace(*body.Address)
			}

			if err := tx.Save(&party).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  "party",
				EntityID:    party.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("%s %s updated", party.Type, party.Name),
				Before:      before,
				After:       party,
			})
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(party)
	}
}

// DELETE /api/parties/:id
func DeletePartyHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var party models.Party
			if err := tx.Where("id = ? AND user_id = ?", c.Params("id"), userID).First(&party).Error; err != nil {
				return apperr.NotFoundIfMissing(err)
			}

			var docs int64
			if err := tx.Model(&models.Document{}).Where("party_id = ?", party.ID).Count(&docs).Error; err != nil {
				return err
			}
			if docs > 0 {
				return apperr.Validation(fmt.Sprintf("%s is used on %d document(s)", party.Name, docs))
			}

			if err := tx.Delete(&party).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      userID,
				EntityType:  "party",
				EntityID:    party.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("%s %s deleted", party.Type, party.Name),
				Before:      party,
			})
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
