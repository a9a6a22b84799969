package documents

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"billing-backend/internal/apperr"
	"billing-backend/internal/auth"
	"billing-backend/internal/billing"
)

var validate = validator.New()

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func parseSaveRequest(c *fiber.Ctx) (SaveRequest, error) {
	var body SaveRequest
	if err := c.BodyParser(&body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return body, nil
}

func queryDate(c *fiber.Ctx, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, key+" must be YYYY-MM-DD")
	}
	return d, nil
}

// GET /api/<kind>?from=2025-01-01&to=2025-01-31&party_id=3&status=unpaid&q=INV
func ListDocumentsHandler(svc *Service, kind billing.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		from, err := queryDate(c, "from")
		if err != nil {
			return err
		}
		to, err := queryDate(c, "to")
		if err != nil {
			return err
		}

		docs, err := svc.List(c.UserContext(), userID, kind, ListFilter{
			From:    from,
			To:      to,
			PartyID: uint(c.QueryInt("party_id", 0)),
			Status:  c.Query("status"),
			Search:  c.Query("q"),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(docs)
	}
}

// GET /api/<kind>/:id
func GetDocumentHandler(svc *Service, kind billing.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		doc, err := svc.Get(c.UserContext(), userID, kind, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(doc)
	}
}

// POST /api/<kind>
func CreateDocumentHandler(svc *Service, kind billing.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		body, err := parseSaveRequest(c)
		if err != nil {
			return err
		}

		doc, err := svc.Create(c.UserContext(), userID, kind, body)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// PUT /api/<kind>/:id
func UpdateDocumentHandler(svc *Service, kind billing.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}
		body, err := parseSaveRequest(c)
		if err != nil {
			return err
		}

		doc, err := svc.Update(c.UserContext(), userID, kind, id, body)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(doc)
	}
}

// DELETE /api/<kind>/:id
func DeleteDocumentHandler(svc *Service, kind billing.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		if err := svc.Delete(c.UserContext(), userID, kind, id); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/<kind>/next-number?date=2025-01-31
func NextNumberHandler(svc *Service, kind billing.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		date, err := queryDate(c, "date")
		if err != nil {
			return err
		}
		if date.IsZero() {
			date = time.Now()
		}

		number, err := svc.NextNumber(c.UserContext(), userID, kind, date)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"number": number})
	}
}

// POST /api/quotations/:id/convert, /api/delivery-challans/:id/convert
func ConvertDocumentHandler(svc *Service, from billing.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body ConvertRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
			if err := validate.Struct(body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}

		doc, err := svc.Convert(c.UserContext(), userID, from, id, body)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// Register mounts the CRUD routes of every document kind except POS sales,
// which are created through checkout.
func Register(r fiber.Router, svc *Service) {
	for _, kind := range billing.Kinds() {
		if kind == billing.KindPOSSale {
			continue
		}
		p := billing.MustProfile(kind)
		g := r.Group("/" + p.Route)

		g.Get("/", ListDocumentsHandler(svc, kind))
		g.Post("/", CreateDocumentHandler(svc, kind))
		g.Get("/next-number", NextNumberHandler(svc, kind))
		g.Get("/:id", GetDocumentHandler(svc, kind))
		g.Put("/:id", UpdateDocumentHandler(svc, kind))
		g.Delete("/:id", DeleteDocumentHandler(svc, kind))

		if _, ok := conversions[kind]; ok {
			g.Post("/:id/convert", ConvertDocumentHandler(svc, kind))
		}
	}
}
