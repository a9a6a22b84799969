package documents

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/auth"
)

// newTestApp mounts the document routes on a service without a database.
// Any request that got past validation would panic on the nil handle.
func newTestApp() *fiber.App {
	app := fiber.New()
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		return c.Next()
	})
	Register(api, NewService(nil, nil, Options{InvoiceDeductsStock: true}))
	return app
}

func post(t *testing.T, app *fiber.App, path string, body any) (int, string) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	msg, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(msg)
}

func TestCreateRejectedBeforePersistence(t *testing.T) {
	app := newTestApp()

	cases := []struct {
		name string
		path string
		body map[string]any
	}{
		{"invoice without party", "/api/invoices", map[string]any{
			"items": []map[string]any{{"product_id": 1, "quantity": 1}},
		}},
		{"purchase without items", "/api/purchases", map[string]any{
			"party_id": 2,
		}},
		{"return with a discount", "/api/sales-returns", map[string]any{
			"party_id": 2,
			"discount": "10",
			"items":    []map[string]any{{"name": "Widget", "quantity": 1, "unit_price": "10"}},
		}},
		{"quotation with negative quantity", "/api/quotations", map[string]any{
			"party_id": 2,
			"items":    []map[string]any{{"name": "Widget", "quantity": -1, "unit_price": "10"}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := post(t, app, tc.path, tc.body)
			assert.Equal(t, fiber.StatusBadRequest, status)
		})
	}
}

func TestBadJSON(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodPost, "/api/invoices", bytes.NewReader([]byte("{")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := newTestApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInvalidID(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodGet, "/api/invoices/abc", nil)
	resp, err := newTestApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPOSHasNoDocumentRoutes(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodGet, "/api/pos/sales/1", nil)
	resp, err := newTestApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
