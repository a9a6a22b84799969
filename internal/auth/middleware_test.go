package auth

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/config"
	"billing-backend/internal/models"
)

func testApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", JWTMiddleware(cfg), func(c *fiber.Ctx) error {
		id, err := UserID(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user_id": id})
	})
	return app
}

func TestJWTMiddlewareAcceptsIssuedToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: strings.Repeat("k", 32)}
	token, err := GenerateToken(cfg.JWTSecret, &models.User{ID: 42, Email: "owner@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := testApp(cfg).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTMiddlewareRejects(t *testing.T) {
	cfg := &config.Config{JWTSecret: strings.Repeat("k", 32)}
	foreign, err := GenerateToken(strings.Repeat("z", 32), &models.User{ID: 42})
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":    "",
		"wrong scheme":      "Token abc",
		"foreign signature": "Bearer " + foreign,
		"garbage":           "Bearer not-a-jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := testApp(cfg).Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
