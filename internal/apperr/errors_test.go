package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestToFiberStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", Validation("at least one line item is required"), fiber.StatusBadRequest},
		{"charge", fmt.Errorf("discount: %w", ErrChargeNotAllowed), fiber.StatusBadRequest},
		{"not found", fmt.Errorf("load invoice: %w", ErrNotFound), fiber.StatusNotFound},
		{"duplicate", ErrDuplicateNumber, fiber.StatusConflict},
		{"stock", ErrInsufficientStock, fiber.StatusConflict},
		{"overpayment", ErrOverpayment, fiber.StatusUnprocessableEntity},
		{"unknown", errors.New("connection reset"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var fe *fiber.Error
			require.ErrorAs(t, ToFiber(tc.err), &fe)
			assert.Equal(t, tc.status, fe.Code)
		})
	}
}

func TestValidationKeepsMessage(t *testing.T) {
	err := Validation("party is required")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "party is required", err.Error())
}

func TestNotFoundIfMissing(t *testing.T) {
	assert.ErrorIs(t, NotFoundIfMissing(gorm.ErrRecordNotFound), ErrNotFound)
	other := errors.New("boom")
	assert.Equal(t, other, NotFoundIfMissing(other))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_documents_number" (SQLSTATE 23505)`)))
	assert.False(t, IsUniqueViolation(errors.New("timeout")))
	assert.False(t, IsUniqueViolation(nil))
}
