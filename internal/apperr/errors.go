// Package apperr holds the error taxonomy shared by the services and its
// mapping onto HTTP errors.
package apperr

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"billing-backend/internal/logging"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateNumber   = errors.New("document number already used")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrChargeNotAllowed  = errors.New("charge not allowed for this document type")
	ErrOverpayment       = errors.New("payment exceeds outstanding amount")
)

// Validation wraps ErrValidation with a message meant for the user.
func Validation(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }

// NotFoundIfMissing turns gorm's record-not-found into ErrNotFound.
func NotFoundIfMissing(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// IsUniqueViolation reports a unique constraint failure from Postgres.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLSTATE 23505 when gorm's TranslateError is off
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}

// ToFiber maps service errors onto fiber errors. Unknown errors are logged
// and hidden behind a generic 500.
func ToFiber(err error) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrChargeNotAllowed):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateNumber):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrOverpayment):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	logging.LogError("apperr", "ToFiber", "unmapped error", nil, err)
	return fiber.NewError(fiber.StatusInternalServerError, "operation failed")
}
