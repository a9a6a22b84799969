package numbering

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/apperr"
	"billing-backend/internal/billing"
)

// seriesStub serves LastNumber from memory; issued grows as saves succeed.
type seriesStub struct {
	issued []string
}

func (s *seriesStub) generator() *Generator {
	g := NewGenerator(nil, nil, 0)
	g.last = func(_ context.Context, _ uint, _ billing.Kind, prefix string) (string, error) {
		if len(s.issued) == 0 {
			return "", nil
		}
		return s.issued[len(s.issued)-1], nil
	}
	return g
}

var jan = time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

func TestAllocateRetriesAfterLostNumber(t *testing.T) {
	series := &seriesStub{issued: []string{"INV-202501-004"}}
	g := series.generator()

	var tried []string
	err := g.Allocate(context.Background(), 1, billing.KindInvoice, jan, func(number string) error {
		tried = append(tried, number)
		if len(tried) == 1 {
			// a concurrent save committed this number first
			series.issued = append(series.issued, number)
			return fmt.Errorf("invoice %s: %w", number, apperr.ErrDuplicateNumber)
		}
		series.issued = append(series.issued, number)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"INV-202501-005", "INV-202501-006"}, tried)
}

func TestAllocateGivesUpAfterSecondDuplicate(t *testing.T) {
	g := (&seriesStub{}).generator()

	calls := 0
	err := g.Allocate(context.Background(), 1, billing.KindPurchase, jan, func(number string) error {
		calls++
		return fmt.Errorf("purchase %s: %w", number, apperr.ErrDuplicateNumber)
	})

	assert.ErrorIs(t, err, apperr.ErrDuplicateNumber)
	assert.Equal(t, allocateAttempts, calls)
}

func TestAllocateDoesNotRetryOtherErrors(t *testing.T) {
	g := (&seriesStub{}).generator()

	calls := 0
	err := g.Allocate(context.Background(), 1, billing.KindPurchase, jan, func(string) error {
		calls++
		return apperr.ErrInsufficientStock
	})

	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 1, calls)
}

func TestSuggestUnknownKind(t *testing.T) {
	_, err := (&seriesStub{}).generator().Suggest(context.Background(), 1, billing.Kind("receipt"), jan)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
