package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"billing-backend/internal/apperr"
	"billing-backend/internal/models"
)

func TestCreateAdjustmentValidatesBeforeTouchingStorage(t *testing.T) {
	// nil db: any query would panic, so these must fail first
	svc := NewAdjustments(nil, true)
	ctx := context.Background()

	cases := map[string]CreateAdjustmentRequest{
		"missing product": {Type: models.AdjustmentAdd, Quantity: 1},
		"bad type":        {ProductID: 1, Type: "move", Quantity: 1},
		"zero quantity":   {ProductID: 1, Type: models.AdjustmentReduce},
		"bad date":        {ProductID: 1, Type: models.AdjustmentAdd, Quantity: 1, Date: "31/01/2025"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestAdjustmentDirection(t *testing.T) {
	assert.Equal(t, ManualAdd, adjustmentDirection(models.AdjustmentAdd))
	assert.Equal(t, ManualReduce, adjustmentDirection(models.AdjustmentReduce))
}
