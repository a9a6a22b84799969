package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/apperr"
	"billing-backend/internal/billing"
	"billing-backend/internal/documents"
	"billing-backend/internal/models"
	"billing-backend/internal/numbering"
	"billing-backend/internal/stock"
	"billing-backend/internal/testdb"
)

func TestReconstructFromSavedDocuments(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	userID := testdb.User(t, db, "owner@example.com")
	customer := testdb.Party(t, db, userID, billing.PartyCustomer, "Sharma Traders")
	supplier := testdb.Party(t, db, userID, billing.PartySupplier, "Delta Wires")
	cable := testdb.Product(t, db, userID, "Copper Cable", 0)

	docs := documents.NewService(db, numbering.NewGenerator(db, nil, 0), documents.Options{AllowNegativeStock: true, InvoiceDeductsStock: true})
	save := func(kind billing.Kind, date string, party uint, qty int64) *models.Document {
		t.Helper()
		doc, err := docs.Create(ctx, userID, kind, documents.SaveRequest{
			Date:    date,
			PartyID: &party,
			Items:   []documents.LineRequest{{ProductID: &cable.ID, Quantity: qty}},
		})
		require.NoError(t, err)
		return doc
	}

	purchase := save(billing.KindPurchase, "2025-03-01", supplier.ID, 10)
	save(billing.KindInvoice, "2025-03-02", customer.ID, 3)
	save(billing.KindSalesReturn, "2025-03-03", customer.ID, 1)
	// quotations never move stock and are not listed
	save(billing.KindQuotation, "2025-03-03", customer.ID, 50)

	rep, err := NewService(db, true).Reconstruct(ctx, userID, cable.ID)
	require.NoError(t, err)

	assert.Equal(t, []int64{8, 7, 10}, balances(rep.Entries))
	assert.Equal(t, "sales_return", rep.Entries[0].Kind)
	assert.Equal(t, "Sharma Traders", rep.Entries[0].PartyName)
	assert.Equal(t, fmt.Sprintf("/purchases/%d", purchase.ID), rep.Entries[2].Link)
	assert.Equal(t, int64(8), rep.ClosingBalance)
	assert.Equal(t, int64(8), rep.CurrentStock)
	assert.Zero(t, rep.Drift)

	_, err = stock.NewAdjustments(db, true).Create(ctx, userID, stock.CreateAdjustmentRequest{
		ProductID: cable.ID, Type: models.AdjustmentReduce, Quantity: 2, Reason: "damaged", Date: "2025-03-04",
	})
	require.NoError(t, err)

	rep, err = NewService(db, true).Reconstruct(ctx, userID, cable.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{6, 8, 7, 10}, balances(rep.Entries))
	assert.Equal(t, "Stock reduced: damaged", rep.Entries[0].Label)
	assert.Zero(t, rep.Drift)
}

func TestReconstructWithoutInvoiceMovement(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	userID := testdb.User(t, db, "owner@example.com")
	customer := testdb.Party(t, db, userID, billing.PartyCustomer, "Walk-in")
	bulb := testdb.Product(t, db, userID, "LED Bulb", 5)

	docs := documents.NewService(db, numbering.NewGenerator(db, nil, 0), documents.Options{AllowNegativeStock: true})
	_, err := docs.Create(ctx, userID, billing.KindInvoice, documents.SaveRequest{
		PartyID: &customer.ID,
		Items:   []documents.LineRequest{{ProductID: &bulb.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	rep, err := NewService(db, false).Reconstruct(ctx, userID, bulb.ID)
	require.NoError(t, err)
	assert.Empty(t, rep.Entries)
	// opening stock typed on the product is not a movement
	assert.Equal(t, int64(5), rep.CurrentStock)
	assert.Equal(t, int64(5), rep.Drift)
}

func TestReconstructOtherUsersProduct(t *testing.T) {
	db := testdb.Open(t)
	owner := testdb.User(t, db, "owner@example.com")
	other := testdb.User(t, db, "other@example.com")
	p := testdb.Product(t, db, owner, "Fan", 1)

	_, err := NewService(db, true).Reconstruct(context.Background(), other, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
