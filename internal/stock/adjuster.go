package stock

import (
	"context"
	"fmt"
	"sort"

	"billing-backend/internal/billing"
	"billing-backend/internal/metrics"
)

// Store changes a product's stock counter. Implementations must apply delta
// as a single atomic update on the server, never as read-then-write.
type Store interface {
	Increment(ctx context.Context, userID, productID uint, delta int64) error
}

// Adjuster turns document lines into stock updates.
type Adjuster struct {
	store Store
}

func NewAdjuster(store Store) *Adjuster {
	return &Adjuster{store: store}
}

// Apply moves stock for every product-linked line in direction dir.
func (a *Adjuster) Apply(ctx context.Context, userID uint, dir Direction, lines []billing.Line) error {
	deltas := map[uint]int64{}
	accumulate(deltas, lines, dir.Sign())
	return a.flush(ctx, userID, dir, deltas)
}

// Reverse undoes a previous Apply of the same lines.
func (a *Adjuster) Reverse(ctx context.Context, userID uint, dir Direction, lines []billing.Line) error {
	deltas := map[uint]int64{}
	accumulate(deltas, lines, -dir.Sign())
	return a.flush(ctx, userID, dir, deltas)
}

// Replace reverses every original line and applies the new set. Both halves
// are netted per product, so editing a quantity from Q to Q2 moves stock by
// exactly Q2-Q whatever the current counter holds.
func (a *Adjuster) Replace(ctx context.Context, userID uint, dir Direction, old, updated []billing.Line) error {
	deltas := map[uint]int64{}
	accumulate(deltas, old, -dir.Sign())
	accumulate(deltas, updated, dir.Sign())
	return a.flush(ctx, userID, dir, deltas)
}

func accumulate(deltas map[uint]int64, lines []billing.Line, sign int64) {
	for _, l := range lines {
		if l.ProductID == nil || *l.ProductID == 0 {
			continue
		}
		deltas[*l.ProductID] += sign * l.Quantity
	}
}

// flush issues updates in ascending product id so concurrent transactions
// lock product rows in the same order.
func (a *Adjuster) flush(ctx context.Context, userID uint, dir Direction, deltas map[uint]int64) error {
	ids := make([]uint, 0, len(deltas))
	for id, delta := range deltas {
		if delta != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := a.store.Increment(ctx, userID, id, deltas[id]); err != nil {
			return fmt.Errorf("%s product %d by %d: %w", dir, id, deltas[id], err)
		}
		metrics.StockMovements.WithLabelValues(string(dir)).Inc()
	}
	return nil
}
