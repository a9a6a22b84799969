package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"gorm.io/gorm"

	"billing-backend/internal/apperr"
	"billing-backend/internal/billing"
	"billing-backend/internal/logging"
	"billing-backend/internal/metrics"
	"billing-backend/internal/models"
)

// allocateAttempts bounds how often Allocate re-suggests after a save lost
// the number to a concurrent one.
const allocateAttempts = 2

type lastNumberFunc func(ctx context.Context, userID uint, kind billing.Kind, prefix string) (string, error)

type Generator struct {
	locker *redislock.Client
	ttl    time.Duration
	last   lastNumberFunc
}

// NewGenerator accepts a nil locker; allocation then relies on the unique
// index and one retry.
func NewGenerator(db *gorm.DB, locker *redislock.Client, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Generator{
		locker: locker,
		ttl:    ttl,
		last: func(ctx context.Context, userID uint, kind billing.Kind, prefix string) (string, error) {
			return LastNumber(ctx, db, userID, kind, prefix)
		},
	}
}

// LastNumber returns the most recently issued number that starts with prefix,
// or "" when the series is empty.
func LastNumber(ctx context.Context, db *gorm.DB, userID uint, kind billing.Kind, prefix string) (string, error) {
	var numbers []string
	err := db.WithContext(ctx).
		Model(&models.Document{}).
		Where("user_id = ? AND kind = ? AND number LIKE ?", userID, kind, prefix+"%").
		Order("created_at DESC, id DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("last %s number: %w", kind, err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// Suggest returns the next number for kind in the period containing date.
func (g *Generator) Suggest(ctx context.Context, userID uint, kind billing.Kind, date time.Time) (string, error) {
	p, ok := billing.ProfileOf(kind)
	if !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown document kind %q", kind))
	}
	prefix := Prefix(p.Series, date)
	last, err := g.last(ctx, userID, kind, prefix)
	if err != nil {
		return "", err
	}
	return Next(prefix, last, p.Series.Width), nil
}

// Allocate suggests a number and runs save with it while holding the series
// lock, so two concurrent saves on one series do not pick the same number.
// Without the lock both may get the same suggestion; the save that hits
// apperr.ErrDuplicateNumber is retried with a fresh one.
func (g *Generator) Allocate(ctx context.Context, userID uint, kind billing.Kind, date time.Time, save func(number string) error) error {
	p, ok := billing.ProfileOf(kind)
	if !ok {
		return apperr.Validation(fmt.Sprintf("unknown document kind %q", kind))
	}

	if g.locker != nil {
		key := fmt.Sprintf("docnum:%d:%s", userID, Prefix(p.Series, date))
		start := time.Now()
		lock, err := g.locker.Obtain(ctx, key, g.ttl, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(g.ttl/(50*time.Millisecond))),
		})
		metrics.NumberLockWaits.Observe(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("obtain number lock %s: %w", key, err)
		}
		defer func() { _ = lock.Release(context.Background()) }()
	}

	for attempt := 1; ; attempt++ {
		number, err := g.Suggest(ctx, userID, kind, date)
		if err != nil {
			return err
		}
		err = save(number)
		if attempt < allocateAttempts && errors.Is(err, apperr.ErrDuplicateNumber) {
			logging.GetLogger().WithField("number", number).Warn("allocated document number taken, retrying")
			continue
		}
		return err
	}
}
