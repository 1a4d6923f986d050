package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AverageFilter selects the snapshot population to average over.
// From and To bound the target (stay) date, inclusive.
type AverageFilter struct {
	CityID  uuid.UUID
	Kind    Kind
	Sources []Source
	From    time.Time
	To      time.Time
}

// Repository defines the interface for price snapshot data access
type Repository interface {
	BulkInsert(ctx context.Context, snapshots []*PriceSnapshot) error

	// Average returns the mean price and sample count for the filter.
	// Returns errors.ErrNoBaseline when no snapshots match.
	Average(ctx context.Context, filter AverageFilter) (decimal.Decimal, int, error)

	ListForDate(ctx context.Context, cityID uuid.UUID, kind Kind, targetDate time.Time) ([]*PriceSnapshot, error)

	// DeleteOlderThan prunes stale snapshots and returns the number removed
	DeleteOlderThan(ctx context.Context, collectedBefore time.Time) (int64, error)
}
