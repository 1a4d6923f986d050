package analyst

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prisma/internal/domain/snapshot"
)

// BaselineReader answers "what did this period cost when we measured it at
// the start of the month" from the stored baseline snapshots.
type BaselineReader struct {
	snapshots snapshot.Repository
	kind      snapshot.Kind
	window    time.Duration
}

func NewBaselineReader(snapshots snapshot.Repository, kind snapshot.Kind, window time.Duration) *BaselineReader {
	if kind == "" {
		kind = snapshot.KindBaseline
	}
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &BaselineReader{snapshots: snapshots, kind: kind, window: window}
}

var hotelSources = []snapshot.Source{
	snapshot.SourceBookingScrape,
	snapshot.SourceGoogleHotels,
	snapshot.SourceBookingAPI,
}

// CompetitorAverage returns the baseline hotel price around the target date.
func (r *BaselineReader) CompetitorAverage(ctx context.Context, cityID uuid.UUID, target time.Time) (decimal.Decimal, int, error) {
	avg, n, err := r.snapshots.Average(ctx, snapshot.AverageFilter{
		CityID:  cityID,
		Kind:    r.kind,
		Sources: hotelSources,
		From:    target.Add(-r.window / 2),
		To:      target.Add(r.window / 2),
	})
	return avg, n, err
}

// FlightAverage returns the baseline fare into the city around the target date.
func (r *BaselineReader) FlightAverage(ctx context.Context, cityID uuid.UUID, target time.Time) (decimal.Decimal, int, error) {
	avg, n, err := r.snapshots.Average(ctx, snapshot.AverageFilter{
		CityID:  cityID,
		Kind:    r.kind,
		Sources: []snapshot.Source{snapshot.SourceGoogleFlights},
		From:    target.Add(-r.window / 2),
		To:      target.Add(r.window / 2),
	})
	return avg, n, err
}
