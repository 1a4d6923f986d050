package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"prisma/internal/domain/snapshot"
	"prisma/pkg/errors"
)

// Compile-time check that we implement the interface
var _ snapshot.Repository = (*SnapshotRepository)(nil)

// SnapshotRepository implements snapshot.Repository using sqlx
type SnapshotRepository struct {
	db DBTX
}

// NewSnapshotRepository creates a new price snapshot repository
func NewSnapshotRepository(db DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// BulkInsert inserts a batch of snapshots in a single statement
func (r *SnapshotRepository) BulkInsert(ctx context.Context, snapshots []*snapshot.PriceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	query := `
		INSERT INTO price_snapshots (
			id, city_id, source, kind, target_date, price, currency, label, collected_at
		)
		SELECT * FROM unnest(
			$1::uuid[], $2::uuid[], $3::text[], $4::text[], $5::date[],
			$6::numeric[], $7::text[], $8::text[], $9::timestamptz[]
		)`

	ids := make([]uuid.UUID, len(snapshots))
	cityIDs := make([]uuid.UUID, len(snapshots))
	sources := make([]string, len(snapshots))
	kinds := make([]string, len(snapshots))
	dates := make([]time.Time, len(snapshots))
	prices := make([]string, len(snapshots))
	currencies := make([]string, len(snapshots))
	labels := make([]sql.NullString, len(snapshots))
	collected := make([]time.Time, len(snapshots))

	for i, s := range snapshots {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		ids[i] = s.ID
		cityIDs[i] = s.CityID
		sources[i] = s.Source.String()
		kinds[i] = s.Kind.String()
		dates[i] = s.TargetDate
		prices[i] = s.Price.String()
		currencies[i] = s.Currency
		if s.Label != nil {
			labels[i] = sql.NullString{String: *s.Label, Valid: true}
		}
		collected[i] = s.CollectedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(cityIDs), pq.Array(sources), pq.Array(kinds),
		pq.Array(dates), pq.Array(prices), pq.Array(currencies), pq.Array(labels),
		pq.Array(collected),
	)

	return err
}

// Average returns the mean price and sample count for the filter
func (r *SnapshotRepository) Average(ctx context.Context, filter snapshot.AverageFilter) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(AVG(price), 0) AS avg_price, COUNT(*) AS samples
		FROM price_snapshots
		WHERE city_id = $1
		  AND kind = $2
		  AND source = ANY($3)
		  AND target_date >= $4
		  AND target_date <= $5`

	sources := make([]string, len(filter.Sources))
	for i, s := range filter.Sources {
		sources[i] = s.String()
	}

	var row struct {
		AvgPrice decimal.Decimal `db:"avg_price"`
		Samples  int             `db:"samples"`
	}

	err := r.db.GetContext(ctx, &row, query,
		filter.CityID, filter.Kind.String(), pq.Array(sources), filter.From, filter.To,
	)
	if err != nil {
		return decimal.Zero, 0, err
	}

	if row.Samples == 0 {
		return decimal.Zero, 0, errors.Wrapf(errors.ErrNoBaseline,
			"city %s kind %s between %s and %s",
			filter.CityID, filter.Kind, filter.From.Format("2006-01-02"), filter.To.Format("2006-01-02"))
	}

	return row.AvgPrice, row.Samples, nil
}

// ListForDate retrieves all snapshots for a city, kind and stay date
func (r *SnapshotRepository) ListForDate(ctx context.Context, cityID uuid.UUID, kind snapshot.Kind, targetDate time.Time) ([]*snapshot.PriceSnapshot, error) {
	var snapshots []*snapshot.PriceSnapshot

	query := `
		SELECT id, city_id, source, kind, target_date, price, currency, label, collected_at
		FROM price_snapshots
		WHERE city_id = $1 AND kind = $2 AND target_date = $3
		ORDER BY collected_at DESC`

	if err := r.db.SelectContext(ctx, &snapshots, query, cityID, kind.String(), targetDate); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// DeleteOlderThan prunes snapshots collected before the cutoff
func (r *SnapshotRepository) DeleteOlderThan(ctx context.Context, collectedBefore time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM price_snapshots WHERE collected_at < $1`, collectedBefore)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
