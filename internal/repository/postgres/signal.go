package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"prisma/internal/domain/signal"
)

// Compile-time check that we implement the interface
var _ signal.Repository = (*SignalRepository)(nil)

// SignalRepository implements signal.Repository using sqlx
type SignalRepository struct {
	db DBTX
}

// NewSignalRepository creates a new social buzz signal repository
func NewSignalRepository(db DBTX) *SignalRepository {
	return &SignalRepository{db: db}
}

// Upsert inserts a signal or refreshes its impact score when the same
// content was already detected for the city and date
func (r *SignalRepository) Upsert(ctx context.Context, sig *signal.SocialBuzzSignal) error {
	if sig.ID == uuid.Nil {
		sig.ID = uuid.New()
	}

	query := `
		INSERT INTO social_buzz_signals (
			id, city_id, signal_date, content, impact_score, source, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (city_id, signal_date, content)
		DO UPDATE SET impact_score = EXCLUDED.impact_score, source = EXCLUDED.source`

	_, err := r.db.ExecContext(ctx, query,
		sig.ID, sig.CityID, sig.SignalDate, sig.Content, sig.ImpactScore, sig.Source, sig.CreatedAt,
	)

	return err
}

// ListForPeriod retrieves signals for a city whose date falls in [from, to]
func (r *SignalRepository) ListForPeriod(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*signal.SocialBuzzSignal, error) {
	var signals []*signal.SocialBuzzSignal

	query := `
		SELECT id, city_id, signal_date, content, impact_score, source, created_at
		FROM social_buzz_signals
		WHERE city_id = $1 AND signal_date >= $2 AND signal_date <= $3
		ORDER BY impact_score DESC, signal_date`

	if err := r.db.SelectContext(ctx, &signals, query, cityID, from, to); err != nil {
		return nil, err
	}

	return signals, nil
}
