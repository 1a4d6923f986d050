package signal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for social buzz signal data access
type Repository interface {
	// Upsert inserts a signal, updating impact score on
	// (city_id, signal_date, content) conflict
	Upsert(ctx context.Context, sig *SocialBuzzSignal) error

	ListForPeriod(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*SocialBuzzSignal, error)
}
