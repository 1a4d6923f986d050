package report

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for analysis report data access.
// Reports are append-only; every run produces a new row.
type Repository interface {
	Create(ctx context.Context, rep *MarketAnalysisReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*MarketAnalysisReport, error)
	LatestByCity(ctx context.Context, cityID uuid.UUID) (*MarketAnalysisReport, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*MarketAnalysisReport, error)
}
