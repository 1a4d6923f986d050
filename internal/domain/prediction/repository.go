package prediction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for demand prediction data access
type Repository interface {
	// UpsertPrediction creates or replaces the prediction for
	// (city_id, prediction_date)
	UpsertPrediction(ctx context.Context, pred *DemandPrediction) error

	// UpsertRecommendation creates or replaces the recommendation for
	// (city_id, recommendation_date)
	UpsertRecommendation(ctx context.Context, rec *PriceRecommendation) error

	CreateAlert(ctx context.Context, alert *Alert) error

	ListPredictions(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*DemandPrediction, error)
	ListRecommendations(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*PriceRecommendation, error)
	ListActiveAlerts(ctx context.Context, cityID uuid.UUID) ([]*Alert, error)
	DeactivateAlertsBefore(ctx context.Context, targetDate time.Time) (int64, error)
}
