package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"prisma/internal/domain/prediction"
	"prisma/pkg/errors"
)

// Compile-time check that we implement the interface
var _ prediction.Repository = (*PredictionRepository)(nil)

// PredictionRepository implements prediction.Repository using sqlx
type PredictionRepository struct {
	db DBTX
}

// NewPredictionRepository creates a new demand prediction repository
func NewPredictionRepository(db DBTX) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// UpsertPrediction creates or replaces the prediction for (city_id, prediction_date)
func (r *PredictionRepository) UpsertPrediction(ctx context.Context, pred *prediction.DemandPrediction) error {
	if pred.ID == uuid.Nil {
		pred.ID = uuid.New()
	}

	factorsJSON, err := json.Marshal(pred.Factors)
	if err != nil {
		return errors.Wrap(err, "failed to marshal factors")
	}

	query := `
		INSERT INTO demand_predictions (
			id, city_id, prediction_date, demand_level, score,
			confidence_score, factors, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (city_id, prediction_date)
		DO UPDATE SET demand_level = EXCLUDED.demand_level,
					  score = EXCLUDED.score,
					  confidence_score = EXCLUDED.confidence_score,
					  factors = EXCLUDED.factors,
					  updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		pred.ID, pred.CityID, pred.PredictionDate, pred.DemandLevel.String(), pred.Score,
		pred.ConfidenceScore, factorsJSON, pred.CreatedAt, pred.UpdatedAt,
	)

	return err
}

// UpsertRecommendation creates or replaces the recommendation for (city_id, recommendation_date)
func (r *PredictionRepository) UpsertRecommendation(ctx context.Context, rec *prediction.PriceRecommendation) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	query := `
		INSERT INTO price_recommendations (
			id, city_id, recommendation_date, recommended_price,
			market_average, reasoning, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (city_id, recommendation_date)
		DO UPDATE SET recommended_price = EXCLUDED.recommended_price,
					  market_average = EXCLUDED.market_average,
					  reasoning = EXCLUDED.reasoning,
					  updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.CityID, rec.RecommendationDate, rec.RecommendedPrice,
		rec.MarketAverage, rec.Reasoning, rec.CreatedAt, rec.UpdatedAt,
	)

	return err
}

// CreateAlert inserts a new alert
func (r *PredictionRepository) CreateAlert(ctx context.Context, alert *prediction.Alert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}

	query := `
		INSERT INTO alerts (
			id, city_id, alert_type, title, message, target_date, is_active, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID, alert.CityID, string(alert.AlertType), alert.Title, alert.Message,
		alert.TargetDate, alert.IsActive, alert.CreatedAt,
	)

	return err
}

// ListPredictions retrieves predictions for a city in [from, to]
func (r *PredictionRepository) ListPredictions(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*prediction.DemandPrediction, error) {
	query := `
		SELECT id, city_id, prediction_date, demand_level, score,
			   confidence_score, factors, created_at, updated_at
		FROM demand_predictions
		WHERE city_id = $1 AND prediction_date >= $2 AND prediction_date <= $3
		ORDER BY prediction_date`

	rows, err := r.db.QueryContext(ctx, query, cityID, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var predictions []*prediction.DemandPrediction
	for rows.Next() {
		var pred prediction.DemandPrediction
		var factorsJSON []byte

		err := rows.Scan(
			&pred.ID, &pred.CityID, &pred.PredictionDate, &pred.DemandLevel, &pred.Score,
			&pred.ConfidenceScore, &factorsJSON, &pred.CreatedAt, &pred.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if len(factorsJSON) > 0 {
			if err := json.Unmarshal(factorsJSON, &pred.Factors); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal factors")
			}
		}

		predictions = append(predictions, &pred)
	}

	return predictions, rows.Err()
}

// ListRecommendations retrieves price recommendations for a city in [from, to]
func (r *PredictionRepository) ListRecommendations(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*prediction.PriceRecommendation, error) {
	var recs []*prediction.PriceRecommendation

	query := `
		SELECT id, city_id, recommendation_date, recommended_price,
			   market_average, reasoning, created_at, updated_at
		FROM price_recommendations
		WHERE city_id = $1 AND recommendation_date >= $2 AND recommendation_date <= $3
		ORDER BY recommendation_date`

	if err := r.db.SelectContext(ctx, &recs, query, cityID, from, to); err != nil {
		return nil, err
	}

	return recs, nil
}

// ListActiveAlerts retrieves active alerts for a city, newest first
func (r *PredictionRepository) ListActiveAlerts(ctx context.Context, cityID uuid.UUID) ([]*prediction.Alert, error) {
	var alerts []*prediction.Alert

	query := `
		SELECT id, city_id, alert_type, title, message, target_date, is_active, created_at
		FROM alerts
		WHERE city_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &alerts, query, cityID); err != nil {
		return nil, err
	}

	return alerts, nil
}

// DeactivateAlertsBefore deactivates alerts whose target date has passed
func (r *PredictionRepository) DeactivateAlertsBefore(ctx context.Context, targetDate time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET is_active = FALSE WHERE is_active = TRUE AND target_date < $1`, targetDate)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
