package prediction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DemandLevel classifies expected occupancy pressure for a date
type DemandLevel string

const (
	DemandLow      DemandLevel = "low"
	DemandModerate DemandLevel = "moderate"
	DemandHigh     DemandLevel = "high"
	DemandPeak     DemandLevel = "peak"
)

// Valid checks if demand level is valid
func (l DemandLevel) Valid() bool {
	switch l {
	case DemandLow, DemandModerate, DemandHigh, DemandPeak:
		return true
	}
	return false
}

// String returns string representation
func (l DemandLevel) String() string {
	return string(l)
}

// PriceMultiplier returns the market price multiplier applied for the level
func (l DemandLevel) PriceMultiplier() decimal.Decimal {
	switch l {
	case DemandPeak:
		return decimal.NewFromFloat(1.8)
	case DemandHigh:
		return decimal.NewFromFloat(1.4)
	case DemandModerate:
		return decimal.NewFromFloat(1.15)
	default:
		return decimal.NewFromFloat(0.85)
	}
}

// LevelForScore maps a demand score (0-100+) to a level
func LevelForScore(score int) DemandLevel {
	switch {
	case score >= 85:
		return DemandPeak
	case score >= 70:
		return DemandHigh
	case score >= 55:
		return DemandModerate
	default:
		return DemandLow
	}
}

// Factor explains one contribution to a demand score
type Factor struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Impact      float64 `json:"impact"` // 0-10
}

// DemandPrediction is the forecast for one city and date
type DemandPrediction struct {
	ID              uuid.UUID   `db:"id"`
	CityID          uuid.UUID   `db:"city_id"`
	PredictionDate  time.Time   `db:"prediction_date"`
	DemandLevel     DemandLevel `db:"demand_level"`
	Score           int         `db:"score"`
	ConfidenceScore float64     `db:"confidence_score"` // 0-100
	Factors         []Factor    `db:"factors"`          // JSONB
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

// PriceRecommendation is the tariff guidance derived from a prediction
type PriceRecommendation struct {
	ID                 uuid.UUID       `db:"id"`
	CityID             uuid.UUID       `db:"city_id"`
	RecommendationDate time.Time       `db:"recommendation_date"`
	RecommendedPrice   decimal.Decimal `db:"recommended_price"`
	MarketAverage      decimal.Decimal `db:"market_average"`
	Reasoning          string          `db:"reasoning"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

// AlertType classifies alerts shown on the dashboard
type AlertType string

const (
	AlertOpportunity AlertType = "opportunity"
	AlertWarning     AlertType = "warning"
)

// Alert is an actionable notification derived from predictions
type Alert struct {
	ID         uuid.UUID `db:"id"`
	CityID     uuid.UUID `db:"city_id"`
	AlertType  AlertType `db:"alert_type"`
	Title      string    `db:"title"`
	Message    string    `db:"message"`
	TargetDate time.Time `db:"target_date"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
}
