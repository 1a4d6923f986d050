package report

import (
	"time"

	"github.com/google/uuid"
)

// MarketAnalysisReport is a persisted analysis run
type MarketAnalysisReport struct {
	ID     uuid.UUID `db:"id"`
	UserID uuid.UUID `db:"user_id"`
	CityID uuid.UUID `db:"city_id"`

	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`

	ReportMarkdown string `db:"report_markdown"`

	// StructuredData is stored as JSONB
	StructuredData StructuredData `db:"structured_data"`

	CreatedAt time.Time `db:"created_at"`
}

// StructuredData is the machine-readable companion of the markdown report
type StructuredData struct {
	City                  string             `json:"city"`
	Period                Period             `json:"period"`
	AvgCompetitorRealtime float64            `json:"avg_competitor_realtime"`
	AvgCompetitorBaseline float64            `json:"avg_competitor_baseline"`
	AvgFlightRealtime     float64            `json:"avg_flight_realtime"`
	AvgFlightBaseline     float64            `json:"avg_flight_baseline"`
	TopEvents             []Event            `json:"top_events"`
	SocialBuzzSignals     []SocialBuzzSignal `json:"social_buzz_signals"`
	TopNews               []NewsArticle      `json:"top_news"`
}

// Period is the analysis date range, YYYY-MM-DD
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Event is a detected event relevant to the period
type Event struct {
	Title string `json:"title"`
}

// SocialBuzzSignal is the report-level view of a demand signal
type SocialBuzzSignal struct {
	Content     string   `json:"content"`
	ImpactScore *float64 `json:"impact_score,omitempty"`
	Source      string   `json:"source"`
}

// NewsArticle is a headline included in the report context
type NewsArticle struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}
