package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"prisma/internal/domain/city"
	"prisma/internal/domain/prediction"
	"prisma/internal/domain/report"
	"prisma/internal/services/analysis"
	"prisma/internal/services/chat"
	"prisma/pkg/errors"
)

const (
	dateLayout = "2006-01-02"

	// defaultListHorizon bounds prediction/recommendation listings when
	// the caller does not pass a range
	defaultListHorizon = 90 * 24 * time.Hour
)

// AnalysisRunner runs full and single-day market analyses.
type AnalysisRunner interface {
	Run(ctx context.Context, req analysis.RunRequest) (*analysis.RunResult, error)
	RunDay(ctx context.Context, userID, cityID uuid.UUID, date time.Time) (*analysis.RunResult, error)
}

// ChatAssistant answers a user question grounded on stored city data.
type ChatAssistant interface {
	Ask(ctx context.Context, cityID uuid.UUID, userQuery string) (*chat.Answer, error)
}

// Handlers exposes the dashboard API over the domain services.
type Handlers struct {
	analysis    AnalysisRunner
	chat        ChatAssistant
	cities      city.Repository
	predictions prediction.Repository
	reports     report.Repository
}

// NewHandlers creates the API handler set
func NewHandlers(
	analysisSvc AnalysisRunner,
	chatSvc ChatAssistant,
	cities city.Repository,
	predictions prediction.Repository,
	reports report.Repository,
) *Handlers {
	return &Handlers{
		analysis:    analysisSvc,
		chat:        chatSvc,
		cities:      cities,
		predictions: predictions,
		reports:     reports,
	}
}

// Register attaches all API routes to the mux
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analysis/run", h.handleAnalysisRun)
	mux.HandleFunc("POST /api/analysis/day", h.handleAnalysisDay)
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("GET /api/cities", h.handleListCities)
	mux.HandleFunc("GET /api/cities/{id}/predictions", h.handleListPredictions)
	mux.HandleFunc("GET /api/cities/{id}/recommendations", h.handleListRecommendations)
	mux.HandleFunc("GET /api/cities/{id}/alerts", h.handleListAlerts)
	mux.HandleFunc("GET /api/cities/{id}/reports/latest", h.handleLatestReport)
}

type analysisRunRequest struct {
	CityID    string `json:"cityId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	UserID    string `json:"userId"`
}

func (h *Handlers) handleAnalysisRun(w http.ResponseWriter, r *http.Request) {
	var body analysisRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewValidationError("body", "must be valid JSON"))
		return
	}

	cityID, err := parseUUIDField("cityId", body.CityID)
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := parseUUIDField("userId", body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	start, err := parseDateField("startDate", body.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseDateField("endDate", body.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.analysis.Run(r.Context(), analysis.RunRequest{
		UserID:    userID,
		CityID:    cityID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type analysisDayRequest struct {
	CityID string `json:"cityId"`
	Date   string `json:"date"`
	UserID string `json:"userId"`
}

func (h *Handlers) handleAnalysisDay(w http.ResponseWriter, r *http.Request) {
	var body analysisDayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewValidationError("body", "must be valid JSON"))
		return
	}

	cityID, err := parseUUIDField("cityId", body.CityID)
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := parseUUIDField("userId", body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDateField("date", body.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.analysis.RunDay(r.Context(), userID, cityID, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type chatRequest struct {
	CityID    string `json:"cityId"`
	UserQuery string `json:"userQuery"`
}

func (h *Handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewValidationError("body", "must be valid JSON"))
		return
	}

	cityID, err := parseUUIDField("cityId", body.CityID)
	if err != nil {
		writeError(w, err)
		return
	}

	answer, err := h.chat.Ask(r.Context(), cityID, body.UserQuery)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

type cityResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	State         string    `json:"state"`
	Slug          string    `json:"slug"`
	OriginAirport string    `json:"origin_airport"`
	BasePrice     float64   `json:"base_price"`
}

func (h *Handlers) handleListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.cities.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]cityResponse, 0, len(cities))
	for _, c := range cities {
		out = append(out, cityResponse{
			ID:            c.ID,
			Name:          c.Name,
			State:         c.State,
			Slug:          c.Slug,
			OriginAirport: c.OriginAirport,
			BasePrice:     c.BasePrice,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type predictionResponse struct {
	PredictionDate  string              `json:"prediction_date"`
	DemandLevel     string              `json:"demand_level"`
	Score           int                 `json:"score"`
	ConfidenceScore float64             `json:"confidence_score"`
	Factors         []prediction.Factor `json:"factors"`
}

func (h *Handlers) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	cityID, err := parseUUIDField("id", r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	from, to, err := listRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	preds, err := h.predictions.ListPredictions(r.Context(), cityID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]predictionResponse, 0, len(preds))
	for _, p := range preds {
		out = append(out, predictionResponse{
			PredictionDate:  p.PredictionDate.Format(dateLayout),
			DemandLevel:     p.DemandLevel.String(),
			Score:           p.Score,
			ConfidenceScore: p.ConfidenceScore,
			Factors:         p.Factors,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type recommendationResponse struct {
	RecommendationDate string `json:"recommendation_date"`
	RecommendedPrice   string `json:"recommended_price"`
	MarketAverage      string `json:"market_average"`
	Reasoning          string `json:"reasoning"`
}

func (h *Handlers) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	cityID, err := parseUUIDField("id", r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	from, to, err := listRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	recs, err := h.predictions.ListRecommendations(r.Context(), cityID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]recommendationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recommendationResponse{
			RecommendationDate: rec.RecommendationDate.Format(dateLayout),
			RecommendedPrice:   rec.RecommendedPrice.StringFixed(2),
			MarketAverage:      rec.MarketAverage.StringFixed(2),
			Reasoning:          rec.Reasoning,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type alertResponse struct {
	ID         uuid.UUID `json:"id"`
	AlertType  string    `json:"alert_type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	TargetDate string    `json:"target_date"`
}

func (h *Handlers) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	cityID, err := parseUUIDField("id", r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	alerts, err := h.predictions.ListActiveAlerts(r.Context(), cityID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{
			ID:         a.ID,
			AlertType:  string(a.AlertType),
			Title:      a.Title,
			Message:    a.Message,
			TargetDate: a.TargetDate.Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type reportResponse struct {
	ID             uuid.UUID             `json:"id"`
	StartDate      string                `json:"start_date"`
	EndDate        string                `json:"end_date"`
	ReportMarkdown string                `json:"report_markdown"`
	StructuredData report.StructuredData `json:"structured_data"`
	CreatedAt      time.Time             `json:"created_at"`
}

func (h *Handlers) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	cityID, err := parseUUIDField("id", r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.reports.LatestByCity(r.Context(), cityID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{
		ID:             rep.ID,
		StartDate:      rep.StartDate.Format(dateLayout),
		EndDate:        rep.EndDate.Format(dateLayout),
		ReportMarkdown: rep.ReportMarkdown,
		StructuredData: rep.StructuredData,
		CreatedAt:      rep.CreatedAt,
	})
}

func parseUUIDField(name, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, errors.NewValidationError(name, "is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.NewValidationError(name, "must be a valid UUID")
	}
	return id, nil
}

func parseDateField(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.NewValidationError(name, "is required")
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.NewValidationError(name, "must be formatted YYYY-MM-DD")
	}
	return t, nil
}

// listRange reads the optional from/to query params, defaulting to the
// next 90 days
func listRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().Truncate(24 * time.Hour)
	from := now
	to := now.Add(defaultListHorizon)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := parseDateField("from", v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := parseDateField("to", v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.NewValidationError("to", "must not be before from")
	}
	return from, to, nil
}
