package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prisma/internal/adapters/ai"
	"prisma/internal/adapters/config"
	"prisma/internal/domain/city"
	"prisma/internal/domain/prediction"
	"prisma/pkg/errors"
)

type stubCityRepo struct {
	city *city.City
}

func (s *stubCityRepo) Create(ctx context.Context, c *city.City) error { return nil }

func (s *stubCityRepo) GetByID(ctx context.Context, id uuid.UUID) (*city.City, error) {
	if s.city == nil || s.city.ID != id {
		return nil, errors.Wrapf(errors.ErrCityNotFound, "%s", id)
	}
	return s.city, nil
}

func (s *stubCityRepo) GetBySlug(ctx context.Context, slug string) (*city.City, error) {
	return s.city, nil
}

func (s *stubCityRepo) ListActive(ctx context.Context) ([]*city.City, error) {
	return []*city.City{s.city}, nil
}

type stubPredictionRepo struct {
	predictions []*prediction.DemandPrediction
	alerts      []*prediction.Alert
}

func (s *stubPredictionRepo) UpsertPrediction(ctx context.Context, pred *prediction.DemandPrediction) error {
	return nil
}

func (s *stubPredictionRepo) UpsertRecommendation(ctx context.Context, rec *prediction.PriceRecommendation) error {
	return nil
}

func (s *stubPredictionRepo) CreateAlert(ctx context.Context, alert *prediction.Alert) error {
	return nil
}

func (s *stubPredictionRepo) ListPredictions(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*prediction.DemandPrediction, error) {
	return s.predictions, nil
}

func (s *stubPredictionRepo) ListRecommendations(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*prediction.PriceRecommendation, error) {
	return nil, nil
}

func (s *stubPredictionRepo) ListActiveAlerts(ctx context.Context, cityID uuid.UUID) ([]*prediction.Alert, error) {
	return s.alerts, nil
}

func (s *stubPredictionRepo) DeactivateAlertsBefore(ctx context.Context, targetDate time.Time) (int64, error) {
	return 0, nil
}

type answeringProvider struct {
	reply    string
	requests []ai.ChatRequest
}

func (p *answeringProvider) Name() string { return "stub" }

func (p *answeringProvider) GetModel(ctx context.Context, model string) (ai.ModelInfo, error) {
	return ai.ModelInfo{Name: model}, nil
}

func (p *answeringProvider) ListModels(ctx context.Context) ([]ai.ModelInfo, error) { return nil, nil }

func (p *answeringProvider) SupportsTools() bool { return true }

func (p *answeringProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.requests = append(p.requests, req)
	return &ai.ChatResponse{Choices: []ai.Choice{{
		Message:      ai.Message{Role: ai.RoleAssistant, Content: p.reply},
		FinishReason: ai.FinishReasonStop,
	}}}, nil
}

func TestAskGroundsAnswerOnStoredContext(t *testing.T) {
	c := &city.City{ID: uuid.New(), Name: "Gramado", State: "RS"}
	repo := &stubPredictionRepo{
		predictions: []*prediction.DemandPrediction{{
			CityID:         c.ID,
			PredictionDate: time.Now().AddDate(0, 0, 14),
			DemandLevel:    prediction.DemandPeak,
			Score:          90,
		}},
		alerts: []*prediction.Alert{{
			CityID:     c.ID,
			AlertType:  prediction.AlertOpportunity,
			Title:      "Pico de demanda",
			Message:    "Suba as tarifas",
			TargetDate: time.Now().AddDate(0, 0, 14),
			IsActive:   true,
		}},
	}
	provider := &answeringProvider{reply: "A demanda está em pico."}

	svc := NewService(&stubCityRepo{city: c}, repo, nil, nil, provider, config.AIConfig{Model: "gpt-4o"}, 5)

	answer, err := svc.Ask(context.Background(), c.ID, "Como está a demanda?")
	require.NoError(t, err)
	assert.Equal(t, "A demanda está em pico.", answer.Reply)
	assert.Equal(t, 0, answer.ToolCalls)

	require.NotEmpty(t, provider.requests)
	system := provider.requests[0].Messages[0]
	assert.Equal(t, ai.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "Você é o Prisma")
	assert.Contains(t, system.Content, "Gramado, RS")
	assert.Contains(t, system.Content, "demanda peak (score 90)")
	assert.Contains(t, system.Content, "Pico de demanda")

	// The market tools must be offered to the model.
	assert.Len(t, provider.requests[0].Tools, 3)
}

func TestAskValidatesInput(t *testing.T) {
	c := &city.City{ID: uuid.New(), Name: "Gramado", State: "RS"}
	svc := NewService(&stubCityRepo{city: c}, &stubPredictionRepo{}, nil, nil, &answeringProvider{reply: "x"}, config.AIConfig{}, 5)

	_, err := svc.Ask(context.Background(), c.ID, "   ")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.CodeFor(err))

	_, err = svc.Ask(context.Background(), uuid.Nil, "pergunta")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.CodeFor(err))
}

func TestAskUnknownCity(t *testing.T) {
	svc := NewService(&stubCityRepo{}, &stubPredictionRepo{}, nil, nil, &answeringProvider{reply: "x"}, config.AIConfig{}, 5)

	_, err := svc.Ask(context.Background(), uuid.New(), "pergunta")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeFor(err))
}
