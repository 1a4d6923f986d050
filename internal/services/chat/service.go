package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"prisma/internal/adapters/ai"
	"prisma/internal/adapters/config"
	"prisma/internal/analyst"
	"prisma/internal/domain/city"
	"prisma/internal/domain/prediction"
	"prisma/internal/gather"
	"prisma/pkg/errors"
	"prisma/pkg/logger"
)

const dateLayout = "2006-01-02"

// Service answers free-form questions about a city's market. The model is
// grounded on the stored predictions and alerts and can reach for the live
// market tools when the question needs fresh prices.
type Service struct {
	cities      city.Repository
	predictions prediction.Repository
	gatherer    *gather.Gatherer
	baseline    *analyst.BaselineReader
	provider    ai.ChatProvider
	cfg         config.AIConfig
	maxIter     int
}

func NewService(
	cities city.Repository,
	predictions prediction.Repository,
	gatherer *gather.Gatherer,
	baseline *analyst.BaselineReader,
	provider ai.ChatProvider,
	aiCfg config.AIConfig,
	maxIterations int,
) *Service {
	return &Service{
		cities:      cities,
		predictions: predictions,
		gatherer:    gatherer,
		baseline:    baseline,
		provider:    provider,
		cfg:         aiCfg,
		maxIter:     maxIterations,
	}
}

// Answer is the chat response plus loop accounting.
type Answer struct {
	Reply      string `json:"reply"`
	ToolCalls  int    `json:"tool_calls"`
	Iterations int    `json:"iterations"`
}

// Ask runs the tool loop for one user question about one city.
func (s *Service) Ask(ctx context.Context, cityID uuid.UUID, userQuery string) (*Answer, error) {
	if strings.TrimSpace(userQuery) == "" {
		return nil, errors.NewValidationError("userQuery", "is required")
	}
	if cityID == uuid.Nil {
		return nil, errors.NewValidationError("cityId", "is required")
	}

	c, err := s.cities.GetByID(ctx, cityID)
	if err != nil {
		return nil, err
	}

	registry := analyst.NewRegistry()
	for _, tool := range analyst.NewMarketTools(c, s.gatherer, s.baseline) {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	conv := analyst.NewConversation(0)
	conv.AddSystem(analyst.SystemPrompt() + "\n\n" + s.contextBlock(ctx, c))
	conv.AddUser(userQuery)

	orch := analyst.NewOrchestrator(s.provider, registry, analyst.OrchestratorOptions{
		Model:         s.cfg.Model,
		SummaryModel:  s.cfg.SummaryModel,
		Temperature:   s.cfg.Temperature,
		MaxTokens:     s.cfg.MaxTokens,
		MaxIterations: s.maxIter,
	})

	result, err := orch.Run(ctx, conv)
	if err != nil {
		return nil, err
	}

	return &Answer{
		Reply:      result.Report,
		ToolCalls:  result.ToolCalls,
		Iterations: result.Iterations,
	}, nil
}

// contextBlock renders the stored forecasts and alerts so the model answers
// from known data before reaching for live tools. Failures here degrade to an
// uncontextualized answer, they never fail the question.
func (s *Service) contextBlock(ctx context.Context, c *city.City) string {
	var sb strings.Builder
	now := time.Now()

	sb.WriteString(fmt.Sprintf("Contexto atual para %s (hoje é %s):\n", c.DisplayName(), now.Format(dateLayout)))

	preds, err := s.predictions.ListPredictions(ctx, c.ID, now, now.AddDate(0, 0, 30))
	if err != nil {
		logger.Warnf("chat context: predictions lookup failed for %s: %v", c.Name, err)
	}
	if len(preds) > 0 {
		sb.WriteString("Previsões de demanda (próximos 30 dias):\n")
		for _, p := range preds {
			sb.WriteString(fmt.Sprintf("- %s: demanda %s (score %d)\n",
				p.PredictionDate.Format(dateLayout), p.DemandLevel, p.Score))
		}
	}

	alerts, err := s.predictions.ListActiveAlerts(ctx, c.ID)
	if err != nil {
		logger.Warnf("chat context: alerts lookup failed for %s: %v", c.Name, err)
	}
	if len(alerts) > 0 {
		sb.WriteString("Alertas ativos:\n")
		for _, a := range alerts {
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s (%s)\n",
				a.AlertType, a.Title, a.Message, a.TargetDate.Format(dateLayout)))
		}
	}

	if len(preds) == 0 && len(alerts) == 0 {
		sb.WriteString("Nenhuma previsão ou alerta registrado. Use as ferramentas para buscar dados ao vivo.\n")
	}
	return sb.String()
}
