package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"prisma/internal/analyst"
	"prisma/internal/domain/city"
	"prisma/internal/domain/prediction"
	"prisma/pkg/errors"
	"prisma/pkg/logger"
)

const confidenceScore = 90

// Recommended tariff sits just under the market average so the hotel wins
// bookings without starting a price war.
var undercutFactor = decimal.NewFromFloat(0.98)

// Service produces demand forecasts, tariff recommendations and peak alerts
// for every active city.
type Service struct {
	cities      city.Repository
	predictions prediction.Repository
	baseline    *analyst.BaselineReader
	daysAhead   int
}

func NewService(cities city.Repository, predictions prediction.Repository, baseline *analyst.BaselineReader, daysAhead int) *Service {
	if daysAhead <= 0 {
		daysAhead = 90
	}
	return &Service{
		cities:      cities,
		predictions: predictions,
		baseline:    baseline,
		daysAhead:   daysAhead,
	}
}

// GenerateAll refreshes the forecast horizon for every active city and
// retires alerts whose target date already passed.
func (s *Service) GenerateAll(ctx context.Context) error {
	cities, err := s.cities.ListActive(ctx)
	if err != nil {
		return errors.Wrap(err, "list cities for prediction batch")
	}

	retired, err := s.predictions.DeactivateAlertsBefore(ctx, time.Now().Truncate(24*time.Hour))
	if err != nil {
		logger.Warnf("failed to retire stale alerts: %v", err)
	} else if retired > 0 {
		logger.Infof("retired %d stale alerts", retired)
	}

	for _, c := range cities {
		if err := s.GenerateForCity(ctx, c); err != nil {
			logger.Errorf("prediction batch failed for %s: %v", c.Name, err)
			continue
		}
	}
	return nil
}

// GenerateForCity upserts one prediction and recommendation per day of the
// horizon, plus opportunity alerts for near-term peaks.
func (s *Service) GenerateForCity(ctx context.Context, c *city.City) error {
	today := time.Now().Truncate(24 * time.Hour)
	var alerts int

	for i := 0; i < s.daysAhead; i++ {
		date := today.AddDate(0, 0, i)

		score, factors := ScoreDemand(c.Slug, date)
		level := prediction.LevelForScore(score)

		if err := s.predictions.UpsertPrediction(ctx, &prediction.DemandPrediction{
			CityID:          c.ID,
			PredictionDate:  date,
			DemandLevel:     level,
			Score:           score,
			ConfidenceScore: confidenceScore,
			Factors:         factors,
		}); err != nil {
			return errors.Wrapf(err, "upsert prediction for %s on %s", c.Name, date.Format("2006-01-02"))
		}

		marketAverage := s.marketAverage(ctx, c, date, level)
		recommended := marketAverage.Mul(undercutFactor)

		if err := s.predictions.UpsertRecommendation(ctx, &prediction.PriceRecommendation{
			CityID:             c.ID,
			RecommendationDate: date,
			RecommendedPrice:   recommended,
			MarketAverage:      marketAverage,
			Reasoning:          reasoningFor(level, marketAverage),
		}); err != nil {
			return errors.Wrapf(err, "upsert recommendation for %s on %s", c.Name, date.Format("2006-01-02"))
		}

		if level == prediction.DemandPeak && i > 7 && i < 30 {
			alert := &prediction.Alert{
				CityID:    c.ID,
				AlertType: prediction.AlertOpportunity,
				Title:     fmt.Sprintf("Oportunidade de Pico em %s", c.Name),
				Message: fmt.Sprintf("A demanda para %s subiu para PICO. Recomendação de tarifa atualizada para R$ %s.",
					date.Format("02/01/2006"), recommended.StringFixed(2)),
				TargetDate: date,
				IsActive:   true,
			}
			if err := s.predictions.CreateAlert(ctx, alert); err != nil {
				logger.Warnf("failed to create peak alert for %s: %v", c.Name, err)
			} else {
				alerts++
			}
		}
	}

	logger.Infof("prediction batch for %s: %d days, %d peak alerts", c.Name, s.daysAhead, alerts)
	return nil
}

// marketAverage prefers the measured baseline for the date and falls back to
// the city's reference rate scaled by the demand multiplier.
func (s *Service) marketAverage(ctx context.Context, c *city.City, date time.Time, level prediction.DemandLevel) decimal.Decimal {
	if s.baseline != nil {
		if avg, n, err := s.baseline.CompetitorAverage(ctx, c.ID, date); err == nil && n > 0 {
			return avg
		}
	}
	base := decimal.NewFromFloat(BasePriceFor(c.Slug, c.BasePrice))
	return base.Mul(level.PriceMultiplier())
}

func reasoningFor(level prediction.DemandLevel, marketAverage decimal.Decimal) string {
	switch level {
	case prediction.DemandPeak:
		return fmt.Sprintf("Baseado na demanda de PICO, na tarifa média de R$ %s dos concorrentes e na nossa análise para evitar guerra de preços, esta tarifa maximiza sua receita mantendo competitividade.", marketAverage.StringFixed(2))
	case prediction.DemandHigh:
		return fmt.Sprintf("Com demanda ALTA, recomendamos tarifa levemente abaixo da média de mercado (R$ %s) para capturar maior volume sem iniciar competição agressiva.", marketAverage.StringFixed(2))
	case prediction.DemandModerate:
		return "Demanda moderada sugere preço próximo à média de mercado com leve desconto estratégico para aumentar taxa de conversão."
	default:
		return "Em período de demanda baixa, recomendamos preço promocional para manter ocupação e maximizar receita total."
	}
}
