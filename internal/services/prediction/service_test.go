package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prisma/internal/domain/city"
	"prisma/internal/domain/prediction"
)

func dateOn(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return date
}

func TestScoreDemandWeekendBump(t *testing.T) {
	// 2026-10-03 is a Saturday, 2026-10-07 a Wednesday; October is off-season
	// for every seasonal rule.
	saturday := dateOn(t, "2026-10-03")
	wednesday := dateOn(t, "2026-10-07")

	weekendScore, weekendFactors := ScoreDemand("foz-iguacu", saturday)
	weekdayScore, weekdayFactors := ScoreDemand("foz-iguacu", wednesday)

	assert.Equal(t, 65, weekendScore)
	assert.Equal(t, 50, weekdayScore)
	require.Len(t, weekendFactors, 1)
	assert.Equal(t, "sazonal", weekendFactors[0].Type)
	assert.Empty(t, weekdayFactors)
}

func TestScoreDemandSeasonalFactors(t *testing.T) {
	julyWeekday := dateOn(t, "2026-07-01")

	fozScore, _ := ScoreDemand("foz-iguacu", julyWeekday)
	assert.Equal(t, 60, fozScore)

	gramadoScore, gramadoFactors := ScoreDemand("gramado", julyWeekday)
	assert.Equal(t, 75, gramadoScore)
	require.Len(t, gramadoFactors, 1)
	assert.Equal(t, "evento", gramadoFactors[0].Type)

	rioJuly, _ := ScoreDemand("rio-janeiro", julyWeekday)
	assert.Equal(t, 50, rioJuly)

	rioNYE, _ := ScoreDemand("rio-janeiro", dateOn(t, "2026-12-30"))
	assert.Equal(t, 80, rioNYE)
}

func TestScoreDemandPeakStacksWeekendAndSeason(t *testing.T) {
	// 2027-01-02 is a Saturday in Rio's summer season: 50 + 15 + 30.
	score, factors := ScoreDemand("rio-janeiro", dateOn(t, "2027-01-02"))
	assert.Equal(t, 95, score)
	assert.Equal(t, prediction.DemandPeak, prediction.LevelForScore(score))
	assert.Len(t, factors, 2)
}

func TestScoreDemandIsDeterministic(t *testing.T) {
	date := dateOn(t, "2026-07-04")
	first, _ := ScoreDemand("gramado", date)
	second, _ := ScoreDemand("gramado", date)
	assert.Equal(t, first, second)
}

func TestBasePriceFor(t *testing.T) {
	assert.Equal(t, float64(500), BasePriceFor("foz-iguacu", 500))
	assert.Equal(t, float64(280), BasePriceFor("foz-iguacu", 0))
	assert.Equal(t, float64(350), BasePriceFor("gramado", 0))
	assert.Equal(t, float64(420), BasePriceFor("rio-janeiro", 0))
	assert.Equal(t, float64(300), BasePriceFor("unknown-city", 0))
}

type recordingRepo struct {
	predictions     []*prediction.DemandPrediction
	recommendations []*prediction.PriceRecommendation
	alerts          []*prediction.Alert
	deactivated     time.Time
}

func (r *recordingRepo) UpsertPrediction(ctx context.Context, pred *prediction.DemandPrediction) error {
	r.predictions = append(r.predictions, pred)
	return nil
}

func (r *recordingRepo) UpsertRecommendation(ctx context.Context, rec *prediction.PriceRecommendation) error {
	r.recommendations = append(r.recommendations, rec)
	return nil
}

func (r *recordingRepo) CreateAlert(ctx context.Context, alert *prediction.Alert) error {
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingRepo) ListPredictions(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*prediction.DemandPrediction, error) {
	return r.predictions, nil
}

func (r *recordingRepo) ListRecommendations(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*prediction.PriceRecommendation, error) {
	return r.recommendations, nil
}

func (r *recordingRepo) ListActiveAlerts(ctx context.Context, cityID uuid.UUID) ([]*prediction.Alert, error) {
	return r.alerts, nil
}

func (r *recordingRepo) DeactivateAlertsBefore(ctx context.Context, targetDate time.Time) (int64, error) {
	r.deactivated = targetDate
	return 0, nil
}

type singleCityRepo struct {
	city *city.City
}

func (s *singleCityRepo) Create(ctx context.Context, c *city.City) error { return nil }

func (s *singleCityRepo) GetByID(ctx context.Context, id uuid.UUID) (*city.City, error) {
	return s.city, nil
}

func (s *singleCityRepo) GetBySlug(ctx context.Context, slug string) (*city.City, error) {
	return s.city, nil
}

func (s *singleCityRepo) ListActive(ctx context.Context) ([]*city.City, error) {
	return []*city.City{s.city}, nil
}

func TestGenerateForCityWritesFullHorizon(t *testing.T) {
	repo := &recordingRepo{}
	c := &city.City{ID: uuid.New(), Name: "Gramado", Slug: "gramado", BasePrice: 350, Active: true}

	svc := NewService(&singleCityRepo{city: c}, repo, nil, 30)
	require.NoError(t, svc.GenerateForCity(context.Background(), c))

	assert.Len(t, repo.predictions, 30)
	assert.Len(t, repo.recommendations, 30)

	for i, pred := range repo.predictions {
		assert.Equal(t, c.ID, pred.CityID)
		assert.Equal(t, prediction.LevelForScore(pred.Score), pred.DemandLevel)
		assert.Equal(t, float64(confidenceScore), pred.ConfidenceScore)

		rec := repo.recommendations[i]
		assert.Equal(t, pred.PredictionDate, rec.RecommendationDate)
		assert.NotEmpty(t, rec.Reasoning)

		// Recommended sits 2% under the market average.
		expected := rec.MarketAverage.Mul(undercutFactor)
		assert.True(t, rec.RecommendedPrice.Equal(expected),
			"recommended %s != market*0.98 %s", rec.RecommendedPrice, expected)
	}
}

func TestGenerateForCityPeakAlertWindow(t *testing.T) {
	repo := &recordingRepo{}
	c := &city.City{ID: uuid.New(), Name: "Rio de Janeiro", Slug: "rio-janeiro", BasePrice: 420, Active: true}

	svc := NewService(&singleCityRepo{city: c}, repo, nil, 90)
	require.NoError(t, svc.GenerateForCity(context.Background(), c))

	today := time.Now().Truncate(24 * time.Hour)
	for _, alert := range repo.alerts {
		days := int(alert.TargetDate.Sub(today).Hours() / 24)
		assert.Greater(t, days, 7)
		assert.Less(t, days, 30)
		assert.Equal(t, prediction.AlertOpportunity, alert.AlertType)
		assert.Contains(t, alert.Title, "Rio de Janeiro")
		assert.True(t, alert.IsActive)
	}

	// Every alert must correspond to a peak-level prediction.
	peaks := make(map[string]bool)
	for _, pred := range repo.predictions {
		if pred.DemandLevel == prediction.DemandPeak {
			peaks[pred.PredictionDate.Format("2006-01-02")] = true
		}
	}
	for _, alert := range repo.alerts {
		assert.True(t, peaks[alert.TargetDate.Format("2006-01-02")])
	}
}

func TestGenerateAllRetiresStaleAlerts(t *testing.T) {
	repo := &recordingRepo{}
	c := &city.City{ID: uuid.New(), Name: "Gramado", Slug: "gramado", BasePrice: 350, Active: true}

	svc := NewService(&singleCityRepo{city: c}, repo, nil, 7)
	require.NoError(t, svc.GenerateAll(context.Background()))

	assert.False(t, repo.deactivated.IsZero())
	assert.Len(t, repo.predictions, 7)
}
