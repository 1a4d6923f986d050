package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prisma/internal/domain/prediction"
	"prisma/internal/testsupport"
)

func TestPredictionRepository_UpsertPredictionReplaces(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewPredictionRepository(testDB.DB())
	ctx := context.Background()

	fixtures := NewTestFixtures(t, testDB.DB())
	cityID := fixtures.CreateCity()

	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	pred := &prediction.DemandPrediction{
		CityID:          cityID,
		PredictionDate:  date,
		DemandLevel:     prediction.DemandModerate,
		Score:           60,
		ConfidenceScore: 75,
		Factors: []prediction.Factor{
			{Type: "sazonal", Description: "Fim de semana", Impact: 6},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	require.NoError(t, repo.UpsertPrediction(ctx, pred))

	// A later run for the same date replaces the level and factors
	pred2 := &prediction.DemandPrediction{
		CityID:          cityID,
		PredictionDate:  date,
		DemandLevel:     prediction.DemandPeak,
		Score:           90,
		ConfidenceScore: 88,
		Factors: []prediction.Factor{
			{Type: "evento", Description: "Show internacional", Impact: 9},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.UpsertPrediction(ctx, pred2))

	predictions, err := repo.ListPredictions(ctx, cityID, date, date)
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, prediction.DemandPeak, predictions[0].DemandLevel)
	assert.Equal(t, 90, predictions[0].Score)
	require.Len(t, predictions[0].Factors, 1)
	assert.Equal(t, "evento", predictions[0].Factors[0].Type)
}

func TestPredictionRepository_UpsertRecommendation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewPredictionRepository(testDB.DB())
	ctx := context.Background()

	fixtures := NewTestFixtures(t, testDB.DB())
	cityID := fixtures.CreateCity()

	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	rec := &prediction.PriceRecommendation{
		CityID:             cityID,
		RecommendationDate: date,
		RecommendedPrice:   decimal.NewFromFloat(494.90),
		MarketAverage:      decimal.NewFromFloat(505),
		Reasoning:          "Demanda alta sustenta tarifa acima da linha de base.",
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	require.NoError(t, repo.UpsertRecommendation(ctx, rec))

	rec.RecommendedPrice = decimal.NewFromFloat(520)
	require.NoError(t, repo.UpsertRecommendation(ctx, rec))

	recs, err := repo.ListRecommendations(ctx, cityID, date, date)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].RecommendedPrice.Equal(decimal.NewFromFloat(520)))
}

func TestPredictionRepository_Alerts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewPredictionRepository(testDB.DB())
	ctx := context.Background()

	fixtures := NewTestFixtures(t, testDB.DB())
	cityID := fixtures.CreateCity()

	past := time.Now().AddDate(0, 0, -2)
	future := time.Now().AddDate(0, 0, 14)

	stale := &prediction.Alert{
		CityID: cityID, AlertType: prediction.AlertOpportunity,
		Title: "Oportunidade passada", Message: "expired",
		TargetDate: past, IsActive: true, CreatedAt: time.Now(),
	}
	active := &prediction.Alert{
		CityID: cityID, AlertType: prediction.AlertOpportunity,
		Title: "Oportunidade de Pico", Message: "Demanda subiu para PICO",
		TargetDate: future, IsActive: true, CreatedAt: time.Now(),
	}

	require.NoError(t, repo.CreateAlert(ctx, stale))
	require.NoError(t, repo.CreateAlert(ctx, active))

	deactivated, err := repo.DeactivateAlertsBefore(ctx, time.Now())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deactivated, int64(1))

	alerts, err := repo.ListActiveAlerts(ctx, cityID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Oportunidade de Pico", alerts[0].Title)
}
