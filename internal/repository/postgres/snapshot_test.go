package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prisma/internal/domain/snapshot"
	"prisma/internal/testsupport"
	"prisma/pkg/errors"
)

func TestSnapshotRepository_BulkInsertAndAverage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewSnapshotRepository(testDB.DB())
	ctx := context.Background()

	fixtures := NewTestFixtures(t, testDB.DB())
	cityID := fixtures.CreateCity()

	targetDate := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	label := "Hotel Cataratas"
	snapshots := []*snapshot.PriceSnapshot{
		{
			CityID:      cityID,
			Source:      snapshot.SourceBookingScrape,
			Kind:        snapshot.KindBaseline,
			TargetDate:  targetDate,
			Price:       decimal.NewFromInt(100),
			Currency:    "BRL",
			Label:       &label,
			CollectedAt: time.Now(),
		},
		{
			CityID:      cityID,
			Source:      snapshot.SourceBookingScrape,
			Kind:        snapshot.KindBaseline,
			TargetDate:  targetDate,
			Price:       decimal.NewFromInt(200),
			Currency:    "BRL",
			CollectedAt: time.Now(),
		},
		{
			CityID:      cityID,
			Source:      snapshot.SourceBookingScrape,
			Kind:        snapshot.KindBaseline,
			TargetDate:  targetDate,
			Price:       decimal.NewFromInt(300),
			Currency:    "BRL",
			CollectedAt: time.Now(),
		},
	}

	err := repo.BulkInsert(ctx, snapshots)
	require.NoError(t, err, "BulkInsert should not return error")

	avg, samples, err := repo.Average(ctx, snapshot.AverageFilter{
		CityID:  cityID,
		Kind:    snapshot.KindBaseline,
		Sources: []snapshot.Source{snapshot.SourceBookingScrape},
		From:    targetDate,
		To:      targetDate,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, samples)
	assert.True(t, avg.Equal(decimal.NewFromInt(200)), "expected average 200, got %s", avg)
}

func TestSnapshotRepository_AverageNoData(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewSnapshotRepository(testDB.DB())
	ctx := context.Background()

	fixtures := NewTestFixtures(t, testDB.DB())
	cityID := fixtures.CreateCity()

	targetDate := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	_, samples, err := repo.Average(ctx, snapshot.AverageFilter{
		CityID:  cityID,
		Kind:    snapshot.KindBaseline,
		Sources: []snapshot.Source{snapshot.SourceBookingScrape},
		From:    targetDate,
		To:      targetDate,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoBaseline), "expected ErrNoBaseline, got %v", err)
	assert.Equal(t, 0, samples)
}

func TestSnapshotRepository_AverageFiltersBySourceAndKind(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewSnapshotRepository(testDB.DB())
	ctx := context.Background()

	fixtures := NewTestFixtures(t, testDB.DB())
	cityID := fixtures.CreateCity()

	targetDate := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	fixtures.SeedSnapshot(cityID, snapshot.SourceBookingScrape.String(), snapshot.KindBaseline.String(), targetDate, decimal.NewFromInt(100))
	// Different source and kind must not leak into the average
	fixtures.SeedSnapshot(cityID, snapshot.SourceGoogleFlights.String(), snapshot.KindBaseline.String(), targetDate, decimal.NewFromInt(900))
	fixtures.SeedSnapshot(cityID, snapshot.SourceBookingScrape.String(), snapshot.KindRealtime.String(), targetDate, decimal.NewFromInt(900))

	avg, samples, err := repo.Average(ctx, snapshot.AverageFilter{
		CityID:  cityID,
		Kind:    snapshot.KindBaseline,
		Sources: []snapshot.Source{snapshot.SourceBookingScrape},
		From:    targetDate,
		To:      targetDate,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, samples)
	assert.True(t, avg.Equal(decimal.NewFromInt(100)))
}

func TestSnapshotRepository_ListForDate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewSnapshotRepository(testDB.DB())
	ctx := context.Background()

	fixtures := NewTestFixtures(t, testDB.DB())
	cityID := fixtures.CreateCity()

	targetDate := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	fixtures.SeedSnapshot(cityID, snapshot.SourceBookingScrape.String(), snapshot.KindRealtime.String(), targetDate, decimal.NewFromInt(150))
	fixtures.SeedSnapshot(cityID, snapshot.SourceGoogleHotels.String(), snapshot.KindRealtime.String(), targetDate, decimal.NewFromInt(180))

	listed, err := repo.ListForDate(ctx, cityID, snapshot.KindRealtime, targetDate)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	empty, err := repo.ListForDate(ctx, uuid.New(), snapshot.KindRealtime, targetDate)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSnapshotRepository_DeleteOlderThan(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewSnapshotRepository(testDB.DB())
	ctx := context.Background()

	fixtures := NewTestFixtures(t, testDB.DB())
	cityID := fixtures.CreateCity()

	targetDate := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	fixtures.SeedSnapshot(cityID, snapshot.SourceBookingScrape.String(), snapshot.KindRealtime.String(), targetDate, decimal.NewFromInt(150))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))
}
