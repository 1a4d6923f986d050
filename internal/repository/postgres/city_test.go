package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prisma/internal/domain/city"
	"prisma/internal/testsupport"
	"prisma/pkg/errors"
)

func TestCityRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewCityRepository(testDB.DB())
	ctx := context.Background()

	bookingID := int64(-2140479)
	c := &city.City{
		ID:            uuid.New(),
		Name:          "Foz do Iguaçu",
		State:         "PR",
		Slug:          "foz-iguacu-" + uuid.NewString()[:8],
		BookingCityID: &bookingID,
		OriginAirport: "SAO",
		BasePrice:     280,
		Active:        true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	err := repo.Create(ctx, c)
	require.NoError(t, err, "Create should not return error")

	retrieved, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, retrieved.Name)
	assert.Equal(t, c.Slug, retrieved.Slug)
	require.NotNil(t, retrieved.BookingCityID)
	assert.Equal(t, bookingID, *retrieved.BookingCityID)
	assert.Equal(t, "Foz do Iguaçu, PR", retrieved.DisplayName())

	bySlug, err := repo.GetBySlug(ctx, c.Slug)
	require.NoError(t, err)
	assert.Equal(t, c.ID, bySlug.ID)
}

func TestCityRepository_GetByIDNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewCityRepository(testDB.DB())

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCityNotFound))
}

func TestCityRepository_ListActive(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewCityRepository(testDB.DB())
	ctx := context.Background()

	fixtures := NewTestFixtures(t, testDB.DB())
	id := fixtures.CreateCity()

	cities, err := repo.ListActive(ctx)
	require.NoError(t, err)

	found := false
	for _, c := range cities {
		if c.ID == id {
			found = true
		}
		assert.True(t, c.Active)
	}
	assert.True(t, found, "created city should be listed")
}
