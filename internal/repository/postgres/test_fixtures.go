package postgres

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestFixtures provides factory methods for creating test data
type TestFixtures struct {
	db *sqlx.DB
	t  *testing.T
}

// NewTestFixtures creates a new test fixtures factory
func NewTestFixtures(t *testing.T, db *sqlx.DB) *TestFixtures {
	t.Helper()
	return &TestFixtures{
		db: db,
		t:  t,
	}
}

// CityFixture holds overridable city attributes
type CityFixture struct {
	Name          string
	State         string
	Slug          string
	BasePrice     float64
	OriginAirport string
}

// CreateCity creates a test city in the database
func (f *TestFixtures) CreateCity(opts ...func(*CityFixture)) uuid.UUID {
	f.t.Helper()

	n := rand.Intn(999999)
	fixture := &CityFixture{
		Name:          fmt.Sprintf("Test City %d", n),
		State:         "PR",
		Slug:          fmt.Sprintf("test-city-%d", n),
		BasePrice:     300,
		OriginAirport: "SAO",
	}

	for _, opt := range opts {
		opt(fixture)
	}

	id := uuid.New()
	query := `INSERT INTO cities (id, name, state, slug, origin_airport, base_price, active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())`

	_, err := f.db.Exec(query, id, fixture.Name, fixture.State, fixture.Slug,
		fixture.OriginAirport, fixture.BasePrice)
	require.NoError(f.t, err, "Failed to create test city")

	return id
}

// SeedSnapshot inserts a single price snapshot row
func (f *TestFixtures) SeedSnapshot(cityID uuid.UUID, source, kind string, targetDate time.Time, price decimal.Decimal) uuid.UUID {
	f.t.Helper()

	id := uuid.New()
	query := `INSERT INTO price_snapshots (id, city_id, source, kind, target_date, price, currency, collected_at)
			  VALUES ($1, $2, $3, $4, $5, $6, 'BRL', NOW())`

	_, err := f.db.Exec(query, id, cityID, source, kind, targetDate, price)
	require.NoError(f.t, err, "Failed to seed snapshot")

	return id
}
