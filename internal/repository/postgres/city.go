package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"prisma/internal/domain/city"
	"prisma/pkg/errors"
)

// Compile-time check that we implement the interface
var _ city.Repository = (*CityRepository)(nil)

// CityRepository implements city.Repository using sqlx
type CityRepository struct {
	db DBTX
}

// NewCityRepository creates a new city repository
func NewCityRepository(db DBTX) *CityRepository {
	return &CityRepository{db: db}
}

// Create inserts a new city
func (r *CityRepository) Create(ctx context.Context, c *city.City) error {
	query := `
		INSERT INTO cities (
			id, name, state, slug, booking_city_id, origin_airport,
			base_price, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.State, c.Slug, c.BookingCityID, c.OriginAirport,
		c.BasePrice, c.Active, c.CreatedAt, c.UpdatedAt,
	)

	return err
}

// GetByID retrieves a city by ID
func (r *CityRepository) GetByID(ctx context.Context, id uuid.UUID) (*city.City, error) {
	var c city.City

	query := `
		SELECT id, name, state, slug, booking_city_id, origin_airport,
			   base_price, active, created_at, updated_at
		FROM cities
		WHERE id = $1`

	err := r.db.GetContext(ctx, &c, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrCityNotFound, id.String())
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// GetBySlug retrieves a city by its URL slug
func (r *CityRepository) GetBySlug(ctx context.Context, slug string) (*city.City, error) {
	var c city.City

	query := `
		SELECT id, name, state, slug, booking_city_id, origin_airport,
			   base_price, active, created_at, updated_at
		FROM cities
		WHERE slug = $1`

	err := r.db.GetContext(ctx, &c, query, slug)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrCityNotFound, slug)
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// ListActive retrieves all active cities ordered by name
func (r *CityRepository) ListActive(ctx context.Context) ([]*city.City, error) {
	var cities []*city.City

	query := `
		SELECT id, name, state, slug, booking_city_id, origin_airport,
			   base_price, active, created_at, updated_at
		FROM cities
		WHERE active = TRUE
		ORDER BY name`

	if err := r.db.SelectContext(ctx, &cities, query); err != nil {
		return nil, err
	}

	return cities, nil
}
