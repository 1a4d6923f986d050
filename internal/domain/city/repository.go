package city

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for city data access
type Repository interface {
	Create(ctx context.Context, city *City) error
	GetByID(ctx context.Context, id uuid.UUID) (*City, error)
	GetBySlug(ctx context.Context, slug string) (*City, error)
	ListActive(ctx context.Context) ([]*City, error)
}
