package city

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// City represents a monitored destination
type City struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	State string    `db:"state"`
	Slug  string    `db:"slug"`

	// External identifiers
	BookingCityID *int64 `db:"booking_city_id"` // Booking.com Demand API city ID
	OriginAirport string `db:"origin_airport"`  // Departure hub for flight demand probes

	// BasePrice anchors price recommendations when no market data exists
	BasePrice float64 `db:"base_price"`

	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DisplayName returns "Name, State" used in search queries and prompts
func (c *City) DisplayName() string {
	if c.State == "" {
		return c.Name
	}
	return fmt.Sprintf("%s, %s", c.Name, c.State)
}
