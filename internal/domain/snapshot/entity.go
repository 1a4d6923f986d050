package snapshot

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSnapshot is a single observed market price for a city and stay date
type PriceSnapshot struct {
	ID     uuid.UUID `db:"id"`
	CityID uuid.UUID `db:"city_id"`

	Source Source `db:"source"`
	Kind   Kind   `db:"kind"`

	// TargetDate is the stay date the price refers to, not the collection date
	TargetDate time.Time       `db:"target_date"`
	Price      decimal.Decimal `db:"price"`
	Currency   string          `db:"currency"`

	// Label carries the hotel or flight identifier when the source provides one
	Label *string `db:"label"`

	CollectedAt time.Time `db:"collected_at"`
}

// Source identifies where a price snapshot came from
type Source string

const (
	SourceBookingScrape Source = "booking.com"
	SourceGoogleHotels  Source = "google_hotels"
	SourceGoogleFlights Source = "google_flights"
	SourceBookingAPI    Source = "booking_demand_api"
)

// String returns string representation
func (s Source) String() string {
	return string(s)
}

// IsFlight reports whether the source tracks air demand rather than hotel rates
func (s Source) IsFlight() bool {
	return s == SourceGoogleFlights
}

// Kind separates realtime observations from baseline reference samples
type Kind string

const (
	KindRealtime       Kind = "realtime"
	KindBaseline       Kind = "monthly_baseline"
	KindWeeklyBaseline Kind = "weekly_baseline"
)

// Valid checks if snapshot kind is valid
func (k Kind) Valid() bool {
	return k == KindRealtime || k == KindBaseline || k == KindWeeklyBaseline
}

// KindForBaseline maps the configured comparison window name to a
// snapshot kind. Defaults to the monthly baseline.
func KindForBaseline(name string) Kind {
	if name == "weekly" {
		return KindWeeklyBaseline
	}
	return KindBaseline
}

// String returns string representation
func (k Kind) String() string {
	return string(k)
}
