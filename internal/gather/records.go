package gather

import (
	"time"

	"github.com/shopspring/decimal"

	"prisma/internal/domain/signal"
)

// HotelQuote is a single nightly rate observed on an external channel.
type HotelQuote struct {
	HotelName string          `json:"hotel_name"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Source    string          `json:"source"`
}

// FlightQuote is a one-way fare into the destination city.
type FlightQuote struct {
	Airline  string          `json:"airline"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Source   string          `json:"source"`
}

// NewsRecord is a tourism news headline for the destination.
type NewsRecord struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Snippet string `json:"snippet,omitempty"`
	Link    string `json:"link,omitempty"`
}

// Bundle holds the outcome of a full concurrent gather. Each slot carries its
// own error so callers can distinguish a failed channel from an empty one.
type Bundle struct {
	Hotels    []HotelQuote
	HotelsErr error

	Flights    []FlightQuote
	FlightsErr error

	News    []NewsRecord
	NewsErr error

	Signals    []*signal.SocialBuzzSignal
	SignalsErr error

	GatheredAt time.Time
}

// AllFailed reports whether every external channel errored out.
func (b *Bundle) AllFailed() bool {
	return b.HotelsErr != nil && b.FlightsErr != nil && b.NewsErr != nil
}

// AverageHotelPrice returns the mean of all hotel quotes, or zero when empty.
func (b *Bundle) AverageHotelPrice() decimal.Decimal {
	return averagePrice(b.Hotels, func(q HotelQuote) decimal.Decimal { return q.Price })
}

// AverageFlightPrice returns the mean of all flight quotes, or zero when empty.
func (b *Bundle) AverageFlightPrice() decimal.Decimal {
	return averagePrice(b.Flights, func(q FlightQuote) decimal.Decimal { return q.Price })
}

func averagePrice[T any](quotes []T, price func(T) decimal.Decimal) decimal.Decimal {
	if len(quotes) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, q := range quotes {
		sum = sum.Add(price(q))
	}
	return sum.Div(decimal.NewFromInt(int64(len(quotes))))
}
