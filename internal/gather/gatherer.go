package gather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"prisma/internal/adapters/booking"
	"prisma/internal/adapters/serp"
	"prisma/internal/domain/city"
	"prisma/internal/domain/signal"
	"prisma/internal/domain/snapshot"
	"prisma/pkg/errors"
	"prisma/pkg/logger"
)

const dateLayout = "2006-01-02"

// Gatherer fans out to the external market-data channels and the local
// signal store. The booking client is optional; when nil, hotel prices come
// from search scraping alone.
type Gatherer struct {
	serp     *serp.Client
	booking  *booking.Client
	signals  signal.Repository
	currency string
	timeout  time.Duration
}

func NewGatherer(serpClient *serp.Client, bookingClient *booking.Client, signals signal.Repository, currency string, timeout time.Duration) *Gatherer {
	if currency == "" {
		currency = "BRL"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Gatherer{
		serp:     serpClient,
		booking:  bookingClient,
		signals:  signals,
		currency: currency,
		timeout:  timeout,
	}
}

// HotelPrices queries the booking search engine for competitor rates, merging
// in the demand API feed when the city is mapped to a booking destination.
func (g *Gatherer) HotelPrices(ctx context.Context, c *city.City, checkin, checkout time.Time) ([]HotelQuote, error) {
	var quotes []HotelQuote

	payload, serpErr := g.serp.Search(ctx, serp.EngineBooking, map[string]string{
		"ss":            c.DisplayName(),
		"checkin_date":  checkin.Format(dateLayout),
		"checkout_date": checkout.Format(dateLayout),
	})
	if serpErr == nil {
		parsed, err := parseHotelProperties(payload, string(snapshot.SourceBookingScrape), g.currency)
		if err != nil {
			serpErr = err
		} else {
			quotes = append(quotes, parsed...)
		}
	}

	var apiErr error
	if g.booking != nil && c.BookingCityID != nil {
		hotels, err := g.booking.SearchAccommodations(ctx, *c.BookingCityID, checkin.Format(dateLayout), checkout.Format(dateLayout))
		if err != nil {
			apiErr = err
		} else {
			for _, h := range hotels {
				quotes = append(quotes, HotelQuote{
					HotelName: h.HotelName,
					Price:     h.Price,
					Currency:  h.Currency,
					Source:    string(snapshot.SourceBookingAPI),
				})
			}
		}
	}

	if len(quotes) == 0 {
		if serpErr != nil {
			return nil, errors.Wrapf(serpErr, "hotel prices for %s", c.Name)
		}
		if apiErr != nil {
			return nil, errors.Wrapf(apiErr, "hotel prices for %s", c.Name)
		}
		return nil, errors.Wrapf(errors.ErrNoPriceData, "no hotel listings for %s on %s", c.Name, checkin.Format(dateLayout))
	}

	if serpErr != nil || apiErr != nil {
		logger.Warnf("partial hotel price gather for %s: serp=%v api=%v", c.Name, serpErr, apiErr)
	}
	return quotes, nil
}

// GoogleHotelPrices queries the Google Hotels engine. The collectors use both
// channels so baseline averages are not tied to a single listing site.
func (g *Gatherer) GoogleHotelPrices(ctx context.Context, c *city.City, checkin, checkout time.Time) ([]HotelQuote, error) {
	payload, err := g.serp.Search(ctx, serp.EngineGoogleHotels, map[string]string{
		"q":              fmt.Sprintf("hotels in %s", c.Name),
		"check_in_date":  checkin.Format(dateLayout),
		"check_out_date": checkout.Format(dateLayout),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "google hotel prices for %s", c.Name)
	}
	return parseHotelProperties(payload, string(snapshot.SourceGoogleHotels), g.currency)
}

// FlightPrices queries one-way fares from the city's feeder airport market.
func (g *Gatherer) FlightPrices(ctx context.Context, c *city.City, date time.Time) ([]FlightQuote, error) {
	origin := c.OriginAirport
	if origin == "" {
		origin = "SAO"
	}
	payload, err := g.serp.Search(ctx, serp.EngineGoogleFlights, map[string]string{
		"departure_id":  origin,
		"arrival_id":    c.Name,
		"outbound_date": date.Format(dateLayout),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "flight prices to %s", c.Name)
	}
	return parseFlights(payload, g.currency)
}

// News searches tourism headlines for the city, newest first.
func (g *Gatherer) News(ctx context.Context, c *city.City, limit int) ([]NewsRecord, error) {
	payload, err := g.serp.Search(ctx, serp.EngineGoogle, map[string]string{
		"q":   fmt.Sprintf("turismo %s", c.Name),
		"tbm": "nws",
	})
	if err != nil {
		return nil, errors.Wrapf(err, "news for %s", c.Name)
	}
	return parseNews(payload, limit)
}

// SocialSignals reads locally collected buzz signals for the period.
func (g *Gatherer) SocialSignals(ctx context.Context, cityID uuid.UUID, from, to time.Time) ([]*signal.SocialBuzzSignal, error) {
	return g.signals.ListForPeriod(ctx, cityID, from, to)
}

// GatherAll runs hotel prices, flight prices, news, and social signals
// concurrently. Individual channel failures stay inside the bundle so the
// caller can analyze whatever did come back.
func (g *Gatherer) GatherAll(ctx context.Context, c *city.City, start, end time.Time) *Bundle {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	bundle := &Bundle{GatheredAt: time.Now().UTC()}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		bundle.Hotels, bundle.HotelsErr = g.HotelPrices(ctx, c, start, end)
	}()
	go func() {
		defer wg.Done()
		bundle.Flights, bundle.FlightsErr = g.FlightPrices(ctx, c, start)
	}()
	go func() {
		defer wg.Done()
		bundle.News, bundle.NewsErr = g.News(ctx, c, 3)
	}()
	go func() {
		defer wg.Done()
		bundle.Signals, bundle.SignalsErr = g.SocialSignals(ctx, c.ID, start, end)
	}()

	wg.Wait()

	if bundle.HotelsErr != nil {
		logger.Warnf("gather: hotel prices failed for %s: %v", c.Name, bundle.HotelsErr)
	}
	if bundle.FlightsErr != nil {
		logger.Warnf("gather: flight prices failed for %s: %v", c.Name, bundle.FlightsErr)
	}
	if bundle.NewsErr != nil {
		logger.Warnf("gather: news failed for %s: %v", c.Name, bundle.NewsErr)
	}
	if bundle.SignalsErr != nil {
		logger.Warnf("gather: social signals failed for %s: %v", c.Name, bundle.SignalsErr)
	}
	return bundle
}
