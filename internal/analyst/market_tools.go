package analyst

import (
	"context"
	"encoding/json"
	"time"

	"prisma/internal/domain/city"
	"prisma/internal/gather"
	"prisma/pkg/errors"
)

// marketToolArgs covers the date arguments the analyst tools accept.
type marketToolArgs struct {
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
	TravelDate   string `json:"travel_date"`
}

func parseToolDate(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.NewValidationError(field, "is required (YYYY-MM-DD)")
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.NewValidationError(field, "must be formatted YYYY-MM-DD")
	}
	return date, nil
}

const dateLayout = "2006-01-02"

func dateSchema(props map[string]interface{}, required []string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// NewMarketTools builds the three analyst tools bound to one city. The model
// decides which to call and with which dates during the tool loop.
func NewMarketTools(c *city.City, g *gather.Gatherer, baseline *BaselineReader) []Tool {
	return []Tool{
		newMarketPricesTool(c, g, baseline),
		newEventsAndNewsTool(c, g),
		newFlightAnalysisTool(c, g, baseline),
	}
}

func newMarketPricesTool(c *city.City, g *gather.Gatherer, baseline *BaselineReader) Tool {
	return NewFunctionTool(
		"get_market_prices",
		"Busca os preços atuais dos hotéis concorrentes na cidade para um período de estadia e compara com a linha de base mensal.",
		dateSchema(map[string]interface{}{
			"checkin_date":  map[string]interface{}{"type": "string", "description": "Data de check-in no formato YYYY-MM-DD"},
			"checkout_date": map[string]interface{}{"type": "string", "description": "Data de check-out no formato YYYY-MM-DD"},
		}, []string{"checkin_date", "checkout_date"}),
		func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var args marketToolArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, errors.Wrap(errors.ErrInvalidInput, "decode get_market_prices arguments")
			}
			checkin, err := parseToolDate(args.CheckinDate, "checkin_date")
			if err != nil {
				return nil, err
			}
			checkout, err := parseToolDate(args.CheckoutDate, "checkout_date")
			if err != nil {
				return nil, err
			}

			quotes, err := g.HotelPrices(ctx, c, checkin, checkout)
			if err != nil {
				return nil, err
			}

			result := map[string]interface{}{
				"city":           c.DisplayName(),
				"checkin_date":   args.CheckinDate,
				"checkout_date":  args.CheckoutDate,
				"hotels":         quotes,
				"average_price":  averageQuotePrice(quotes),
				"baseline_price": nil,
			}
			if avg, n, berr := baseline.CompetitorAverage(ctx, c.ID, checkin); berr == nil {
				result["baseline_price"] = avg
				result["baseline_samples"] = n
			} else if !errors.Is(berr, errors.ErrNoBaseline) {
				return nil, berr
			}
			return result, nil
		},
	)
}

func newEventsAndNewsTool(c *city.City, g *gather.Gatherer) Tool {
	return NewFunctionTool(
		"search_for_events_and_news",
		"Busca notícias de turismo recentes e sinais de buzz social (eventos, menções) registrados para a cidade no período.",
		dateSchema(map[string]interface{}{
			"checkin_date":  map[string]interface{}{"type": "string", "description": "Início do período no formato YYYY-MM-DD"},
			"checkout_date": map[string]interface{}{"type": "string", "description": "Fim do período no formato YYYY-MM-DD"},
		}, []string{"checkin_date", "checkout_date"}),
		func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var args marketToolArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, errors.Wrap(errors.ErrInvalidInput, "decode search_for_events_and_news arguments")
			}
			from, err := parseToolDate(args.CheckinDate, "checkin_date")
			if err != nil {
				return nil, err
			}
			to, err := parseToolDate(args.CheckoutDate, "checkout_date")
			if err != nil {
				return nil, err
			}

			news, newsErr := g.News(ctx, c, 3)
			signals, sigErr := g.SocialSignals(ctx, c.ID, from, to)
			if newsErr != nil && sigErr != nil {
				return nil, errors.Wrapf(newsErr, "events and news for %s", c.Name)
			}

			return map[string]interface{}{
				"city":    c.DisplayName(),
				"news":    news,
				"signals": signals,
			}, nil
		},
	)
}

func newFlightAnalysisTool(c *city.City, g *gather.Gatherer, baseline *BaselineReader) Tool {
	return NewFunctionTool(
		"get_flight_price_analysis",
		"Busca os preços atuais de voos de São Paulo para a cidade em uma data e compara com a linha de base mensal.",
		dateSchema(map[string]interface{}{
			"travel_date": map[string]interface{}{"type": "string", "description": "Data da viagem no formato YYYY-MM-DD"},
		}, []string{"travel_date"}),
		func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var args marketToolArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, errors.Wrap(errors.ErrInvalidInput, "decode get_flight_price_analysis arguments")
			}
			travelDate, err := parseToolDate(args.TravelDate, "travel_date")
			if err != nil {
				return nil, err
			}

			quotes, err := g.FlightPrices(ctx, c, travelDate)
			if err != nil {
				return nil, err
			}

			result := map[string]interface{}{
				"city":           c.DisplayName(),
				"travel_date":    args.TravelDate,
				"flights":        quotes,
				"average_price":  averageFlightPrice(quotes),
				"baseline_price": nil,
			}
			if avg, n, berr := baseline.FlightAverage(ctx, c.ID, travelDate); berr == nil {
				result["baseline_price"] = avg
				result["baseline_samples"] = n
			} else if !errors.Is(berr, errors.ErrNoBaseline) {
				return nil, berr
			}
			return result, nil
		},
	)
}

func averageQuotePrice(quotes []gather.HotelQuote) interface{} {
	b := gather.Bundle{Hotels: quotes}
	if len(quotes) == 0 {
		return nil
	}
	return b.AverageHotelPrice()
}

func averageFlightPrice(quotes []gather.FlightQuote) interface{} {
	b := gather.Bundle{Flights: quotes}
	if len(quotes) == 0 {
		return nil
	}
	return b.AverageFlightPrice()
}
