package gather

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"prisma/internal/domain/snapshot"
	"prisma/pkg/errors"
)

// Listing prices come back as display strings ("R$ 1.234", "$189"). Strip
// everything except digits and the decimal point before parsing.
func parsePrice(raw string) (decimal.Decimal, bool) {
	var sb strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			sb.WriteRune(r)
		}
	}
	cleaned := sb.String()
	if cleaned == "" || cleaned == "." {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(cleaned)
	if err != nil || price.IsZero() {
		return decimal.Zero, false
	}
	return price, true
}

type bookingResponse struct {
	Properties []bookingProperty `json:"properties"`
}

type bookingProperty struct {
	Title string          `json:"title"`
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
}

func (p bookingProperty) displayName() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

// Price can be a display string or a bare number depending on the engine.
func rawPrice(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Zero, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parsePrice(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return parsePrice(n.String())
	}
	return decimal.Zero, false
}

func parseHotelProperties(payload json.RawMessage, source string, currency string) ([]HotelQuote, error) {
	var resp bookingResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, errors.Wrap(err, "parse hotel listing response")
	}
	quotes := make([]HotelQuote, 0, len(resp.Properties))
	for _, prop := range resp.Properties {
		name := prop.displayName()
		if name == "" {
			continue
		}
		price, ok := rawPrice(prop.Price)
		if !ok {
			continue
		}
		quotes = append(quotes, HotelQuote{
			HotelName: name,
			Price:     price,
			Currency:  currency,
			Source:    source,
		})
	}
	return quotes, nil
}

type flightsResponse struct {
	BestFlights  []flightEntry `json:"best_flights"`
	OtherFlights []flightEntry `json:"other_flights"`
}

type flightEntry struct {
	Price   json.Number  `json:"price"`
	Flights []flightLegs `json:"flights"`
}

type flightLegs struct {
	Airline string `json:"airline"`
}

func parseFlights(payload json.RawMessage, currency string) ([]FlightQuote, error) {
	var resp flightsResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, errors.Wrap(err, "parse flights response")
	}
	entries := append(resp.BestFlights, resp.OtherFlights...)
	quotes := make([]FlightQuote, 0, len(entries))
	for _, entry := range entries {
		price, ok := parsePrice(entry.Price.String())
		if !ok {
			continue
		}
		airline := ""
		if len(entry.Flights) > 0 {
			airline = entry.Flights[0].Airline
		}
		quotes = append(quotes, FlightQuote{
			Airline:  airline,
			Price:    price,
			Currency: currency,
			Source:   string(snapshot.SourceGoogleFlights),
		})
	}
	return quotes, nil
}

type newsResponse struct {
	NewsResults []newsResult `json:"news_results"`
}

type newsResult struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

func parseNews(payload json.RawMessage, limit int) ([]NewsRecord, error) {
	var resp newsResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, errors.Wrap(err, "parse news response")
	}
	if limit <= 0 || limit > len(resp.NewsResults) {
		limit = len(resp.NewsResults)
	}
	records := make([]NewsRecord, 0, limit)
	for _, item := range resp.NewsResults[:limit] {
		if item.Title == "" {
			continue
		}
		records = append(records, NewsRecord{
			Title:   item.Title,
			Source:  item.Source,
			Snippet: item.Snippet,
			Link:    item.Link,
		})
	}
	return records, nil
}
