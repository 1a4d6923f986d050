package gather

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceStripsCurrencyNoise(t *testing.T) {
	price, ok := parsePrice("R$ 1.234")
	require.True(t, ok)
	assert.Equal(t, "1.234", price.String())

	price, ok = parsePrice("$189")
	require.True(t, ok)
	assert.Equal(t, "189", price.String())

	_, ok = parsePrice("sold out")
	assert.False(t, ok)

	_, ok = parsePrice("")
	assert.False(t, ok)
}

func TestParseHotelPropertiesBookingShape(t *testing.T) {
	payload := json.RawMessage(`{
		"properties": [
			{"title": "Hotel Cataratas", "price": "R$ 450"},
			{"title": "Pousada Central", "price": 320},
			{"title": "No Price Inn"},
			{"price": "R$ 99"}
		]
	}`)

	quotes, err := parseHotelProperties(payload, "booking.com", "BRL")
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "Hotel Cataratas", quotes[0].HotelName)
	assert.Equal(t, "450", quotes[0].Price.String())
	assert.Equal(t, "booking.com", quotes[0].Source)
	assert.Equal(t, "BRL", quotes[0].Currency)

	assert.Equal(t, "Pousada Central", quotes[1].HotelName)
	assert.Equal(t, "320", quotes[1].Price.String())
}

func TestParseHotelPropertiesGoogleShapeUsesName(t *testing.T) {
	payload := json.RawMessage(`{"properties": [{"name": "Wish Resort", "price": "R$ 780"}]}`)

	quotes, err := parseHotelProperties(payload, "google_hotels", "BRL")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Wish Resort", quotes[0].HotelName)
}

func TestParseFlightsMergesBestAndOther(t *testing.T) {
	payload := json.RawMessage(`{
		"best_flights": [{"price": 890, "flights": [{"airline": "LATAM"}]}],
		"other_flights": [{"price": 1120, "flights": [{"airline": "GOL"}]}, {"flights": [{"airline": "Azul"}]}]
	}`)

	quotes, err := parseFlights(payload, "BRL")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "LATAM", quotes[0].Airline)
	assert.Equal(t, "890", quotes[0].Price.String())
	assert.Equal(t, "GOL", quotes[1].Airline)
}

func TestParseNewsHonorsLimit(t *testing.T) {
	payload := json.RawMessage(`{
		"news_results": [
			{"title": "Festival movimenta hotelaria", "source": "G1", "snippet": "Ocupacao recorde"},
			{"title": "Nova rota aerea anunciada", "source": "Folha"},
			{"title": "Feriado prolongado", "source": "Estadao"},
			{"title": "Quarta noticia", "source": "UOL"}
		]
	}`)

	records, err := parseNews(payload, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Festival movimenta hotelaria", records[0].Title)
	assert.Equal(t, "G1", records[0].Source)
}

func TestParseNewsMalformedPayload(t *testing.T) {
	_, err := parseNews(json.RawMessage(`not json`), 3)
	assert.Error(t, err)
}

func TestBundleAverageAndFailureAccounting(t *testing.T) {
	b := &Bundle{}
	assert.True(t, b.AverageHotelPrice().IsZero())

	b.Hotels = mustQuotes(t, 100, 200, 300)
	assert.Equal(t, "200", b.AverageHotelPrice().String())

	b.HotelsErr = assert.AnError
	b.FlightsErr = assert.AnError
	assert.False(t, b.AllFailed())
	b.NewsErr = assert.AnError
	assert.True(t, b.AllFailed())
}

func mustQuotes(t *testing.T, prices ...int64) []HotelQuote {
	t.Helper()
	quotes := make([]HotelQuote, 0, len(prices))
	for _, p := range prices {
		quotes = append(quotes, HotelQuote{
			HotelName: "h",
			Price:     decimal.NewFromInt(p),
			Currency:  "BRL",
			Source:    "test",
		})
	}
	return quotes
}
