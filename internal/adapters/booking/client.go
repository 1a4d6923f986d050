package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"prisma/internal/adapters/config"
	"prisma/pkg/errors"
)

const providerName = "booking_demand_api"

// HotelPrice is a single accommodation offer returned by the Demand API.
type HotelPrice struct {
	HotelID     string
	HotelName   string
	Price       decimal.Decimal
	Currency    string
	ReviewScore *float64
}

// Client calls the Booking.com Demand API accommodations search endpoint.
type Client struct {
	apiKey      string
	affiliateID string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a Demand API client with request pacing.
func NewClient(cfg config.BookingConfig) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		apiKey:      cfg.APIKey,
		affiliateID: cfg.AffiliateID,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Enabled reports whether the client has credentials configured.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.affiliateID != ""
}

type searchRequest struct {
	Booker   booker   `json:"booker"`
	Checkin  string   `json:"checkin"`
	Checkout string   `json:"checkout"`
	Guests   guests   `json:"guests"`
	CityIDs  []int64  `json:"city_ids"`
	Extras   []string `json:"extras"`
	Limit    int      `json:"limit"`
}

type booker struct {
	Country  string `json:"country"`
	Platform string `json:"platform"`
}

type guests struct {
	NumberOfRooms  int `json:"number_of_rooms"`
	NumberOfAdults int `json:"number_of_adults"`
}

type searchResponse struct {
	Result []struct {
		HotelID   json.Number `json:"hotel_id"`
		HotelName string      `json:"hotel_name"`
		Price     struct {
			Amount   json.Number `json:"amount"`
			Currency string      `json:"currency"`
		} `json:"price"`
		ReviewScore *float64 `json:"review_score"`
	} `json:"result"`
}

// SearchAccommodations fetches hotel offers for a Booking city ID and stay window.
// Dates are YYYY-MM-DD. Searches with 2 adults and 1 room, the standard probe
// used for competitor price sampling.
func (c *Client) SearchAccommodations(ctx context.Context, bookingCityID int64, checkin, checkout string) ([]HotelPrice, error) {
	if !c.Enabled() {
		return nil, errors.NewProviderError(providerName, "accommodations/search", 0,
			errors.New("API key not configured"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "booking rate limiter wait")
	}

	reqBody := searchRequest{
		Booker:   booker{Country: "br", Platform: "desktop"},
		Checkin:  checkin,
		Checkout: checkout,
		Guests:   guests{NumberOfRooms: 1, NumberOfAdults: 2},
		CityIDs:  []int64{bookingCityID},
		Extras:   []string{"hotel_info", "payment_info"},
		Limit:    50,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "marshal booking request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/accommodations/search", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create booking request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Affiliate-Id", c.affiliateID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderError(providerName, "accommodations/search", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderError(providerName, "accommodations/search", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderError(providerName, "accommodations/search", resp.StatusCode,
			errors.Newf("unexpected status: %s", strings.TrimSpace(string(respBody))))
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrap(err, "unmarshal booking response")
	}

	prices := make([]HotelPrice, 0, len(parsed.Result))
	for _, hotel := range parsed.Result {
		amount, err := decimal.NewFromString(hotel.Price.Amount.String())
		if err != nil {
			continue
		}
		prices = append(prices, HotelPrice{
			HotelID:     hotel.HotelID.String(),
			HotelName:   hotel.HotelName,
			Price:       amount,
			Currency:    hotel.Price.Currency,
			ReviewScore: hotel.ReviewScore,
		})
	}

	return prices, nil
}
