package serp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"prisma/internal/adapters/config"
	"prisma/internal/metrics"
	"prisma/pkg/errors"
)

// Engine identifiers supported by the SerpApi search endpoint.
const (
	EngineBooking       = "booking"
	EngineGoogleHotels  = "google_hotels"
	EngineGoogleFlights = "google_flights"
	EngineGoogle        = "google"
)

const providerName = "serpapi"

// Client calls the SerpApi search endpoint. All engine-specific parsing
// lives with the callers; the client returns the raw JSON document.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a SerpApi client with request pacing.
func NewClient(cfg config.SearchConfig) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Search runs a single query against the given engine and returns the raw
// JSON body. A non-200 response or transport failure comes back as a
// ProviderError so callers can distinguish upstream failure from no data.
func (c *Client) Search(ctx context.Context, engine string, params map[string]string) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, errors.NewProviderError(providerName, engine, 0, errors.New("API key not configured"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "serpapi rate limiter wait")
	}

	query := url.Values{}
	query.Set("engine", engine)
	query.Set("api_key", c.apiKey)
	for k, v := range params {
		query.Set(k, v)
	}

	endpoint := c.baseURL + "/search.json?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create serpapi request")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderAPILatency.WithLabelValues(providerName, engine).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ProviderAPICalls.WithLabelValues(providerName, engine, "error").Inc()
		return nil, errors.NewProviderError(providerName, engine, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderError(providerName, engine, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderAPICalls.WithLabelValues(providerName, engine, "error").Inc()
		return nil, errors.NewProviderError(providerName, engine, resp.StatusCode,
			errors.Newf("unexpected status: %s", strings.TrimSpace(string(body))))
	}

	// SerpApi reports some failures inside a 200 body
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Error != "" {
		metrics.ProviderAPICalls.WithLabelValues(providerName, engine, "error").Inc()
		return nil, errors.NewProviderError(providerName, engine, resp.StatusCode, errors.New(probe.Error))
	}

	metrics.ProviderAPICalls.WithLabelValues(providerName, engine, "success").Inc()
	return body, nil
}
