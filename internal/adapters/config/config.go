package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"prisma/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	AI            AIConfig
	Search        SearchConfig
	Booking       BookingConfig
	Analysis      AnalysisConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"prisma"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Host            string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"5m"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
	AllowedOrigins  []string      `envconfig:"HTTP_ALLOWED_ORIGINS" default:"*"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AIConfig struct {
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY" required:"true"`
	BaseURL         string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model           string        `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	SummaryModel    string        `envconfig:"OPENAI_SUMMARY_MODEL" default:"gpt-4o-mini"`
	Temperature     float64       `envconfig:"OPENAI_TEMPERATURE" default:"0.2"`
	MaxTokens       int           `envconfig:"OPENAI_MAX_TOKENS" default:"4096"`
	RequestTimeout  time.Duration `envconfig:"OPENAI_REQUEST_TIMEOUT" default:"120s"`
	RequestsPerMin  int           `envconfig:"OPENAI_REQUESTS_PER_MIN" default:"60"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"openai"`
}

type SearchConfig struct {
	APIKey         string        `envconfig:"SERP_API_KEY" required:"true"`
	BaseURL        string        `envconfig:"SERP_BASE_URL" default:"https://serpapi.com"`
	RequestTimeout time.Duration `envconfig:"SERP_REQUEST_TIMEOUT" default:"30s"`
	RequestsPerSec float64       `envconfig:"SERP_REQUESTS_PER_SEC" default:"2"`
}

type BookingConfig struct {
	APIKey         string        `envconfig:"BOOKING_API_KEY"`
	AffiliateID    string        `envconfig:"BOOKING_AFFILIATE_ID"`
	BaseURL        string        `envconfig:"BOOKING_BASE_URL" default:"https://demandapi.booking.com/3.1"`
	RequestTimeout time.Duration `envconfig:"BOOKING_REQUEST_TIMEOUT" default:"30s"`
	RequestsPerSec float64       `envconfig:"BOOKING_REQUESTS_PER_SEC" default:"1"`
}

// Enabled reports whether the Demand API connector is configured.
func (c BookingConfig) Enabled() bool {
	return c.APIKey != "" && c.AffiliateID != ""
}

type AnalysisConfig struct {
	// BaselineKind selects the averaging window used as the comparison
	// baseline: "monthly" or "weekly"
	BaselineKind    string        `envconfig:"ANALYSIS_BASELINE_KIND" default:"monthly"`
	BaselineWindow  time.Duration `envconfig:"ANALYSIS_BASELINE_WINDOW" default:"720h"`
	MaxIterations   int           `envconfig:"ANALYSIS_MAX_TOOL_ITERATIONS" default:"15"`
	CacheTTL        time.Duration `envconfig:"ANALYSIS_CACHE_TTL" default:"1h"`
	GatherTimeout   time.Duration `envconfig:"ANALYSIS_GATHER_TIMEOUT" default:"90s"`
	DefaultCurrency string        `envconfig:"ANALYSIS_DEFAULT_CURRENCY" default:"BRL"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for all background collectors.
// Defaults balance data freshness against provider rate limits.
type WorkerConfig struct {
	// Price collectors (provider-bound, keep intervals generous)
	DailyPriceInterval      time.Duration `envconfig:"WORKER_DAILY_PRICE_INTERVAL" default:"24h"`
	BookingDemandInterval   time.Duration `envconfig:"WORKER_BOOKING_DEMAND_INTERVAL" default:"24h"`
	MonthlyBaselineInterval time.Duration `envconfig:"WORKER_MONTHLY_BASELINE_INTERVAL" default:"168h"`

	// Signal collectors
	SocialBuzzInterval time.Duration `envconfig:"WORKER_SOCIAL_BUZZ_INTERVAL" default:"6h"`

	// Prediction batch
	PredictionInterval time.Duration `envconfig:"WORKER_PREDICTION_INTERVAL" default:"12h"`

	// Horizons, in days ahead of today, sampled by each collector run
	DailyPriceHorizons      []int `envconfig:"WORKER_DAILY_PRICE_HORIZONS" default:"7,15,30,60,90"`
	BookingDemandHorizons   []int `envconfig:"WORKER_BOOKING_DEMAND_HORIZONS" default:"15,45,75"`
	MonthlyBaselineHorizons []int `envconfig:"WORKER_MONTHLY_BASELINE_HORIZONS" default:"30,60,90"`
	PredictionDaysAhead     int   `envconfig:"WORKER_PREDICTION_DAYS_AHEAD" default:"90"`

	// LockTTL bounds how long a collector run-lock survives a crashed worker
	LockTTL time.Duration `envconfig:"WORKER_LOCK_TTL" default:"30m"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
