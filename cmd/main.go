package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"prisma/internal/adapters/ai"
	"prisma/internal/adapters/booking"
	"prisma/internal/adapters/config"
	"prisma/internal/adapters/errors/noop"
	"prisma/internal/adapters/errors/sentry"
	"prisma/internal/adapters/postgres"
	"prisma/internal/adapters/redis"
	"prisma/internal/adapters/serp"
	"prisma/internal/analyst"
	"prisma/internal/api"
	"prisma/internal/domain/city"
	"prisma/internal/domain/prediction"
	"prisma/internal/domain/report"
	demandsignal "prisma/internal/domain/signal"
	"prisma/internal/domain/snapshot"
	"prisma/internal/gather"
	"prisma/internal/metrics"
	pgrepo "prisma/internal/repository/postgres"
	"prisma/internal/services/analysis"
	"prisma/internal/services/chat"
	predictionsvc "prisma/internal/services/prediction"
	"prisma/internal/workers"
	"prisma/pkg/errors"
	"prisma/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	// Databases
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Repositories
	repos := initRepositories(pgClient)

	// Upstream providers
	chatProvider := initAIProvider(cfg, log)

	serpClient := serp.NewClient(cfg.Search)

	var bookingClient *booking.Client
	if cfg.Booking.Enabled() {
		bookingClient = booking.NewClient(cfg.Booking)
		log.Info("Booking Demand API connector enabled")
	} else {
		log.Info("Booking Demand API connector disabled (no credentials)")
	}

	// Core components
	gatherer := gather.NewGatherer(
		serpClient,
		bookingClient,
		repos.Signals,
		cfg.Analysis.DefaultCurrency,
		cfg.Analysis.GatherTimeout,
	)
	baseline := analyst.NewBaselineReader(
		repos.Snapshots,
		snapshot.KindForBaseline(cfg.Analysis.BaselineKind),
		cfg.Analysis.BaselineWindow,
	)
	synthesizer := analyst.NewSynthesizer(chatProvider, cfg.AI.Model)

	// Services
	analysisSvc := analysis.NewService(
		repos.Cities,
		repos.Reports,
		gatherer,
		baseline,
		synthesizer,
		redisClient,
		cfg.Analysis,
	)
	chatSvc := chat.NewService(
		repos.Cities,
		repos.Predictions,
		gatherer,
		baseline,
		chatProvider,
		cfg.AI,
		cfg.Analysis.MaxIterations,
	)
	predictionSvc := predictionsvc.NewService(
		repos.Cities,
		repos.Predictions,
		baseline,
		cfg.Workers.PredictionDaysAhead,
	)

	// Background collectors
	scheduler := initWorkers(cfg, repos, gatherer, bookingClient, predictionSvc, redisClient)

	// HTTP API
	handlers := api.NewHandlers(analysisSvc, chatSvc, repos.Cities, repos.Predictions, repos.Reports)
	probes := map[string]api.HealthProbe{
		"postgres": pgClient.Health,
		"redis":    redisClient.Health,
	}
	server := api.NewServer(api.ServerConfig{
		Port:           cfg.HTTP.Port,
		ServiceName:    cfg.App.Name,
		Version:        version,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, handlers, probes, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker scheduler: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, cfg, scheduler, server, errorTracker, log)
}

// Repositories bundles all data access dependencies
type Repositories struct {
	Cities      city.Repository
	Snapshots   snapshot.Repository
	Signals     demandsignal.Repository
	Reports     report.Repository
	Predictions prediction.Repository
}

func initRepositories(pg *postgres.Client) *Repositories {
	return &Repositories{
		Cities:      pgrepo.NewCityRepository(pg.DB()),
		Snapshots:   pgrepo.NewSnapshotRepository(pg.DB()),
		Signals:     pgrepo.NewSignalRepository(pg.DB()),
		Reports:     pgrepo.NewReportRepository(pg.DB()),
		Predictions: pgrepo.NewPredictionRepository(pg.DB()),
	}
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func initAIProvider(cfg *config.Config, log *logger.Logger) ai.ChatProvider {
	limiter := ai.NewTokenBucketLimiter(ai.ProviderNameOpenAI, float64(cfg.AI.RequestsPerMin), cfg.AI.RequestsPerMin)
	provider := ai.NewOpenAIProvider(cfg.AI.OpenAIKey, cfg.AI.BaseURL, cfg.AI.RequestTimeout, limiter)

	registry := ai.NewProviderRegistry()
	if err := registry.Register(provider); err != nil {
		log.Fatalf("Failed to register AI provider: %v", err)
	}

	chatProvider, err := registry.GetChat(cfg.AI.DefaultProvider)
	if err != nil {
		log.Fatalf("AI provider %q does not support chat: %v", cfg.AI.DefaultProvider, err)
	}

	log.Infof("AI provider initialized: %s (model %s)", chatProvider.Name(), cfg.AI.Model)
	return chatProvider
}

func initWorkers(
	cfg *config.Config,
	repos *Repositories,
	gatherer *gather.Gatherer,
	bookingClient *booking.Client,
	predictionSvc *predictionsvc.Service,
	locks *redis.Client,
) *workers.Scheduler {
	scheduler := workers.NewScheduler()

	scheduler.RegisterWorker(workers.NewDailyPriceWorker(repos.Cities, repos.Snapshots, gatherer, locks, cfg.Workers))
	scheduler.RegisterWorker(workers.NewBookingDemandWorker(repos.Cities, repos.Snapshots, bookingClient, locks, cfg.Workers))
	scheduler.RegisterWorker(workers.NewMonthlyBaselineWorker(repos.Cities, repos.Snapshots, gatherer, locks, cfg.Workers))
	scheduler.RegisterWorker(workers.NewSocialBuzzWorker(repos.Cities, repos.Signals, gatherer, locks, cfg.Workers))
	scheduler.RegisterWorker(workers.NewPredictionWorker(predictionSvc, locks, cfg.Workers))

	return scheduler
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg *config.Config,
	scheduler *workers.Scheduler,
	server *api.Server,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("Shutting down...")

	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker scheduler shutdown: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(shutdownCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
