package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"prisma/internal/adapters/config"
	"prisma/internal/adapters/redis"
	"prisma/internal/analyst"
	"prisma/internal/domain/city"
	"prisma/internal/domain/report"
	"prisma/internal/gather"
	"prisma/internal/metrics"
	"prisma/pkg/errors"
	"prisma/pkg/logger"
)

const dateLayout = "2006-01-02"

// Synthesizer produces the final markdown report from structured data.
type Synthesizer interface {
	Synthesize(ctx context.Context, data *report.StructuredData, start, end time.Time) (string, error)
}

// Service runs a full market analysis for one city and period: gather
// realtime signals, read the stored baseline, synthesize the report and
// persist it.
type Service struct {
	cities   city.Repository
	reports  report.Repository
	gatherer *gather.Gatherer
	baseline *analyst.BaselineReader
	synth    Synthesizer
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(
	cities city.Repository,
	reports report.Repository,
	gatherer *gather.Gatherer,
	baseline *analyst.BaselineReader,
	synth Synthesizer,
	cache *redis.Client,
	cfg config.AnalysisConfig,
) *Service {
	return &Service{
		cities:   cities,
		reports:  reports,
		gatherer: gatherer,
		baseline: baseline,
		synth:    synth,
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
	}
}

// RunRequest identifies the analysis target.
type RunRequest struct {
	UserID    uuid.UUID
	CityID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

func (r RunRequest) validate() error {
	if r.CityID == uuid.Nil {
		return errors.NewValidationError("cityId", "is required")
	}
	if r.UserID == uuid.Nil {
		return errors.NewValidationError("userId", "is required")
	}
	if r.StartDate.IsZero() {
		return errors.NewValidationError("startDate", "is required")
	}
	if r.EndDate.IsZero() {
		return errors.NewValidationError("endDate", "is required")
	}
	if r.EndDate.Before(r.StartDate) {
		return errors.NewValidationError("endDate", "must not be before startDate")
	}
	return nil
}

// RunResult matches the wire shape consumed by the dashboard.
type RunResult struct {
	Analysis struct {
		FinalReport string `json:"final_report"`
	} `json:"analysis"`
	StructuredData report.StructuredData `json:"structured_data"`
}

// Run executes a full analysis. The report is persisted and cached
// best-effort; a storage failure does not fail the run.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("analysis:%s:%s:%s",
		req.CityID, req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout))
	if s.cache != nil {
		var cached RunResult
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			logger.Debugf("analysis cache hit for %s", cacheKey)
			metrics.AnalysisRuns.WithLabelValues("cached").Inc()
			return &cached, nil
		}
	}

	c, err := s.cities.GetByID(ctx, req.CityID)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	defer func() {
		metrics.AnalysisDuration.WithLabelValues(c.Slug).Observe(time.Since(started).Seconds())
	}()

	logger.Infof("starting market analysis for %s (%s to %s)",
		c.DisplayName(), req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout))

	bundle := s.gatherer.GatherAll(ctx, c, req.StartDate, req.EndDate)

	competitorBaseline, _, baselineErr := s.baseline.CompetitorAverage(ctx, c.ID, req.StartDate)
	if baselineErr != nil && !errors.Is(baselineErr, errors.ErrNoBaseline) {
		return nil, baselineErr
	}
	noBaseline := errors.Is(baselineErr, errors.ErrNoBaseline)

	// Without realtime prices and without a baseline there is nothing to
	// analyze for this period.
	if bundle.HotelsErr != nil && noBaseline {
		metrics.AnalysisRuns.WithLabelValues("error").Inc()
		return nil, errors.Wrapf(errors.ErrNoPriceData,
			"no realtime prices and no baseline for %s on %s", c.Name, req.StartDate.Format(dateLayout))
	}

	flightBaseline, _, flightErr := s.baseline.FlightAverage(ctx, c.ID, req.StartDate)
	if flightErr != nil && !errors.Is(flightErr, errors.ErrNoBaseline) {
		return nil, flightErr
	}

	data := buildStructuredData(c, req.StartDate, req.EndDate, bundle, baselineValue(competitorBaseline, noBaseline), baselineValue(flightBaseline, errors.Is(flightErr, errors.ErrNoBaseline)))

	markdown, err := s.synth.Synthesize(ctx, data, req.StartDate, req.EndDate)
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.AnalysisRuns.WithLabelValues("success").Inc()

	rep := &report.MarketAnalysisReport{
		UserID:         req.UserID,
		CityID:         c.ID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ReportMarkdown: markdown,
		StructuredData: *data,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		logger.Errorf("failed to persist analysis report for %s: %v", c.Name, err)
	}

	result := &RunResult{StructuredData: *data}
	result.Analysis.FinalReport = markdown

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			logger.Warnf("failed to cache analysis result: %v", err)
		}
	}
	return result, nil
}

// RunDay analyzes a single night, checkout the following day.
func (s *Service) RunDay(ctx context.Context, userID, cityID uuid.UUID, date time.Time) (*RunResult, error) {
	return s.Run(ctx, RunRequest{
		UserID:    userID,
		CityID:    cityID,
		StartDate: date,
		EndDate:   date.AddDate(0, 0, 1),
	})
}
