package workers

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"prisma/internal/adapters/booking"
	"prisma/internal/adapters/config"
	"prisma/internal/adapters/redis"
	"prisma/internal/domain/city"
	"prisma/internal/domain/snapshot"
	"prisma/internal/gather"
	"prisma/pkg/errors"
)

// Each collector takes a redis run-lock so overlapping deployments do not
// double-scrape the same providers.
type lockingWorker struct {
	*BaseWorker
	locks   *redis.Client
	lockTTL time.Duration
}

func newLockingWorker(name string, interval time.Duration, locks *redis.Client, lockTTL time.Duration) lockingWorker {
	return lockingWorker{
		BaseWorker: NewBaseWorker(name, interval, true),
		locks:      locks,
		lockTTL:    lockTTL,
	}
}

// withLock runs fn under the worker's distributed lock. A held lock means
// another instance is already sweeping; that is a no-op, not an error.
func (w *lockingWorker) withLock(ctx context.Context, fn func(context.Context) error) error {
	start := time.Now()

	if w.locks != nil {
		acquired, err := w.locks.AcquireLock(ctx, w.Name(), w.lockTTL)
		if err != nil {
			w.RecordError(err, time.Since(start))
			return errors.Wrapf(err, "acquire lock for %s", w.Name())
		}
		if !acquired {
			w.Log().Debugf("skipping run, lock held elsewhere")
			return nil
		}
		defer func() {
			if err := w.locks.ReleaseLock(context.WithoutCancel(ctx), w.Name()); err != nil {
				w.Log().Warnf("failed to release lock: %v", err)
			}
		}()
	}

	if err := fn(ctx); err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}
	w.RecordRun(time.Since(start))
	return nil
}

func snapshotsFromHotels(cityID city.City, quotes []gather.HotelQuote, kind snapshot.Kind, targetDate time.Time) []*snapshot.PriceSnapshot {
	out := make([]*snapshot.PriceSnapshot, 0, len(quotes))
	for _, q := range quotes {
		name := q.HotelName
		out = append(out, &snapshot.PriceSnapshot{
			CityID:     cityID.ID,
			Source:     snapshot.Source(q.Source),
			Kind:       kind,
			TargetDate: targetDate,
			Price:      q.Price,
			Currency:   q.Currency,
			Label:      &name,
		})
	}
	return out
}

func snapshotsFromFlights(cityID city.City, quotes []gather.FlightQuote, kind snapshot.Kind, targetDate time.Time) []*snapshot.PriceSnapshot {
	out := make([]*snapshot.PriceSnapshot, 0, len(quotes))
	for _, q := range quotes {
		var label *string
		if q.Airline != "" {
			airline := q.Airline
			label = &airline
		}
		out = append(out, &snapshot.PriceSnapshot{
			CityID:     cityID.ID,
			Source:     snapshot.Source(q.Source),
			Kind:       kind,
			TargetDate: targetDate,
			Price:      q.Price,
			Currency:   q.Currency,
			Label:      label,
		})
	}
	return out
}

// DailyPriceWorker sweeps realtime competitor rates across the near-term
// horizon for every active city.
type DailyPriceWorker struct {
	lockingWorker
	cities    city.Repository
	snapshots snapshot.Repository
	gatherer  *gather.Gatherer
	horizons  []int
	pacer     *rate.Limiter
}

func NewDailyPriceWorker(cities city.Repository, snapshots snapshot.Repository, gatherer *gather.Gatherer, locks *redis.Client, cfg config.WorkerConfig) *DailyPriceWorker {
	return &DailyPriceWorker{
		lockingWorker: newLockingWorker("daily_price_collector", cfg.DailyPriceInterval, locks, cfg.LockTTL),
		cities:        cities,
		snapshots:     snapshots,
		gatherer:      gatherer,
		horizons:      cfg.DailyPriceHorizons,
		pacer:         rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

func (w *DailyPriceWorker) Run(ctx context.Context) error {
	return w.withLock(ctx, func(ctx context.Context) error {
		cities, err := w.cities.ListActive(ctx)
		if err != nil {
			return errors.Wrap(err, "list cities for daily price sweep")
		}

		today := time.Now().Truncate(24 * time.Hour)
		var saved int

		for _, c := range cities {
			for _, daysAhead := range w.horizons {
				if err := w.pacer.Wait(ctx); err != nil {
					return err
				}

				checkin := today.AddDate(0, 0, daysAhead)
				checkout := checkin.AddDate(0, 0, 1)

				batch := make([]*snapshot.PriceSnapshot, 0, 64)
				if quotes, err := w.gatherer.HotelPrices(ctx, c, checkin, checkout); err != nil {
					w.Log().Warnf("booking sweep failed for %s +%dd: %v", c.Name, daysAhead, err)
				} else {
					batch = append(batch, snapshotsFromHotels(*c, quotes, snapshot.KindRealtime, checkin)...)
				}
				if quotes, err := w.gatherer.GoogleHotelPrices(ctx, c, checkin, checkout); err != nil {
					w.Log().Warnf("google hotels sweep failed for %s +%dd: %v", c.Name, daysAhead, err)
				} else {
					batch = append(batch, snapshotsFromHotels(*c, quotes, snapshot.KindRealtime, checkin)...)
				}

				if len(batch) == 0 {
					continue
				}
				if err := w.snapshots.BulkInsert(ctx, batch); err != nil {
					return errors.Wrapf(err, "save daily snapshots for %s", c.Name)
				}
				saved += len(batch)
			}
		}

		w.Log().Infof("daily price sweep saved %d snapshots", saved)
		return nil
	})
}

// BookingDemandWorker pulls hotel rates from the Demand API for cities that
// are mapped to a booking destination id.
type BookingDemandWorker struct {
	lockingWorker
	cities    city.Repository
	snapshots snapshot.Repository
	client    *booking.Client
	horizons  []int
	pacer     *rate.Limiter
}

func NewBookingDemandWorker(cities city.Repository, snapshots snapshot.Repository, client *booking.Client, locks *redis.Client, cfg config.WorkerConfig) *BookingDemandWorker {
	w := &BookingDemandWorker{
		lockingWorker: newLockingWorker("booking_demand_collector", cfg.BookingDemandInterval, locks, cfg.LockTTL),
		cities:        cities,
		snapshots:     snapshots,
		client:        client,
		horizons:      cfg.BookingDemandHorizons,
		pacer:         rate.NewLimiter(rate.Every(time.Second), 1),
	}
	if client == nil {
		w.SetEnabled(false)
	}
	return w
}

func (w *BookingDemandWorker) Run(ctx context.Context) error {
	return w.withLock(ctx, func(ctx context.Context) error {
		cities, err := w.cities.ListActive(ctx)
		if err != nil {
			return errors.Wrap(err, "list cities for demand API sweep")
		}

		today := time.Now().Truncate(24 * time.Hour)
		var saved int

		for _, c := range cities {
			if c.BookingCityID == nil {
				continue
			}
			for _, daysAhead := range w.horizons {
				if err := w.pacer.Wait(ctx); err != nil {
					return err
				}

				checkin := today.AddDate(0, 0, daysAhead)
				checkout := checkin.AddDate(0, 0, 1)

				hotels, err := w.client.SearchAccommodations(ctx, *c.BookingCityID,
					checkin.Format("2006-01-02"), checkout.Format("2006-01-02"))
				if err != nil {
					w.Log().Warnf("demand API sweep failed for %s +%dd: %v", c.Name, daysAhead, err)
					continue
				}

				batch := make([]*snapshot.PriceSnapshot, 0, len(hotels))
				for _, h := range hotels {
					name := h.HotelName
					batch = append(batch, &snapshot.PriceSnapshot{
						CityID:     c.ID,
						Source:     snapshot.SourceBookingAPI,
						Kind:       snapshot.KindRealtime,
						TargetDate: checkin,
						Price:      h.Price,
						Currency:   h.Currency,
						Label:      &name,
					})
				}
				if len(batch) == 0 {
					continue
				}
				if err := w.snapshots.BulkInsert(ctx, batch); err != nil {
					return errors.Wrapf(err, "save demand API snapshots for %s", c.Name)
				}
				saved += len(batch)
			}
		}

		w.Log().Infof("demand API sweep saved %d snapshots", saved)
		return nil
	})
}

// MonthlyBaselineWorker records the reference prices the analysis compares
// realtime rates against, across both hotel channels and flights, and prunes
// snapshots past retention.
type MonthlyBaselineWorker struct {
	lockingWorker
	cities    city.Repository
	snapshots snapshot.Repository
	gatherer  *gather.Gatherer
	horizons  []int
	retention time.Duration
	pacer     *rate.Limiter
}

func NewMonthlyBaselineWorker(cities city.Repository, snapshots snapshot.Repository, gatherer *gather.Gatherer, locks *redis.Client, cfg config.WorkerConfig) *MonthlyBaselineWorker {
	return &MonthlyBaselineWorker{
		lockingWorker: newLockingWorker("monthly_baseline_collector", cfg.MonthlyBaselineInterval, locks, cfg.LockTTL),
		cities:        cities,
		snapshots:     snapshots,
		gatherer:      gatherer,
		horizons:      cfg.MonthlyBaselineHorizons,
		retention:     180 * 24 * time.Hour,
		pacer:         rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

func (w *MonthlyBaselineWorker) Run(ctx context.Context) error {
	return w.withLock(ctx, func(ctx context.Context) error {
		cities, err := w.cities.ListActive(ctx)
		if err != nil {
			return errors.Wrap(err, "list cities for baseline sweep")
		}

		today := time.Now().Truncate(24 * time.Hour)
		var saved int

		for _, c := range cities {
			for _, daysAhead := range w.horizons {
				if err := w.pacer.Wait(ctx); err != nil {
					return err
				}

				checkin := today.AddDate(0, 0, daysAhead)
				checkout := checkin.AddDate(0, 0, 1)
				batch := make([]*snapshot.PriceSnapshot, 0, 64)

				if quotes, err := w.gatherer.HotelPrices(ctx, c, checkin, checkout); err != nil {
					w.Log().Warnf("baseline booking sweep failed for %s +%dd: %v", c.Name, daysAhead, err)
				} else {
					batch = append(batch, snapshotsFromHotels(*c, quotes, snapshot.KindBaseline, checkin)...)
				}
				if quotes, err := w.gatherer.GoogleHotelPrices(ctx, c, checkin, checkout); err != nil {
					w.Log().Warnf("baseline google hotels sweep failed for %s +%dd: %v", c.Name, daysAhead, err)
				} else {
					batch = append(batch, snapshotsFromHotels(*c, quotes, snapshot.KindBaseline, checkin)...)
				}
				if quotes, err := w.gatherer.FlightPrices(ctx, c, checkin); err != nil {
					w.Log().Warnf("baseline flight sweep failed for %s +%dd: %v", c.Name, daysAhead, err)
				} else {
					batch = append(batch, snapshotsFromFlights(*c, quotes, snapshot.KindBaseline, checkin)...)
				}

				if len(batch) == 0 {
					continue
				}
				if err := w.snapshots.BulkInsert(ctx, batch); err != nil {
					return errors.Wrapf(err, "save baseline snapshots for %s", c.Name)
				}
				saved += len(batch)
			}
		}

		if pruned, err := w.snapshots.DeleteOlderThan(ctx, time.Now().Add(-w.retention)); err != nil {
			w.Log().Warnf("snapshot retention prune failed: %v", err)
		} else if pruned > 0 {
			w.Log().Infof("pruned %d snapshots past retention", pruned)
		}

		w.Log().Infof("baseline sweep saved %d snapshots", saved)
		return nil
	})
}
