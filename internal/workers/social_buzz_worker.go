package workers

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"prisma/internal/adapters/config"
	"prisma/internal/adapters/redis"
	"prisma/internal/domain/city"
	"prisma/internal/domain/signal"
	"prisma/internal/gather"
	"prisma/pkg/errors"
)

const newsPerCity = 10

// SocialBuzzWorker scans tourism news per city and records them as demand
// signals. Headlines ranking higher get a higher impact score.
type SocialBuzzWorker struct {
	lockingWorker
	cities   city.Repository
	signals  signal.Repository
	gatherer *gather.Gatherer
	pacer    *rate.Limiter
}

func NewSocialBuzzWorker(cities city.Repository, signals signal.Repository, gatherer *gather.Gatherer, locks *redis.Client, cfg config.WorkerConfig) *SocialBuzzWorker {
	return &SocialBuzzWorker{
		lockingWorker: newLockingWorker("social_buzz_collector", cfg.SocialBuzzInterval, locks, cfg.LockTTL),
		cities:        cities,
		signals:       signals,
		gatherer:      gatherer,
		pacer:         rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// impactForRank maps a headline's position to an impact score. Top stories
// weigh more, nothing exceeds the 0-10 signal scale.
func impactForRank(rank int) float64 {
	impact := 8 - float64(rank)
	if impact < 3 {
		return 3
	}
	return impact
}

func (w *SocialBuzzWorker) Run(ctx context.Context) error {
	return w.withLock(ctx, func(ctx context.Context) error {
		cities, err := w.cities.ListActive(ctx)
		if err != nil {
			return errors.Wrap(err, "list cities for social buzz sweep")
		}

		today := time.Now().Truncate(24 * time.Hour)
		var saved int

		for _, c := range cities {
			if err := w.pacer.Wait(ctx); err != nil {
				return err
			}

			news, err := w.gatherer.News(ctx, c, newsPerCity)
			if err != nil {
				w.Log().Warnf("news sweep failed for %s: %v", c.Name, err)
				continue
			}

			for rank, article := range news {
				sig := &signal.SocialBuzzSignal{
					CityID:      c.ID,
					SignalDate:  today,
					Content:     article.Title,
					ImpactScore: impactForRank(rank),
					Source:      signal.SourceNews,
				}
				if err := w.signals.Upsert(ctx, sig); err != nil {
					w.Log().Warnf("failed to save signal for %s: %v", c.Name, err)
					continue
				}
				saved++
			}
		}

		w.Log().Infof("social buzz sweep saved %d signals", saved)
		return nil
	})
}
