package workers

import (
	"context"

	"prisma/internal/adapters/config"
	"prisma/internal/adapters/redis"
	"prisma/internal/services/prediction"
)

// PredictionWorker refreshes the demand forecast horizon for every city.
type PredictionWorker struct {
	lockingWorker
	svc *prediction.Service
}

func NewPredictionWorker(svc *prediction.Service, locks *redis.Client, cfg config.WorkerConfig) *PredictionWorker {
	return &PredictionWorker{
		lockingWorker: newLockingWorker("prediction_batch", cfg.PredictionInterval, locks, cfg.LockTTL),
		svc:           svc,
	}
}

func (w *PredictionWorker) Run(ctx context.Context) error {
	return w.withLock(ctx, w.svc.GenerateAll)
}
