package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor prunes run history past the retention window on a cron schedule.
type Janitor struct {
	store     RunStore
	retention time.Duration
	cron      *cron.Cron
	logger    *zap.Logger
}

func NewJanitor(store RunStore, retention time.Duration, schedule string, logger *zap.Logger) (*Janitor, error) {
	j := &Janitor{
		store:     store,
		retention: retention,
		cron:      cron.New(),
		logger:    logger,
	}
	if _, err := j.cron.AddFunc(schedule, j.Sweep); err != nil {
		return nil, fmt.Errorf("failed to schedule janitor: %w", err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("run janitor started", zap.Duration("retention", j.retention))
}

// Stop halts scheduling and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep runs one purge pass. Exported so the worker can trigger it outside
// the schedule.
func (j *Janitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	purged, err := j.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Warn("run history purge failed", zap.Error(err))
		return
	}
	if purged > 0 {
		j.logger.Info("purged run history", zap.Int64("runs", purged), zap.Time("cutoff", cutoff))
	}
}
