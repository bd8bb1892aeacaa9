package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/teamdo/backend/internal/infrastructure/spool"
	"github.com/teamdo/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// DrainConfig controls how the spooled audit entries are delivered.
type DrainConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// AuditSpoolDrainer periodically flushes locally spooled audit rows into the
// primary sink once the database is reachable again.
type AuditSpoolDrainer struct {
	store   *spool.Store
	monitor ConnectionHealth
	sink    repository.AuditLogRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     DrainConfig
}

func NewAuditSpoolDrainer(
	store *spool.Store,
	monitor ConnectionHealth,
	sink repository.AuditLogRepository,
	logger *zap.Logger,
	cfg DrainConfig,
) *AuditSpoolDrainer {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &AuditSpoolDrainer{
		store:   store,
		monitor: monitor,
		sink:    sink,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := d.Drain(ctx); err != nil {
			d.logger.Error("audit spool drain failed", zap.Error(err))
		}
	})

	return d
}

// Start launches the cron scheduler.
func (d *AuditSpoolDrainer) Start() {
	if d == nil || d.cron == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("audit spool drainer started")
}

// Stop gracefully stops the scheduler.
func (d *AuditSpoolDrainer) Stop(ctx context.Context) {
	if d == nil || d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("audit spool drainer stopped")
}

// Drain delivers one batch of spooled entries synchronously.
func (d *AuditSpoolDrainer) Drain(ctx context.Context) error {
	if d == nil || d.store == nil {
		return nil
	}
	if d.monitor != nil && !d.monitor.IsOnline() {
		d.logger.Debug("skipping audit spool drain (offline)")
		return nil
	}

	entries, err := d.store.Batch(d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		logCopy := entry.Log
		if err := d.sink.Persist(ctx, &logCopy); err != nil {
			d.logger.Error("failed to deliver spooled audit entry",
				zap.String("key", entry.Key),
				zap.String("action", entry.Log.Action),
				zap.Error(err))

			if entry.Attempts+1 >= d.cfg.MaxRetries {
				d.logger.Warn("dropping audit entry (max retries reached)", zap.String("key", entry.Key))
				_ = d.store.Remove(entry.Key)
				continue
			}
			if err := d.store.Requeue(entry); err != nil {
				d.logger.Error("failed to requeue audit entry", zap.Error(err))
			}
			continue
		}

		if err := d.store.Remove(entry.Key); err != nil {
			d.logger.Warn("failed to purge delivered audit entry", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of spooled entries.
func (d *AuditSpoolDrainer) Size() int {
	if d == nil || d.store == nil {
		return 0
	}
	size, err := d.store.Size()
	if err != nil {
		return 0
	}
	return size
}
