package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/altenshop/backend/internal/infrastructure/outbox"
	"github.com/altenshop/backend/internal/mailer"
)

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxProcessor retries stashed emails on a schedule. Entries that keep
// failing are dropped after MaxRetries so a dead address cannot clog the
// outbox forever.
type OutboxProcessor struct {
	store  *outbox.Store
	sender mailer.Sender
	logger *zap.Logger
	cron   *cron.Cron
	cfg    ProcessorConfig
}

func NewOutboxProcessor(store *outbox.Store, sender mailer.Sender, logger *zap.Logger, cfg ProcessorConfig) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &OutboxProcessor{
		store:  store,
		sender: sender,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return p
}

// Start launches the cron scheduler.
func (p *OutboxProcessor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("outbox processor started")
}

// Stop gracefully stops the scheduler.
func (p *OutboxProcessor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	p.logger.Info("outbox processor stopped")
}

// Drain retries a batch of stashed emails synchronously.
func (p *OutboxProcessor) Drain(ctx context.Context) error {
	if p == nil || p.store == nil {
		return nil
	}

	entries, err := p.store.Batch(p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := p.sender.Send(ctx, entry.Message); err != nil {
			p.logger.Warn("outbox retry failed",
				zap.String("entry_id", entry.ID),
				zap.String("to", entry.Message.To),
				zap.Int("attempts", entry.Attempts+1),
				zap.Error(err))

			if entry.Attempts+1 >= p.cfg.MaxRetries {
				p.logger.Warn("dropping outbox entry (max retries reached)", zap.String("entry_id", entry.ID))
				_ = p.store.Remove(entry)
				continue
			}
			if err := p.store.Requeue(entry); err != nil {
				p.logger.Error("failed to requeue outbox entry", zap.Error(err))
			}
			continue
		}

		if err := p.store.Remove(entry); err != nil {
			p.logger.Warn("failed to purge delivered outbox entry", zap.Error(err))
		}
	}
	return nil
}
