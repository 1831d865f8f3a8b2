package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by Enqueue when the backlog is saturated.
// Callers log and fall back; they never block the request path.
var ErrQueueFull = errors.New("mail queue full")

// Outbox persists messages whose delivery failed so they can be retried
// out of band.
type Outbox interface {
	Stash(msg Message) error
}

// PoolConfig sizes the dispatch pool. Workers is the number of concurrent
// SMTP conversations, QueueSize the bounded backlog.
type PoolConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Pool dispatches messages on a fixed set of workers with a bounded queue.
// A full queue rejects instead of blocking so a stalled transport cannot
// back-pressure registrations.
type Pool struct {
	sender  Sender
	outbox  Outbox
	jobs    chan Message
	timeout time.Duration
	logger  *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewPool(sender Sender, outbox Outbox, cfg PoolConfig, logger *zap.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		sender:  sender,
		outbox:  outbox,
		jobs:    make(chan Message, cfg.QueueSize),
		timeout: cfg.SendTimeout,
		logger:  logger,
	}

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Enqueue hands a message to the pool without blocking. When the queue is
// full the message is stashed in the outbox and ErrQueueFull is returned.
func (p *Pool) Enqueue(msg Message) error {
	select {
	case p.jobs <- msg:
		return nil
	default:
		p.logger.Warn("mail queue full, stashing message", zap.String("to", msg.To))
		p.stash(msg)
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight sends, honoring ctx.
func (p *Pool) Stop(ctx context.Context) {
	p.stopOnce.Do(func() { close(p.jobs) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("mail pool stop timed out")
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for msg := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.sender.Send(ctx, msg)
		cancel()
		if err != nil {
			p.logger.Error("mail delivery failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err))
			p.stash(msg)
			continue
		}
		p.logger.Debug("mail delivered", zap.String("to", msg.To))
	}
}

func (p *Pool) stash(msg Message) {
	if p.outbox == nil {
		return
	}
	if err := p.outbox.Stash(msg); err != nil {
		p.logger.Error("failed to stash message in outbox", zap.Error(err))
	}
}
