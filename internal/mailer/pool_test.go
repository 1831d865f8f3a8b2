package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []Message
	err   error
	block chan struct{}
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type recordingOutbox struct {
	mu      sync.Mutex
	stashed []Message
}

func (o *recordingOutbox) Stash(msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stashed = append(o.stashed, msg)
	return nil
}

func (o *recordingOutbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.stashed)
}

func TestPoolDelivers(t *testing.T) {
	sender := &recordingSender{}
	pool := NewPool(sender, nil, PoolConfig{Workers: 2, QueueSize: 4}, nil)

	require.NoError(t, pool.Enqueue(Message{To: "a@x.com", Subject: "hi"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pool.Stop(ctx)

	assert.Equal(t, 1, sender.count())
}

func TestPoolRejectsWhenSaturated(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	outbox := &recordingOutbox{}
	pool := NewPool(sender, outbox, PoolConfig{Workers: 1, QueueSize: 1}, nil)

	// First message occupies the worker, second fills the queue.
	require.NoError(t, pool.Enqueue(Message{To: "1@x.com"}))
	_ = pool.Enqueue(Message{To: "2@x.com"})

	// Eventually a message must be rejected and stashed.
	var rejected error
	for i := 0; i < 10 && rejected == nil; i++ {
		rejected = pool.Enqueue(Message{To: "n@x.com"})
	}
	assert.ErrorIs(t, rejected, ErrQueueFull)
	assert.GreaterOrEqual(t, outbox.count(), 1)

	close(sender.block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pool.Stop(ctx)
}

func TestPoolStashesFailedDelivery(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	outbox := &recordingOutbox{}
	pool := NewPool(sender, outbox, PoolConfig{Workers: 1, QueueSize: 4}, nil)

	require.NoError(t, pool.Enqueue(Message{To: "a@x.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pool.Stop(ctx)

	assert.Equal(t, 1, outbox.count())
	assert.Equal(t, 0, sender.count())
}

func TestRenderTemplates(t *testing.T) {
	body, err := Render(TemplateActivateAccount, map[string]any{
		"Username":        "Lucas Moreau",
		"ConfirmationURL": "https://shop/#/en/activate-account?code=123456&locale=en",
		"ActivationCode":  "123456",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "Lucas Moreau")

	body, err = Render(TemplateResetPassword, map[string]any{
		"ConfirmationURL": "https://shop/#/en/reset-password?token=abc",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "reset-password?token")
}
