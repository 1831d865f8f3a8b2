// Package activation manages the 6-digit single-use codes that prove
// control of a registered email address.
package activation

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/repository"
)

// Outcome classifies a presented code before any mutation happens.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeAlreadyActivated
	OutcomeExpiredOrUsed
	OutcomeValid
)

const maxCodeAttempts = 10

// Manager issues, validates and consumes activation codes.
type Manager struct {
	codes  repository.ActivationCodeRepository
	users  repository.UserRepository
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(codes repository.ActivationCodeRepository, users repository.UserRepository, ttl time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = domain.ActivationCodeTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		codes:  codes,
		users:  users,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// IssueOrRetrieve returns the user's current code if it is still usable,
// otherwise generates a fresh one and overwrites the row in place. Calling
// it twice inside the validity window yields the same code.
func (m *Manager) IssueOrRetrieve(ctx context.Context, user *domain.User) (*domain.ActivationCode, error) {
	existing, err := m.codes.GetByUser(ctx, user.ID)
	if err == nil && existing.Usable(m.now()) {
		return existing, nil
	}
	if err != nil && !domain.IsCode(err, domain.CodeTokenInvalid) {
		return nil, err
	}

	value, err := m.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	code := &domain.ActivationCode{
		Code:      value,
		UserID:    user.ID,
		ExpiresAt: m.now().Add(m.ttl),
	}
	if err := m.codes.Upsert(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// Validate classifies a presented code. It never mutates state; the caller
// decides what to do with the outcome.
func (m *Manager) Validate(ctx context.Context, value string) (*domain.User, *domain.ActivationCode, Outcome, error) {
	code, err := m.codes.GetByCode(ctx, value)
	if err != nil {
		if domain.IsCode(err, domain.CodeTokenInvalid) {
			return nil, nil, OutcomeNotFound, nil
		}
		return nil, nil, OutcomeNotFound, err
	}

	user, err := m.users.GetByID(ctx, code.UserID)
	if err != nil {
		return nil, nil, OutcomeNotFound, err
	}

	if user.Enabled {
		return user, code, OutcomeAlreadyActivated, nil
	}
	if !code.Usable(m.now()) {
		return user, code, OutcomeExpiredOrUsed, nil
	}
	return user, code, OutcomeValid, nil
}

// Consume marks the code validated and enables its owner atomically.
func (m *Manager) Consume(ctx context.Context, code *domain.ActivationCode) error {
	return m.codes.ConsumeAndEnable(ctx, code.ID, code.UserID, m.now())
}

// InvalidateAll retires every outstanding code for the user.
func (m *Manager) InvalidateAll(ctx context.Context, userID int64) error {
	return m.codes.InvalidateAllForUser(ctx, userID, m.now())
}

// generateCode draws 6-digit codes until one is globally unique, giving up
// after a bounded number of attempts. On exhaustion the last candidate is
// accepted; the unique constraint on the column is the final arbiter.
func (m *Manager) generateCode(ctx context.Context) (string, error) {
	var candidate string
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
		if err != nil {
			return "", fmt.Errorf("generate activation code: %w", err)
		}
		candidate = fmt.Sprintf("%06d", n.Int64())

		taken, err := m.codes.ExistsByCode(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	m.logger.Warn("activation code collision retries exhausted, accepting last candidate")
	return candidate, nil
}
