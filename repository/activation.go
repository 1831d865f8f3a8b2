package repository

import (
	"context"
	"time"

	"github.com/altenshop/backend/domain"
)

// ActivationCodeRepository persists activation codes. One row per user,
// enforced by a unique constraint on user_id; code values are globally
// unique.
type ActivationCodeRepository interface {
	GetByUser(ctx context.Context, userID int64) (*domain.ActivationCode, error)
	GetByCode(ctx context.Context, code string) (*domain.ActivationCode, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Upsert inserts the user's code row or overwrites it in place
	// (new code value, new expiry, validated_at cleared).
	Upsert(ctx context.Context, code *domain.ActivationCode) error
	MarkValidated(ctx context.Context, id int64, at time.Time) error
	InvalidateAllForUser(ctx context.Context, userID int64, at time.Time) error
	// ConsumeAndEnable marks the code validated and enables its owner in a
	// single transaction. The consume update is guarded by
	// validated_at IS NULL so concurrent activations cannot both succeed.
	ConsumeAndEnable(ctx context.Context, codeID, userID int64, at time.Time) error
}
