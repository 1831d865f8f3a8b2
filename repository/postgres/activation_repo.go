package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/repository"
)

type activationRepository struct {
	pool *pgxpool.Pool
}

// NewActivationCodeRepository instantiates the Postgres-backed code store.
func NewActivationCodeRepository(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationRepository{pool: pool}
}

const activationColumns = `id, code, user_id, expires_at, validated_at, created_at`

func (r *activationRepository) GetByUser(ctx context.Context, userID int64) (*domain.ActivationCode, error) {
	query := `SELECT ` + activationColumns + ` FROM activation_codes WHERE user_id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID))
}

func (r *activationRepository) GetByCode(ctx context.Context, code string) (*domain.ActivationCode, error) {
	query := `SELECT ` + activationColumns + ` FROM activation_codes WHERE code = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, code))
}

func (r *activationRepository) scanOne(row pgx.Row) (*domain.ActivationCode, error) {
	var ac domain.ActivationCode
	err := row.Scan(&ac.ID, &ac.Code, &ac.UserID, &ac.ExpiresAt, &ac.ValidatedAt, &ac.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActivationNotFound
		}
		return nil, err
	}
	return &ac, nil
}

func (r *activationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM activation_codes WHERE code = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *activationRepository) Upsert(ctx context.Context, ac *domain.ActivationCode) error {
	if ac == nil {
		return errors.New("nil activation code")
	}

	// The unique constraint on user_id makes regeneration an in-place
	// overwrite rather than a second row.
	const query = `
		INSERT INTO activation_codes (code, user_id, expires_at, validated_at, created_at)
		VALUES ($1, $2, $3, NULL, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at,
			validated_at = NULL,
			created_at = NOW()
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, ac.Code, ac.UserID, ac.ExpiresAt).
		Scan(&ac.ID, &ac.CreatedAt)
}

func (r *activationRepository) MarkValidated(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE activation_codes SET validated_at = $2 WHERE id = $1 AND validated_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.TokenError("activation code already used")
	}
	return nil
}

func (r *activationRepository) InvalidateAllForUser(ctx context.Context, userID int64, at time.Time) error {
	const query = `UPDATE activation_codes SET validated_at = $2 WHERE user_id = $1 AND validated_at IS NULL`
	_, err := r.pool.Exec(ctx, query, userID, at)
	return err
}

func (r *activationRepository) ConsumeAndEnable(ctx context.Context, codeID, userID int64, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const consume = `UPDATE activation_codes SET validated_at = $2 WHERE id = $1 AND validated_at IS NULL`
	tag, err := tx.Exec(ctx, consume, codeID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// A concurrent activation won the race.
		return domain.TokenError("activation code already used")
	}

	const enable = `UPDATE users SET enabled = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, enable, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
