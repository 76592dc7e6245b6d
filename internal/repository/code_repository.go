package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"userhub/api/internal/models"
)

var (
	ErrCodeNotFound    = errors.New("verification code not found")
	ErrCodeAlreadyUsed = errors.New("verification code already used")
	ErrCodeThrottled   = errors.New("verification code sent too recently")
)

type CodeRepository struct {
	pool *pgxpool.Pool
}

func NewCodeRepository(pool *pgxpool.Pool) *CodeRepository {
	return &CodeRepository{pool: pool}
}

// CreateIfNotRecent inserts the code only when no code for the same
// (email, purpose) was created inside the resend window. The check and the
// insert are a single statement so the window is evaluated by the database
// at write time; two racing sends cannot both pass it on a stale read.
func (r *CodeRepository) CreateIfNotRecent(ctx context.Context, code models.EmailCode, window time.Duration) error {
	const query = `
		INSERT INTO email_codes (id, email, code, purpose, is_used, expires_at, created_at)
		SELECT $1, $2, $3, $4, FALSE, $5, NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM email_codes
			WHERE email = $2 AND purpose = $4 AND created_at > NOW() - $6::interval
		)
	`
	cmd, err := r.pool.Exec(ctx, query,
		code.ID,
		code.Email,
		code.Code,
		code.Purpose,
		code.ExpiresAt,
		window,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCodeThrottled
	}
	return nil
}

// FindLatestUnused returns the newest unused row matching (email, code,
// purpose). Callers cannot tell a wrong code from an already-used one; both
// surface as ErrCodeNotFound.
func (r *CodeRepository) FindLatestUnused(ctx context.Context, email, code string, purpose models.CodePurpose) (models.EmailCode, error) {
	const query = `
		SELECT id, email, code, purpose, is_used, expires_at, created_at
		FROM email_codes
		WHERE email = $1 AND code = $2 AND purpose = $3 AND is_used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.pool.QueryRow(ctx, query, email, code, purpose)

	var ec models.EmailCode
	if err := row.Scan(
		&ec.ID,
		&ec.Email,
		&ec.Code,
		&ec.Purpose,
		&ec.IsUsed,
		&ec.ExpiresAt,
		&ec.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EmailCode{}, ErrCodeNotFound
		}
		return models.EmailCode{}, err
	}
	return ec, nil
}

// MarkUsed consumes the code. The update is conditioned on is_used = FALSE
// so of N concurrent redemptions exactly one wins; the rest observe
// ErrCodeAlreadyUsed.
func (r *CodeRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `UPDATE email_codes SET is_used = TRUE WHERE id = $1 AND is_used = FALSE`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCodeAlreadyUsed
	}
	return nil
}

func (r *CodeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM email_codes WHERE expires_at < NOW()`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
