package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"userhub/api/internal/models"
)

type LoginLogRepository struct {
	pool *pgxpool.Pool
}

func NewLoginLogRepository(pool *pgxpool.Pool) *LoginLogRepository {
	return &LoginLogRepository{pool: pool}
}

// Append writes one audit row. Rows are never updated or removed here.
func (r *LoginLogRepository) Append(ctx context.Context, entry models.LoginLog) error {
	const query = `
		INSERT INTO login_logs (id, user_id, ip_address, user_agent, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.IPAddress,
		entry.UserAgent,
		entry.Status,
	)
	return err
}

func (r *LoginLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.LoginLog, error) {
	if limit < 1 {
		limit = 50
	}
	const query = `
		SELECT id, user_id, ip_address, user_agent, status, created_at
		FROM login_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.LoginLog
	for rows.Next() {
		var entry models.LoginLog
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Status,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
