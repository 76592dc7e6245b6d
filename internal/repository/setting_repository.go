package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"userhub/api/internal/models"
)

type SettingRepository struct {
	pool *pgxpool.Pool
}

func NewSettingRepository(pool *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

func (r *SettingRepository) List(ctx context.Context) ([]models.Setting, error) {
	const query = `
		SELECT id, key, value, type, description, is_public, is_editable, created_at, updated_at
		FROM settings
		ORDER BY key ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(
			&s.ID,
			&s.Key,
			&s.Value,
			&s.Type,
			&s.Description,
			&s.IsPublic,
			&s.IsEditable,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// Upsert writes one setting value, creating the row on first use.
func (r *SettingRepository) Upsert(ctx context.Context, id, key, value string, typ models.SettingType) error {
	const query = `
		INSERT INTO settings (id, key, value, type, is_public, is_editable, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, TRUE, NOW(), NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, type = EXCLUDED.type, updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, id, key, value, typ)
	return err
}
