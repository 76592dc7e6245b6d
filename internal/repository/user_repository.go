package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"userhub/api/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const userColumns = `
	u.id, u.email, u.name, u.avatar_url, u.phone, u.status, u.role_id,
	u.created_at, u.updated_at,
	r.id, r.name, r.description, r.permissions, r.is_active, r.created_at, r.updated_at
`

const userFromClause = `
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id
`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

type userRow interface {
	Scan(dest ...any) error
}

func scanUser(row userRow) (models.User, error) {
	var (
		user      models.User
		roleID    *string
		roleName  *string
		roleDesc  *string
		rolePerms []byte
		roleOn    *bool
		roleCre   *time.Time
		roleUpd   *time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.Phone,
		&user.Status,
		&user.RoleID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&roleID,
		&roleName,
		&roleDesc,
		&rolePerms,
		&roleOn,
		&roleCre,
		&roleUpd,
	); err != nil {
		return models.User{}, err
	}

	if roleID != nil {
		role := models.Role{
			ID:          *roleID,
			Name:        *roleName,
			Description: roleDesc,
			IsActive:    roleOn != nil && *roleOn,
		}
		if roleCre != nil {
			role.CreatedAt = *roleCre
		}
		if roleUpd != nil {
			role.UpdatedAt = *roleUpd
		}
		if len(rolePerms) > 0 {
			if err := json.Unmarshal(rolePerms, &role.Permissions); err != nil {
				return models.User{}, fmt.Errorf("decode role permissions: %w", err)
			}
		}
		user.Role = &role
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, name, avatar_url, phone, status, role_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.Phone,
		user.Status,
		user.RoleID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT` + userColumns + userFromClause + `WHERE u.email = $1 AND u.deleted_at IS NULL`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT` + userColumns + userFromClause + `WHERE u.id = $1 AND u.deleted_at IS NULL`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

type UserFilter struct {
	Page   int
	Limit  int
	Search string
	Status models.UserStatus
	RoleID string
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	conditions := []string{"u.deleted_at IS NULL"}
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(u.name ILIKE $%d OR u.email ILIKE $%d OR u.phone ILIKE $%d)", n, n, n))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("u.status = $%d", len(args)))
	}
	if filter.RoleID != "" {
		args = append(args, filter.RoleID)
		conditions = append(conditions, fmt.Sprintf("u.role_id = $%d", len(args)))
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*)` + userFromClause + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	listQuery := fmt.Sprintf(`SELECT`+userColumns+userFromClause+where+
		` ORDER BY u.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

type UserUpdate struct {
	Name      *string
	Phone     *string
	AvatarURL *string
	RoleID    *string
	ClearRole bool
	Status    *models.UserStatus
}

func (r *UserRepository) Update(ctx context.Context, id string, upd UserUpdate) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.AvatarURL != nil {
		add("avatar_url", *upd.AvatarURL)
	}
	if upd.ClearRole {
		sets = append(sets, "role_id = NULL")
	} else if upd.RoleID != nil {
		add("role_id", *upd.RoleID)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $1 AND deleted_at IS NULL`,
		strings.Join(sets, ", "))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	const query = `
		UPDATE users SET status = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, roleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role_id = $1 AND deleted_at IS NULL`
	var count int
	if err := r.pool.QueryRow(ctx, query, roleID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type UserStats struct {
	Total               int
	Active              int
	Inactive            int
	Suspended           int
	RecentRegistrations int
}

func (r *UserRepository) Stats(ctx context.Context) (UserStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'inactive'),
			COUNT(*) FILTER (WHERE status = 'suspended'),
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '7 days')
		FROM users
		WHERE deleted_at IS NULL
	`
	var stats UserStats
	if err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Inactive,
		&stats.Suspended,
		&stats.RecentRegistrations,
	); err != nil {
		return UserStats{}, err
	}
	return stats, nil
}
