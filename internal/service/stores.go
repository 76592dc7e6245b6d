package service

import (
	"context"
	"time"

	"userhub/api/internal/models"
	"userhub/api/internal/repository"
)

// Store interfaces are satisfied by the pgx repositories; tests substitute
// in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context, filter repository.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, id string, upd repository.UserUpdate) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	SoftDelete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, roleID string) (int, error)
	Stats(ctx context.Context) (repository.UserStats, error)
}

type RoleStore interface {
	Create(ctx context.Context, role models.Role) error
	GetByID(ctx context.Context, id string) (models.Role, error)
	FindByName(ctx context.Context, name string) (models.Role, error)
	List(ctx context.Context, activeOnly bool) ([]models.Role, error)
	Update(ctx context.Context, id string, upd repository.RoleUpdate) error
	Delete(ctx context.Context, id string) error
}

type CodeStore interface {
	CreateIfNotRecent(ctx context.Context, code models.EmailCode, window time.Duration) error
	FindLatestUnused(ctx context.Context, email, code string, purpose models.CodePurpose) (models.EmailCode, error)
	MarkUsed(ctx context.Context, id string) error
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	FindByTokenHash(ctx context.Context, hash []byte) (models.Session, error)
	Rotate(ctx context.Context, oldHash, newHash []byte, expiresAt time.Time) error
	DeleteByTokenHash(ctx context.Context, hash []byte) error
	DeleteByUser(ctx context.Context, userID string) error
}

type LoginLogStore interface {
	Append(ctx context.Context, entry models.LoginLog) error
}

type SettingStore interface {
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, id, key, value string, typ models.SettingType) error
}

// FailureCounter tracks consecutive failed logins per key inside a fixed
// window. Backed by redis in production; nil disables blocking entirely.
type FailureCounter interface {
	Count(ctx context.Context, key string) (int, error)
	Increment(ctx context.Context, key string, window time.Duration) error
	Reset(ctx context.Context, key string) error
}

// Notifier delivers a verification code out of band.
type Notifier interface {
	Send(ctx context.Context, email, code, purpose string) error
}
