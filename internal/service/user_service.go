package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"userhub/api/internal/ids"
	"userhub/api/internal/models"
	"userhub/api/internal/repository"
)

// UserService is the CRUD surface over principals. Auth decisions read the
// status and role fields it maintains.
type UserService struct {
	users UserStore
	roles RoleStore
	log   zerolog.Logger
}

func NewUserService(users UserStore, roles RoleStore, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		roles: roles,
		log:   log,
	}
}

type CreateUserInput struct {
	Email  string
	Name   string
	Phone  string
	RoleID string
	Status models.UserStatus
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (models.User, error) {
	email := NormalizeEmail(input.Email)

	if input.RoleID != "" {
		if _, err := s.roles.GetByID(ctx, input.RoleID); err != nil {
			if errors.Is(err, repository.ErrRoleNotFound) {
				return models.User{}, ErrRoleNotFound
			}
			return models.User{}, err
		}
	}

	status := input.Status
	if status == "" {
		status = models.UserStatusActive
	}
	if !status.Valid() {
		return models.User{}, fmt.Errorf("invalid status %q", status)
	}

	user := models.User{
		ID:     ids.New(),
		Email:  email,
		Name:   input.Name,
		Status: status,
	}
	if input.Phone != "" {
		user.Phone = &input.Phone
	}
	if input.RoleID != "" {
		user.RoleID = &input.RoleID
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	s.log.Info().Str("email", email).Msg("user created")
	return s.users.GetByID(ctx, user.ID)
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

type UserPage struct {
	Users      []models.User
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

func (s *UserService) List(ctx context.Context, filter repository.UserFilter) (UserPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return UserPage{}, err
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return UserPage{
		Users:      users,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

type UpdateUserInput struct {
	Name      *string
	Phone     *string
	AvatarURL *string
	RoleID    *string
	ClearRole bool
	Status    *models.UserStatus
}

func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (models.User, error) {
	if input.RoleID != nil && *input.RoleID != "" {
		if _, err := s.roles.GetByID(ctx, *input.RoleID); err != nil {
			if errors.Is(err, repository.ErrRoleNotFound) {
				return models.User{}, ErrRoleNotFound
			}
			return models.User{}, err
		}
	}
	if input.Status != nil && !input.Status.Valid() {
		return models.User{}, fmt.Errorf("invalid status %q", *input.Status)
	}

	upd := repository.UserUpdate{
		Name:      input.Name,
		Phone:     input.Phone,
		AvatarURL: input.AvatarURL,
		RoleID:    input.RoleID,
		ClearRole: input.ClearRole,
		Status:    input.Status,
	}
	if err := s.users.Update(ctx, id, upd); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	return s.users.GetByID(ctx, id)
}

func (s *UserService) UpdateStatus(ctx context.Context, id string, status models.UserStatus) (models.User, error) {
	if !status.Valid() {
		return models.User{}, fmt.Errorf("invalid status %q", status)
	}
	if err := s.users.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	s.log.Info().Str("user_id", id).Str("status", string(status)).Msg("user status updated")
	return s.users.GetByID(ctx, id)
}

// Delete soft-deletes; the row stays for audit joins and the email becomes
// unreachable for auth.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user soft-deleted")
	return nil
}

func (s *UserService) Stats(ctx context.Context) (repository.UserStats, error) {
	return s.users.Stats(ctx)
}
