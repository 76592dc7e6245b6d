package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"userhub/api/internal/ids"
	"userhub/api/internal/models"
	"userhub/api/internal/repository"
)

type RoleService struct {
	roles RoleStore
	users UserStore
	log   zerolog.Logger
}

func NewRoleService(roles RoleStore, users UserStore, log zerolog.Logger) *RoleService {
	return &RoleService{
		roles: roles,
		users: users,
		log:   log,
	}
}

// AvailablePermissions is the catalog of resources and actions roles may
// reference.
func (s *RoleService) AvailablePermissions() models.PermissionMap {
	return models.PermissionMap{
		"users":    {"read", "create", "update", "delete"},
		"roles":    {"read", "create", "update", "delete"},
		"settings": {"read", "update"},
	}
}

type CreateRoleInput struct {
	Name        string
	Description string
	Permissions models.PermissionMap
	IsActive    *bool
}

func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (models.Role, error) {
	perms := input.Permissions
	if perms == nil {
		perms = models.PermissionMap{}
	}
	if err := perms.Validate(); err != nil {
		return models.Role{}, err
	}

	role := models.Role{
		ID:          ids.New(),
		Name:        input.Name,
		Permissions: perms,
		IsActive:    true,
	}
	if input.Description != "" {
		role.Description = &input.Description
	}
	if input.IsActive != nil {
		role.IsActive = *input.IsActive
	}

	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, repository.ErrRoleNameTaken) {
			return models.Role{}, ErrRoleConflict
		}
		return models.Role{}, err
	}

	s.log.Info().Str("role", role.Name).Msg("role created")
	return role, nil
}

func (s *RoleService) Get(ctx context.Context, id string) (models.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return models.Role{}, ErrRoleNotFound
		}
		return models.Role{}, err
	}
	return role, nil
}

func (s *RoleService) List(ctx context.Context, activeOnly bool) ([]models.Role, error) {
	return s.roles.List(ctx, activeOnly)
}

type UpdateRoleInput struct {
	Name        *string
	Description *string
	Permissions *models.PermissionMap
	IsActive    *bool
}

func (s *RoleService) Update(ctx context.Context, id string, input UpdateRoleInput) (models.Role, error) {
	if input.Permissions != nil {
		if err := input.Permissions.Validate(); err != nil {
			return models.Role{}, err
		}
	}

	upd := repository.RoleUpdate{
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
		IsActive:    input.IsActive,
	}
	if err := s.roles.Update(ctx, id, upd); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoleNotFound):
			return models.Role{}, ErrRoleNotFound
		case errors.Is(err, repository.ErrRoleNameTaken):
			return models.Role{}, ErrRoleConflict
		}
		return models.Role{}, err
	}

	return s.Get(ctx, id)
}

func (s *RoleService) UpdatePermissions(ctx context.Context, id string, perms models.PermissionMap) (models.Role, error) {
	return s.Update(ctx, id, UpdateRoleInput{Permissions: &perms})
}

// Delete refuses while any live user still references the role.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	if _, err := s.roles.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return ErrRoleNotFound
		}
		return err
	}

	inUse, err := s.users.CountByRole(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrRoleInUse
	}

	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return ErrRoleNotFound
		}
		return err
	}

	s.log.Info().Str("role_id", id).Msg("role deleted")
	return nil
}
