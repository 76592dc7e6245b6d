package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"userhub/api/internal/models"
	"userhub/api/internal/service"
)

type roleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	Permissions models.PermissionMap `json:"permissions"`
	IsActive    bool                 `json:"isActive"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

type userResponse struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	AvatarURL *string       `json:"avatarUrl,omitempty"`
	Phone     *string       `json:"phone,omitempty"`
	Status    string        `json:"status"`
	Role      *roleResponse `json:"role,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

func toRoleResponse(role models.Role) roleResponse {
	perms := role.Permissions
	if perms == nil {
		perms = models.PermissionMap{}
	}
	return roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Permissions: perms,
		IsActive:    role.IsActive,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

func toUserResponse(user models.User) userResponse {
	resp := userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Phone:     user.Phone,
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
	}
	if user.Role != nil {
		role := toRoleResponse(*user.Role)
		resp.Role = &role
	}
	return resp
}

// respondError maps service errors to HTTP statuses. Messages stay generic:
// no internal identifiers and no existence hints.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusBadRequest, gin.H{"error": "code_sent_too_recently"})
	case errors.Is(err, service.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_code"})
	case errors.Is(err, service.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "code_expired"})
	case errors.Is(err, service.ErrEmailNotRegistered):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email_not_registered"})
	case errors.Is(err, service.ErrAccountDisabled):
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_disabled"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
	case errors.Is(err, service.ErrRoleConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "role_name_taken"})
	case errors.Is(err, service.ErrRoleInUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": "role_in_use"})
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrRoleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
