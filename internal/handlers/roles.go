package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"userhub/api/internal/models"
	"userhub/api/internal/service"
)

func (h HandlerSet) ListRoles(c *gin.Context) {
	roles, err := h.roleService.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": rolesToResponse(roles)})
}

func (h HandlerSet) ListActiveRoles(c *gin.Context) {
	roles, err := h.roleService.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": rolesToResponse(roles)})
}

func (h HandlerSet) AvailablePermissions(c *gin.Context) {
	c.JSON(http.StatusOK, h.roleService.AvailablePermissions())
}

func (h HandlerSet) GetRole(c *gin.Context) {
	role, err := h.roleService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoleResponse(role))
}

type createRoleRequest struct {
	Name        string               `json:"name" binding:"required,max=100"`
	Description string               `json:"description" binding:"omitempty,max=255"`
	Permissions models.PermissionMap `json:"permissions"`
	IsActive    *bool                `json:"isActive"`
}

func (h HandlerSet) CreateRole(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	role, err := h.roleService.Create(c.Request.Context(), service.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRoleResponse(role))
}

type updateRoleRequest struct {
	Name        *string               `json:"name" binding:"omitempty,max=100"`
	Description *string               `json:"description" binding:"omitempty,max=255"`
	Permissions *models.PermissionMap `json:"permissions"`
	IsActive    *bool                 `json:"isActive"`
}

func (h HandlerSet) UpdateRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	role, err := h.roleService.Update(c.Request.Context(), c.Param("id"), service.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRoleResponse(role))
}

type updateRolePermissionsRequest struct {
	Permissions models.PermissionMap `json:"permissions" binding:"required"`
}

func (h HandlerSet) UpdateRolePermissions(c *gin.Context) {
	var req updateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	role, err := h.roleService.UpdatePermissions(c.Request.Context(), c.Param("id"), req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRoleResponse(role))
}

func (h HandlerSet) DeleteRole(c *gin.Context) {
	if err := h.roleService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func rolesToResponse(roles []models.Role) []roleResponse {
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}
	return out
}
