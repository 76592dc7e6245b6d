package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"userhub/api/internal/middleware"
	"userhub/api/internal/models"
	"userhub/api/internal/repository"
	"userhub/api/internal/service"
)

const maxAvatarSize = 5 << 20 // 5 MiB

func (h HandlerSet) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	filter := repository.UserFilter{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Status: models.UserStatus(c.Query("status")),
		RoleID: c.Query("roleId"),
	}

	result, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	users := make([]userResponse, 0, len(result.Users))
	for _, user := range result.Users {
		users = append(users, toUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"total":      result.Total,
		"page":       result.Page,
		"limit":      result.Limit,
		"totalPages": result.TotalPages,
	})
}

func (h HandlerSet) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

type createUserRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Name   string `json:"name" binding:"required,max=100"`
	Phone  string `json:"phone" binding:"omitempty,max=20"`
	RoleID string `json:"roleId"`
	Status string `json:"status" binding:"omitempty,oneof=active inactive suspended"`
}

func (h HandlerSet) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), service.CreateUserInput{
		Email:  req.Email,
		Name:   req.Name,
		Phone:  req.Phone,
		RoleID: req.RoleID,
		Status: models.UserStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

type updateUserRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
	AvatarURL *string `json:"avatarUrl"`
	RoleID    *string `json:"roleId"`
	ClearRole bool    `json:"clearRole"`
	Status    *string `json:"status" binding:"omitempty,oneof=active inactive suspended"`
}

func (h HandlerSet) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	input := service.UpdateUserInput{
		Name:      req.Name,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
		RoleID:    req.RoleID,
		ClearRole: req.ClearRole,
	}
	if req.Status != nil {
		status := models.UserStatus(*req.Status)
		input.Status = &status
	}

	user, err := h.userService.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive suspended"`
}

func (h HandlerSet) UpdateUserStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.userService.UpdateStatus(c.Request.Context(), c.Param("id"), models.UserStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) UserStats(c *gin.Context) {
	stats, err := h.userService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":               stats.Total,
		"active":              stats.Active,
		"inactive":            stats.Inactive,
		"suspended":           stats.Suspended,
		"recentRegistrations": stats.RecentRegistrations,
	})
}

func (h HandlerSet) UploadAvatar(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_unavailable"})
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar_file_required"})
		return
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar_too_large"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/png", "image/jpeg", "image/webp":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_avatar_type"})
		return
	}

	url, err := h.store.PutAvatar(c.Request.Context(), user.ID, file, header.Size, contentType)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("avatar upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
		return
	}

	updated, err := h.userService.Update(c.Request.Context(), user.ID, service.UpdateUserInput{AvatarURL: &url})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(updated))
}
