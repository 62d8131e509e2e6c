package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"orgdir/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxAvatarBytes = 5 << 20

// CreateUser registers a new account. The operation carries no principal: the
// authentication layer sits in front of every other route, but creation is
// open by contract.
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req entity.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.Create(ctx, &req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListUsers returns the directory slice visible to the principal.
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var query entity.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, meta, err := h.users.FindAll(ctx, principal, &query)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.UserListResponse{Users: users, Meta: meta})
}

// GetUser returns a single record under the read-one rules.
func (h *HTTPHandler) GetUser(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.FindOne(ctx, id, principal)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser applies a patch to the target record.
func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	var req entity.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.Update(ctx, id, &req, principal)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser removes the target record.
func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.users.Remove(ctx, id, principal); err != nil {
		RespondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListTeamMembers lists the users sharing the given team id.
func (h *HTTPHandler) ListTeamMembers(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}

	teamID := strings.TrimSpace(c.Param("teamId"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, err := h.users.FindTeamMembers(ctx, teamID, principal)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.UserListResponse{Users: users})
}

// ListSubordinates lists the users reporting to the given manager id.
func (h *HTTPHandler) ListSubordinates(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}

	managerID := strings.TrimSpace(c.Param("managerId"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, err := h.users.FindSubordinates(ctx, managerID, principal)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.UserListResponse{Users: users})
}

// ChangeUserStatus persists a status change through its dedicated operation.
func (h *HTTPHandler) ChangeUserStatus(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	var req entity.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.ChangeUserStatus(ctx, id, req.Status, principal)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangeUserRole persists a role change through its dedicated operation.
func (h *HTTPHandler) ChangeUserRole(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	var req entity.RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.ChangeUserRole(ctx, id, req.Role, principal)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMyProfile patches the principal's own record.
func (h *HTTPHandler) UpdateMyProfile(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.Update(ctx, principal.ID, &req, principal)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UploadMyAvatar stores an avatar image for the principal and patches the
// avatar reference through the normal update path.
func (h *HTTPHandler) UploadMyAvatar(c *gin.Context) {
	principal := CurrentUser(c)
	if principal == nil {
		Unauthorized(c, "authentication required")
		return
	}
	if h.avatars == nil {
		ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "avatar storage not available")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "avatar file is required")
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		BadRequest(c, ErrCodeInvalidRequest, "avatar file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("failed to open uploaded avatar")
		InternalError(c, "failed to read avatar")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		logrus.WithError(err).Error("failed to read uploaded avatar")
		InternalError(c, "failed to read avatar")
		return
	}
	if len(data) > maxAvatarBytes {
		BadRequest(c, ErrCodeInvalidRequest, "avatar file too large")
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	key, err := h.avatars.SaveAvatar(ctx, principal.ID, data, ext)
	if err != nil {
		logrus.WithError(err).WithField("user_id", principal.ID).Error("failed to store avatar")
		InternalError(c, "failed to store avatar")
		return
	}

	ref := h.publicAvatarURL(key)
	user, err := h.users.Update(ctx, principal.ID, &entity.UserUpdateRequest{Avatar: &ref}, principal)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
