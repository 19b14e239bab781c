package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"user-management-api/internal/usecase/user"
	apperrors "user-management-api/pkg/errors"
	"user-management-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pagination headers set on list responses
const (
	HeaderTotalCount = "X-Total-Count"
	HeaderPage       = "X-Page"
	HeaderLimit      = "X-Limit"
	HeaderTotalPages = "X-Total-Pages"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Service
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Service, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      *int   `json:"age"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUserRequest represents the HTTP request body for updating a user.
// Absent and null fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Age      *int    `json:"age"`
	IsActive *bool   `json:"is_active"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      int    `json:"age"`
	IsActive bool   `json:"is_active"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details []apperrors.FieldError `json:"details,omitempty"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, bindError(err))
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(resp))
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: c.Param("id")})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// UpdateUser handles PUT and PATCH /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, bindError(err))
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:       c.Param("id"),
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp))
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: c.Param("id")}); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	req, err := parseListQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.uc.ListUsers(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i := range resp.Users {
		users[i] = toResponse(&resp.Users[i])
	}

	if p := resp.Pagination; p != nil {
		c.Header(HeaderTotalCount, strconv.FormatInt(p.Total, 10))
		c.Header(HeaderPage, strconv.FormatInt(p.Page, 10))
		c.Header(HeaderLimit, strconv.FormatInt(p.Limit, 10))
		c.Header(HeaderTotalPages, strconv.FormatInt(p.TotalPages, 10))
	}

	c.JSON(http.StatusOK, users)
}

// parseListQuery reads the list query string. Unparseable values are
// reported per field; range checks are left to the usecase.
func parseListQuery(c *gin.Context) (user.ListUsersRequest, error) {
	req := user.ListUsersRequest{
		Query: c.Query("q"),
		Page:  defaultPage,
		Limit: defaultLimit,
	}
	var fields []apperrors.FieldError

	parseInt := func(name string, dst **int) {
		raw := c.Query(name)
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: name, Message: name + " must be an integer"})
			return
		}
		*dst = &v
	}
	parseInt64 := func(name string, dst *int64) {
		raw := c.Query(name)
		if raw == "" {
			return
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: name, Message: name + " must be an integer"})
			return
		}
		*dst = v
	}

	parseInt("min_age", &req.MinAge)
	parseInt("max_age", &req.MaxAge)
	parseInt64("page", &req.Page)
	parseInt64("limit", &req.Limit)

	if raw := c.Query("is_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "is_active", Message: "is_active must be a boolean"})
		} else {
			req.IsActive = &v
		}
	}

	if len(fields) > 0 {
		return req, apperrors.NewValidationError("invalid query parameters", fields...)
	}
	return req, nil
}

// bindError converts a JSON decoding failure into a ValidationError
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.NewValidationError("invalid request body", apperrors.FieldError{
			Field:   typeErr.Field,
			Message: typeErr.Field + " must be of type " + typeErr.Type.String(),
		})
	}
	return apperrors.NewValidationError("request body must be valid JSON")
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)
	log := logger.WithContext(c.Request.Context(), h.log)

	resp := ErrorResponse{
		Error:   apperrors.Code(err),
		Message: err.Error(),
	}

	var vErr *apperrors.ValidationError
	if errors.As(err, &vErr) {
		resp.Details = vErr.Fields
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("method", c.Request.Method), zap.String("path", c.FullPath()), zap.Error(err))
		resp.Message = "An internal error occurred"
	} else {
		log.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}

	c.AbortWithStatusJSON(status, resp)
}

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Age:      u.Age,
		IsActive: u.IsActive,
	}
}
