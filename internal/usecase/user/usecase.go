package user

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	domain "user-management-api/internal/domain/user"
	apperrors "user-management-api/pkg/errors"
	"user-management-api/pkg/logger"
	"user-management-api/pkg/security"

	"github.com/go-playground/validator/v10"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., MongoDB, PostgreSQL) to be used interchangeably.
//
// Implementations report a malformed id as apperrors.ErrInvalidID, a missing
// record as a NotFoundError and a unique email violation as a ConflictError.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)                    // Create a new user; the store assigns the ID
	GetByID(ctx context.Context, id string) (*domain.User, error)                        // Retrieve user by ID
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) // Apply a partial update and return the new state
	Delete(ctx context.Context, id string) error                                         // Delete user by ID
	List(ctx context.Context, filter domain.ListFilter) ([]domain.User, int64, error)    // Filtered page plus total match count
}

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validate: NewValidator()}
}

// CreateUser validates the request and stores a new user.
// Email uniqueness is enforced by the store's unique index.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	created, err := uc.repo.Create(ctx, &domain.User{
		Name:     in.Name,
		Email:    in.Email,
		Age:      *in.Age,
		IsActive: isActive,
	})
	if err != nil {
		log.Error("failed to create user", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	return toDTO(created), nil
}

// UpdateUser applies the supplied fields to an existing user.
// Absent fields keep their stored values.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.String("id", in.ID))

	if strings.TrimSpace(in.ID) == "" {
		return nil, apperrors.ErrInvalidID
	}

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	patch := domain.UserPatch{
		Name:     in.Name,
		Email:    in.Email,
		Age:      in.Age,
		IsActive: in.IsActive,
	}
	if patch.IsEmpty() {
		log.Warn("update user rejected", zap.String("id", in.ID), zap.String("reason", "empty patch"))
		return nil, apperrors.ErrEmptyUpdate
	}

	updated, err := uc.repo.Update(ctx, in.ID, patch)
	if err != nil {
		log.Error("failed to update user", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	return toDTO(updated), nil
}

// DeleteUser deletes a user by ID.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.String("id", in.ID))

	if strings.TrimSpace(in.ID) == "" {
		return nil, apperrors.ErrInvalidID
	}

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		log.Error("failed to delete user", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &DeleteUserResponse{ID: in.ID}, nil
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, apperrors.ErrInvalidID
	}

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		logger.WithContext(ctx, uc.log).Warn("failed to get user", zap.String("id", in.ID), zap.Error(err))
		return nil, err
	}

	return toDTO(u), nil
}

// ListUsers retrieves a filtered page of users sorted by name.
func (uc *Usecase) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	// The offset (page-1)*limit must fit in an int64
	if in.Page-1 > math.MaxInt64/in.Limit {
		return nil, apperrors.NewValidationError("invalid request", apperrors.FieldError{
			Field:   "page",
			Message: fmt.Sprintf("page must be less than or equal to %d", math.MaxInt64/in.Limit+1),
		})
	}
	if in.MinAge != nil && in.MaxAge != nil && *in.MinAge > *in.MaxAge {
		return nil, apperrors.NewValidationError("invalid request", apperrors.FieldError{
			Field:   "min_age",
			Message: "min_age must be less than or equal to max_age",
		})
	}

	query, err := security.ValidateSearchQuery(in.Query)
	if err != nil {
		log.Warn("invalid search query", zap.String("query", in.Query), zap.Error(err))
		return nil, apperrors.NewBadRequestError("invalid search query: " + err.Error())
	}

	log.Info("listing users", zap.String("query", query), zap.Int64("page", in.Page), zap.Int64("limit", in.Limit))

	filter := domain.ListFilter{
		NameQuery: query,
		MinAge:    in.MinAge,
		MaxAge:    in.MaxAge,
		IsActive:  in.IsActive,
		Page:      in.Page,
		Limit:     in.Limit,
	}

	domainUsers, total, err := uc.repo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list users", zap.String("query", query), zap.Int64("page", in.Page), zap.Int64("limit", in.Limit), zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *toDTO(&domainUsers[i])
	}

	return &ListUsersResponse{
		Users: users,
		Pagination: &Pagination{
			Total:      total,
			Page:       in.Page,
			Limit:      in.Limit,
			TotalPages: filter.TotalPages(total),
		},
	}, nil
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Age:      u.Age,
		IsActive: u.IsActive,
	}
}
