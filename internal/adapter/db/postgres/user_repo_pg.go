package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-management-api/internal/domain/user"
	apperrors "user-management-api/pkg/errors"
	"user-management-api/pkg/logger"
	"user-management-api/pkg/security"
)

// UserRepoPG implements the Repository interface using PostgreSQL and GORM.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	Name     string `gorm:"not null;size:80;index"`
	Email    string `gorm:"not null;uniqueIndex:idx_users_email"`
	Age      int    `gorm:"not null"`
	IsActive bool   `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m UserSchema) toDomain() *user.User {
	return &user.User{
		ID:       m.ID,
		Name:     m.Name,
		Email:    m.Email,
		Age:      m.Age,
		IsActive: m.IsActive,
	}
}

// AutoMigrate creates or updates the users table and its indexes.
func (r *UserRepoPG) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}
	log := logger.WithContext(ctx, r.log)

	model := UserSchema{
		ID:       uuid.NewString(),
		Name:     u.Name,
		Email:    u.Email,
		Age:      u.Age,
		IsActive: u.IsActive,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateKey(err) {
			log.Warn("duplicate email on create", zap.String("email", u.Email))
			return nil, apperrors.ErrEmailDuplicate
		}
		log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, apperrors.NewInternalError("failed to create user", err)
	}

	log.Info("user created in db", zap.String("id", model.ID))
	return model.toDomain(), nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id string) (*user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrInvalidID
	}

	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithContext(ctx, r.log).Debug("user not found", zap.String("id", id))
			return nil, apperrors.ErrUserNotFound
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.Error(err), zap.String("id", id))
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	return model.toDomain(), nil
}

// Update applies patch and reloads the row inside one transaction.
func (r *UserRepoPG) Update(ctx context.Context, id string, patch user.UserPatch) (*user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrInvalidID
	}
	if patch.IsEmpty() {
		return nil, apperrors.ErrEmptyUpdate
	}
	log := logger.WithContext(ctx, r.log)

	var model UserSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserSchema{}).Where("id = ?", id).Updates(updateColumns(patch))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Debug("user not found for update", zap.String("id", id))
			return nil, apperrors.ErrUserNotFound
		case isDuplicateKey(err):
			log.Warn("duplicate email on update", zap.String("id", id))
			return nil, apperrors.ErrEmailDuplicate
		default:
			log.Error("failed to update user in db", zap.Error(err), zap.String("id", id))
			return nil, apperrors.NewInternalError("failed to update user", err)
		}
	}

	log.Info("user updated in db", zap.String("id", id))
	return model.toDomain(), nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.ErrInvalidID
	}
	log := logger.WithContext(ctx, r.log)

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if res.Error != nil {
		log.Error("failed to delete user in db", zap.Error(res.Error), zap.String("id", id))
		return apperrors.NewInternalError("failed to delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}

	log.Info("user deleted in db", zap.String("id", id))
	return nil
}

// List retrieves one page of users matching filter, ordered by name, and the total match count.
// The name query is bound as a parameter with LIKE wildcards escaped.
func (r *UserRepoPG) List(ctx context.Context, filter user.ListFilter) ([]user.User, int64, error) {
	log := logger.WithContext(ctx, r.log)

	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		log.Error("failed to count users in db", zap.Error(err))
		return nil, 0, apperrors.NewInternalError("failed to count users", err)
	}

	var models []UserSchema
	err := r.filtered(ctx, filter).
		Order("name ASC").
		Offset(int(filter.Offset())).
		Limit(int(filter.Limit)).
		Find(&models).Error
	if err != nil {
		log.Error("failed to list users from db", zap.Error(err), zap.Int64("page", filter.Page), zap.Int64("limit", filter.Limit))
		return nil, 0, apperrors.NewInternalError("failed to list users", err)
	}

	users := make([]user.User, len(models))
	for i, m := range models {
		users[i] = *m.toDomain()
	}

	return users, total, nil
}

func (r *UserRepoPG) filtered(ctx context.Context, f user.ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&UserSchema{})

	if f.NameQuery != "" {
		pattern := "%" + strings.ToLower(security.SanitizeSearchString(f.NameQuery)) + "%"
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	}
	if f.MinAge != nil {
		q = q.Where("age >= ?", *f.MinAge)
	}
	if f.MaxAge != nil {
		q = q.Where("age <= ?", *f.MaxAge)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	return q
}

// updateColumns maps the supplied patch fields to column values.
// A map is used so false and zero values are written.
func updateColumns(p user.UserPatch) map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.Age != nil {
		cols["age"] = *p.Age
	}
	if p.IsActive != nil {
		cols["is_active"] = *p.IsActive
	}
	return cols
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}
