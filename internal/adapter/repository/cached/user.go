package cached

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-management-api/internal/adapter/cache"
	domain "user-management-api/internal/domain/user"
	"user-management-api/internal/usecase/user"
	"user-management-api/pkg/logger"
)

// flightTimeout bounds a shared store read once no caller context governs it.
const flightTimeout = 10 * time.Second

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository and a cache implementation.
// Cache failures are logged and never fail a request.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// Create delegates to the underlying repository.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return r.dbRepo.Create(ctx, u)
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	log := logger.WithContext(ctx, r.log)

	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			log.Warn("cache get error, falling back to database", zap.String("id", id), zap.Error(err))
		} else if cachedUser != nil {
			return cachedUser, nil
		}
	}

	// Concurrent misses for the same ID share one store read. The read runs
	// detached from any single caller; each caller stops waiting on its own ctx.
	ch := r.group.DoChan(cache.Key(id), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()

		if r.cache != nil {
			cachedUser, err := r.cache.Get(fctx, id)
			if err == nil && cachedUser != nil {
				return cachedUser, nil
			}
		}

		u, err := r.dbRepo.GetByID(fctx, id)
		if err != nil {
			return nil, err
		}

		if r.cache != nil {
			if err := r.cache.Set(fctx, u); err != nil {
				log.Warn("failed to cache user", zap.String("id", id), zap.Error(err))
			}
		}

		return u, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Copy so callers never share the flight result
		u := *res.Val.(*domain.User)
		return &u, nil
	}
}

// Update updates the user in the store and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	updated, err := r.dbRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, id, "update")
	return updated, nil
}

// Delete deletes the user from the store and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	if err := r.dbRepo.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidate(ctx, id, "delete")
	return nil
}

// List delegates to the underlying repository.
func (r *CachedUserRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.User, int64, error) {
	return r.dbRepo.List(ctx, filter)
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id, op string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		logger.WithContext(ctx, r.log).Warn("failed to invalidate cache", zap.String("id", id), zap.String("op", op), zap.Error(err))
	}
}
