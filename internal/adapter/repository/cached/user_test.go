package cached

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-management-api/internal/adapter/cache"
	domain "user-management-api/internal/domain/user"
	apperrors "user-management-api/pkg/errors"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.User, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.User), args.Get(1).(int64), args.Error(2)
}

func setup(t *testing.T) (*CachedUserRepository, *mockRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zaptest.NewLogger(t)
	db := new(mockRepository)
	repo := NewCachedUserRepository(db, cache.NewRedisUserCache(client, time.Minute, log), log)
	return repo, db, mr
}

var ana = &domain.User{ID: "a1", Name: "Ana", Email: "ana@x.com", Age: 30, IsActive: true}

func TestCachedUserRepository_GetByID_PopulatesCache(t *testing.T) {
	repo, db, mr := setup(t)
	ctx := context.Background()

	db.On("GetByID", mock.Anything, "a1").Return(ana, nil).Once()

	first, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, ana, first)
	assert.True(t, mr.Exists("user:a1"))

	second, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, ana, second)

	db.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestCachedUserRepository_GetByID_NotFoundIsNotCached(t *testing.T) {
	repo, db, mr := setup(t)

	db.On("GetByID", mock.Anything, "zz").Return(nil, apperrors.ErrUserNotFound).Twice()

	for range 2 {
		_, err := repo.GetByID(context.Background(), "zz")
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	}
	assert.False(t, mr.Exists("user:zz"))
	db.AssertExpectations(t)
}

func TestCachedUserRepository_GetByID_CacheDownFallsBack(t *testing.T) {
	repo, db, mr := setup(t)
	mr.Close()

	db.On("GetByID", mock.Anything, "a1").Return(ana, nil)

	got, err := repo.GetByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, ana, got)
}

func TestCachedUserRepository_GetByID_ConcurrentMisses(t *testing.T) {
	repo, db, _ := setup(t)

	var calls atomic.Int32
	release := make(chan struct{})
	db.On("GetByID", mock.Anything, "a1").
		Run(func(mock.Arguments) {
			calls.Add(1)
			<-release
		}).
		Return(ana, nil)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := repo.GetByID(context.Background(), "a1")
			assert.NoError(t, err)
			assert.Equal(t, "Ana", u.Name)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Less(t, calls.Load(), int32(10))
}

func TestCachedUserRepository_GetByID_CanceledCallerDoesNotFailOthers(t *testing.T) {
	repo, db, _ := setup(t)

	var calls atomic.Int32
	release := make(chan struct{})
	db.On("GetByID", mock.Anything, "a1").
		Run(func(mock.Arguments) {
			calls.Add(1)
			<-release
		}).
		Return(ana, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := repo.GetByID(firstCtx, "a1")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		u   *domain.User
		err error
	}
	second := make(chan result, 1)
	go func() {
		u, err := repo.GetByID(context.Background(), "a1")
		second <- result{u, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, ana, got.u)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedUserRepository_UpdateInvalidates(t *testing.T) {
	repo, db, mr := setup(t)
	ctx := context.Background()
	name := "Ana Maria"
	patch := domain.UserPatch{Name: &name}
	updated := &domain.User{ID: "a1", Name: name, Email: "ana@x.com", Age: 30, IsActive: true}

	db.On("GetByID", mock.Anything, "a1").Return(ana, nil).Once()
	db.On("Update", mock.Anything, "a1", patch).Return(updated, nil).Once()

	_, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	require.True(t, mr.Exists("user:a1"))

	got, err := repo.Update(ctx, "a1", patch)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.False(t, mr.Exists("user:a1"))
}

func TestCachedUserRepository_UpdateFailureKeepsCache(t *testing.T) {
	repo, db, mr := setup(t)
	ctx := context.Background()
	email := "taken@x.com"
	patch := domain.UserPatch{Email: &email}

	db.On("GetByID", mock.Anything, "a1").Return(ana, nil).Once()
	db.On("Update", mock.Anything, "a1", patch).Return(nil, apperrors.ErrEmailDuplicate).Once()

	_, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)

	_, err = repo.Update(ctx, "a1", patch)
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)
	assert.True(t, mr.Exists("user:a1"))
}

func TestCachedUserRepository_DeleteInvalidates(t *testing.T) {
	repo, db, mr := setup(t)
	ctx := context.Background()

	db.On("GetByID", mock.Anything, "a1").Return(ana, nil).Once()
	db.On("Delete", mock.Anything, "a1").Return(nil).Once()

	_, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "a1"))
	assert.False(t, mr.Exists("user:a1"))
}

func TestCachedUserRepository_Delegates(t *testing.T) {
	repo, db, _ := setup(t)
	ctx := context.Background()
	filter := domain.ListFilter{Page: 1, Limit: 10}

	db.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(ana, nil).Once()
	db.On("List", mock.Anything, filter).Return([]domain.User{*ana}, int64(1), nil).Once()

	created, err := repo.Create(ctx, &domain.User{Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "a1", created.ID)

	users, total, err := repo.List(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, int64(1), total)

	db.AssertExpectations(t)
}
