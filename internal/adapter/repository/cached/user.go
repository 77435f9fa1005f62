package cached

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-registration-service/internal/adapter/cache"
	domain "user-registration-service/internal/domain/user"
	"user-registration-service/internal/usecase/user"
)

// lookup is what a single-flight GetByID call shares with its waiters.
type lookup struct {
	user  domain.User
	found bool
}

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation.
// Cache failures are logged and never fail the call.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group

	// gen is bumped by every invalidation. A fill whose database read began
	// under an older generation is dropped instead of cached.
	mu  sync.Mutex
	gen uint64
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// List delegates to the DB repository.
func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.List(ctx)
}

// Create delegates to the DB repository. New users are cached on first read.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	return r.dbRepo.Create(ctx, u)
}

// EmailExists delegates to the DB repository.
func (r *CachedUserRepository) EmailExists(ctx context.Context, email string, excludeID *int64) (bool, error) {
	return r.dbRepo.EmailExists(ctx, email, excludeID)
}

// GetByID retrieves a user by ID using the cache-aside pattern.
// Absent users are not cached.
func (r *CachedUserRepository) GetByID(ctx context.Context, id int64) (domain.User, bool, error) {
	if u, ok := r.fromCache(ctx, id); ok {
		r.log.Debug("user retrieved from cache", zap.Int64("id", id))
		return u, true, nil
	}

	// Cache miss: collapse concurrent loads of the same id into one query
	result, err, _ := r.group.Do(cache.Key(id), func() (any, error) {
		gen := r.generation()

		// Another caller may have filled the cache while this one waited
		if u, ok := r.fromCache(ctx, id); ok {
			return lookup{user: u, found: true}, nil
		}

		u, found, err := r.dbRepo.GetByID(ctx, id)
		if err != nil || !found {
			return lookup{}, err
		}

		r.fill(ctx, u, gen)
		return lookup{user: u, found: true}, nil
	})
	if err != nil {
		return domain.User{}, false, err
	}

	l := result.(lookup)
	return l.user, l.found, nil
}

// GetByIDUncached reads the user straight from the database.
// Writers use it so they never build on a cached copy.
func (r *CachedUserRepository) GetByIDUncached(ctx context.Context, id int64) (domain.User, bool, error) {
	return r.dbRepo.GetByID(ctx, id)
}

// Update updates the user in DB and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, u *domain.User) (bool, error) {
	ok, err := r.dbRepo.Update(ctx, u)
	if err != nil {
		return false, err
	}

	r.invalidate(ctx, u.ID, "update")
	return ok, nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	r.invalidate(ctx, id, "delete")
	return ok, nil
}

func (r *CachedUserRepository) fromCache(ctx context.Context, id int64) (domain.User, bool) {
	u, found, err := r.cache.Get(ctx, id)
	if err != nil {
		r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		return domain.User{}, false
	}
	return u, found
}

func (r *CachedUserRepository) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

func (r *CachedUserRepository) fill(ctx context.Context, u domain.User, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		r.log.Debug("discarding cache fill raced by a write", zap.Int64("id", u.ID))
		return
	}
	if err := r.cache.Set(ctx, u); err != nil {
		r.log.Warn("failed to cache user", zap.Int64("id", u.ID), zap.Error(err))
	}
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id int64, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
	}
}
