package di

import (
	"errors"
	"fmt"

	"user-registration-service/cmd/api/infrastructure"
	"user-registration-service/internal/adapter/cache"
	"user-registration-service/internal/adapter/db/postgres"
	"user-registration-service/internal/adapter/db/procedures"
	ginhandler "user-registration-service/internal/adapter/gin/handler"
	"user-registration-service/internal/adapter/repository/cached"
	"user-registration-service/internal/config"
	"user-registration-service/internal/usecase/user"
	redisclient "user-registration-service/pkg/redis"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB            // Set for the orm gateway
	Pool        *pgxpool.Pool       // Set for the procedures gateway
	RedisClient *redisclient.Client // Set when CACHE_ENABLED
	UserUC      user.UserUsecase
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	repo, err := c.newRepository()
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		rdb, err := infrastructure.NewRedisClient(cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb

		userCache := cache.NewRedisUserCache(rdb.Client, cfg.Redis.CacheTTL, l)
		repo = cached.NewCachedUserRepository(repo, userCache, l)
	}

	c.UserUC = user.New(repo, l)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

// newRepository opens storage for the configured gateway.
func (c *Container) newRepository() (user.Repository, error) {
	switch c.Config.DB.Gateway {
	case config.GatewayProcedures:
		pool, err := infrastructure.NewProcedurePool(c.Config, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.Pool = pool
		return procedures.NewUserRepoProc(pool, c.Logger), nil
	default:
		db, err := infrastructure.NewDatabase(c.Config, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		return postgres.NewUserRepoPG(db, c.Logger), nil
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("container close errors: %w", err)
	}

	return nil
}
