package everly

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Resources are the shared infrastructure handles passed into every
// module's Init. They are owned by the process and merely lent to modules:
// modules must not assume exclusive ownership and must not close them
// during Cleanup. Close is called exactly once, by the process entry point,
// after the manager has stopped.
type Resources struct {
	// DB is the shared Postgres pool. Always non-nil after OpenResources.
	DB *pgxpool.Pool

	// Cache is the shared redis client, or nil when redis is not
	// configured or unreachable. Modules must degrade gracefully without
	// it.
	Cache *redis.Client

	// Logger is the process logger; modules derive their own log context
	// from it via key-value pairs.
	Logger Logger
}

// OpenResources connects the shared handles. Postgres is mandatory: the
// process refuses to start without it. Redis is optional: a missing or
// unreachable redis is logged and the Cache handle stays nil.
func OpenResources(ctx context.Context, cfg *Config, logger Logger) (*Resources, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to postgres")

	res := &Resources{DB: pool, Logger: logger}

	if cfg.Redis.Addr == "" {
		logger.Warn("redis not configured, continuing without cache")
		return res, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, continuing without cache", "addr", cfg.Redis.Addr, "error", err)
		_ = client.Close()
		return res, nil
	}
	logger.Info("connected to redis", "addr", cfg.Redis.Addr)
	res.Cache = client
	return res, nil
}

// Close releases the shared handles. Safe to call once only.
func (r *Resources) Close() {
	if r.Cache != nil {
		_ = r.Cache.Close()
	}
	if r.DB != nil {
		r.DB.Close()
	}
}
