// Package auth is the authentication feature module: account registration,
// login, JWT access/refresh token lifecycle, and the bearer-token
// middleware the other feature modules protect their routes with.
package auth

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/everly-app/everly"
)

// ModuleName is the registry name and route namespace of this module.
const ModuleName = "auth"

// Module implements everly.Module.
type Module struct {
	cfg      *Config
	log      everly.Logger
	db       *pgxpool.Pool
	users    UserStore
	sessions SessionStore
	svc      *Service
}

// NewModule creates an uninitialized auth module.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) Descriptor() everly.Descriptor {
	return everly.Descriptor{
		Name:        ModuleName,
		Version:     "1.0.0",
		Description: "Authentication and authorization module",
	}
}

// Init loads configuration, ensures the users schema, and picks the
// session store: redis when the shared cache handle is available, an
// in-memory fallback otherwise.
func (m *Module) Init(ctx context.Context, res *everly.Resources) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.cfg = cfg
	m.log = res.Logger
	m.db = res.DB

	users := NewPostgresUserStore(res.DB)
	if err := users.EnsureSchema(ctx); err != nil {
		return err
	}
	m.users = users

	if res.Cache != nil {
		m.sessions = NewRedisSessionStore(res.Cache)
	} else {
		m.log.Warn("redis unavailable, refresh sessions are memory-backed", "module", ModuleName)
		m.sessions = NewMemorySessionStore()
	}

	m.svc = NewService(cfg, m.users, m.sessions)
	return nil
}

func (m *Module) Routes() chi.Router {
	return m.routes()
}

// Cleanup discards memory-backed sessions. Safe after a partial Init and
// when there is nothing to clean.
func (m *Module) Cleanup(_ context.Context) error {
	if mem, ok := m.sessions.(*MemorySessionStore); ok {
		mem.Flush()
	}
	return nil
}

// Validator exposes the token validation capability to sibling modules.
// Valid only once the module is ready.
func (m *Module) Validator() TokenValidator {
	return m.svc
}

func (m *Module) Health(ctx context.Context) everly.HealthSnapshot {
	snap := everly.HealthSnapshot{
		Module:    ModuleName,
		Healthy:   true,
		Detail:    map[string]any{},
		CheckedAt: time.Now(),
	}

	if m.svc == nil {
		snap.Healthy = false
		snap.Detail["service"] = "not initialized"
		return snap
	}
	snap.Detail["jwt_configured"] = m.cfg.JWTSecret != ""

	if err := m.db.Ping(ctx); err != nil {
		snap.Healthy = false
		snap.Detail["database"] = err.Error()
	} else {
		snap.Detail["database"] = "ok"
	}

	switch m.sessions.(type) {
	case *RedisSessionStore:
		snap.Detail["sessions"] = "redis"
	case *MemorySessionStore:
		snap.Detail["sessions"] = "memory"
	}
	return snap
}
