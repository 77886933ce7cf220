// Package diary is the journaling feature module: diaries, dated entries,
// text search, and a redis-backed cache for entry listings. It depends on
// the auth module for request authentication and on the user module for
// profile semantics layered above accounts.
package diary

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/everly-app/everly"
	"github.com/everly-app/everly/modules/auth"
	"github.com/everly-app/everly/modules/user"
)

// ModuleName is the registry name and route namespace of this module.
const ModuleName = "diaries"

// Module implements everly.Module.
type Module struct {
	authMod   *auth.Module
	validator auth.TokenValidator

	cfg *Config
	log everly.Logger
	db  *pgxpool.Pool
	svc *Service
}

// NewModule creates the diary module. The auth reference is wired
// explicitly; its validator capability is resolved during Init, once auth
// is ready.
func NewModule(authMod *auth.Module) *Module {
	return &Module{authMod: authMod}
}

func (m *Module) Descriptor() everly.Descriptor {
	return everly.Descriptor{
		Name:         ModuleName,
		Version:      "1.0.0",
		Description:  "Diary and journal entry management module",
		Dependencies: []string{auth.ModuleName, user.ModuleName},
	}
}

func (m *Module) Init(ctx context.Context, res *everly.Resources) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.cfg = cfg
	m.log = res.Logger
	m.db = res.DB
	m.validator = m.authMod.Validator()

	store := NewStore(res.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	cache := NewEntryCache(res.Cache, cfg.CacheTTL)
	if !cache.Enabled() {
		m.log.Warn("redis unavailable, entry listings are uncached", "module", ModuleName)
	}

	m.svc = NewService(cfg, store, cache)
	return nil
}

func (m *Module) Routes() chi.Router {
	return m.routes()
}

func (m *Module) Cleanup(_ context.Context) error {
	return nil
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
	if err := m.db.Ping(ctx); err != nil {
		snap.Healthy = false
		snap.Detail["database"] = err.Error()
	} else {
		snap.Detail["database"] = "ok"
	}
	snap.Detail["max_page_size"] = m.cfg.MaxPageSize
	snap.Detail["search_limit"] = m.cfg.SearchLimit
	snap.Detail["cache"] = m.svc.cache.Enabled()
	return snap
}
