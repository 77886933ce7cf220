// Package user is the profile feature module: profile editing, profile
// picture reference, and per-user preferences. It depends on the auth
// module for request authentication.
package user

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/everly-app/everly"
	"github.com/everly-app/everly/modules/auth"
)

// ModuleName is the registry name and route namespace of this module.
const ModuleName = "users"

// Module implements everly.Module.
type Module struct {
	authMod   *auth.Module
	validator auth.TokenValidator

	cfg *Config
	log everly.Logger
	db  *pgxpool.Pool
	svc *Service
}

// NewModule creates the user module. The auth module reference is wired
// explicitly here because the lifecycle manager guarantees ordering, not
// instance injection; auth's validator capability is resolved during Init,
// once auth is already ready.
func NewModule(authMod *auth.Module) *Module {
	return &Module{authMod: authMod}
}

func (m *Module) Descriptor() everly.Descriptor {
	return everly.Descriptor{
		Name:         ModuleName,
		Version:      "1.0.0",
		Description:  "User management and profile module",
		Dependencies: []string{auth.ModuleName},
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
	m.svc = NewService(cfg, store)
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
	snap.Detail["base_url_configured"] = m.cfg.BaseURL != ""
	return snap
}
