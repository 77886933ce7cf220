// Package media is the file upload feature module: image uploads stored
// on local disk with metadata rows in Postgres. It depends on the auth
// module for request authentication.
package media

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/everly-app/everly"
	"github.com/everly-app/everly/modules/auth"
)

// ModuleName is the registry name and route namespace of this module.
const ModuleName = "media"

// Module implements everly.Module.
type Module struct {
	authMod   *auth.Module
	validator auth.TokenValidator

	cfg *Config
	log everly.Logger
	db  *pgxpool.Pool
	svc *Service
}

// NewModule creates the media module. The auth reference is wired
// explicitly; its validator capability is resolved during Init, once auth
// is ready.
func NewModule(authMod *auth.Module) *Module {
	return &Module{authMod: authMod}
}

func (m *Module) Descriptor() everly.Descriptor {
	return everly.Descriptor{
		Name:         ModuleName,
		Version:      "1.0.0",
		Description:  "Media upload and storage module",
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

	if err := os.MkdirAll(cfg.UploadPath, 0o755); err != nil {
		return err
	}

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
	if err := probeWritable(m.cfg.UploadPath); err != nil {
		snap.Healthy = false
		snap.Detail["upload_path"] = err.Error()
	} else {
		snap.Detail["upload_path"] = "writable"
	}
	snap.Detail["max_file_size"] = m.cfg.MaxFileSize
	return snap
}

// probeWritable verifies the upload directory accepts new files.
func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(filepath.Clean(name))
}
