package everly

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter composes the aggregated route surface: every ready module
// mounted under its name, plus the operational endpoints owned by the
// process itself. Called once, at the end of a successful Start, with the
// manager lock held.
func (m *Manager) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	for _, name := range m.order {
		entry := m.entries[name]
		if entry.state != StateReady {
			continue
		}
		r.Mount("/"+name, entry.module.Routes())
		m.logger.Debug("mounted module routes", "module", name, "prefix", "/"+name)
	}

	r.Get("/health", m.handleHealth)
	r.Get("/modules", m.handleModules)
	if m.metrics != nil {
		if h := m.metrics.Handler(); h != nil {
			r.Method(http.MethodGet, "/metrics", h)
		}
	}
	return r
}

// handleHealth serves the aggregate health breakdown. Degraded aggregates
// answer 503 so load balancer checks fail over.
func (m *Manager) handleHealth(w http.ResponseWriter, r *http.Request) {
	agg := m.AggregateHealth(r.Context())
	code := http.StatusOK
	if agg.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, agg)
}

// handleModules lists the registry with per-module state.
func (m *Manager) handleModules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.Modules())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
