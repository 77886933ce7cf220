// Package everly provides the module lifecycle core for the Everly backend.
// The application is composed of independently developed feature modules
// (auth, user, diary, media) that declare their identity and dependencies,
// are initialized in dependency order against shared infrastructure handles,
// and expose their HTTP routes under a per-module namespace.
//
// The Manager owns the module registry and drives the whole lifecycle:
//
//	mgr := everly.NewManager(logger, resources)
//	mgr.Register(auth.NewModule())
//	mgr.Register(user.NewModule(authMod))
//	if err := mgr.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	http.ListenAndServe(addr, mgr.Router())
package everly

import (
	"context"
	"slices"

	"github.com/go-chi/chi/v5"
)

// Descriptor is the immutable identity and metadata record for a module.
// Name must be unique within a Manager and must not appear in Dependencies.
type Descriptor struct {
	// Name is the unique identifier for the module. It is used for
	// dependency resolution and as the route namespace prefix.
	Name string `json:"name"`

	// Version is the module version, informational only.
	Version string `json:"version"`

	// Description is a human readable summary of what the module does.
	Description string `json:"description"`

	// Dependencies lists the names of modules that must be initialized
	// before this one. Names must match the Name of another registered
	// module exactly.
	Dependencies []string `json:"dependencies,omitempty"`
}

// DependsOn reports whether the descriptor declares a dependency on name.
func (d Descriptor) DependsOn(name string) bool {
	return slices.Contains(d.Dependencies, name)
}

// Module is the contract every feature module implements to be managed by
// the Manager.
//
// The Manager guarantees Init is called at most once per startup attempt,
// only after every declared dependency has reached StateReady. Routes is
// called only after Init succeeds. Cleanup is called at most once per
// startup attempt, in reverse initialization order, and only for modules
// that reached StateReady.
type Module interface {
	// Descriptor returns the module's identity. It must be pure, free of
	// side effects and stable across calls.
	Descriptor() Descriptor

	// Init prepares the module for serving using the shared infrastructure
	// handles. It may perform I/O such as schema setup or connectivity
	// checks. The handles are lent to the module for the process lifetime;
	// the module must never close them.
	Init(ctx context.Context, res *Resources) error

	// Routes returns the module's externally exposed operations. The
	// returned router is mounted under "/"+Descriptor().Name. Routes must
	// be safe to call repeatedly and free of side effects.
	Routes() chi.Router

	// Cleanup releases module-local state. It must tolerate being called
	// after a partially failed Init and must not fail when there is
	// nothing to clean up. It must not close the shared handles.
	Cleanup(ctx context.Context) error

	// Health returns a point-in-time health snapshot. Implementations must
	// not block indefinitely; the provided context carries the per-module
	// deadline applied by the Manager, and implementations reaching out to
	// infrastructure should honor it.
	Health(ctx context.Context) HealthSnapshot
}

// ModuleState tracks where a registered module is in its lifecycle.
type ModuleState int

const (
	// StateRegistered means the module is known to the manager but has not
	// been initialized yet.
	StateRegistered ModuleState = iota

	// StateInitializing means Init is currently running.
	StateInitializing

	// StateReady means Init completed successfully.
	StateReady

	// StateFailed means Init returned an error. Failed modules are never
	// initialized further and are skipped during cleanup.
	StateFailed

	// StateCleaningUp means Cleanup is currently running.
	StateCleaningUp

	// StateStopped means Cleanup has completed (successfully or not).
	StateStopped
)

// String returns the lowercase name of the state.
func (s ModuleState) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateCleaningUp:
		return "cleaning_up"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ManagerState tracks the lifecycle of the Manager itself.
type ManagerState int

const (
	// ManagerIdle is the initial state; modules may only be registered
	// while the manager is idle.
	ManagerIdle ManagerState = iota

	// ManagerStarting means Start is in progress.
	ManagerStarting

	// ManagerRunning means every module initialized successfully and the
	// aggregated route surface is available.
	ManagerRunning

	// ManagerStartFailed means Start failed and already-initialized
	// modules were rolled back.
	ManagerStartFailed

	// ManagerStopping means Stop is in progress.
	ManagerStopping

	// ManagerStopped means Stop has completed.
	ManagerStopped
)

// String returns the lowercase name of the state.
func (s ManagerState) String() string {
	switch s {
	case ManagerIdle:
		return "idle"
	case ManagerStarting:
		return "starting"
	case ManagerRunning:
		return "running"
	case ManagerStartFailed:
		return "start_failed"
	case ManagerStopping:
		return "stopping"
	case ManagerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ModuleInfo is a read-only view of one registry entry, exposed for
// introspection and the operational endpoints.
type ModuleInfo struct {
	Descriptor Descriptor  `json:"descriptor"`
	State      ModuleState `json:"-"`
	StateName  string      `json:"state"`
}
