package everly

import (
	"errors"
	"fmt"
	"strings"
)

// Registration errors
var (
	ErrModuleAlreadyRegistered = errors.New("module already registered")
	ErrModuleNameEmpty         = errors.New("module name must not be empty")
	ErrModuleSelfDependency    = errors.New("module cannot depend on itself")
	ErrManagerNotIdle          = errors.New("modules can only be registered while the manager is idle")
)

// Lifecycle errors
var (
	ErrManagerAlreadyStarted   = errors.New("manager already started")
	ErrModuleDependencyMissing = errors.New("module depends on non-existent module")
	ErrCircularDependency      = errors.New("circular dependency detected")
)

// MissingDependencyError reports a descriptor that declares a dependency
// absent from the registry. Resolution fails immediately; no partial order
// is produced.
type MissingDependencyError struct {
	Module     string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s: %s depends on non-existent module %s",
		ErrModuleDependencyMissing, e.Module, e.Dependency)
}

func (e *MissingDependencyError) Unwrap() error { return ErrModuleDependencyMissing }

// CycleError reports that resolution stalled with modules remaining. The
// Remaining set is a superset of the true cycle, in registration order,
// which is sufficient for diagnosis.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: unresolved modules [%s]",
		ErrCircularDependency, strings.Join(e.Remaining, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCircularDependency }

// CleanupError records one module's cleanup failure during shutdown or
// rollback. Cleanup errors are collected, never fatal, and never abort the
// remaining cleanup sequence.
type CleanupError struct {
	Module string
	Err    error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup of module %s failed: %v", e.Module, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// StartError is returned by Manager.Start when a module's Init fails. Err
// is always the triggering module's original error; rollback failures are
// attached as context in Rollback and never substitute for it.
type StartError struct {
	Module   string
	Err      error
	Rollback []*CleanupError
}

func (e *StartError) Error() string {
	msg := fmt.Sprintf("failed to initialize module %s: %v", e.Module, e.Err)
	if len(e.Rollback) > 0 {
		parts := make([]string, 0, len(e.Rollback))
		for _, r := range e.Rollback {
			parts = append(parts, r.Error())
		}
		msg += fmt.Sprintf(" (rollback: %s)", strings.Join(parts, "; "))
	}
	return msg
}

func (e *StartError) Unwrap() error { return e.Err }

// ShutdownError aggregates cleanup failures from Manager.Stop. The shutdown
// sequence always runs to completion; this error only reports what broke
// along the way.
type ShutdownError struct {
	Failures []*CleanupError
}

func (e *ShutdownError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("shutdown completed with errors: %s", strings.Join(parts, "; "))
}
