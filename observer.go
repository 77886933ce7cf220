package everly

import (
	"context"
	"slices"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Lifecycle event types emitted by the Manager, using CloudEvents reverse
// domain notation.
const (
	EventModuleRegistered  = "com.everly.module.registered"
	EventModuleInitialized = "com.everly.module.initialized"
	EventModuleFailed      = "com.everly.module.failed"
	EventModuleStopped     = "com.everly.module.stopped"

	EventApplicationStarted = "com.everly.application.started"
	EventApplicationStopped = "com.everly.application.stopped"
	EventApplicationFailed  = "com.everly.application.failed"
)

// Observer receives lifecycle events from the Manager. Observers should
// return quickly; a failing observer is logged and never affects the
// lifecycle operation that produced the event.
type Observer interface {
	// OnEvent is called for each event the observer subscribed to.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier used for registration
	// tracking and log correlation.
	ObserverID() string
}

// FuncObserver adapts a plain function to the Observer interface.
type FuncObserver struct {
	ID      string
	Handler func(ctx context.Context, event cloudevents.Event) error
}

func (f *FuncObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.Handler(ctx, event)
}

func (f *FuncObserver) ObserverID() string { return f.ID }

// RegisterObserver subscribes an observer to lifecycle events. With no
// event types given the observer receives everything.
func (m *Manager) RegisterObserver(obs Observer, eventTypes ...string) {
	m.observers.register(obs, eventTypes)
}

// UnregisterObserver removes an observer. Unknown observers are ignored.
func (m *Manager) UnregisterObserver(obs Observer) {
	m.observers.unregister(obs)
}

type observerEntry struct {
	observer   Observer
	eventTypes []string // empty means all
}

// observerList is the Manager's notification fan-out. Delivery is
// synchronous and ordered by registration; observer errors are logged and
// swallowed.
type observerList struct {
	mu      sync.RWMutex
	logger  Logger
	entries []observerEntry
}

func newObserverList(logger Logger) *observerList {
	return &observerList{logger: logger}
}

func (l *observerList) register(obs Observer, eventTypes []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, observerEntry{observer: obs, eventTypes: eventTypes})
}

func (l *observerList) unregister(obs Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = slices.DeleteFunc(l.entries, func(e observerEntry) bool {
		return e.observer.ObserverID() == obs.ObserverID()
	})
}

func (l *observerList) notify(ctx context.Context, event cloudevents.Event) {
	l.mu.RLock()
	entries := make([]observerEntry, len(l.entries))
	copy(entries, l.entries)
	l.mu.RUnlock()

	for _, e := range entries {
		if len(e.eventTypes) > 0 && !slices.Contains(e.eventTypes, event.Type()) {
			continue
		}
		if err := e.observer.OnEvent(ctx, event); err != nil {
			l.logger.Warn("observer failed to handle event",
				"observer", e.observer.ObserverID(),
				"event", event.Type(),
				"error", err)
		}
	}
}

// newLifecycleEvent builds a CloudEvent for a lifecycle notification. The
// subject is the module name, or "manager" for application-level events.
func newLifecycleEvent(eventType, subject string, data any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(uuid.New().String())
	event.SetType(eventType)
	event.SetSource("everly/lifecycle")
	event.SetSubject(subject)
	event.SetTime(time.Now())
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}
