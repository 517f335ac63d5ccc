// ABOUTME: Process-wide subscription registry
// ABOUTME: Tracks subscription ids and lifecycle status with guarded bulk clear
package subscription

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gqlwire/gqlwire-go/internal/protocol"
)

// Status is a subscription's lifecycle state. Transitions are monotonic:
// open moves to error or closed and never back.
type Status int

const (
	StatusOpen Status = iota
	StatusError
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusError:
		return "error"
	}
	return "closed"
}

// Record is one tracked subscription. Variant is filled in by the owning
// engine once the transport negotiates a dialect; status is mutated only
// through the registry.
type Record struct {
	ID      string
	Variant protocol.Variant

	status Status
}

// Registry maps subscription ids to lifecycle records. A single mutex guards
// inserts, removals, and status writes; per-entry locking is unnecessary
// because each entry is written only by the pump that owns it.
type Registry struct {
	mu        sync.Mutex
	qualifier string
	subs      map[string]*Record
}

// Default is the process-wide registry used when a client does not carry its
// own. It is created empty at startup and mutated only through Registry
// operations.
var Default = NewRegistry()

// NewRegistry creates an empty registry with a fresh worker qualifier.
func NewRegistry() *Registry {
	return &Registry{
		qualifier: uuid.NewString()[:8],
		subs:      make(map[string]*Record),
	}
}

// Allocate tracks a new subscription and returns its record. The id is the
// current tracked count plus one, joined with the registry's worker qualifier.
func (r *Registry) Allocate() *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := fmt.Sprintf("%d-%s", len(r.subs)+1, r.qualifier)
	rec := &Record{ID: id, status: StatusOpen}
	r.subs[id] = rec
	return rec
}

// Mark transitions a subscription's status. Regressions out of a terminal
// state are ignored.
func (r *Registry) Mark(id string, s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.subs[id]
	if !ok || rec.status != StatusOpen {
		return
	}
	if s != StatusOpen {
		rec.status = s
	}
}

// Status reports the tracked status for an id.
func (r *Registry) Status(id string) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.subs[id]
	if !ok {
		return 0, false
	}
	return rec.status, true
}

// Len reports the number of tracked subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Clear removes all tracked subscriptions. Any entry still open aborts the
// clear with an error naming it, leaving the registry untouched; clearing an
// empty registry is a no-op.
func (r *Registry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.subs {
		if rec.status == StatusOpen {
			return fmt.Errorf("clear registry: subscription %s is still open", id)
		}
	}
	r.subs = make(map[string]*Record)
	return nil
}
