// Package audit emits registry lifecycle events. Keep the Event
// transport-agnostic so sinks can fan out.
package audit

import (
	"context"
	"sync"
	"time"
)

// Action names what happened to a registry resource.
type Action string

const (
	ActionImportCreated  Action = "import_created"
	ActionCitizenPatched Action = "citizen_patched"
	ActionReportComputed Action = "report_computed"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	ImportID  int64     `json:"import_id"`
	CitizenID int64     `json:"citizen_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers events to a sink. Publishing is best-effort from the
// caller's point of view: domain operations never fail because a sink is down.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards all events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder buffers events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a snapshot of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
