// internal/orchestrator/events.go
package orchestrator

import (
	"time"

	"travel-concierge/internal/models"
)

type EventType string

const (
	EventStatus   EventType = "status"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one streaming update of a run. Sinks receive events synchronously from the
// goroutine driving the run and must not block for long.
type Event struct {
	Type      EventType       `json:"type"`
	RunID     string          `json:"runId"`
	Phase     models.RunPhase `json:"phase"`
	Message   string          `json:"message"`
	Percent   int             `json:"percent"`
	Timestamp time.Time       `json:"timestamp"`
}

type EventSink func(Event)

type RunOption func(*runOptions)

type runOptions struct {
	personaHint *models.PersonaProfile
	sink        EventSink
}

// WithPersonaHint merges an external persona signal into the inferred persona.
func WithPersonaHint(hint models.PersonaProfile) RunOption {
	return func(o *runOptions) {
		o.personaHint = &hint
	}
}

func WithEventSink(sink EventSink) RunOption {
	return func(o *runOptions) {
		o.sink = sink
	}
}
