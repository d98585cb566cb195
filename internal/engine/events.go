// Package engine runs the autonomous coding sessions behind each conscript.
// It wraps the Anthropic API (directly or via AWS Bedrock), tracks token
// usage, and reports progress through engine events.
package engine

import "time"

// EventType identifies the kind of engine event.
type EventType string

const (
	// EventStatusChanged reports a session phase change, emitted when a
	// session starts working and when it resumes after a human answer.
	EventStatusChanged EventType = "status_changed"
	// EventWorkComplete reports that the session finished its directive.
	EventWorkComplete EventType = "work_complete"
	// EventNeedsInput reports that the session is blocked on a human answer.
	EventNeedsInput EventType = "needs_input"
	// EventChatMessage carries informational output from the session.
	EventChatMessage EventType = "chat_message"
	// EventFailed reports that the session ended in an error.
	EventFailed EventType = "failed"
)

// Event is a progress report from a running session.
type Event struct {
	Type        EventType
	ConscriptID string
	DirectiveID string
	Message     string
	TokensUsed  int64
	Cost        float64
	At          time.Time
}

// EventSink receives engine events. Implementations must be safe for
// concurrent use; sessions run on their own goroutines.
type EventSink interface {
	HandleEngineEvent(ev Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(ev Event)

// HandleEngineEvent calls f(ev).
func (f EventSinkFunc) HandleEngineEvent(ev Event) { f(ev) }
