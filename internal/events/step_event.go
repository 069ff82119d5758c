package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

const (
	TopicStepStarted      = "event:step:started"
	TopicStepValidated    = "event:step:validated"
	TopicStepCompleted    = "event:step:completed"
	TopicStepFailed       = "event:step:failed"
	TopicSessionAdvanced  = "event:session:advanced"
	TopicSessionCompleted = "event:session:completed"
	TopicAutopilot        = "event:autopilot:progress"
)

// StepEvent is the payload published for session and step lifecycle
// changes. SessionKey is the decimal session id; StepCode is empty for
// session-level events.
type StepEvent struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	Message    string            `json:"message"`
	StepCode   string            `json:"stepCode,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	SessionKey string            `json:"sessionKey,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type contextKey string

const sessionContextKey contextKey = "arizor/events/session"

// WithSession returns a derived context annotated with the given session key
// so event emitters can automatically scope payloads.
func WithSession(ctx context.Context, sessionKey string) context.Context {
	if strings.TrimSpace(sessionKey) == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey, sessionKey)
}

// SessionFromContext extracts the session key associated with ctx.
func SessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(sessionContextKey).(string); ok {
		return v
	}
	return ""
}

func CreateStepEvent(eventType EventType, message string) StepEvent {
	return StepEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewInfo creates an info StepEvent.
func NewInfo(message string) StepEvent {
	return CreateStepEvent(EventInfo, message)
}

// NewWarn creates a warn StepEvent.
func NewWarn(message string) StepEvent {
	return CreateStepEvent(EventWarn, message)
}

// NewError creates an error StepEvent.
func NewError(message string) StepEvent {
	return CreateStepEvent(EventError, message)
}

// NewSuccess creates a success StepEvent.
func NewSuccess(message string) StepEvent {
	return CreateStepEvent(EventSuccess, message)
}

// ForStep tags the event with a step code and returns it.
func (e StepEvent) ForStep(code string) StepEvent {
	e.StepCode = code
	return e
}
