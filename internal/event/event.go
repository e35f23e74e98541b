package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeUserSignedUp     Type = "user.signed_up"
	TypeLoginSucceeded   Type = "auth.login_succeeded"
	TypeLoginFailed      Type = "auth.login_failed"
	TypePasswordReset    Type = "auth.password_reset"
	TypeTokenRejected    Type = "auth.token_rejected"
	TypePredictionServed Type = "prediction.served"
	TypePredictionFailed Type = "prediction.failed"
)

type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp string         `json:"timestamp"`
	ActorID   string         `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe(name string) (<-chan Event, func()) // Returns channel and unsubscribe function
}

// New stamps an event with a fresh id and the current UTC time.
func New(t Type, actorID string, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	}
}
