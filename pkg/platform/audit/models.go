package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names an emitted event.
type EventType string

const (
	// EventVerificationCompleted is emitted after a verification status has
	// been committed for an application.
	EventVerificationCompleted EventType = "verification_completed"
)

// Event is emitted from domain logic after a state change. Keep it
// transport-agnostic so publishers can fan out.
type Event struct {
	ID        uuid.UUID `json:"event_id"`
	Type      EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	ApplicationID   string `json:"application_id"`
	VerificationID  string `json:"verification_id"`
	Status          string `json:"status"`
	Outcome         string `json:"outcome"`
	ConfidenceScore int    `json:"confidence_score"`
	AutoApproved    bool   `json:"auto_approved"`
	// FlaggedFields lists the fields that raised a flag, in report order.
	FlaggedFields []string `json:"flagged_fields"`
	ErrorFlags    int      `json:"error_flags"`

	RequestID string `json:"request_id,omitempty"` // Correlation ID from HTTP request context
	ClientID  string `json:"client_id,omitempty"`  // Authenticated calling service
	Device    string `json:"device,omitempty"`     // User-agent summary of the caller
}

// Key partitions events so all events for one application stay ordered.
func (e Event) Key() string {
	return e.ApplicationID
}

// Publisher delivers events to a sink. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}
