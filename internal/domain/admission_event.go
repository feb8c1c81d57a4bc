package domain

import "time"

// AdmissionEventType represents the type of admission domain event
type AdmissionEventType string

const (
	AdmissionEventUserAdmitted AdmissionEventType = "user.admitted"
)

// AdmissionEvent is the message published to the notification pipeline
// whenever a user wins an event slot.
type AdmissionEvent struct {
	EventID    string             `json:"event_id"`
	Type       AdmissionEventType `json:"type"`
	Source     string             `json:"source"`
	OccurredAt time.Time          `json:"occurred_at"`
	Admission  *Admission         `json:"admission"`
	Strategy   string             `json:"strategy"`
}

// NewAdmissionEvent creates a new admission event envelope
func NewAdmissionEvent(eventType AdmissionEventType, admission *Admission, strategy, eventID string) *AdmissionEvent {
	return &AdmissionEvent{
		EventID:    eventID,
		Type:       eventType,
		Source:     "admission-service",
		OccurredAt: time.Now(),
		Admission:  admission,
		Strategy:   strategy,
	}
}
