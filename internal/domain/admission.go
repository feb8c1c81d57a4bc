package domain

import (
	"time"

	"github.com/google/uuid"
)

// Admission represents a durable record that a user won one of an
// event's limited slots. Records are immutable once persisted; the
// admissions table enforces UNIQUE (event_id, user_id).
type Admission struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAdmission creates a new admission record for a user on an event
func NewAdmission(eventID, userID string) *Admission {
	return &Admission{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

// Validate validates all admission fields
func (a *Admission) Validate() error {
	if a.ID == "" {
		return ErrInvalidAdmissionID
	}
	if a.EventID == "" {
		return ErrInvalidEventID
	}
	if a.UserID == "" {
		return ErrInvalidUserID
	}
	return nil
}
