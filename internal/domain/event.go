package domain

import (
	"time"
)

// PromoEventStatus represents the lifecycle status of a promotional event
type PromoEventStatus string

const (
	PromoEventStatusReady  PromoEventStatus = "READY"
	PromoEventStatusOpened PromoEventStatus = "OPENED"
	PromoEventStatusClosed PromoEventStatus = "CLOSED"
)

// IsValid checks if the status is a valid PromoEventStatus
func (s PromoEventStatus) IsValid() bool {
	switch s {
	case PromoEventStatusReady, PromoEventStatusOpened, PromoEventStatusClosed:
		return true
	}
	return false
}

// String returns the string representation of PromoEventStatus
func (s PromoEventStatus) String() string {
	return string(s)
}

// PromoEvent represents a limited-capacity promotional event,
// e.g. "first 50 users to join win a table".
//
// An external scheduler flips status from READY to OPENED when OpenAt
// elapses; admission is only allowed while the event is OPENED. This
// service never mutates Limit or Status.
type PromoEvent struct {
	ID        string           `json:"id"`
	StoreID   string           `json:"store_id"`
	Name      string           `json:"name"`
	Limit     int              `json:"limit"`
	Status    PromoEventStatus `json:"status"`
	OpenAt    time.Time        `json:"open_at"`
	EventAt   time.Time        `json:"event_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// IsOpened reports whether the event currently accepts admissions
func (e *PromoEvent) IsOpened() bool {
	return e.Status == PromoEventStatusOpened
}
