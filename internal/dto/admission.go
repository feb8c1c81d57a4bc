package dto

import (
	"time"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
)

// AdmissionResponse represents the result of a successful admission
type AdmissionResponse struct {
	AdmissionID string    `json:"admission_id"`
	EventID     string    `json:"event_id"`
	EventAt     time.Time `json:"event_at"`
	AdmittedAt  time.Time `json:"admitted_at"`
	Message     string    `json:"message"`
}

// AdmissionRecordResponse represents an admission record in API responses
type AdmissionRecordResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse represents an error in API responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// FromAdmission converts a domain Admission to AdmissionRecordResponse
func FromAdmission(a *domain.Admission) *AdmissionRecordResponse {
	return &AdmissionRecordResponse{
		ID:        a.ID,
		EventID:   a.EventID,
		UserID:    a.UserID,
		CreatedAt: a.CreatedAt,
	}
}
