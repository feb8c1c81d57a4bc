package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
)

func TestAdmissionService_GetAdmission(t *testing.T) {
	tests := []struct {
		name       string
		eventID    string
		userID     string
		setupMocks func(*MockAdmissionRepository)
		wantErr    error
	}{
		{
			name:    "found",
			eventID: "event-001",
			userID:  "user-001",
			setupMocks: func(ar *MockAdmissionRepository) {
				ar.GetByUserAndEventFunc = func(ctx context.Context, userID, eventID string) (*domain.Admission, error) {
					return domain.NewAdmission(eventID, userID), nil
				}
			},
		},
		{
			name:    "not found",
			eventID: "event-001",
			userID:  "user-404",
			wantErr: domain.ErrAdmissionNotFound,
		},
		{
			name:    "missing event ID",
			eventID: "",
			userID:  "user-001",
			wantErr: domain.ErrInvalidEventID,
		},
		{
			name:    "missing user ID",
			eventID: "event-001",
			userID:  "",
			wantErr: domain.ErrInvalidUserID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admissionRepo := &MockAdmissionRepository{}
			if tt.setupMocks != nil {
				tt.setupMocks(admissionRepo)
			}

			svc := NewAdmissionService(admissionRepo)

			resp, err := svc.GetAdmission(context.Background(), tt.eventID, tt.userID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetAdmission() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("GetAdmission() unexpected error = %v", err)
				return
			}
			if resp.EventID != tt.eventID || resp.UserID != tt.userID {
				t.Errorf("GetAdmission() = %+v, want event %s user %s", resp, tt.eventID, tt.userID)
			}
		})
	}
}
