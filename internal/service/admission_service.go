package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/spring-team-7/table-now-sub000/internal/dto"
	"github.com/spring-team-7/table-now-sub000/internal/repository"
	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

// AdmissionService provides read access to admission records
type AdmissionService interface {
	// GetAdmission returns the admission of a user for an event
	GetAdmission(ctx context.Context, eventID, userID string) (*dto.AdmissionRecordResponse, error)
}

type admissionService struct {
	admissionRepo repository.AdmissionRepository
}

// NewAdmissionService creates a new admission service
func NewAdmissionService(admissionRepo repository.AdmissionRepository) AdmissionService {
	return &admissionService{
		admissionRepo: admissionRepo,
	}
}

func (s *admissionService) GetAdmission(ctx context.Context, eventID, userID string) (*dto.AdmissionRecordResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.admission.get")
	defer span.End()

	if err := validateJoinArgs(eventID, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	admission, err := s.admissionRepo.GetByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.FromAdmission(admission), nil
}

var _ AdmissionService = (*admissionService)(nil)
