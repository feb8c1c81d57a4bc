package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
	"github.com/spring-team-7/table-now-sub000/internal/dto"
	"github.com/spring-team-7/table-now-sub000/internal/metrics"
	"github.com/spring-team-7/table-now-sub000/internal/repository"
	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

// CounterStrategy admits users on a plain existence-and-count check with
// no coordination.
//
// The check and the insert are separate statements, so concurrent
// joiners interleaving between them can push the committed count past
// the event's limit, and two requests by the same user can both pass
// the existence check. The unique constraint on (event_id, user_id)
// still blocks true duplicate rows, but count overshoot is possible.
// This is the intended baseline behavior for comparing against the
// coordinated strategies; do not add locking here.
type CounterStrategy struct {
	eventRepo      repository.EventRepository
	admissionRepo  repository.AdmissionRepository
	eventPublisher AdmissionEventPublisher
}

// NewCounterStrategy creates the lock-free counter strategy
func NewCounterStrategy(
	eventRepo repository.EventRepository,
	admissionRepo repository.AdmissionRepository,
	eventPublisher AdmissionEventPublisher,
) *CounterStrategy {
	if eventPublisher == nil {
		eventPublisher = NewNoOpAdmissionEventPublisher()
	}
	return &CounterStrategy{
		eventRepo:      eventRepo,
		admissionRepo:  admissionRepo,
		eventPublisher: eventPublisher,
	}
}

// Name returns the strategy identifier
func (s *CounterStrategy) Name() string {
	return StrategyCounter
}

// Join admits the user if the event is open, the user has not joined
// before, and the current count is below the limit.
func (s *CounterStrategy) Join(ctx context.Context, eventID, userID string) (*dto.AdmissionResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.admission.counter.join")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.RecordJoinDuration(ctx, StrategyCounter, time.Since(start).Seconds())
	}()

	if err := validateJoinArgs(eventID, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !event.IsOpened() {
		span.SetStatus(codes.Error, "event not opened")
		metrics.RecordRejection(ctx, StrategyCounter, "not_opened")
		return nil, domain.ErrEventNotOpened
	}

	exists, err := s.admissionRepo.Exists(ctx, userID, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if exists {
		span.SetStatus(codes.Error, "already joined")
		metrics.RecordRejection(ctx, StrategyCounter, "already_joined")
		return nil, domain.ErrAlreadyJoined
	}

	count, err := s.admissionRepo.CountByEvent(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if count >= event.Limit {
		span.SetStatus(codes.Error, "event full")
		metrics.RecordRejection(ctx, StrategyCounter, "full")
		return nil, domain.ErrEventFull
	}

	admission := domain.NewAdmission(eventID, userID)
	if err := s.admissionRepo.Save(ctx, admission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.eventPublisher.PublishUserAdmitted(ctx, admission, StrategyCounter)
	metrics.RecordAdmission(ctx, StrategyCounter, eventID)

	span.SetAttributes(attribute.String("admission_id", admission.ID))
	span.SetStatus(codes.Ok, "")
	return newAdmissionResponse(event, admission), nil
}

// Ensure CounterStrategy implements AdmissionStrategy
var _ AdmissionStrategy = (*CounterStrategy)(nil)
