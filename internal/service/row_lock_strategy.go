package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
	"github.com/spring-team-7/table-now-sub000/internal/dto"
	"github.com/spring-team-7/table-now-sub000/internal/metrics"
	"github.com/spring-team-7/table-now-sub000/internal/repository"
	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

// RowLockStrategy serializes admission per event with a pessimistic row
// lock on the event record.
//
// The event read, the existence check, the count check and the insert
// all run inside one transaction; SELECT ... FOR UPDATE queues every
// concurrent joiner of the same event behind the transaction holding
// the lock, so the committed count can never exceed the limit.
// Different events do not contend. A lock wait exceeding the
// database's lock_timeout surfaces as domain.ErrLockWaitTimeout, which
// callers may retry.
type RowLockStrategy struct {
	db             repository.TxBeginner
	eventRepo      repository.EventRepository
	admissionRepo  repository.AdmissionRepository
	eventPublisher AdmissionEventPublisher
}

// NewRowLockStrategy creates the pessimistic row-lock strategy
func NewRowLockStrategy(
	db repository.TxBeginner,
	eventRepo repository.EventRepository,
	admissionRepo repository.AdmissionRepository,
	eventPublisher AdmissionEventPublisher,
) *RowLockStrategy {
	if eventPublisher == nil {
		eventPublisher = NewNoOpAdmissionEventPublisher()
	}
	return &RowLockStrategy{
		db:             db,
		eventRepo:      eventRepo,
		admissionRepo:  admissionRepo,
		eventPublisher: eventPublisher,
	}
}

// Name returns the strategy identifier
func (s *RowLockStrategy) Name() string {
	return StrategyRowLock
}

// Join admits the user while holding an exclusive lock on the event row
func (s *RowLockStrategy) Join(ctx context.Context, eventID, userID string) (*dto.AdmissionResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.admission.row_lock.join")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.RecordJoinDuration(ctx, StrategyRowLock, time.Since(start).Seconds())
	}()

	if err := validateJoinArgs(eventID, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	event, err := s.eventRepo.GetByIDForUpdate(ctx, tx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !event.IsOpened() {
		span.SetStatus(codes.Error, "event not opened")
		metrics.RecordRejection(ctx, StrategyRowLock, "not_opened")
		return nil, domain.ErrEventNotOpened
	}

	exists, err := s.admissionRepo.ExistsTx(ctx, tx, userID, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if exists {
		span.SetStatus(codes.Error, "already joined")
		metrics.RecordRejection(ctx, StrategyRowLock, "already_joined")
		return nil, domain.ErrAlreadyJoined
	}

	count, err := s.admissionRepo.CountByEventTx(ctx, tx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if count >= event.Limit {
		span.SetStatus(codes.Error, "event full")
		metrics.RecordRejection(ctx, StrategyRowLock, "full")
		return nil, domain.ErrEventFull
	}

	admission := domain.NewAdmission(eventID, userID)
	if err := s.admissionRepo.SaveTx(ctx, tx, admission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit admission: %w", err)
	}

	_ = s.eventPublisher.PublishUserAdmitted(ctx, admission, StrategyRowLock)
	metrics.RecordAdmission(ctx, StrategyRowLock, eventID)

	span.SetAttributes(attribute.String("admission_id", admission.ID))
	span.SetStatus(codes.Ok, "")
	return newAdmissionResponse(event, admission), nil
}

// Ensure RowLockStrategy implements AdmissionStrategy
var _ AdmissionStrategy = (*RowLockStrategy)(nil)
