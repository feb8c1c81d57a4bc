package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
	"github.com/spring-team-7/table-now-sub000/internal/dto"
	"github.com/spring-team-7/table-now-sub000/internal/metrics"
	"github.com/spring-team-7/table-now-sub000/internal/repository"
	"github.com/spring-team-7/table-now-sub000/pkg/lock"
	"github.com/spring-team-7/table-now-sub000/pkg/logger"
	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

// lockPrefix namespaces the per-event admission lock
const lockPrefix = "promo-event-join"

// LedgerStrategyConfig contains configuration for the ledger strategy
type LedgerStrategyConfig struct {
	// LockWaitTime bounds how long a joiner waits for the per-event lock
	LockWaitTime time.Duration

	// LockLeaseTime bounds how long the lock is held before auto-expiry
	LockLeaseTime time.Duration
}

// LedgerStrategy serializes admission per event with a distributed
// mutual-exclusion lock and an atomic claim ledger, scaling admission
// control horizontally across server processes without database row
// locks.
//
// Claim order is decided by the ledger's add-if-absent timestamp score:
// a user whose rank is below the event limit holds a winning claim.
// If persisting the admission record then fails, the claim is rolled
// back (ledger removal) so the slot becomes claimable again; winning
// entries are never removed and remain the claim-order record of the
// event's run.
type LedgerStrategy struct {
	eventRepo      repository.EventRepository
	admissionRepo  repository.AdmissionRepository
	ledgerRepo     repository.LedgerRepository
	lockProvider   lock.Provider
	eventPublisher AdmissionEventPublisher
	lockWaitTime   time.Duration
	lockLeaseTime  time.Duration
}

// NewLedgerStrategy creates the distributed-lock + ledger strategy.
// lockProvider may be nil, in which case only the ledger's own
// atomicity serializes claims.
func NewLedgerStrategy(
	eventRepo repository.EventRepository,
	admissionRepo repository.AdmissionRepository,
	ledgerRepo repository.LedgerRepository,
	lockProvider lock.Provider,
	eventPublisher AdmissionEventPublisher,
	cfg *LedgerStrategyConfig,
) *LedgerStrategy {
	waitTime := 5 * time.Second
	leaseTime := 3 * time.Second
	if cfg != nil {
		if cfg.LockWaitTime > 0 {
			waitTime = cfg.LockWaitTime
		}
		if cfg.LockLeaseTime > 0 {
			leaseTime = cfg.LockLeaseTime
		}
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpAdmissionEventPublisher()
	}
	return &LedgerStrategy{
		eventRepo:      eventRepo,
		admissionRepo:  admissionRepo,
		ledgerRepo:     ledgerRepo,
		lockProvider:   lockProvider,
		eventPublisher: eventPublisher,
		lockWaitTime:   waitTime,
		lockLeaseTime:  leaseTime,
	}
}

// Name returns the strategy identifier
func (s *LedgerStrategy) Name() string {
	return StrategyLedger
}

// Join admits the user if their ledger claim ranks within the event limit
func (s *LedgerStrategy) Join(ctx context.Context, eventID, userID string) (*dto.AdmissionResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.admission.ledger.join")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.RecordJoinDuration(ctx, StrategyLedger, time.Since(start).Seconds())
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
		metrics.RecordRejection(ctx, StrategyLedger, "not_opened")
		return nil, domain.ErrEventNotOpened
	}

	var admission *domain.Admission
	join := func(ctx context.Context) error {
		adm, joinErr := s.claimAndPersist(ctx, event, userID)
		if joinErr != nil {
			return joinErr
		}
		admission = adm
		return nil
	}

	if s.lockProvider != nil {
		// One in-flight admission decision per event across the fleet;
		// different events stay fully concurrent.
		lockName := fmt.Sprintf("%s:%s", lockPrefix, eventID)
		err = lock.WithLock(ctx, s.lockProvider, lockName, s.lockWaitTime, s.lockLeaseTime, join)
		if errors.Is(err, lock.ErrNotAcquired) {
			span.SetStatus(codes.Error, "lock not acquired")
			metrics.RecordRejection(ctx, StrategyLedger, "lock_timeout")
			return nil, domain.ErrLockNotAcquired
		}
	} else {
		err = join(ctx)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.eventPublisher.PublishUserAdmitted(ctx, admission, StrategyLedger)
	metrics.RecordAdmission(ctx, StrategyLedger, eventID)

	span.SetAttributes(attribute.String("admission_id", admission.ID))
	span.SetStatus(codes.Ok, "")
	return newAdmissionResponse(event, admission), nil
}

// claimAndPersist takes a provisional ledger claim, checks its rank
// against the event limit and persists the admission record,
// compensating the claim when persistence fails.
func (s *LedgerStrategy) claimAndPersist(ctx context.Context, event *domain.PromoEvent, userID string) (*domain.Admission, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.admission.ledger.claim")
	defer span.End()

	// Atomic add-if-absent: an existing member means this user already
	// holds (or held and won) a claim, no separate read needed.
	added, err := s.ledgerRepo.AddIfAbsent(ctx, event.ID, userID, time.Now().UnixMilli())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !added {
		span.SetStatus(codes.Error, "already joined")
		metrics.RecordRejection(ctx, StrategyLedger, "already_joined")
		return nil, domain.ErrAlreadyJoined
	}

	rank, ok, err := s.ledgerRepo.Rank(ctx, event.ID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("rank", rank))

	if !ok || rank >= int64(event.Limit) {
		// Lost the race: free the slot before rejecting.
		s.removeClaim(ctx, event.ID, userID)
		span.SetStatus(codes.Error, "event full")
		metrics.RecordRejection(ctx, StrategyLedger, "full")
		return nil, domain.ErrEventFull
	}

	admission := domain.NewAdmission(event.ID, userID)
	if err := s.admissionRepo.Save(ctx, admission); err != nil {
		// Compensate: the claim must not outlive a failed admission,
		// otherwise the slot is lost for everyone. The original error is
		// re-raised unchanged.
		s.removeClaim(ctx, event.ID, userID)
		metrics.RecordCompensation(ctx, event.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return admission, nil
}

// removeClaim frees a provisional ledger slot; a failed removal is
// logged but never masks the admission outcome.
func (s *LedgerStrategy) removeClaim(ctx context.Context, eventID, userID string) {
	if err := s.ledgerRepo.Remove(ctx, eventID, userID); err != nil {
		logger.Get().Warn("failed to remove ledger claim",
			zap.String("event_id", eventID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// Ensure LedgerStrategy implements AdmissionStrategy
var _ AdmissionStrategy = (*LedgerStrategy)(nil)
