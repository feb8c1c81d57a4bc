package service

import (
	"context"
	"fmt"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
	"github.com/spring-team-7/table-now-sub000/internal/dto"
)

// Strategy names, used for routing, metrics and event payloads
const (
	StrategyCounter = "counter"
	StrategyRowLock = "row-lock"
	StrategyLedger  = "ledger"
)

// AdmissionStrategy decides whether a user may join a limited-capacity
// promotional event and persists that decision. The three
// implementations trade consistency against throughput:
//
//   - CounterStrategy races on a plain count query, no coordination.
//   - RowLockStrategy serializes admission per event with a pessimistic
//     database row lock.
//   - LedgerStrategy serializes per event with a distributed lock and an
//     atomic claim ledger, scaling across server processes.
//
// The caller selects the strategy; all of them honor the same error
// taxonomy in internal/domain.
type AdmissionStrategy interface {
	// Name returns the strategy identifier
	Name() string

	// Join admits the user to the event or returns why it cannot:
	// domain.ErrEventNotFound, ErrEventNotOpened, ErrAlreadyJoined,
	// ErrEventFull, ErrAdmissionConflict, ErrLockWaitTimeout or
	// ErrLockNotAcquired.
	Join(ctx context.Context, eventID, userID string) (*dto.AdmissionResponse, error)
}

// validateJoinArgs checks identifiers shared by every strategy
func validateJoinArgs(eventID, userID string) error {
	if eventID == "" {
		return domain.ErrInvalidEventID
	}
	if userID == "" {
		return domain.ErrInvalidUserID
	}
	return nil
}

// newAdmissionResponse builds the caller-facing result from a persisted
// admission record
func newAdmissionResponse(event *domain.PromoEvent, admission *domain.Admission) *dto.AdmissionResponse {
	return &dto.AdmissionResponse{
		AdmissionID: admission.ID,
		EventID:     event.ID,
		EventAt:     event.EventAt,
		AdmittedAt:  admission.CreatedAt,
		Message:     fmt.Sprintf("You won a seat for %s", event.Name),
	}
}
