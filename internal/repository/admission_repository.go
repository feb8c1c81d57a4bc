package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
)

// AdmissionRepository defines durable storage of confirmed admissions.
// The admissions table enforces UNIQUE (event_id, user_id) as the final
// backstop against duplicate admission in every strategy.
type AdmissionRepository interface {
	// Exists reports whether the user already holds an admission for the event
	Exists(ctx context.Context, userID, eventID string) (bool, error)

	// CountByEvent returns the number of committed admissions for an event
	CountByEvent(ctx context.Context, eventID string) (int, error)

	// Save persists a new admission record. Returns
	// domain.ErrAdmissionConflict when a concurrent writer already
	// inserted the same (event, user) pair.
	Save(ctx context.Context, admission *domain.Admission) error

	// GetByUserAndEvent retrieves a user's admission for an event
	GetByUserAndEvent(ctx context.Context, userID, eventID string) (*domain.Admission, error)

	// ExistsTx, CountByEventTx and SaveTx are the transactional variants
	// used by the row-lock strategy so that check and insert share the
	// transaction holding the event row lock.
	ExistsTx(ctx context.Context, tx pgx.Tx, userID, eventID string) (bool, error)
	CountByEventTx(ctx context.Context, tx pgx.Tx, eventID string) (int, error)
	SaveTx(ctx context.Context, tx pgx.Tx, admission *domain.Admission) error
}
