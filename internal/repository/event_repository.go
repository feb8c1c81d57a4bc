package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
)

// EventRepository defines read access to promotional event metadata.
// Events are owned by the store-management service; this service only
// reads them (and, for the row-lock strategy, locks a row for the
// duration of an admission decision).
type EventRepository interface {
	// GetByID retrieves an event by ID
	GetByID(ctx context.Context, id string) (*domain.PromoEvent, error)

	// GetByIDForUpdate retrieves an event by ID and takes an exclusive
	// row lock held until tx commits or rolls back. Concurrent callers
	// locking the same event queue behind each other; different events
	// are unaffected.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.PromoEvent, error)
}

// TxBeginner starts database transactions; satisfied by *pgxpool.Pool
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
