package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

// PostgresEventRepository implements EventRepository using PostgreSQL with pgxpool
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

const selectEventQuery = `
	SELECT id, store_id, name, capacity, status, open_at, event_at, created_at, updated_at
	FROM promo_events
	WHERE id = $1
`

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.PromoEvent, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	event, err := scanEvent(r.pool.QueryRow(ctx, selectEventQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// GetByIDForUpdate retrieves an event by ID under an exclusive row lock.
// The lock is held until tx ends; a lock wait exceeding the configured
// lock_timeout surfaces as domain.ErrLockWaitTimeout so the caller can
// retry.
func (r *PostgresEventRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.PromoEvent, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_by_id_for_update")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	event, err := scanEvent(tx.QueryRow(ctx, selectEventQuery+" FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrEventNotFound
		}
		if isLockTimeout(err) {
			span.SetStatus(codes.Error, "lock wait timeout")
			return nil, domain.ErrLockWaitTimeout
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event for update: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// scanEvent scans a row into a PromoEvent struct
func scanEvent(row pgx.Row) (*domain.PromoEvent, error) {
	event := &domain.PromoEvent{}
	var status string

	err := row.Scan(
		&event.ID,
		&event.StoreID,
		&event.Name,
		&event.Limit,
		&status,
		&event.OpenAt,
		&event.EventAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Status = domain.PromoEventStatus(status)
	return event, nil
}

// Ensure PostgresEventRepository implements EventRepository
var _ EventRepository = (*PostgresEventRepository)(nil)
