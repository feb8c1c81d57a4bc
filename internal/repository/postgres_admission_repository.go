package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

// PostgreSQL error codes
const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
)

// PostgresAdmissionRepository implements AdmissionRepository using PostgreSQL with pgxpool
type PostgresAdmissionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAdmissionRepository creates a new PostgresAdmissionRepository
func NewPostgresAdmissionRepository(pool *pgxpool.Pool) *PostgresAdmissionRepository {
	return &PostgresAdmissionRepository{pool: pool}
}

// querier is the subset of pgx shared by pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	existsAdmissionQuery = `
		SELECT EXISTS(SELECT 1 FROM admissions WHERE user_id = $1 AND event_id = $2)
	`
	countAdmissionsQuery = `
		SELECT COUNT(*) FROM admissions WHERE event_id = $1
	`
	insertAdmissionQuery = `
		INSERT INTO admissions (id, event_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
)

// Exists reports whether the user already holds an admission for the event
func (r *PostgresAdmissionRepository) Exists(ctx context.Context, userID, eventID string) (bool, error) {
	return r.exists(ctx, r.pool, userID, eventID)
}

// ExistsTx is Exists within an existing transaction
func (r *PostgresAdmissionRepository) ExistsTx(ctx context.Context, tx pgx.Tx, userID, eventID string) (bool, error) {
	return r.exists(ctx, tx, userID, eventID)
}

func (r *PostgresAdmissionRepository) exists(ctx context.Context, q querier, userID, eventID string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.admission.exists")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("event_id", eventID),
	)

	var exists bool
	if err := q.QueryRow(ctx, existsAdmissionQuery, userID, eventID).Scan(&exists); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to check admission existence: %w", err)
	}

	span.SetAttributes(attribute.Bool("exists", exists))
	span.SetStatus(codes.Ok, "")
	return exists, nil
}

// CountByEvent returns the number of committed admissions for an event
func (r *PostgresAdmissionRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	return r.countByEvent(ctx, r.pool, eventID)
}

// CountByEventTx is CountByEvent within an existing transaction
func (r *PostgresAdmissionRepository) CountByEventTx(ctx context.Context, tx pgx.Tx, eventID string) (int, error) {
	return r.countByEvent(ctx, tx, eventID)
}

func (r *PostgresAdmissionRepository) countByEvent(ctx context.Context, q querier, eventID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.admission.count_by_event")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	var count int
	if err := q.QueryRow(ctx, countAdmissionsQuery, eventID).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to count admissions: %w", err)
	}

	span.SetAttributes(attribute.Int("count", count))
	span.SetStatus(codes.Ok, "")
	return count, nil
}

// Save persists a new admission record
func (r *PostgresAdmissionRepository) Save(ctx context.Context, admission *domain.Admission) error {
	return r.save(ctx, r.pool, admission)
}

// SaveTx is Save within an existing transaction
func (r *PostgresAdmissionRepository) SaveTx(ctx context.Context, tx pgx.Tx, admission *domain.Admission) error {
	return r.save(ctx, tx, admission)
}

func (r *PostgresAdmissionRepository) save(ctx context.Context, q querier, admission *domain.Admission) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.admission.save")
	defer span.End()

	span.SetAttributes(
		attribute.String("admission_id", admission.ID),
		attribute.String("user_id", admission.UserID),
		attribute.String("event_id", admission.EventID),
	)

	_, err := q.Exec(ctx, insertAdmissionQuery,
		admission.ID,
		admission.EventID,
		admission.UserID,
		admission.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			span.SetStatus(codes.Error, "duplicate admission")
			return domain.ErrAdmissionConflict
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to save admission: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByUserAndEvent retrieves a user's admission for an event
func (r *PostgresAdmissionRepository) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*domain.Admission, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.admission.get_by_user_event")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("event_id", eventID),
	)

	query := `
		SELECT id, event_id, user_id, created_at
		FROM admissions
		WHERE user_id = $1 AND event_id = $2
	`

	admission := &domain.Admission{}
	err := r.pool.QueryRow(ctx, query, userID, eventID).Scan(
		&admission.ID,
		&admission.EventID,
		&admission.UserID,
		&admission.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrAdmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get admission: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return admission, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isLockTimeout reports whether err is a lock_timeout expiry
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}

// Ensure PostgresAdmissionRepository implements AdmissionRepository
var _ AdmissionRepository = (*PostgresAdmissionRepository)(nil)
