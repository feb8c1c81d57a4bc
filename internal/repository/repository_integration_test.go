package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
	pkgredis "github.com/spring-team-7/table-now-sub000/pkg/redis"
)

// skipIfNoIntegration skips tests that need real Postgres/Redis unless
// TEST_INTEGRATION is set.
func skipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Skipping integration test; set TEST_INTEGRATION=1 to run")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getPostgresPool creates a PostgreSQL connection pool for testing
func getPostgresPool(t *testing.T) *pgxpool.Pool {
	skipIfNoIntegration(t)

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable options='-c lock_timeout=500'",
		envOr("TEST_POSTGRES_USER", "postgres"),
		envOr("TEST_POSTGRES_PASSWORD", "postgres"),
		envOr("TEST_POSTGRES_HOST", "localhost"),
		envOr("TEST_POSTGRES_PORT", "5432"),
		envOr("TEST_POSTGRES_DB", "table_now_test"),
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping PostgreSQL: %v", err)
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DELETE FROM admissions WHERE user_id LIKE 'test-%'")
		_, _ = pool.Exec(ctx, "DELETE FROM promo_events WHERE id::text LIKE 'test-%'")
		pool.Close()
	})

	return pool
}

func getRedisClient(t *testing.T) *pkgredis.Client {
	skipIfNoIntegration(t)

	port := 6379
	if p := os.Getenv("TEST_REDIS_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}
	client, err := pkgredis.NewClient(context.Background(), &pkgredis.Config{
		Host:     envOr("TEST_REDIS_HOST", "localhost"),
		Port:     port,
		Password: os.Getenv("TEST_REDIS_PASSWORD"),
		DB:       15, // keep test data out of the default DB
	})
	if err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func insertTestEvent(t *testing.T, pool *pgxpool.Pool, limit int, status domain.PromoEventStatus) *domain.PromoEvent {
	t.Helper()
	now := time.Now()
	event := &domain.PromoEvent{
		ID:        "test-" + uuid.New().String(),
		StoreID:   "test-store",
		Name:      "Integration Lunch",
		Limit:     limit,
		Status:    status,
		OpenAt:    now.Add(-time.Hour),
		EventAt:   now.Add(24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := pool.Exec(context.Background(), `
		INSERT INTO promo_events (id, store_id, name, capacity, status, open_at, event_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, event.ID, event.StoreID, event.Name, event.Limit, event.Status, event.OpenAt, event.EventAt, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to insert test event: %v", err)
	}
	return event
}

func TestPostgresEventRepository_GetByID(t *testing.T) {
	pool := getPostgresPool(t)
	repo := NewPostgresEventRepository(pool)

	event := insertTestEvent(t, pool, 10, domain.PromoEventStatusOpened)

	got, err := repo.GetByID(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ID != event.ID || got.Limit != event.Limit || !got.IsOpened() {
		t.Errorf("GetByID() = %+v, want id=%s limit=%d opened", got, event.ID, event.Limit)
	}
}

func TestPostgresEventRepository_GetByID_NotFound(t *testing.T) {
	pool := getPostgresPool(t)
	repo := NewPostgresEventRepository(pool)

	_, err := repo.GetByID(context.Background(), "test-"+uuid.New().String())
	if !errors.Is(err, domain.ErrEventNotFound) {
		t.Errorf("GetByID() error = %v, want %v", err, domain.ErrEventNotFound)
	}
}

func TestPostgresEventRepository_GetByIDForUpdate_LockTimeout(t *testing.T) {
	pool := getPostgresPool(t)
	repo := NewPostgresEventRepository(pool)
	ctx := context.Background()

	event := insertTestEvent(t, pool, 10, domain.PromoEventStatusOpened)

	// Hold the row lock in one transaction; a second locker must hit
	// lock_timeout and surface the retryable domain error.
	holder, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	defer holder.Rollback(ctx)
	if _, err := repo.GetByIDForUpdate(ctx, holder, event.ID); err != nil {
		t.Fatalf("GetByIDForUpdate() holder error = %v", err)
	}

	waiter, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	defer waiter.Rollback(ctx)

	_, err = repo.GetByIDForUpdate(ctx, waiter, event.ID)
	if !errors.Is(err, domain.ErrLockWaitTimeout) {
		t.Errorf("GetByIDForUpdate() error = %v, want %v", err, domain.ErrLockWaitTimeout)
	}
}

func TestPostgresAdmissionRepository_SaveAndLookup(t *testing.T) {
	pool := getPostgresPool(t)
	repo := NewPostgresAdmissionRepository(pool)
	ctx := context.Background()

	event := insertTestEvent(t, pool, 10, domain.PromoEventStatusOpened)

	userID := "test-" + uuid.New().String()
	admission := domain.NewAdmission(event.ID, userID)

	if err := repo.Save(ctx, admission); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	exists, err := repo.Exists(ctx, userID, event.ID)
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v, want true, nil", exists, err)
	}

	count, err := repo.CountByEvent(ctx, event.ID)
	if err != nil || count != 1 {
		t.Errorf("CountByEvent() = %d, %v, want 1, nil", count, err)
	}

	got, err := repo.GetByUserAndEvent(ctx, userID, event.ID)
	if err != nil {
		t.Fatalf("GetByUserAndEvent() error = %v", err)
	}
	if got.ID != admission.ID {
		t.Errorf("GetByUserAndEvent() ID = %s, want %s", got.ID, admission.ID)
	}

	// A second save of the same (event, user) pair trips the unique
	// constraint.
	err = repo.Save(ctx, domain.NewAdmission(event.ID, userID))
	if !errors.Is(err, domain.ErrAdmissionConflict) {
		t.Errorf("Save() duplicate error = %v, want %v", err, domain.ErrAdmissionConflict)
	}
}

func TestRedisLedgerRepository_ClaimLifecycle(t *testing.T) {
	client := getRedisClient(t)
	repo := NewRedisLedgerRepository(client)
	ctx := context.Background()

	eventID := "test-" + uuid.New().String()
	t.Cleanup(func() {
		_ = repo.Remove(ctx, eventID, "user-a")
		_ = repo.Remove(ctx, eventID, "user-b")
	})

	added, err := repo.AddIfAbsent(ctx, eventID, "user-a", time.Now().UnixMilli())
	if err != nil || !added {
		t.Fatalf("AddIfAbsent() = %v, %v, want true, nil", added, err)
	}

	// Adding the same member again is a no-op.
	added, err = repo.AddIfAbsent(ctx, eventID, "user-a", time.Now().UnixMilli())
	if err != nil || added {
		t.Errorf("AddIfAbsent() repeat = %v, %v, want false, nil", added, err)
	}

	added, err = repo.AddIfAbsent(ctx, eventID, "user-b", time.Now().Add(time.Second).UnixMilli())
	if err != nil || !added {
		t.Fatalf("AddIfAbsent() second member = %v, %v, want true, nil", added, err)
	}

	rank, ok, err := repo.Rank(ctx, eventID, "user-a")
	if err != nil || !ok || rank != 0 {
		t.Errorf("Rank(user-a) = %d, %v, %v, want 0, true, nil", rank, ok, err)
	}
	rank, ok, err = repo.Rank(ctx, eventID, "user-b")
	if err != nil || !ok || rank != 1 {
		t.Errorf("Rank(user-b) = %d, %v, %v, want 1, true, nil", rank, ok, err)
	}

	// Unknown member reports absence without error.
	_, ok, err = repo.Rank(ctx, eventID, "user-unknown")
	if err != nil || ok {
		t.Errorf("Rank(unknown) ok = %v, err = %v, want false, nil", ok, err)
	}

	if err := repo.Remove(ctx, eventID, "user-a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	rank, ok, err = repo.Rank(ctx, eventID, "user-b")
	if err != nil || !ok || rank != 0 {
		t.Errorf("Rank(user-b) after removal = %d, %v, %v, want 0, true, nil", rank, ok, err)
	}
}
