package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
)

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	GetByIDFunc          func(ctx context.Context, id string) (*domain.PromoEvent, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx pgx.Tx, id string) (*domain.PromoEvent, error)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*domain.PromoEvent, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrEventNotFound
}

func (m *MockEventRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.PromoEvent, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return nil, domain.ErrEventNotFound
}

// MockAdmissionRepository is a mock implementation of AdmissionRepository
type MockAdmissionRepository struct {
	ExistsFunc            func(ctx context.Context, userID, eventID string) (bool, error)
	CountByEventFunc      func(ctx context.Context, eventID string) (int, error)
	SaveFunc              func(ctx context.Context, admission *domain.Admission) error
	GetByUserAndEventFunc func(ctx context.Context, userID, eventID string) (*domain.Admission, error)
	ExistsTxFunc          func(ctx context.Context, tx pgx.Tx, userID, eventID string) (bool, error)
	CountByEventTxFunc    func(ctx context.Context, tx pgx.Tx, eventID string) (int, error)
	SaveTxFunc            func(ctx context.Context, tx pgx.Tx, admission *domain.Admission) error
}

func (m *MockAdmissionRepository) Exists(ctx context.Context, userID, eventID string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, userID, eventID)
	}
	return false, nil
}

func (m *MockAdmissionRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	if m.CountByEventFunc != nil {
		return m.CountByEventFunc(ctx, eventID)
	}
	return 0, nil
}

func (m *MockAdmissionRepository) Save(ctx context.Context, admission *domain.Admission) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, admission)
	}
	return nil
}

func (m *MockAdmissionRepository) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*domain.Admission, error) {
	if m.GetByUserAndEventFunc != nil {
		return m.GetByUserAndEventFunc(ctx, userID, eventID)
	}
	return nil, domain.ErrAdmissionNotFound
}

func (m *MockAdmissionRepository) ExistsTx(ctx context.Context, tx pgx.Tx, userID, eventID string) (bool, error) {
	if m.ExistsTxFunc != nil {
		return m.ExistsTxFunc(ctx, tx, userID, eventID)
	}
	return false, nil
}

func (m *MockAdmissionRepository) CountByEventTx(ctx context.Context, tx pgx.Tx, eventID string) (int, error) {
	if m.CountByEventTxFunc != nil {
		return m.CountByEventTxFunc(ctx, tx, eventID)
	}
	return 0, nil
}

func (m *MockAdmissionRepository) SaveTx(ctx context.Context, tx pgx.Tx, admission *domain.Admission) error {
	if m.SaveTxFunc != nil {
		return m.SaveTxFunc(ctx, tx, admission)
	}
	return nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	AddIfAbsentFunc func(ctx context.Context, eventID, userID string, score int64) (bool, error)
	RankFunc        func(ctx context.Context, eventID, userID string) (int64, bool, error)
	RemoveFunc      func(ctx context.Context, eventID, userID string) error
}

func (m *MockLedgerRepository) AddIfAbsent(ctx context.Context, eventID, userID string, score int64) (bool, error) {
	if m.AddIfAbsentFunc != nil {
		return m.AddIfAbsentFunc(ctx, eventID, userID, score)
	}
	return true, nil
}

func (m *MockLedgerRepository) Rank(ctx context.Context, eventID, userID string) (int64, bool, error) {
	if m.RankFunc != nil {
		return m.RankFunc(ctx, eventID, userID)
	}
	return 0, true, nil
}

func (m *MockLedgerRepository) Remove(ctx context.Context, eventID, userID string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, eventID, userID)
	}
	return nil
}

// stubTx is a pgx.Tx stub for exercising the transaction flow without a
// database. Only Commit and Rollback carry behavior.
type stubTx struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *stubTx) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	return nil
}

func (t *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *stubTx) Conn() *pgx.Conn                                               { return nil }

// MockTxBeginner is a mock implementation of TxBeginner
type MockTxBeginner struct {
	BeginFunc func(ctx context.Context) (pgx.Tx, error)
}

func (m *MockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &stubTx{}, nil
}

// fakeLedger is an in-memory LedgerRepository ranking members by
// arrival order. Real claim scores are non-decreasing wall-clock
// milliseconds, so arrival order is the observable rank order; ranking
// by an internal sequence keeps tests deterministic when many claims
// land in the same millisecond. Safe for concurrent use.
type fakeLedger struct {
	mu     sync.Mutex
	scores map[string]map[string]int64
	seq    int64
	calls  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{scores: make(map[string]map[string]int64)}
}

func (l *fakeLedger) AddIfAbsent(_ context.Context, eventID, userID string, _ int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	members, ok := l.scores[eventID]
	if !ok {
		members = make(map[string]int64)
		l.scores[eventID] = members
	}
	if _, exists := members[userID]; exists {
		return false, nil
	}
	l.seq++
	members[userID] = l.seq
	return true, nil
}

func (l *fakeLedger) Rank(_ context.Context, eventID, userID string) (int64, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	members, ok := l.scores[eventID]
	if !ok {
		return 0, false, nil
	}
	if _, exists := members[userID]; !exists {
		return 0, false, nil
	}
	type entry struct {
		member string
		score  int64
	}
	entries := make([]entry, 0, len(members))
	for m, s := range members {
		entries = append(entries, entry{m, s})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score < entries[j].score
		}
		return entries[i].member < entries[j].member
	})
	for i, e := range entries {
		if e.member == userID {
			return int64(i), true, nil
		}
	}
	return 0, false, nil
}

func (l *fakeLedger) Remove(_ context.Context, eventID, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if members, ok := l.scores[eventID]; ok {
		delete(members, userID)
	}
	return nil
}

func (l *fakeLedger) size(eventID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.scores[eventID])
}

func (l *fakeLedger) has(eventID, userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.scores[eventID][userID]
	return ok
}

func (l *fakeLedger) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// fakeAdmissionStore is an in-memory AdmissionRepository keyed by
// (event, user) with a unique-pair constraint. Safe for concurrent use.
type fakeAdmissionStore struct {
	mu         sync.Mutex
	admissions map[string]*domain.Admission
	failSave   error
}

func newFakeAdmissionStore() *fakeAdmissionStore {
	return &fakeAdmissionStore{admissions: make(map[string]*domain.Admission)}
}

func admissionKey(eventID, userID string) string { return eventID + "/" + userID }

func (s *fakeAdmissionStore) Exists(_ context.Context, userID, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.admissions[admissionKey(eventID, userID)]
	return ok, nil
}

func (s *fakeAdmissionStore) CountByEvent(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, a := range s.admissions {
		if a.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (s *fakeAdmissionStore) Save(_ context.Context, admission *domain.Admission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	key := admissionKey(admission.EventID, admission.UserID)
	if _, ok := s.admissions[key]; ok {
		return domain.ErrAdmissionConflict
	}
	s.admissions[key] = admission
	return nil
}

func (s *fakeAdmissionStore) GetByUserAndEvent(_ context.Context, userID, eventID string) (*domain.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.admissions[admissionKey(eventID, userID)]; ok {
		return a, nil
	}
	return nil, domain.ErrAdmissionNotFound
}

func (s *fakeAdmissionStore) ExistsTx(ctx context.Context, _ pgx.Tx, userID, eventID string) (bool, error) {
	return s.Exists(ctx, userID, eventID)
}

func (s *fakeAdmissionStore) CountByEventTx(ctx context.Context, _ pgx.Tx, eventID string) (int, error) {
	return s.CountByEvent(ctx, eventID)
}

func (s *fakeAdmissionStore) SaveTx(ctx context.Context, _ pgx.Tx, admission *domain.Admission) error {
	return s.Save(ctx, admission)
}

func (s *fakeAdmissionStore) count(eventID string) int {
	n, _ := s.CountByEvent(context.Background(), eventID)
	return n
}

// MockLockProvider is a mock implementation of lock.Provider
type MockLockProvider struct {
	TryAcquireFunc func(ctx context.Context, name string, waitTime, leaseTime time.Duration) (string, error)
	ReleaseFunc    func(ctx context.Context, name, token string) error
}

func (m *MockLockProvider) TryAcquire(ctx context.Context, name string, waitTime, leaseTime time.Duration) (string, error) {
	if m.TryAcquireFunc != nil {
		return m.TryAcquireFunc(ctx, name, waitTime, leaseTime)
	}
	return "mock-token", nil
}

func (m *MockLockProvider) Release(ctx context.Context, name, token string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, name, token)
	}
	return nil
}

// openedEvent returns an OPENED event with the given capacity
func openedEvent(id string, limit int) *domain.PromoEvent {
	now := time.Now()
	return &domain.PromoEvent{
		ID:        id,
		StoreID:   "store-001",
		Name:      "Lunch Special",
		Limit:     limit,
		Status:    domain.PromoEventStatusOpened,
		OpenAt:    now.Add(-time.Hour),
		EventAt:   now.Add(24 * time.Hour),
		CreatedAt: now.Add(-48 * time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
}

// readyEvent returns an event that has not opened yet
func readyEvent(id string, limit int) *domain.PromoEvent {
	e := openedEvent(id, limit)
	e.Status = domain.PromoEventStatusReady
	e.OpenAt = time.Now().Add(time.Hour)
	return e
}
