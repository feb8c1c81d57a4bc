package service

import (
	"context"
	"sync"
	"testing"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
)

// MockAdmissionEventPublisher captures published events for assertions
type MockAdmissionEventPublisher struct {
	mu         sync.Mutex
	admitted   []*domain.Admission
	strategies []string
	publishErr error
}

func NewMockAdmissionEventPublisher() *MockAdmissionEventPublisher {
	return &MockAdmissionEventPublisher{}
}

func (m *MockAdmissionEventPublisher) PublishUserAdmitted(ctx context.Context, admission *domain.Admission, strategy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.admitted = append(m.admitted, admission)
	m.strategies = append(m.strategies, strategy)
	return nil
}

func (m *MockAdmissionEventPublisher) Close() error {
	return nil
}

func (m *MockAdmissionEventPublisher) AdmittedEvents() []*domain.Admission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admitted
}

func (m *MockAdmissionEventPublisher) Strategies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strategies
}

func TestNoOpAdmissionEventPublisher(t *testing.T) {
	publisher := NewNoOpAdmissionEventPublisher()
	admission := domain.NewAdmission("event-123", "user-123")

	if err := publisher.PublishUserAdmitted(context.Background(), admission, StrategyCounter); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestCounterStrategy_PublishesAdmissionEvent(t *testing.T) {
	event := openedEvent("event-001", 10)
	eventRepo := &MockEventRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.PromoEvent, error) {
			return event, nil
		},
	}
	publisher := NewMockAdmissionEventPublisher()
	strategy := NewCounterStrategy(eventRepo, newFakeAdmissionStore(), publisher)

	if _, err := strategy.Join(context.Background(), event.ID, "user-001"); err != nil {
		t.Fatalf("Join() unexpected error = %v", err)
	}

	admitted := publisher.AdmittedEvents()
	if len(admitted) != 1 {
		t.Fatalf("published admissions = %d, want 1", len(admitted))
	}
	if admitted[0].EventID != event.ID || admitted[0].UserID != "user-001" {
		t.Errorf("published admission = %+v, want event %s user user-001", admitted[0], event.ID)
	}
	if got := publisher.Strategies()[0]; got != StrategyCounter {
		t.Errorf("published strategy = %s, want %s", got, StrategyCounter)
	}
}

func TestCounterStrategy_NoEventOnRejection(t *testing.T) {
	eventRepo := &MockEventRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.PromoEvent, error) {
			return readyEvent(id, 10), nil
		},
	}
	publisher := NewMockAdmissionEventPublisher()
	strategy := NewCounterStrategy(eventRepo, newFakeAdmissionStore(), publisher)

	_, _ = strategy.Join(context.Background(), "event-001", "user-001")

	if got := len(publisher.AdmittedEvents()); got != 0 {
		t.Errorf("published admissions = %d, want 0 for a rejected join", got)
	}
}

func TestNewAdmissionEvent(t *testing.T) {
	admission := domain.NewAdmission("event-123", "user-123")
	event := domain.NewAdmissionEvent(domain.AdmissionEventUserAdmitted, admission, StrategyLedger, "envelope-id-123")

	if event.EventID != "envelope-id-123" {
		t.Errorf("event ID = %s, want envelope-id-123", event.EventID)
	}
	if event.Type != domain.AdmissionEventUserAdmitted {
		t.Errorf("event type = %s, want %s", event.Type, domain.AdmissionEventUserAdmitted)
	}
	if event.Strategy != StrategyLedger {
		t.Errorf("strategy = %s, want %s", event.Strategy, StrategyLedger)
	}
	if event.Admission == nil || event.Admission.ID != admission.ID {
		t.Error("admission payload not carried on the event")
	}
	if string(domain.AdmissionEventUserAdmitted) != "user.admitted" {
		t.Errorf("event type constant = %s, want user.admitted", domain.AdmissionEventUserAdmitted)
	}
}
