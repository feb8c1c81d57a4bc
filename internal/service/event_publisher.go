package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
	"github.com/spring-team-7/table-now-sub000/pkg/kafka"
)

// AdmissionEventPublisher defines the interface for publishing admission
// domain events consumed by the notification pipeline.
type AdmissionEventPublisher interface {
	// PublishUserAdmitted publishes a user-admitted event
	PublishUserAdmitted(ctx context.Context, admission *domain.Admission, strategy string) error

	// Close closes the publisher
	Close() error
}

// KafkaAdmissionEventPublisher implements AdmissionEventPublisher using Kafka
type KafkaAdmissionEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

// AdmissionEventPublisherConfig contains configuration for the publisher
type AdmissionEventPublisherConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// NewKafkaAdmissionEventPublisher creates a new Kafka admission event publisher
func NewKafkaAdmissionEventPublisher(ctx context.Context, cfg *AdmissionEventPublisherConfig) (*KafkaAdmissionEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "admission-events"
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "admission-service-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaAdmissionEventPublisher{
		producer: producer,
		topic:    topic,
	}, nil
}

// PublishUserAdmitted publishes a user-admitted event, keyed by event ID
// so all admissions of one event land on the same partition in claim
// order.
func (p *KafkaAdmissionEventPublisher) PublishUserAdmitted(ctx context.Context, admission *domain.Admission, strategy string) error {
	event := domain.NewAdmissionEvent(domain.AdmissionEventUserAdmitted, admission, strategy, uuid.New().String())

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal admission event: %w", err)
	}

	headers := map[string]string{
		"event_type": string(event.Type),
		"source":     event.Source,
		"strategy":   strategy,
	}

	return p.producer.Publish(ctx, p.topic, admission.EventID, value, headers)
}

// Close closes the event publisher
func (p *KafkaAdmissionEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// NoOpAdmissionEventPublisher discards all events; used when Kafka is
// unavailable or in tests.
type NoOpAdmissionEventPublisher struct{}

// NewNoOpAdmissionEventPublisher creates a no-op publisher
func NewNoOpAdmissionEventPublisher() *NoOpAdmissionEventPublisher {
	return &NoOpAdmissionEventPublisher{}
}

// PublishUserAdmitted does nothing
func (p *NoOpAdmissionEventPublisher) PublishUserAdmitted(_ context.Context, _ *domain.Admission, _ string) error {
	return nil
}

// Close does nothing
func (p *NoOpAdmissionEventPublisher) Close() error {
	return nil
}

// Ensure implementations satisfy AdmissionEventPublisher
var (
	_ AdmissionEventPublisher = (*KafkaAdmissionEventPublisher)(nil)
	_ AdmissionEventPublisher = (*NoOpAdmissionEventPublisher)(nil)
)
