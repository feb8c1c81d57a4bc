package di

import (
	"time"

	"github.com/spring-team-7/table-now-sub000/internal/handler"
	"github.com/spring-team-7/table-now-sub000/internal/repository"
	"github.com/spring-team-7/table-now-sub000/internal/service"
	"github.com/spring-team-7/table-now-sub000/pkg/database"
	"github.com/spring-team-7/table-now-sub000/pkg/lock"
	"github.com/spring-team-7/table-now-sub000/pkg/redis"
)

// Container holds all dependencies for the admission service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	EventRepo     repository.EventRepository
	AdmissionRepo repository.AdmissionRepository
	LedgerRepo    repository.LedgerRepository

	// Publishers
	EventPublisher service.AdmissionEventPublisher

	// Strategies, one per join endpoint
	CounterStrategy *service.CounterStrategy
	RowLockStrategy *service.RowLockStrategy
	LedgerStrategy  *service.LedgerStrategy

	// Services
	AdmissionService service.AdmissionService

	// Handlers
	HealthHandler  *handler.HealthHandler
	CounterHandler *handler.AdmissionHandler
	RowLockHandler *handler.AdmissionHandler
	LedgerHandler  *handler.AdmissionHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	EventRepo      repository.EventRepository
	AdmissionRepo  repository.AdmissionRepository
	LedgerRepo     repository.LedgerRepository
	EventPublisher service.AdmissionEventPublisher
	LockWaitTime   time.Duration
	LockLeaseTime  time.Duration
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		EventRepo:      cfg.EventRepo,
		AdmissionRepo:  cfg.AdmissionRepo,
		LedgerRepo:     cfg.LedgerRepo,
		EventPublisher: cfg.EventPublisher,
	}

	var lockProvider lock.Provider
	if c.Redis != nil {
		lockProvider = lock.NewRedisProvider(c.Redis)
	}

	// Initialize strategies
	c.CounterStrategy = service.NewCounterStrategy(
		c.EventRepo,
		c.AdmissionRepo,
		c.EventPublisher,
	)
	c.RowLockStrategy = service.NewRowLockStrategy(
		c.DB.Pool(),
		c.EventRepo,
		c.AdmissionRepo,
		c.EventPublisher,
	)
	c.LedgerStrategy = service.NewLedgerStrategy(
		c.EventRepo,
		c.AdmissionRepo,
		c.LedgerRepo,
		lockProvider,
		c.EventPublisher,
		&service.LedgerStrategyConfig{
			LockWaitTime:  cfg.LockWaitTime,
			LockLeaseTime: cfg.LockLeaseTime,
		},
	)

	// Initialize services
	c.AdmissionService = service.NewAdmissionService(c.AdmissionRepo)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.CounterHandler = handler.NewAdmissionHandler(c.CounterStrategy, c.AdmissionService)
	c.RowLockHandler = handler.NewAdmissionHandler(c.RowLockStrategy, c.AdmissionService)
	c.LedgerHandler = handler.NewAdmissionHandler(c.LedgerStrategy, c.AdmissionService)

	return c
}
