package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spring-team-7/table-now-sub000/internal/di"
	"github.com/spring-team-7/table-now-sub000/internal/handler"
	"github.com/spring-team-7/table-now-sub000/internal/metrics"
	"github.com/spring-team-7/table-now-sub000/internal/repository"
	"github.com/spring-team-7/table-now-sub000/internal/service"
	"github.com/spring-team-7/table-now-sub000/pkg/config"
	"github.com/spring-team-7/table-now-sub000/pkg/database"
	"github.com/spring-team-7/table-now-sub000/pkg/logger"
	pkgredis "github.com/spring-team-7/table-now-sub000/pkg/redis"
	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.App.Debug {
		logLevel = "debug"
	}
	logCfg := &logger.Config{
		Level:       logLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Admission Service...")

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Tracing disabled: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics disabled: %v", err))
	}

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
		LockTimeout:     cfg.Database.LockTimeout,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// Initialize Redis connection
	redisCfg := &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
	}
	redisClient, err := pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	// Initialize Kafka event publisher
	var eventPublisher service.AdmissionEventPublisher
	eventPublisher, err = service.NewKafkaAdmissionEventPublisher(ctx, &service.AdmissionEventPublisherConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		eventPublisher = service.NewNoOpAdmissionEventPublisher()
	} else {
		appLog.Info("Kafka event publisher connected")
	}
	defer eventPublisher.Close()

	// Initialize repositories
	eventRepo := repository.NewPostgresEventRepository(db.Pool())
	admissionRepo := repository.NewPostgresAdmissionRepository(db.Pool())
	ledgerRepo := repository.NewRedisLedgerRepository(redisClient)

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		EventRepo:      eventRepo,
		AdmissionRepo:  admissionRepo,
		LedgerRepo:     ledgerRepo,
		EventPublisher: eventPublisher,
		LockWaitTime:   cfg.Admission.LockWaitTime,
		LockLeaseTime:  cfg.Admission.LockLeaseTime,
	})

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.App.Name))

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Join endpoints: one version per admission strategy so the three
	// can be load tested against the same events.
	registerJoinRoutes(router.Group("/api/v1"), container.CounterHandler)
	registerJoinRoutes(router.Group("/api/v2"), container.RowLockHandler)
	registerJoinRoutes(router.Group("/api/v3"), container.LedgerHandler)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Admission Service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}

// registerJoinRoutes mounts the admission endpoints for one strategy
func registerJoinRoutes(group *gin.RouterGroup, h *handler.AdmissionHandler) {
	events := group.Group("/events")
	events.Use(userIDMiddleware())
	{
		events.POST("/:id/join", h.Join)
		events.GET("/:id/admission", h.GetAdmission)
	}
}

// userIDMiddleware extracts user_id from the X-User-ID header injected
// by the API gateway after authentication
func userIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}
