package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

var (
	// Admission counters
	AdmissionsTotal    *telemetry.Counter
	RejectionsTotal    *telemetry.Counter
	CompensationsTotal *telemetry.Counter

	// Histograms
	JoinDuration *telemetry.Histogram

	initOnce sync.Once
	initErr  error
)

// Init initializes all admission metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	AdmissionsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "admission_admitted_total",
		Description: "Total number of users admitted to promotional events",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RejectionsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "admission_rejected_total",
		Description: "Total number of rejected join attempts",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CompensationsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "admission_compensations_total",
		Description: "Total number of ledger claims rolled back after persistence failure",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	JoinDuration, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "admission_join_duration_seconds",
		Description: "Duration of join requests by strategy",
		Unit:        "s",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordAdmission records a successful admission
func RecordAdmission(ctx context.Context, strategy, eventID string) {
	if AdmissionsTotal == nil {
		return
	}
	AdmissionsTotal.Add(ctx, 1,
		attribute.String("strategy", strategy),
		attribute.String("event_id", eventID),
	)
}

// RecordRejection records a rejected join attempt
func RecordRejection(ctx context.Context, strategy, reason string) {
	if RejectionsTotal == nil {
		return
	}
	RejectionsTotal.Add(ctx, 1,
		attribute.String("strategy", strategy),
		attribute.String("reason", reason),
	)
}

// RecordCompensation records a ledger rollback
func RecordCompensation(ctx context.Context, eventID string) {
	if CompensationsTotal == nil {
		return
	}
	CompensationsTotal.Add(ctx, 1, attribute.String("event_id", eventID))
}

// RecordJoinDuration records how long a join request took
func RecordJoinDuration(ctx context.Context, strategy string, seconds float64) {
	if JoinDuration == nil {
		return
	}
	JoinDuration.Record(ctx, seconds, attribute.String("strategy", strategy))
}
