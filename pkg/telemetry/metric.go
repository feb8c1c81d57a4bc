package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "admission-service"

// MetricOpts holds common metric creation options
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps an otel Int64Counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new monotonic counter
func NewCounter(opts MetricOpts) (*Counter, error) {
	c, err := otel.Meter(meterName).Int64Counter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Histogram wraps an otel Float64Histogram
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a new histogram
func NewHistogram(opts MetricOpts) (*Histogram, error) {
	h, err := otel.Meter(meterName).Float64Histogram(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: h}, nil
}

// Record records a value in the histogram
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}
