package core

import (
	"context"
	"time"
)

// Logger captures the minimal structured logging surface the service needs.
// Arguments are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock abstracts wall-clock reads so tests can freeze time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the adapted function's current time.
func (f ClockFunc) Now() time.Time { return f() }

// MetricsRecorder observes the outcome and latency of service operations.
// The entity identifies which record type the operation acted on.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, entity EntityType, success bool, duration time.Duration)
}

// TraceSpan finishes a started trace with the operation's terminal error.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string, entity EntityType) (context.Context, TraceSpan)
}

type serviceOptions struct {
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger: noopLogger{},
		clock:  ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
}

// Option customizes service construction.
type Option func(*serviceOptions)

// WithLogger overrides the service logger.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the service clock.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder to the service.
func WithMetricsRecorder(metrics MetricsRecorder) Option {
	return func(o *serviceOptions) { o.metrics = metrics }
}

// WithTracer attaches a tracer to the service.
func WithTracer(tracer Tracer) Option {
	return func(o *serviceOptions) { o.tracer = tracer }
}

// WithAuditRecorder attaches an audit recorder to the service.
func WithAuditRecorder(audit AuditRecorder) Option {
	return func(o *serviceOptions) { o.audit = audit }
}
