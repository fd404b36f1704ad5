package dsstelemetry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	mu       sync.Mutex
	enabled  atomic.Bool
	provider *trace.TracerProvider
	cfg      *Config
)

// Init initializes OpenTelemetry tracing from environment configuration. It
// is a no-op (tracer calls become no-ops) unless OTEL_ENABLED=true. Init is
// safe to call more than once; later calls replace the active provider.
func Init(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	c := LoadFromEnv()
	cfg = c

	if !c.Enabled {
		enabled.Store(false)
		otel.SetTracerProvider(noop.NewTracerProvider())
		return nil
	}

	exporter, err := createExporter(ctx, c)
	if err != nil {
		return fmt.Errorf("dsstelemetry: failed to create exporter: %w", err)
	}

	res, err := buildResource(ctx, c)
	if err != nil {
		return fmt.Errorf("dsstelemetry: failed to build resource: %w", err)
	}

	sampler, err := createSampler(c)
	if err != nil {
		return fmt.Errorf("dsstelemetry: failed to create sampler: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(sampler),
	)

	provider = tp
	otel.SetTracerProvider(tp)
	enabled.Store(true)

	return nil
}

// Enabled reports whether tracing is currently active.
func Enabled() bool {
	return enabled.Load()
}

// GetConfig returns the configuration used by the last Init call, or nil if
// Init has not been called.
func GetConfig() *Config {
	mu.Lock()
	defer mu.Unlock()
	return cfg
}

// Shutdown flushes and stops the tracer provider, if one is active.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	mu.Unlock()

	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
