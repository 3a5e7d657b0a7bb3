package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope of storefront spans.
const TracerName = "github.com/unikraft-shop/storefront"

// Tracing is a configured tracer plus the func that flushes and releases it.
type Tracing struct {
	Tracer   trace.Tracer
	Shutdown func(context.Context) error
}

// NoopTracing returns a tracer that records nothing.
func NoopTracing() *Tracing {
	return &Tracing{
		Tracer:   noop.NewTracerProvider().Tracer(TracerName),
		Shutdown: func(context.Context) error { return nil },
	}
}

// NewTracing exports spans synchronously as JSON to output, which is
// "stderr", "stdout" or a file:// URL with an absolute path. The provider is
// also installed as the global otel provider.
func NewTracing(output string) (*Tracing, error) {
	w, closeFn, err := openTraceOutput(output)
	if err != nil {
		return nil, err
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	otel.SetTracerProvider(tp)

	return &Tracing{
		Tracer: tp.Tracer(TracerName),
		Shutdown: func(ctx context.Context) error {
			err := tp.Shutdown(ctx)
			if cerr := closeFn(); err == nil {
				err = cerr
			}
			return err
		},
	}, nil
}

func openTraceOutput(output string) (io.Writer, func() error, error) {
	nop := func() error { return nil }

	switch {
	case output == "" || output == "stderr":
		return os.Stderr, nop, nil
	case output == "stdout":
		return os.Stdout, nop, nil
	case strings.HasPrefix(output, "file://"):
		path := strings.TrimPrefix(output, "file://")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open trace output: %w", err)
		}
		return f, f.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported trace output %q", output)
	}
}
