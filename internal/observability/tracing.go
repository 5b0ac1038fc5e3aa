package observability

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/pkg/utils"
)

var (
	tracerOnce     sync.Once
	tracerShutdown func(context.Context) error
	tracer         trace.Tracer
)

// InitTracing wires an OTLP-over-HTTP exporter when OTEL_EXPORTER_OTLP_ENDPOINT
// is set, falling back to a stdout exporter otherwise, and is a no-op unless
// OTEL_ENABLED is set. Returns a shutdown func safe to defer unconditionally.
func InitTracing(ctx context.Context, log *logger.Logger) func(context.Context) error {
	tracerOnce.Do(func() {
		tracerShutdown = func(context.Context) error { return nil }
		if !tracingEnabled() {
			return
		}
		res, err := resource.New(ctx, resource.WithAttributes(
			attribute.String("service.name", "graph-engine"),
		))
		if err != nil {
			log.Warn("otel resource init failed, continuing without tracing", "error", err)
			return
		}
		exporter, err := buildTraceExporter(ctx, log)
		if err != nil {
			log.Warn("otel exporter init failed, continuing without tracing", "error", err)
			return
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tracingSampleRatio()))),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		))
		tracer = tp.Tracer("graph-engine")
		tracerShutdown = tp.Shutdown
		log.Info("tracing initialized", "endpoint", strings.TrimSpace(utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log)))
	})
	return tracerShutdown
}

// StartSpan is a nil-safe wrapper: with tracing disabled it returns the
// context unchanged and a span whose End is a no-op.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name)
}

func tracingEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(utils.GetEnv("OTEL_ENABLED", "", nil)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func tracingSampleRatio() float64 {
	v := strings.TrimSpace(utils.GetEnv("OTEL_SAMPLER_RATIO", "0.1", nil))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0.1
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func buildTraceExporter(ctx context.Context, log *logger.Logger) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", nil))
	if endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if strings.EqualFold(strings.TrimSpace(utils.GetEnv("OTEL_EXPORTER_OTLP_INSECURE", "", nil)), "true") {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	log.Warn("no OTEL_EXPORTER_OTLP_ENDPOINT set, tracing to stdout")
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}
