// Package telemetry wires up OpenTelemetry tracing and metrics from
// environment variables and exposes the five fixed metric instruments every
// monitor run emits to.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	otlpmetricgrpc "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otlptracegrpc "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/propagation"
)

const (
	tracesExporterEnv  = "OTEL_TRACES_EXPORTER"
	metricsExporterEnv = "OTEL_METRICS_EXPORTER"

	serviceName = "xbp-monitoring"
)

// Providers holds the constructed OTel providers, the metric Emitter, and
// whether the prometheus metrics exporter was selected.
type Providers struct {
	TracerProvider    *sdktrace.TracerProvider
	MeterProvider     *sdkmetric.MeterProvider
	PrometheusEnabled bool

	Emitter *Emitter

	shutdownFuncs []func(context.Context) error
}

// Setup reads OTEL_TRACES_EXPORTER and OTEL_METRICS_EXPORTER and constructs
// the corresponding providers. Each env var is one of "otlp", "stdout",
// "prometheus" (metrics only), or unset/"none" to disable that signal. The
// constructed providers are installed as the global otel providers.
func Setup(ctx context.Context, logger *slog.Logger) (*Providers, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceNameKey.String(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("building otel resource: %w", err)
	}

	p := &Providers{}

	tracerProvider, err := buildTracerProvider(ctx, res, p)
	if err != nil {
		return nil, fmt.Errorf("building tracer provider: %w", err)
	}
	p.TracerProvider = tracerProvider
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meterProvider, err := buildMeterProvider(ctx, res, p)
	if err != nil {
		return nil, fmt.Errorf("building meter provider: %w", err)
	}
	p.MeterProvider = meterProvider
	otel.SetMeterProvider(meterProvider)

	emitter, err := NewEmitter(meterProvider)
	if err != nil {
		return nil, fmt.Errorf("building metric instruments: %w", err)
	}
	p.Emitter = emitter

	logger.Info("telemetry initialized",
		"traces_exporter", os.Getenv(tracesExporterEnv),
		"metrics_exporter", os.Getenv(metricsExporterEnv))

	return p, nil
}

func buildTracerProvider(ctx context.Context, res *resource.Resource, p *Providers) (*sdktrace.TracerProvider, error) {
	switch os.Getenv(tracesExporterEnv) {
	case "otlp":
		exp, err := otlptracegrpc.New(ctx)
		if err != nil {
			return nil, err
		}
		p.shutdownFuncs = append(p.shutdownFuncs, exp.Shutdown)
		return sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		), nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		return sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		), nil
	default:
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res)), nil
	}
}

func buildMeterProvider(ctx context.Context, res *resource.Resource, p *Providers) (*sdkmetric.MeterProvider, error) {
	switch os.Getenv(metricsExporterEnv) {
	case "otlp":
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, err
		}
		p.shutdownFuncs = append(p.shutdownFuncs, exp.Shutdown)
		return sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
			sdkmetric.WithResource(res),
		), nil
	case "stdout":
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
			sdkmetric.WithResource(res),
		), nil
	case "prometheus":
		exp, err := prometheus.New()
		if err != nil {
			return nil, err
		}
		p.PrometheusEnabled = true
		return sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exp),
			sdkmetric.WithResource(res),
		), nil
	default:
		return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res)), nil
	}
}

// Shutdown drains and closes every exporter Setup constructed.
func (p *Providers) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
