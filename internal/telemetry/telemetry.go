// Package telemetry installs the OpenTelemetry trace and metric providers
// that export scan spans and counters over OTLP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"

	"github.com/chris-regnier/bailiff/internal/config"
)

// EnvEnabled overrides the configured enabled flag when set.
const EnvEnabled = "BAILIFF_TELEMETRY_ENABLED"

// ErrUnknownProtocol is returned for a protocol other than grpc or http.
var ErrUnknownProtocol = errors.New("unknown telemetry protocol")

// Shutdown flushes and stops the installed providers.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Enabled applies the environment override to the configured flag.
func Enabled(cfg config.TelemetryConfig) bool {
	v := os.Getenv(EnvEnabled)
	if v == "" {
		return cfg.Enabled
	}
	return strings.EqualFold(v, "true") || v == "1"
}

// Init installs global OTel providers and returns their shutdown. When
// telemetry is disabled nothing is installed and the instruments used by
// the scan stay no-ops.
func Init(ctx context.Context, cfg config.TelemetryConfig) (Shutdown, error) {
	if !Enabled(cfg) {
		return noop, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "bailiff"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 1.0
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		))
	if err != nil {
		return noop, err
	}

	spans, err := traceExporter(ctx, cfg)
	if err != nil {
		return noop, err
	}
	counters, err := metricExporter(ctx, cfg)
	if err != nil {
		return noop, errors.Join(err, spans.Shutdown(ctx))
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(spans),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRate))),
	)
	// A scan is short-lived; the final collection happens on shutdown.
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(counters)),
		metric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func traceExporter(ctx context.Context, cfg config.TelemetryConfig) (trace.SpanExporter, error) {
	switch cfg.Protocol {
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	case "grpc", "":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		return otlptracegrpc.New(ctx, opts...)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownProtocol, cfg.Protocol)
}

func metricExporter(ctx context.Context, cfg config.TelemetryConfig) (metric.Exporter, error) {
	switch cfg.Protocol {
	case "http":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "grpc", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownProtocol, cfg.Protocol)
}
