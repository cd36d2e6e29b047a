package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProviderConfig configures the OpenTelemetry SDK providers.
type ProviderConfig struct {
	// ServiceName is the service name reported in telemetry. Default: "ausculto".
	ServiceName string

	// ServiceVersion is the service version reported in telemetry.
	ServiceVersion string

	// TraceExporter is an optional span exporter. When nil, spans are
	// recorded but not exported (useful for testing or when only metrics are
	// needed). In production this would typically be an OTLP exporter.
	TraceExporter sdktrace.SpanExporter

	// SampleRatio is the fraction of new traces to sample, in (0.0, 1.0].
	// Zero means sample everything; a relay turn is a long-lived, low-rate
	// operation, so full sampling is the sensible default.
	SampleRatio float64
}

// InitProvider installs the OTel SDK globals for the relay: a meter provider
// bridged to Prometheus (scraped via /metrics), a tracer provider carrying
// the turn and per-stage spans, and the W3C trace-context propagator the
// HTTP middleware relies on.
//
// Returns a shutdown function that flushes and closes exporters. Call it in a
// defer from main().
func InitProvider(ctx context.Context, cfg ProviderConfig) (shutdown func(context.Context) error, err error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ausculto"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	mp, err := newMeterProvider(res)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp)

	tp := newTracerProvider(res, cfg)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	shutdown = func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}
	return shutdown, nil
}

// newMeterProvider bridges the OTel metric SDK to a Prometheus exporter so
// the relay's instruments surface on the /metrics endpoint.
func newMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	), nil
}

// newTracerProvider builds the tracer provider for the turn spans. Without
// an exporter, spans are still recorded so CorrelationID and the enriched
// Logger keep working.
func newTracerProvider(res *resource.Resource, cfg ProviderConfig) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		opts = append(opts, sdktrace.WithSampler(
			sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		))
	}
	if cfg.TraceExporter != nil {
		opts = append(opts, sdktrace.WithBatcher(cfg.TraceExporter))
	}
	return sdktrace.NewTracerProvider(opts...)
}
