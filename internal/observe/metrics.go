// Package observe provides application-wide observability primitives for
// Ausculto: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Ausculto metrics.
const meterName = "github.com/ausculto/ausculto"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// VADDuration tracks voice-activity-detection latency.
	VADDuration metric.Float64Histogram

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks reply-generation latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// TurnDuration tracks end-to-end turn latency from end-of-speech to the
	// final audio chunk sent.
	TurnDuration metric.Float64Histogram

	// --- Counters ---

	// Turns counts completed turns. Use with attribute:
	//   attribute.String("outcome", "ok"|"no_speech"|"no_audio"|"error")
	Turns metric.Int64Counter

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live relay sessions.
	ActiveSessions metric.Int64UpDownCounter

	// AudioBytesReceived counts raw PCM bytes received from clients.
	AudioBytesReceived metric.Int64Counter

	// AudioBytesSent counts synthesized audio bytes streamed back to clients.
	AudioBytesSent metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.VADDuration, err = m.Float64Histogram("ausculto.vad.duration",
		metric.WithDescription("Latency of voice activity detection."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.STTDuration, err = m.Float64Histogram("ausculto.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("ausculto.llm.duration",
		metric.WithDescription("Latency of reply generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("ausculto.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TurnDuration, err = m.Float64Histogram("ausculto.turn.duration",
		metric.WithDescription("End-to-end turn latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Turns, err = m.Int64Counter("ausculto.turns",
		metric.WithDescription("Total completed turns by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("ausculto.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("ausculto.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.AudioBytesReceived, err = m.Int64Counter("ausculto.audio.bytes.received",
		metric.WithDescription("Raw PCM bytes received from clients."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.AudioBytesSent, err = m.Int64Counter("ausculto.audio.bytes.sent",
		metric.WithDescription("Synthesized audio bytes streamed to clients."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("ausculto.active_sessions",
		metric.WithDescription("Number of live relay sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("ausculto.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTurn records a completed turn with its outcome.
func (m *Metrics) RecordTurn(ctx context.Context, outcome string) {
	m.Turns.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
