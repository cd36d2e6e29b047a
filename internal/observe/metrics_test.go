package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"ausculto.vad.duration", m.VADDuration},
		{"ausculto.stt.duration", m.STTDuration},
		{"ausculto.llm.duration", m.LLMDuration},
		{"ausculto.tts.duration", m.TTSDuration},
		{"ausculto.turn.duration", m.TurnDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 0.123)
		tc.h.Record(ctx, 0.456)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", tc.name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("sample count = %d, want 2", got)
			}
		})
	}
}

func TestCounterIncrement(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	attrs := metric.WithAttributes(
		attribute.String("provider", "openai"),
		attribute.String("kind", "llm"),
		attribute.String("status", "ok"),
	)
	m.ProviderRequests.Add(ctx, 1, attrs)
	m.ProviderRequests.Add(ctx, 1, attrs)
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", "openai"),
		attribute.String("kind", "llm"),
		attribute.String("status", "error"),
	))

	rm := collect(t, reader)
	met := findMetric(rm, "ausculto.provider.requests")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}

	// Find the data point with status=ok.
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "status" && kv.Value.AsString() == "ok" {
				if dp.Value != 2 {
					t.Errorf("counter value = %d, want 2", dp.Value)
				}
				return
			}
		}
	}
	t.Error("data point with status=ok not found")
}

func TestTurnsCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTurn(ctx, "ok")
	m.RecordTurn(ctx, "ok")
	m.RecordTurn(ctx, "no_speech")

	rm := collect(t, reader)
	met := findMetric(rm, "ausculto.turns")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}

	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "outcome" && kv.Value.AsString() == "ok" {
				if dp.Value != 2 {
					t.Errorf("counter value = %d, want 2", dp.Value)
				}
				return
			}
		}
	}
	t.Error("data point with outcome=ok not found")
}

func TestProviderErrorsCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderError(ctx, "openai", "tts")

	rm := collect(t, reader)
	met := findMetric(rm, "ausculto.provider.errors")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("counter value = %d, want 1", sum.DataPoints[0].Value)
	}
}

func TestAudioByteCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.AudioBytesReceived.Add(ctx, 4096)
	m.AudioBytesReceived.Add(ctx, 2048)
	m.AudioBytesSent.Add(ctx, 4096)

	rm := collect(t, reader)

	counters := []struct {
		name string
		want int64
	}{
		{"ausculto.audio.bytes.received", 6144},
		{"ausculto.audio.bytes.sent", 4096},
	}

	for _, tc := range counters {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not a sum", tc.name)
			}
			if len(sum.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := sum.DataPoints[0].Value; got != tc.want {
				t.Errorf("counter value = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestActiveSessionsGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)

	rm := collect(t, reader)
	met := findMetric(rm, "ausculto.active_sessions")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := sum.DataPoints[0].Value; got != 1 {
		t.Errorf("gauge value = %d, want 1", got)
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.HTTPRequestDuration.Record(ctx, 0.05,
		metric.WithAttributes(
			attribute.String("method", "GET"),
			attribute.String("path", "/healthz"),
		),
	)

	rm := collect(t, reader)
	met := findMetric(rm, "ausculto.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := hist.DataPoints[0].Count; got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
