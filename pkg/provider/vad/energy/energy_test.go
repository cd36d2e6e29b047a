package energy_test

import (
	"context"
	"math"
	"testing"

	"github.com/ausculto/ausculto/pkg/provider/vad/energy"
)

const testRate = 16000

// tone fills out[from:to] with a sine of the given amplitude.
func tone(out []float32, from, to int, amplitude float64) {
	for i := from; i < to && i < len(out); i++ {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*440*float64(i)/testRate))
	}
}

func TestDetect_Silence(t *testing.T) {
	samples := make([]float32, testRate) // one second of zeros
	d := energy.New()

	segs, err := d.Detect(context.Background(), samples, testRate)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("got %d segments for silence, want 0", len(segs))
	}
}

func TestDetect_SingleUtterance(t *testing.T) {
	// 2 s buffer with 0.5 s of tone in the middle.
	samples := make([]float32, 2*testRate)
	tone(samples, testRate/2, testRate, 0.5)

	d := energy.New()
	segs, err := d.Detect(context.Background(), samples, testRate)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1: %v", len(segs), segs)
	}

	seg := segs[0]
	if seg.Start < 0 || seg.End > len(samples) || seg.Start >= seg.End {
		t.Fatalf("segment out of bounds: %+v", seg)
	}
	// Boundaries land on window edges, so allow one window of slack.
	windowSlack := testRate * 20 / 1000
	if seg.Start > testRate/2 || seg.Start < testRate/2-windowSlack {
		t.Errorf("segment start %d not near %d", seg.Start, testRate/2)
	}
	if seg.End < testRate || seg.End > testRate+windowSlack {
		t.Errorf("segment end %d not near %d", seg.End, testRate)
	}
}

func TestDetect_HangoverBridgesShortPause(t *testing.T) {
	// Two bursts separated by a 100 ms pause: with the default 300 ms
	// hangover they must merge into one segment.
	samples := make([]float32, 2*testRate)
	tone(samples, 0, testRate/2, 0.5)
	tone(samples, testRate/2+testRate/10, testRate, 0.5)

	d := energy.New()
	segs, err := d.Detect(context.Background(), samples, testRate)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(segs) != 1 {
		t.Errorf("got %d segments, want 1 (pause inside hangover): %v", len(segs), segs)
	}
}

func TestDetect_LongPauseSplitsSegments(t *testing.T) {
	// Two bursts separated by a full second of silence.
	samples := make([]float32, 3*testRate)
	tone(samples, 0, testRate/2, 0.5)
	tone(samples, testRate+testRate/2, 2*testRate, 0.5)

	d := energy.New()
	segs, err := d.Detect(context.Background(), samples, testRate)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2: %v", len(segs), segs)
	}
	if segs[0].End > segs[1].Start {
		t.Errorf("segments overlap or out of order: %v", segs)
	}
}

func TestDetect_DropsClicks(t *testing.T) {
	// A 40 ms blip is below the 100 ms minimum speech duration.
	samples := make([]float32, testRate)
	tone(samples, testRate/2, testRate/2+testRate*40/1000, 0.8)

	d := energy.New()
	segs, err := d.Detect(context.Background(), samples, testRate)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("got %d segments for a 40 ms click, want 0: %v", len(segs), segs)
	}
}

func TestDetect_InvalidSampleRate(t *testing.T) {
	d := energy.New()
	if _, err := d.Detect(context.Background(), make([]float32, 100), 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
