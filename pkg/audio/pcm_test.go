package audio_test

import (
	"math"
	"testing"

	"github.com/ausculto/ausculto/pkg/audio"
)

func TestToFloat32_Range(t *testing.T) {
	in := []int16{-32768, 0, 32767}
	out := audio.ToFloat32(in)

	if out[0] != -1.0 {
		t.Errorf("min sample: got %f, want -1.0", out[0])
	}
	if out[1] != 0 {
		t.Errorf("zero sample: got %f, want 0", out[1])
	}
	if out[2] >= 1.0 || out[2] < 0.999 {
		t.Errorf("max sample: got %f, want just below 1.0", out[2])
	}
}

func TestToInt16_ClampsAtFullScale(t *testing.T) {
	in := []float32{1.0, 1.5, -1.0, -1.5, 0}
	out := audio.ToInt16(in)

	want := []int16{32767, 32767, -32768, -32768, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, out[i], want[i])
		}
	}
}

func TestRoundTripWithinOneStep(t *testing.T) {
	in := []int16{-32768, -12345, -1, 0, 1, 12345, 32767}
	back := audio.ToInt16(audio.ToFloat32(in))

	for i := range in {
		if diff := math.Abs(float64(in[i]) - float64(back[i])); diff > 1 {
			t.Errorf("sample %d: round trip %d -> %d differs by %v", i, in[i], back[i], diff)
		}
	}
}
