package audio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/ausculto/ausculto/pkg/audio"
)

func TestWriteWAVFile_RoundTrip(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768}
	path := filepath.Join(t.TempDir(), "speech.wav")

	if err := audio.WriteWAVFile(path, samples, 16000); err != nil {
		t.Fatalf("WriteWAVFile: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.SampleRate != 16000 {
		t.Errorf("sample rate: got %d, want 16000", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("channels: got %d, want 1", dec.NumChans)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("sample count: got %d, want %d", len(buf.Data), len(samples))
	}
	for i, want := range samples {
		if int16(buf.Data[i]) != want {
			t.Errorf("sample %d: got %d, want %d", i, buf.Data[i], want)
		}
	}
}
