package audio

import (
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavBitDepth is the sample width written to staged WAV artifacts.
const wavBitDepth = 16

// EncodeWAV writes samples as a mono 16-bit PCM WAV stream to w. The encoder
// needs a seekable writer to patch the RIFF header, so w is typically an
// *os.File.
func EncodeWAV(w io.WriteSeeker, samples []int16, sampleRate int) error {
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: close wav encoder: %w", err)
	}
	return nil
}

// WriteWAVFile creates (or truncates) path and writes samples to it as a mono
// 16-bit PCM WAV file.
func WriteWAVFile(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %q: %w", path, err)
	}
	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("audio: close %q: %w", path, err)
	}
	return nil
}
