// Package energy implements vad.Detector with a short-time RMS energy
// detector.
//
// The detector slices the buffer into fixed windows, classifies each window
// as speech or silence against an RMS threshold, and merges speech windows
// into segments with a hangover period so natural intra-word pauses do not
// split an utterance. Segments shorter than a minimum duration are discarded
// as clicks.
//
// It is self-contained and deterministic, which makes it the default backend:
// the relay stays runnable without a model server. For noisy captures a
// model-based detector behind the same interface will do better.
package energy

import (
	"context"
	"fmt"
	"math"

	"github.com/ausculto/ausculto/pkg/provider/vad"
)

const (
	defaultWindowMs    = 20
	defaultThreshold   = 0.015
	defaultHangoverMs  = 300
	defaultMinSpeechMs = 100
)

// Option is a functional option for configuring a Detector.
type Option func(*Detector)

// WithThreshold sets the RMS level above which a window counts as speech.
// Range (0.0, 1.0]; default 0.015.
func WithThreshold(t float64) Option {
	return func(d *Detector) { d.threshold = t }
}

// WithWindowMs sets the analysis window length in milliseconds. Default 20.
func WithWindowMs(ms int) Option {
	return func(d *Detector) { d.windowMs = ms }
}

// WithHangoverMs sets how long silence may last inside a segment before the
// segment is closed. Default 300.
func WithHangoverMs(ms int) Option {
	return func(d *Detector) { d.hangoverMs = ms }
}

// WithMinSpeechMs sets the minimum segment duration; shorter segments are
// dropped. Default 100.
func WithMinSpeechMs(ms int) Option {
	return func(d *Detector) { d.minSpeechMs = ms }
}

// Detector is an RMS energy speech detector. It is stateless between calls
// and safe for concurrent use.
type Detector struct {
	threshold   float64
	windowMs    int
	hangoverMs  int
	minSpeechMs int
}

var _ vad.Detector = (*Detector)(nil)

// New constructs a Detector with the given options applied over the defaults.
func New(opts ...Option) *Detector {
	d := &Detector{
		threshold:   defaultThreshold,
		windowMs:    defaultWindowMs,
		hangoverMs:  defaultHangoverMs,
		minSpeechMs: defaultMinSpeechMs,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Detect implements vad.Detector.
func (d *Detector) Detect(_ context.Context, samples []float32, sampleRate int) ([]vad.Segment, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("energy: sample rate %d is invalid", sampleRate)
	}
	window := sampleRate * d.windowMs / 1000
	if window <= 0 {
		return nil, fmt.Errorf("energy: window of %d ms at %d Hz is empty", d.windowMs, sampleRate)
	}

	hangoverWindows := d.hangoverMs / d.windowMs
	minSpeech := sampleRate * d.minSpeechMs / 1000

	var (
		segments   []vad.Segment
		inSpeech   bool
		segStart   int
		speechEnd  int // end of the last speech-classified window
		silenceRun int
	)

	for start := 0; start < len(samples); start += window {
		end := start + window
		if end > len(samples) {
			end = len(samples)
		}

		if rms(samples[start:end]) >= d.threshold {
			if !inSpeech {
				inSpeech = true
				segStart = start
			}
			speechEnd = end
			silenceRun = 0
			continue
		}

		if inSpeech {
			silenceRun++
			if silenceRun > hangoverWindows {
				segments = appendSegment(segments, segStart, speechEnd, minSpeech)
				inSpeech = false
			}
		}
	}

	if inSpeech {
		segments = appendSegment(segments, segStart, speechEnd, minSpeech)
	}
	return segments, nil
}

// appendSegment adds [start, end) to segments unless it is shorter than
// minSpeech samples.
func appendSegment(segments []vad.Segment, start, end, minSpeech int) []vad.Segment {
	if end-start < minSpeech {
		return segments
	}
	return append(segments, vad.Segment{Start: start, End: end})
}

// rms computes the root-mean-square level of a window.
func rms(window []float32) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range window {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(window)))
}
