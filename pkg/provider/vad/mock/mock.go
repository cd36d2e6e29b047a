// Package mock provides a test double for the vad.Detector interface.
//
// Use Detector in unit tests to feed controlled segment lists to the pipeline
// without a real detection backend:
//
//	d := &mock.Detector{Segments: []vad.Segment{{Start: 0, End: 160}}}
//	segs, err := d.Detect(ctx, samples, 16000)
package mock

import (
	"context"
	"sync"

	"github.com/ausculto/ausculto/pkg/provider/vad"
)

// DetectCall records a single invocation of Detect.
type DetectCall struct {
	// SampleCount is the length of the samples slice passed to Detect.
	SampleCount int

	// SampleRate is the sample rate passed to Detect.
	SampleRate int
}

// Detector is a mock implementation of vad.Detector. The zero value returns
// no segments and no error. Set Err to inject a detection failure.
type Detector struct {
	mu sync.Mutex

	// Segments is returned by Detect when Err is nil.
	Segments []vad.Segment

	// Err, if non-nil, is returned by Detect.
	Err error

	// Calls records every invocation in order.
	Calls []DetectCall
}

var _ vad.Detector = (*Detector)(nil)

// Detect implements vad.Detector.
func (d *Detector) Detect(_ context.Context, samples []float32, sampleRate int) ([]vad.Segment, error) {
	d.mu.Lock()
	d.Calls = append(d.Calls, DetectCall{SampleCount: len(samples), SampleRate: sampleRate})
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	return d.Segments, nil
}
