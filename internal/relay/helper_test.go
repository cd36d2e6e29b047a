package relay_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/coder/websocket"

	"github.com/ausculto/ausculto/internal/relay"
	"github.com/ausculto/ausculto/internal/staging"
	llmmock "github.com/ausculto/ausculto/pkg/provider/llm/mock"
	sttmock "github.com/ausculto/ausculto/pkg/provider/stt/mock"
	ttsmock "github.com/ausculto/ausculto/pkg/provider/tts/mock"
	"github.com/ausculto/ausculto/pkg/provider/vad"
	vadmock "github.com/ausculto/ausculto/pkg/provider/vad/mock"
)

// frame is one websocket frame recorded or queued by fakeConn.
type frame struct {
	typ  websocket.MessageType
	data []byte
}

// fakeConn is an in-memory relay.Conn. Queued frames are returned by Read
// in order; once drained, Read returns readErr (io.EOF by default, standing
// in for a client disconnect).
type fakeConn struct {
	mu sync.Mutex

	reads   []frame
	readErr error

	writes []frame
	// failWritesAfter, when >= 0, makes every Write past that count fail.
	failWritesAfter int

	// onWrite, when set, runs before each successful Write is recorded.
	// Lets tests observe session state at the moment a message goes out.
	onWrite func()

	closeCalls int
	closeCode  websocket.StatusCode
}

func newFakeConn(reads ...frame) *fakeConn {
	return &fakeConn{reads: reads, readErr: io.EOF, failWritesAfter: -1}
}

func (c *fakeConn) Read(_ context.Context) (websocket.MessageType, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.reads) == 0 {
		return 0, nil, c.readErr
	}
	f := c.reads[0]
	c.reads = c.reads[1:]
	return f.typ, f.data, nil
}

func (c *fakeConn) Write(_ context.Context, typ websocket.MessageType, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWritesAfter >= 0 && len(c.writes) >= c.failWritesAfter {
		return io.ErrClosedPipe
	}
	if c.onWrite != nil {
		c.onWrite()
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	c.writes = append(c.writes, frame{typ: typ, data: cp})
	return nil
}

func (c *fakeConn) Close(code websocket.StatusCode, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
	if c.closeCalls == 1 {
		c.closeCode = code
	}
	return nil
}

func (c *fakeConn) writtenFrames() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame, len(c.writes))
	copy(out, c.writes)
	return out
}

// textMessages decodes every text frame written to the connection.
func textMessages(t *testing.T, c *fakeConn) []relay.Message {
	t.Helper()
	var msgs []relay.Message
	for _, f := range c.writtenFrames() {
		if f.typ != websocket.MessageText {
			continue
		}
		var m relay.Message
		if err := json.Unmarshal(f.data, &m); err != nil {
			t.Fatalf("unmarshal text frame %q: %v", f.data, err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

// binaryFrames returns every binary frame written to the connection.
func binaryFrames(c *fakeConn) [][]byte {
	var out [][]byte
	for _, f := range c.writtenFrames() {
		if f.typ == websocket.MessageBinary {
			out = append(out, f.data)
		}
	}
	return out
}

// testProviders bundles the mock providers wired into a test pipeline.
type testProviders struct {
	vad *vadmock.Detector
	stt *sttmock.Provider
	llm *llmmock.Provider
	tts *ttsmock.Provider
}

// newTestPipeline builds a pipeline over mock providers. The VAD mock marks
// the whole input as one speech segment by default; override fields on the
// returned providers before running a turn.
func newTestPipeline(t *testing.T, sampleCount int) (*relay.Pipeline, *testProviders) {
	t.Helper()

	store, err := staging.New(t.TempDir())
	if err != nil {
		t.Fatalf("staging.New: %v", err)
	}

	p := &testProviders{
		vad: &vadmock.Detector{Segments: []vad.Segment{{Start: 0, End: sampleCount}}},
		stt: &sttmock.Provider{Text: "I have a headache"},
		llm: &llmmock.Provider{},
		tts: &ttsmock.Provider{Audio: []byte("tiny-audio")},
	}

	pipeline, err := relay.NewPipeline(relay.PipelineConfig{
		Detector: p.vad,
		STT:      p.stt,
		LLM:      p.llm,
		TTS:      p.tts,
		Staging:  store,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return pipeline, p
}

// pcmFrame returns n int16 samples of constant amplitude encoded as
// little-endian bytes.
func pcmFrame(n int, amplitude int16) []byte {
	b := make([]byte, n*2)
	for i := 0; i < n; i++ {
		b[2*i] = byte(amplitude)
		b[2*i+1] = byte(amplitude >> 8)
	}
	return b
}
