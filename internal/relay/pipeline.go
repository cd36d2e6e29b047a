package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ausculto/ausculto/internal/observe"
	"github.com/ausculto/ausculto/internal/staging"
	"github.com/ausculto/ausculto/internal/transcript"
	"github.com/ausculto/ausculto/pkg/audio"
	"github.com/ausculto/ausculto/pkg/provider/llm"
	"github.com/ausculto/ausculto/pkg/provider/stt"
	"github.com/ausculto/ausculto/pkg/provider/tts"
	"github.com/ausculto/ausculto/pkg/provider/vad"
)

const (
	// defaultSampleRate is the PCM sample rate clients must send.
	defaultSampleRate = 16000

	// defaultChunkBytes is the size of binary audio frames streamed back.
	defaultChunkBytes = 4096

	// defaultSystemPrompt steers the reply model.
	defaultSystemPrompt = "You are a helpful medical assistant. Keep responses concise and conversational. Recommend consulting a clinician for anything serious."
)

// PipelineConfig holds the providers and settings for a [Pipeline].
type PipelineConfig struct {
	// Detector performs voice activity detection. Required.
	Detector vad.Detector

	// STT transcribes the captured utterance. Required.
	STT stt.Provider

	// LLM generates the reply text. Required.
	LLM llm.Provider

	// TTS synthesizes the reply audio. Required.
	TTS tts.Provider

	// Staging stores per-turn WAV artifacts. Required.
	Staging *staging.Store

	// Corrector optionally aligns the transcript to a domain vocabulary.
	Corrector *transcript.Corrector

	// SystemPrompt overrides the default reply-model instruction.
	SystemPrompt string

	// Voice selects the synthesis voice and output format.
	Voice tts.VoiceProfile

	// SampleRate of the incoming PCM. Default: 16000.
	SampleRate int

	// ChunkBytes is the binary frame size for outgoing audio. Default: 4096.
	ChunkBytes int

	// Temperature and MaxTokens are passed through to the LLM. Zero values
	// use the provider defaults.
	Temperature float64
	MaxTokens   int

	// Metrics receives per-stage instrumentation. Defaults to
	// [observe.DefaultMetrics] when nil.
	Metrics *observe.Metrics
}

// Pipeline runs one complete voice turn: detect speech, transcribe,
// generate a reply, synthesize it, and stream the audio back over the
// channel. Pipeline is stateless per turn and safe for concurrent use; one
// instance is shared by all sessions.
type Pipeline struct {
	detector  vad.Detector
	sttP      stt.Provider
	llmP      llm.Provider
	ttsP      tts.Provider
	store     *staging.Store
	corrector *transcript.Corrector

	systemPrompt string
	voice        tts.VoiceProfile
	sampleRate   int
	chunkBytes   int
	temperature  float64
	maxTokens    int

	metrics *observe.Metrics
}

// NewPipeline validates cfg and constructs a Pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	switch {
	case cfg.Detector == nil:
		return nil, fmt.Errorf("relay: pipeline requires a VAD detector")
	case cfg.STT == nil:
		return nil, fmt.Errorf("relay: pipeline requires an STT provider")
	case cfg.LLM == nil:
		return nil, fmt.Errorf("relay: pipeline requires an LLM provider")
	case cfg.TTS == nil:
		return nil, fmt.Errorf("relay: pipeline requires a TTS provider")
	case cfg.Staging == nil:
		return nil, fmt.Errorf("relay: pipeline requires a staging store")
	}

	p := &Pipeline{
		detector:     cfg.Detector,
		sttP:         cfg.STT,
		llmP:         cfg.LLM,
		ttsP:         cfg.TTS,
		store:        cfg.Staging,
		corrector:    cfg.Corrector,
		systemPrompt: cfg.SystemPrompt,
		voice:        cfg.Voice,
		sampleRate:   cfg.SampleRate,
		chunkBytes:   cfg.ChunkBytes,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		metrics:      cfg.Metrics,
	}
	if p.systemPrompt == "" {
		p.systemPrompt = defaultSystemPrompt
	}
	if p.sampleRate <= 0 {
		p.sampleRate = defaultSampleRate
	}
	if p.chunkBytes <= 0 {
		p.chunkBytes = defaultChunkBytes
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p, nil
}

// RunTurn processes one captured utterance and streams the reply back over
// ch. Stage failures are reported to the client as a single error message
// (best effort) and returned to the caller. A client that disconnects
// mid-stream ends the turn quietly.
func (p *Pipeline) RunTurn(ctx context.Context, ch *Channel, samples []int16) error {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "relay.turn",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	log := observe.Logger(ctx)

	// --- Stage 1: voice activity detection ---
	floats := audio.ToFloat32(samples)

	vadStart := time.Now()
	vadCtx, vadSpan := observe.StartStageSpan(ctx, "vad")
	segments, err := p.detector.Detect(vadCtx, floats, p.sampleRate)
	observe.EndSpan(vadSpan, err)
	p.metrics.VADDuration.Record(ctx, time.Since(vadStart).Seconds())
	if err != nil {
		return p.fail(ctx, ch, "vad", "Voice activity detection failed.", err)
	}

	segments = sanitizeSegments(segments, len(floats))
	if len(segments) == 0 {
		log.Info("no speech detected", "samples", len(samples))
		p.sendBestEffort(ctx, ch, Log("No speech detected."))
		p.metrics.RecordTurn(ctx, "no_speech")
		return nil
	}

	// Concatenate the speech regions, dropping inter-segment silence.
	var speech []float32
	for _, seg := range segments {
		speech = append(speech, floats[seg.Start:seg.End]...)
	}

	// --- Stage 2: stage WAV and transcribe ---
	path, err := p.store.StageWAV(audio.ToInt16(speech), p.sampleRate)
	if err != nil {
		return p.fail(ctx, ch, "staging", "Audio processing failed.", err)
	}
	defer func() {
		if rmErr := p.store.Remove(path); rmErr != nil {
			log.Warn("staged audio cleanup failed", "path", path, "err", rmErr)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return p.fail(ctx, ch, "staging", "Audio processing failed.", err)
	}

	sttStart := time.Now()
	sttCtx, sttSpan := observe.StartStageSpan(ctx, "stt")
	text, err := p.sttP.Transcribe(sttCtx, f)
	f.Close()
	observe.EndSpan(sttSpan, err)
	p.metrics.STTDuration.Record(ctx, time.Since(sttStart).Seconds())
	if err != nil {
		return p.fail(ctx, ch, "stt", "Transcription failed.", err)
	}
	p.metrics.RecordProviderRequest(ctx, "stt", "transcribe", "ok")

	if p.corrector != nil {
		corrected, corrections := p.corrector.Correct(text)
		for _, c := range corrections {
			log.Debug("transcript corrected",
				"original", c.Original,
				"corrected", c.Corrected,
				"confidence", c.Confidence,
			)
		}
		text = corrected
	}

	if err := ch.Send(ctx, Transcript(text)); err != nil {
		return p.disconnected(ctx, log, err)
	}

	// --- Stage 3: generate reply ---
	llmStart := time.Now()
	llmCtx, llmSpan := observe.StartStageSpan(ctx, "llm")
	resp, err := p.llmP.Complete(llmCtx, llm.CompletionRequest{
		SystemPrompt: p.systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: text}},
		Temperature:  p.temperature,
		MaxTokens:    p.maxTokens,
	})
	observe.EndSpan(llmSpan, err)
	p.metrics.LLMDuration.Record(ctx, time.Since(llmStart).Seconds())
	if err != nil {
		return p.fail(ctx, ch, "llm", "Reply generation failed.", err)
	}
	p.metrics.RecordProviderRequest(ctx, "llm", "complete", "ok")

	if err := ch.Send(ctx, ResponseText(resp.Content)); err != nil {
		return p.disconnected(ctx, log, err)
	}

	// --- Stage 4: synthesize and stream ---
	ttsStart := time.Now()
	ttsCtx, ttsSpan := observe.StartStageSpan(ctx, "tts")
	replyAudio, err := p.ttsP.Synthesize(ttsCtx, resp.Content, p.voice)
	observe.EndSpan(ttsSpan, err)
	p.metrics.TTSDuration.Record(ctx, time.Since(ttsStart).Seconds())
	if err != nil {
		return p.fail(ctx, ch, "tts", "Speech synthesis failed.", err)
	}
	p.metrics.RecordProviderRequest(ctx, "tts", "synthesize", "ok")

	for off := 0; off < len(replyAudio); off += p.chunkBytes {
		end := off + p.chunkBytes
		if end > len(replyAudio) {
			end = len(replyAudio)
		}
		if err := ch.SendBinary(ctx, replyAudio[off:end]); err != nil {
			return p.disconnected(ctx, log, err)
		}
		p.metrics.AudioBytesSent.Add(ctx, int64(end-off))
	}

	if err := ch.Send(ctx, TTSEnd()); err != nil {
		return p.disconnected(ctx, log, err)
	}

	p.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	p.metrics.RecordTurn(ctx, "ok")
	log.Info("turn completed",
		"transcript_len", len(text),
		"reply_len", len(resp.Content),
		"audio_bytes", len(replyAudio),
		"duration", time.Since(start),
	)
	return nil
}

// fail reports a stage failure to the client (best effort) and returns the
// wrapped error.
func (p *Pipeline) fail(ctx context.Context, ch *Channel, stage, clientMsg string, err error) error {
	p.metrics.RecordProviderError(ctx, stage, "relay")
	p.metrics.RecordTurn(ctx, "error")
	p.sendBestEffort(ctx, ch, Errorf("%s", clientMsg))
	return fmt.Errorf("relay: %s stage: %w", stage, err)
}

// disconnected handles a mid-turn client disconnect: the turn ends without
// error so the session can tear down normally.
func (p *Pipeline) disconnected(ctx context.Context, log *slog.Logger, err error) error {
	if errors.Is(err, ErrChannelClosed) {
		log.Info("client disconnected mid-turn")
		p.metrics.RecordTurn(ctx, "disconnected")
		return nil
	}
	return err
}

// sendBestEffort sends msg and ignores channel-closed failures.
func (p *Pipeline) sendBestEffort(ctx context.Context, ch *Channel, msg Message) {
	_ = ch.Send(ctx, msg)
}

// sanitizeSegments clips segment bounds to [0, n) and drops empty or
// inverted segments. Backends are not trusted to stay in range.
func sanitizeSegments(segments []vad.Segment, n int) []vad.Segment {
	out := segments[:0]
	for _, seg := range segments {
		if seg.Start < 0 {
			seg.Start = 0
		}
		if seg.End > n {
			seg.End = n
		}
		if seg.End <= seg.Start {
			continue
		}
		out = append(out, seg)
	}
	return out
}
