package openai_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ausculto/ausculto/pkg/provider/tts"
	"github.com/ausculto/ausculto/pkg/provider/tts/openai"
)

func TestNew_EmptyAPIKey(t *testing.T) {
	if _, err := openai.New(""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestSynthesize_ReturnsAudioBytes(t *testing.T) {
	wantAudio := []byte{0x49, 0x44, 0x33, 0x04, 0x00} // fake mp3 header

	var gotBody struct {
		Model          string `json:"model"`
		Input          string `json:"input"`
		Voice          string `json:"voice"`
		ResponseFormat string `json:"response_format"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(wantAudio)
	}))
	defer srv.Close()

	p, err := openai.New("test-key", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	audio, err := p.Synthesize(context.Background(), "Take care of yourself.", tts.VoiceProfile{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(audio, wantAudio) {
		t.Errorf("audio: got %x, want %x", audio, wantAudio)
	}

	if gotBody.Model != "tts-1" {
		t.Errorf("model: got %q, want tts-1", gotBody.Model)
	}
	if gotBody.Voice != "alloy" {
		t.Errorf("voice: got %q, want alloy", gotBody.Voice)
	}
	if gotBody.ResponseFormat != "mp3" {
		t.Errorf("response_format: got %q, want mp3", gotBody.ResponseFormat)
	}
	if gotBody.Input != "Take care of yourself." {
		t.Errorf("input: got %q", gotBody.Input)
	}
}

func TestSynthesize_CustomVoiceProfile(t *testing.T) {
	var gotBody struct {
		Voice          string  `json:"voice"`
		ResponseFormat string  `json:"response_format"`
		Speed          float64 `json:"speed"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	p, err := openai.New("test-key", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = p.Synthesize(context.Background(), "hello", tts.VoiceProfile{
		Voice:  "nova",
		Format: "opus",
		Speed:  1.25,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if gotBody.Voice != "nova" {
		t.Errorf("voice: got %q, want nova", gotBody.Voice)
	}
	if gotBody.ResponseFormat != "opus" {
		t.Errorf("response_format: got %q, want opus", gotBody.ResponseFormat)
	}
	if gotBody.Speed != 1.25 {
		t.Errorf("speed: got %v, want 1.25", gotBody.Speed)
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	p, err := openai.New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "", tts.VoiceProfile{}); err == nil {
		t.Error("expected error for empty text")
	}
}
