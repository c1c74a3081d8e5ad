package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/analysis"
	"github.com/spigell/hh-interviewer/internal/conversation"
	"github.com/spigell/hh-interviewer/internal/generation"
	"github.com/spigell/hh-interviewer/internal/interview"
)

func TestGenerationOptions(t *testing.T) {
	t.Parallel()

	opts := generationOptions(&GenerationConfig{
		Temperature:   0.2,
		MaxTokens:     256,
		StopSequences: []string{"\n\n"},
		Timeout:       5 * time.Second,
		MaxRetries:    0,
		RetryBackoff:  250 * time.Millisecond,
	})

	if opts.Temperature != 0.2 || opts.MaxTokens != 256 {
		t.Fatalf("unexpected request parameters: %+v", opts)
	}
	if opts.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", opts.Timeout)
	}
	if opts.Policy.MaxRetries != 0 {
		t.Fatalf("expected retries to be disabled, got %d", opts.Policy.MaxRetries)
	}
	if got := opts.Policy.Backoff(1); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms backoff, got %s", got)
	}

	def := generationOptions(nil)
	if def.Policy.MaxRetries != generation.DefaultMaxRetries || def.Timeout != generation.DefaultTimeout {
		t.Fatalf("nil config should yield defaults, got %+v", def)
	}
}

func TestNewFollowUpClassifier(t *testing.T) {
	t.Parallel()

	sample := func() float64 { return 0.5 }
	answer := "It was fine, nothing special to add."

	custom := newFollowUpClassifier(&FollowUpConfig{MinAnswerLength: 10, TechnicalProbeRate: 0.9}, sample)
	if got := custom.ShouldFollowUp(answer, interview.CategoryTechnical); got.Reason != analysis.ReasonNoImplementation {
		t.Fatalf("expected no-implementation follow-up with custom thresholds, got %+v", got)
	}

	def := newFollowUpClassifier(nil, sample)
	if got := def.ShouldFollowUp(answer, interview.CategoryTechnical); got.Reason != analysis.ReasonBrief {
		t.Fatalf("expected brief follow-up with default thresholds, got %+v", got)
	}
}

func TestNewKV(t *testing.T) {
	t.Parallel()

	kv, err := newKV(&StoreConfig{Driver: "memory"}, zap.NewNop())
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := kv.(*conversation.MemoryKV); !ok {
		t.Fatalf("expected MemoryKV, got %T", kv)
	}

	kv, err = newKV(&StoreConfig{Driver: "SQLite", Path: filepath.Join(t.TempDir(), "sessions.db")}, zap.NewNop())
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	defer kv.Close()
	if _, ok := kv.(conversation.Sweeper); !ok {
		t.Fatalf("sqlite store should support sweeping")
	}

	if _, err := newKV(&StoreConfig{Driver: "redis"}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestNewBackend(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	backend, err := newBackend(context.Background(), &BackendConfig{
		Provider: "ollama",
		Ollama:   &OllamaConfig{BaseURL: "http://127.0.0.1:11434", Model: "qwen2.5"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("ollama backend: %v", err)
	}
	if backend.Provider() != "ollama" || backend.Model() != "qwen2.5" {
		t.Fatalf("unexpected backend %s/%s", backend.Provider(), backend.Model())
	}

	_, err = newBackend(context.Background(), &BackendConfig{Provider: "gemini"}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected missing key error mentioning GEMINI_API_KEY, got %v", err)
	}

	if _, err := newBackend(context.Background(), &BackendConfig{Provider: "openai"}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
}
