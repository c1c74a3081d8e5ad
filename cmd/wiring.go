package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/ai/gemini"
	"github.com/spigell/hh-interviewer/internal/ai/ollama"
	"github.com/spigell/hh-interviewer/internal/analysis"
	"github.com/spigell/hh-interviewer/internal/conversation"
	"github.com/spigell/hh-interviewer/internal/generation"
	"github.com/spigell/hh-interviewer/internal/prompt"
	"github.com/spigell/hh-interviewer/internal/secrets"
	"github.com/spigell/hh-interviewer/internal/session"
)

const (
	providerGemini = "gemini"
	providerOllama = "ollama"

	storeMemory = "memory"
	storeSQLite = "sqlite"
)

// services holds everything a command needs to drive interviews.
type services struct {
	orchestrator *session.Orchestrator
	kv           conversation.KV
}

func (s *services) Close() error {
	return s.kv.Close()
}

func newServices(ctx context.Context, config *Config, logger *zap.Logger) (*services, error) {
	backend, err := newBackend(ctx, config.Backend, logger)
	if err != nil {
		return nil, err
	}

	kv, err := newKV(config.Store, logger)
	if err != nil {
		return nil, err
	}

	store := conversation.NewStore(kv, config.Store.TTL, logger)
	client := generation.NewClient(backend, generationOptions(config.Generation), logger)

	orchestrator, err := session.NewOrchestrator(config.Interview, session.Dependencies{
		Store:     store,
		Generator: client,
		Composer:  prompt.NewComposer(config.HistoryTurns),
		FollowUps: newFollowUpClassifier(config.FollowUp, nil),
		Flow:      analysis.NewFlowMonitor(analysis.DefaultFlowWindow),
		Logger:    logger,
	})
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	return &services{orchestrator: orchestrator, kv: kv}, nil
}

func newBackend(ctx context.Context, config *BackendConfig, logger *zap.Logger) (ai.Backend, error) {
	if config == nil {
		return nil, errors.New("backend configuration is required")
	}

	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case providerGemini:
		gc := config.Gemini
		if gc == nil {
			gc = &GeminiConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: gc.APIKey,
			File:  gc.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set backend.gemini.api-key, GEMINI_API_KEY or GEMINI_API_KEY_FILE)", err)
		}
		return gemini.NewGenerator(ctx, apiKey, gc.Model, gc.MaxLogLength, logger)
	case providerOllama:
		oc := config.Ollama
		if oc == nil {
			oc = &OllamaConfig{}
		}
		return ollama.New(oc.BaseURL, oc.Model, logger), nil
	default:
		return nil, fmt.Errorf("unsupported backend provider %q", config.Provider)
	}
}

func newKV(config *StoreConfig, logger *zap.Logger) (conversation.KV, error) {
	if config == nil {
		config = &StoreConfig{Driver: storeMemory}
	}

	switch strings.ToLower(strings.TrimSpace(config.Driver)) {
	case "", storeMemory:
		return conversation.NewMemoryKV(), nil
	case storeSQLite:
		kv, err := conversation.OpenSQLite(config.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store %q: %w", config.Path, err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", config.Driver)
	}
}

func newFollowUpClassifier(config *FollowUpConfig, sample analysis.Sampler) *analysis.FollowUpClassifier {
	classifier := analysis.NewFollowUpClassifier(sample)
	if config == nil {
		return classifier
	}
	return classifier.WithThresholds(config.MinAnswerLength, config.TechnicalProbeRate)
}

func generationOptions(config *GenerationConfig) generation.Options {
	opts := generation.DefaultOptions()
	if config == nil {
		return opts
	}

	opts.Temperature = config.Temperature
	if config.MaxTokens > 0 {
		opts.MaxTokens = config.MaxTokens
	}
	opts.StopSequences = config.StopSequences
	if config.Timeout > 0 {
		opts.Timeout = config.Timeout
	}
	opts.Policy.MaxRetries = config.MaxRetries
	if config.RetryBackoff > 0 {
		opts.Policy.Backoff = generation.FixedBackoff(config.RetryBackoff)
	}

	return opts
}
