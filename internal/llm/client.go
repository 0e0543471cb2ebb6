// Package llm is the model-provider boundary: a single Complete capability, provider
// adapters, a completion cache and tolerant structured-output extraction.
package llm

import (
	"context"
	"fmt"
	"strings"

	"travel-concierge/internal/common/cache"
	"travel-concierge/internal/common/config"
	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/common/logger"
)

type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// Fresh skips cached completions; set on retries so a rejected reply is not replayed.
	Fresh bool
}

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type Completion struct {
	Text   string `json:"text"`
	Usage  Usage  `json:"usage"`
	Cached bool   `json:"-"`
}

// Client completes a single prompt. Failures are *errors.ProviderError unless the context
// ended first, in which case the context error is returned.
type Client interface {
	Complete(ctx context.Context, prompt string, params Params) (*Completion, error)
}

// Memoizer is implemented by clients that keep completions. Callers remember a completion
// only after its text has been accepted.
type Memoizer interface {
	Remember(ctx context.Context, prompt string, params Params, completion *Completion)
}

// New builds the provider client selected by cfg.LLM and, when enabled, wraps it with the
// Redis completion cache. The returned closer releases the cache connection.
func New(cfg *config.Config, log logger.Logger) (Client, func() error, error) {
	var (
		client Client
		err    error
	)
	switch cfg.LLM.Provider {
	case "anthropic":
		client = NewAnthropic(cfg.LLM.APIKey, cfg.LLM.Model)
	case "openai":
		client = NewOpenAI(cfg.LLM.APIKey, cfg.LLM.Model)
	case "scripted":
		client, err = LoadScript(cfg.LLM.ScriptPath)
	default:
		err = fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, nil, err
	}

	closer := func() error { return nil }
	if cfg.Cache.Enabled {
		store := cache.NewRedis(cfg.Cache)
		if pingErr := store.Ping(context.Background()); pingErr != nil {
			log.Warn("Completion cache unavailable, continuing without it", map[string]interface{}{
				"address": cfg.Cache.Address,
				"error":   pingErr.Error(),
			})
			_ = store.Close()
		} else {
			client = WithCache(client, store, log)
			closer = store.Close
		}
	}

	log.Info("LLM client ready", map[string]interface{}{
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
		"cache":    cfg.Cache.Enabled,
	})
	return client, closer, nil
}

// ClassifyStatus maps an HTTP status onto the provider error taxonomy. Status 0 means the
// request never got a response and is treated as a transient server-side failure.
func ClassifyStatus(status int, message string, err error) *apperrors.ProviderError {
	var kind apperrors.ProviderErrorKind
	switch {
	case status == 401 || status == 403:
		kind = apperrors.ProviderAuth
	case status == 429:
		kind = apperrors.ProviderRateLimit
	case status >= 400 && status < 500:
		kind = apperrors.ProviderInvalidRequest
	default:
		kind = apperrors.ProviderServerError
	}
	return apperrors.NewProviderError(kind, status, message, err)
}

// statusFromText recovers a status code from SDK error strings that do not expose one.
func statusFromText(text string) int {
	lower := strings.ToLower(text)
	for _, code := range []int{401, 403, 429, 400, 404, 413, 422, 500, 502, 503, 504, 529} {
		if strings.Contains(lower, fmt.Sprintf("%d ", code)) || strings.Contains(lower, fmt.Sprintf("status code: %d", code)) {
			return code
		}
	}
	switch {
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota"):
		return 429
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "api key"):
		return 401
	}
	return 0
}
