package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"

	"travel-concierge/internal/common/cache"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/common/metrics"
)

// CachedClient serves remembered completions from Redis keyed by model, temperature and
// prompt. Provider replies are stored only through Remember. Cache failures never fail a call.
type CachedClient struct {
	next  Client
	store *cache.RedisClient
	log   logger.Logger
}

func WithCache(next Client, store *cache.RedisClient, log logger.Logger) *CachedClient {
	return &CachedClient{next: next, store: store, log: log}
}

func (c *CachedClient) Complete(ctx context.Context, prompt string, params Params) (*Completion, error) {
	if params.Fresh {
		metrics.CacheLookups.WithLabelValues("bypass").Inc()
		return c.next.Complete(ctx, prompt, params)
	}

	raw, err := c.store.Get(ctx, cacheKey(prompt, params))
	switch {
	case err == nil:
		var hit Completion
		if jsonErr := json.Unmarshal(raw, &hit); jsonErr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			hit.Cached = true
			return &hit, nil
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, cache.ErrMiss):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.log.Warn("Completion cache lookup failed", map[string]interface{}{"error": err.Error()})
	}

	return c.next.Complete(ctx, prompt, params)
}

func (c *CachedClient) Remember(ctx context.Context, prompt string, params Params, completion *Completion) {
	if completion == nil || completion.Cached {
		return
	}
	payload, err := json.Marshal(completion)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, cacheKey(prompt, params), payload); err != nil {
		c.log.Warn("Completion cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func cacheKey(prompt string, params Params) string {
	h := sha256.New()
	h.Write([]byte(params.Model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(params.Temperature, 'f', 3, 64)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(params.MaxTokens)))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
