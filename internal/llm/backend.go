package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// Backend classifies expense descriptions with a language model. Identical
// concurrent requests share one provider call and answers are cached.
type Backend struct {
	client    Client
	cache     *classificationCache
	limiter   *rateLimiter
	logger    *slog.Logger
	group     singleflight.Group
	retryOpts common.RetryOptions
	timeout   time.Duration
}

// NewBackend creates a backend for the configured provider.
func NewBackend(cfg Config, logger *slog.Logger) (*Backend, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewBackendWithClient(client, cfg, logger), nil
}

// NewBackendWithClient wraps an existing client. Provider settings in cfg
// are ignored; cache, rate limit and retry settings apply.
func NewBackendWithClient(client Client, cfg Config, logger *slog.Logger) *Backend {
	logger = common.LoggerOrDefault(logger)
	retryOpts := common.RetryOptions{
		Logger:       logger,
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 250 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Backend{
		client:    client,
		cache:     newClassificationCache(cfg.CacheTTL),
		limiter:   newRateLimiter(cfg.RateLimit),
		logger:    logger,
		retryOpts: retryOpts,
		timeout:   timeout,
	}
}

// Classify asks the model which of categories best fits description.
// Malformed answers are returned as contract violations; every other
// failure is a backend error.
func (b *Backend) Classify(ctx context.Context, description string, categories []string) (model.Classification, error) {
	key := cacheKey(description, categories)

	if cached, found := b.cache.get(key); found {
		b.logger.Debug("cache hit for description", "description", description)
		return cached, nil
	}

	// The shared call outlives any single waiter; each waiter stops on its
	// own ctx below.
	ch := b.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()
		return b.classify(callCtx, key, description, categories)
	})

	select {
	case <-ctx.Done():
		return model.Classification{}, common.NewBackendError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return model.Classification{}, res.Err
		}
		if res.Shared {
			b.logger.Debug("shared in-flight classification", "description", description)
		}
		return res.Val.(model.Classification), nil
	}
}

func (b *Backend) classify(ctx context.Context, key, description string, categories []string) (model.Classification, error) {
	prompt := buildPrompt(description, categories)

	var result model.Classification
	err := common.WithRetry(ctx, func() error {
		if err := b.limiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		classification, err := b.client.Classify(ctx, prompt)
		if err != nil {
			return err
		}
		result = classification
		return nil
	}, b.retryOpts)

	if err != nil {
		if errors.Is(err, common.ErrContractViolation) {
			b.logger.Warn("classification response violated contract", "description", description, "error", err)
			return model.Classification{}, err
		}
		b.logger.Debug("classification backend failed", "description", description, "error", err)
		return model.Classification{}, common.NewBackendError(err)
	}

	b.cache.set(key, result)

	b.logger.Info("description classified",
		"description", description,
		"category", result.Category,
		"confidence", result.Confidence)

	return result, nil
}

// Close stops background goroutines.
func (b *Backend) Close() error {
	b.cache.Close()
	return nil
}
