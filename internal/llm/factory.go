package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/common"
)

// Config holds configuration for the LLM backend.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string // overrides the provider endpoint
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration // bounds one shared classification, retries included
	CacheTTL    time.Duration
	RateLimit   int // requests per minute
	Temperature float64
	MaxTokens   int
}

// NewClient creates a raw provider client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	case "":
		return nil, fmt.Errorf("%w: llm.provider is not set", common.ErrMissingConfig)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}
}

// generationDefaults returns the sampling settings with defaults applied.
func generationDefaults(cfg Config) (temperature float64, maxTokens int) {
	temperature = cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}
	maxTokens = cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 100
	}
	return temperature, maxTokens
}
