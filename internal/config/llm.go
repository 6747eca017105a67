package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/llm"
)

// LoadLLMConfig reads the llm.* keys. The provider's API key falls back to
// OPENAI_API_KEY or ANTHROPIC_API_KEY.
func LoadLLMConfig(v *viper.Viper) (llm.Config, error) {
	cfg := llm.Config{
		Provider:    strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
		Model:       v.GetString("llm.model"),
		BaseURL:     v.GetString("llm.base_url"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		MaxRetries:  v.GetInt("llm.max_retries"),
		RetryDelay:  v.GetDuration("llm.retry_delay"),
		Timeout:     v.GetDuration("llm.timeout"),
		CacheTTL:    v.GetDuration("llm.cache_ttl"),
		RateLimit:   v.GetInt("llm.rate_limit"),
	}

	var keySetting, keyEnv string
	switch cfg.Provider {
	case "openai":
		keySetting, keyEnv = "llm.openai_api_key", "OPENAI_API_KEY"
	case "anthropic":
		keySetting, keyEnv = "llm.anthropic_api_key", "ANTHROPIC_API_KEY"
	case "":
		return cfg, fmt.Errorf("%w: llm.provider is not set", common.ErrMissingConfig)
	default:
		return cfg, fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, cfg.Provider)
	}

	cfg.APIKey = v.GetString(keySetting)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(keyEnv)
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("%w: %s API key not found in %s or %s", common.ErrMissingConfig, cfg.Provider, keySetting, keyEnv)
	}

	return cfg, nil
}
