package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/sheets"
	"github.com/Veraticus/tally/internal/suggest"
)

// SetDefaults registers the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", filepath.Join(DataDir(), "tally.db"))
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 100)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.cache_ttl", 15*time.Minute)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("suggest.timeout", suggest.DefaultTimeout)
	v.SetDefault("suggest.debounce", suggest.DefaultDebounce)
	v.SetDefault("suggest.min_length", suggest.DefaultMinLength)
	v.SetDefault("summary.week_start", "sunday")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("sheets.token_file", filepath.Join(ConfigDir(), "sheets-token.json"))
	v.SetDefault("sheets.callback_addr", sheets.DefaultCallbackAddr)
	v.SetDefault("tui.theme", "default")
	v.SetDefault("tui.width", 72)
}

// DatabasePath returns the expanded database path.
func DatabasePath(v *viper.Viper) string {
	return ExpandPath(v.GetString("database.path"))
}

// SuggestSettings tunes suggestion timing for interactive entry.
type SuggestSettings struct {
	Timeout   time.Duration
	Debounce  time.Duration
	MinLength int
}

// LoadSuggestSettings reads the suggest.* keys.
func LoadSuggestSettings(v *viper.Viper) (SuggestSettings, error) {
	s := SuggestSettings{
		Timeout:   v.GetDuration("suggest.timeout"),
		Debounce:  v.GetDuration("suggest.debounce"),
		MinLength: v.GetInt("suggest.min_length"),
	}
	if s.Timeout <= 0 {
		return s, fmt.Errorf("%w: suggest.timeout must be positive", common.ErrInvalidConfig)
	}
	if s.Debounce < 0 {
		return s, fmt.Errorf("%w: suggest.debounce cannot be negative", common.ErrInvalidConfig)
	}
	if s.MinLength < 1 {
		return s, fmt.Errorf("%w: suggest.min_length must be at least 1", common.ErrInvalidConfig)
	}
	return s, nil
}

// WeekStart reads summary.week_start.
func WeekStart(v *viper.Viper) (time.Weekday, error) {
	return ParseWeekday(v.GetString("summary.week_start"))
}

// ParseWeekday accepts a full or three-letter English day name.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: unknown weekday %q", common.ErrInvalidConfig, s)
}
