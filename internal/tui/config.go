package tui

import (
	"context"
	"time"

	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/suggest"
	"github.com/Veraticus/tally/internal/tui/themes"
)

// Appender records a completed form.
type Appender interface {
	Append(ctx context.Context, d ledger.Draft) (model.Transaction, error)
}

// Categories lists the categories offered for a kind.
type Categories interface {
	ForKind(kind model.Kind) []model.Category
}

// Config holds TUI configuration.
type Config struct {
	Theme       themes.Theme
	Ledger      Appender
	Categories  Categories
	Suggestions *suggest.Session
	Now         func() time.Time
	Width       int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme: themes.Default,
		Now:   time.Now,
		Width: 72,
	}
}

// WithSuggestions enables live category suggestions.
func WithSuggestions(s *suggest.Session) Option {
	return func(c *Config) {
		c.Suggestions = s
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithClock sets the clock used for the default date.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithWidth sets the form width.
func WithWidth(width int) Option {
	return func(c *Config) {
		c.Width = width
	}
}
