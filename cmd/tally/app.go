package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/aggregate"
	"github.com/Veraticus/tally/internal/category"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/config"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/llm"
	"github.com/Veraticus/tally/internal/storage"
	"github.com/Veraticus/tally/internal/suggest"
)

// app wires the domain components to the SQLite store for one command.
type app struct {
	store     *storage.SQLiteStorage
	registry  *category.Registry
	ledger    *ledger.Ledger
	engine    *aggregate.Engine
	backend   *llm.Backend
	suggester *suggest.Service
	settings  config.SuggestSettings
	logger    *slog.Logger
}

// openApp opens the database and restores the registry and ledger from it.
func openApp(ctx context.Context) (*app, error) {
	v := viper.GetViper()
	logger := slog.Default()

	store, err := storage.NewSQLiteStorage(config.DatabasePath(v))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	a := &app{store: store, logger: logger}
	if err := a.restore(ctx, v); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) restore(ctx context.Context, v *viper.Viper) error {
	a.registry = category.NewRegistry(
		category.WithRecorder(a.store),
		category.WithLogger(a.logger),
	)
	custom, err := a.store.GetCustomCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	if err := a.registry.Restore(custom); err != nil {
		return fmt.Errorf("failed to restore categories: %w", err)
	}

	a.ledger = ledger.New(a.registry,
		ledger.WithRecorder(a.store),
		ledger.WithLogger(a.logger),
	)
	txns, err := a.store.GetTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	if err := a.ledger.Restore(txns); err != nil {
		return fmt.Errorf("failed to restore transactions: %w", err)
	}

	weekStart, err := config.WeekStart(v)
	if err != nil {
		return err
	}
	a.engine = aggregate.NewEngine(a.registry, aggregate.WithWeekStart(weekStart))

	a.settings, err = config.LoadSuggestSettings(v)
	if err != nil {
		return err
	}

	a.logger.Debug("restored ledger",
		"custom_categories", len(custom),
		"transactions", len(txns))
	return nil
}

// enableSuggestions connects the configured LLM provider. Without one the
// app keeps working and simply never suggests.
func (a *app) enableSuggestions() bool {
	if a.suggester != nil {
		return true
	}

	cfg, err := config.LoadLLMConfig(viper.GetViper())
	if err != nil {
		if errors.Is(err, common.ErrMissingConfig) {
			a.logger.Debug("category suggestions disabled", "reason", err)
		} else {
			a.logger.Warn("category suggestions disabled", "error", err)
		}
		return false
	}

	backend, err := llm.NewBackend(cfg, a.logger)
	if err != nil {
		a.logger.Warn("category suggestions disabled", "error", err)
		return false
	}

	a.backend = backend
	a.suggester = suggest.NewService(backend, a.registry,
		suggest.WithTimeout(a.settings.Timeout),
		suggest.WithLogger(a.logger),
	)
	return true
}

// newSession starts a suggestion session for one interactive entry.
func (a *app) newSession() *suggest.Session {
	return suggest.NewSession(a.suggester,
		suggest.WithDebounce(a.settings.Debounce),
		suggest.WithMinLength(a.settings.MinLength),
	)
}

func (a *app) Close() error {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("failed to close LLM backend", "error", err)
		}
	}
	return a.store.Close()
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) (err error) {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close database: %w", closeErr)
		}
	}()
	return fn(a)
}
