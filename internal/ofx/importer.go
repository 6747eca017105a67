package ofx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tally/internal/category"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/suggest"
)

const importSource = "ofx"

// Appender adds validated transactions to the ledger.
type Appender interface {
	Append(ctx context.Context, d ledger.Draft) (model.Transaction, error)
}

// Tracker remembers which statement entries were already imported.
type Tracker interface {
	IsImported(ctx context.Context, externalID string) (bool, error)
	RecordImport(ctx context.Context, externalID, transactionID, source string) error
}

// Suggester proposes a category for an expense description.
type Suggester interface {
	Suggest(ctx context.Context, description string) (model.Suggestion, bool)
}

// Result summarizes one import run.
type Result struct {
	Imported   int
	Duplicates int
	Invalid    int
	Suggested  int
}

// Importer appends statement entries to the ledger.
type Importer struct {
	ledger     Appender
	tracker    Tracker
	suggester  Suggester
	logger     *slog.Logger
	onProgress func(done, total int)
	minLength  int
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithTracker skips entries imported by an earlier run.
func WithTracker(t Tracker) ImporterOption {
	return func(i *Importer) {
		i.tracker = t
	}
}

// WithSuggester categorizes expenses with accepted suggestions instead of
// filing everything under "other".
func WithSuggester(s Suggester) ImporterOption {
	return func(i *Importer) {
		i.suggester = s
	}
}

// WithMinLength sets the shortest description sent for a suggestion.
func WithMinLength(n int) ImporterOption {
	return func(i *Importer) {
		i.minLength = n
	}
}

// WithProgress reports progress after each entry.
func WithProgress(fn func(done, total int)) ImporterOption {
	return func(i *Importer) {
		i.onProgress = fn
	}
}

// WithLogger sets the importer logger.
func WithLogger(logger *slog.Logger) ImporterOption {
	return func(i *Importer) {
		i.logger = logger
	}
}

// NewImporter creates an importer that appends to l.
func NewImporter(l Appender, opts ...ImporterOption) *Importer {
	i := &Importer{ledger: l, minLength: suggest.DefaultMinLength}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = common.LoggerOrDefault(i.logger)
	return i
}

// Import appends each entry in order. Entries that fail ledger validation
// (too-short description, future date) are skipped and counted; any other
// failure stops the import.
func (i *Importer) Import(ctx context.Context, entries []Entry) (Result, error) {
	var result Result

	for n, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if i.tracker != nil {
			seen, err := i.tracker.IsImported(ctx, entry.ExternalID)
			if err != nil {
				return result, fmt.Errorf("failed to check import state: %w", err)
			}
			if seen {
				result.Duplicates++
				i.progress(n+1, len(entries))
				continue
			}
		}

		draft := ledger.Draft{
			Description: entry.Description,
			Amount:      entry.Amount,
			Date:        entry.Date,
			Kind:        entry.Kind,
			CategoryID:  category.Other,
		}
		suggested := false
		if s, ok := i.suggestFor(ctx, entry); ok {
			draft.CategoryID = s.CategoryID
			suggested = true
		}

		txn, err := i.ledger.Append(ctx, draft)
		switch {
		case errors.Is(err, common.ErrValidation):
			result.Invalid++
			i.logger.Warn("skipping invalid statement entry",
				"external_id", entry.ExternalID,
				"error", err)
		case err != nil:
			return result, fmt.Errorf("failed to import %s: %w", entry.ExternalID, err)
		default:
			result.Imported++
			if suggested {
				result.Suggested++
			}
		}

		if i.tracker != nil {
			if err := i.tracker.RecordImport(ctx, entry.ExternalID, txn.ID, importSource); err != nil {
				return result, fmt.Errorf("failed to record import: %w", err)
			}
		}
		i.progress(n+1, len(entries))
	}

	i.logger.Info("statement imported",
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"invalid", result.Invalid,
		"suggested", result.Suggested)
	return result, nil
}

// suggestFor applies the same preconditions as interactive entry: expenses
// only, with a description long enough to classify.
func (i *Importer) suggestFor(ctx context.Context, entry Entry) (model.Suggestion, bool) {
	if i.suggester == nil || entry.Kind != model.KindExpense {
		return model.Suggestion{}, false
	}
	if !suggest.LongEnough(entry.Description, i.minLength) {
		return model.Suggestion{}, false
	}
	return i.suggester.Suggest(ctx, entry.Description)
}

func (i *Importer) progress(done, total int) {
	if i.onProgress != nil {
		i.onProgress(done, total)
	}
}
