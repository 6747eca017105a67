// Package ledger implements the append-only transaction ledger.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// Draft is the user input for a new transaction.
type Draft struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	CategoryID  string
	Kind        model.Kind
}

// Recorder persists transactions as they are appended.
type Recorder interface {
	SaveTransaction(ctx context.Context, txn model.Transaction) error
}

// Ledger is an ordered, append-only collection of transactions, newest
// first. Appends are serialized; reads return snapshots.
type Ledger struct {
	categories CategoryResolver
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	entries    []model.Transaction // newest first
	mu         sync.RWMutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for the future-date check.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithIDGenerator overrides transaction ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) {
		l.newID = gen
	}
}

// WithRecorder persists every appended transaction before it becomes visible.
func WithRecorder(r Recorder) Option {
	return func(l *Ledger) {
		l.recorder = r
	}
}

// WithLogger sets the ledger logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// New creates an empty ledger that validates category references against categories.
func New(categories CategoryResolver, opts ...Option) *Ledger {
	l := &Ledger{
		categories: categories,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = common.LoggerOrDefault(l.logger)
	return l
}

// Append validates d and, if valid, records it as the newest transaction.
// On any failure the ledger is left unchanged.
func (l *Ledger) Append(ctx context.Context, d Draft) (model.Transaction, error) {
	now := l.now()
	if err := validateDraft(d, l.categories, now); err != nil {
		return model.Transaction{}, err
	}

	txn := model.Transaction{
		ID:          l.newID(),
		Description: strings.TrimSpace(d.Description),
		Amount:      d.Amount,
		Date:        d.Date,
		CategoryID:  d.CategoryID,
		Kind:        d.Kind,
		CreatedAt:   now,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.recorder != nil {
		if err := l.recorder.SaveTransaction(ctx, txn); err != nil {
			return model.Transaction{}, fmt.Errorf("failed to save transaction: %w", err)
		}
	}

	l.entries = append([]model.Transaction{txn}, l.entries...)

	l.logger.Debug("appended transaction",
		"transaction_id", txn.ID,
		"category_id", txn.CategoryID,
		"kind", txn.Kind,
		"amount", txn.Amount.String())
	return txn, nil
}

// Restore loads previously persisted transactions, oldest first, without
// recording them again. Nothing is loaded if any transaction is invalid.
func (l *Ledger) Restore(txns []model.Transaction) error {
	for _, t := range txns {
		if err := validateStored(t, l.categories); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Restored transactions predate anything appended in this process.
	for i := len(txns) - 1; i >= 0; i-- {
		l.entries = append(l.entries, txns[i])
	}

	l.logger.Debug("restored transactions", "count", len(txns))
	return nil
}

// All returns a snapshot of every transaction, newest first.
func (l *Ledger) All() []model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of transactions in the ledger.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
