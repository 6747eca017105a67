package suggest

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/tally/internal/model"
)

const (
	// DefaultDebounce is how long a description must stay unchanged before
	// it is sent for classification.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultMinLength is the shortest trimmed description worth classifying.
	DefaultMinLength = 5
)

// LongEnough reports whether the trimmed description has at least
// minLength characters. Shorter descriptions are never sent.
func LongEnough(description string, minLength int) bool {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return utf8.RuneCountInString(strings.TrimSpace(description)) >= minLength
}

// Suggester produces a suggestion for a description, absorbing failures.
type Suggester interface {
	Suggest(ctx context.Context, description string) (model.Suggestion, bool)
}

// Ticket identifies one suggestion request. It goes stale as soon as the
// description, kind or category selection changes again.
type Ticket struct {
	Description string
	Generation  uint64
	Eligible    bool
}

// Session tracks the suggestion state of one transaction being entered.
// Each edit bumps a generation counter; a result is applied only if no
// edit happened while it was being computed. At most one suggestion is
// pending, and it becomes a category choice only through Accept.
type Session struct {
	suggester  Suggester
	cancel     context.CancelFunc
	pending    *model.Suggestion
	kind       model.Kind
	desc       string
	debounce   time.Duration
	minLength  int
	generation uint64
	mu         sync.Mutex
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithMinLength overrides the minimum description length.
func WithMinLength(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.minLength = n
		}
	}
}

// NewSession creates a session for a new expense.
func NewSession(suggester Suggester, opts ...SessionOption) *Session {
	s := &Session{
		suggester: suggester,
		kind:      model.KindExpense,
		debounce:  DefaultDebounce,
		minLength: DefaultMinLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDescription records an edit. Any pending suggestion is cleared and any
// in-flight request is canceled. An unchanged description is not an edit.
func (s *Session) SetDescription(description string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if description == s.desc {
		return Ticket{Description: description, Generation: s.generation}
	}
	s.desc = description
	return s.invalidateLocked()
}

// SetKind records a change of transaction kind. Only expenses are eligible.
func (s *Session) SetKind(kind model.Kind) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == s.kind {
		return Ticket{Description: s.desc, Generation: s.generation}
	}
	s.kind = kind
	return s.invalidateLocked()
}

// SelectCategory records an explicit category choice by the user, which
// discards any pending or in-flight suggestion.
func (s *Session) SelectCategory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked()
}

func (s *Session) invalidateLocked() Ticket {
	s.generation++
	s.pending = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	return Ticket{
		Description: s.desc,
		Generation:  s.generation,
		Eligible:    s.kind == model.KindExpense && LongEnough(s.desc, s.minLength),
	}
}

// Run waits out the debounce interval and then asks for a suggestion for
// t. It returns the suggestion only if it was applied, which happens when
// t is still the latest ticket once the answer arrives.
func (s *Session) Run(ctx context.Context, t Ticket) (model.Suggestion, bool) {
	if !t.Eligible || s.suggester == nil {
		return model.Suggestion{}, false
	}

	if s.debounce > 0 {
		timer := time.NewTimer(s.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return model.Suggestion{}, false
		case <-timer.C:
		}
	}

	s.mu.Lock()
	if t.Generation != s.generation {
		s.mu.Unlock()
		return model.Suggestion{}, false
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	suggestion, ok := s.suggester.Suggest(reqCtx, t.Description)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Generation != s.generation {
		return model.Suggestion{}, false
	}
	s.cancel = nil
	if !ok {
		return model.Suggestion{}, false
	}
	s.pending = &suggestion
	return suggestion, true
}

// Pending returns the suggestion currently offered to the user, if any.
func (s *Session) Pending() (model.Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return model.Suggestion{}, false
	}
	return *s.pending, true
}

// Accept takes the pending suggestion as the user's category choice and
// clears it.
func (s *Session) Accept() (model.Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return model.Suggestion{}, false
	}
	accepted := *s.pending
	s.pending = nil
	return accepted, true
}

// Generation returns the current edit generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Close cancels any in-flight request.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
