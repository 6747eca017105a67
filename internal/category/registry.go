// Package category implements the category registry: the built-in and
// user-defined categories that transactions may reference.
package category

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// MinLabelLength is the minimum number of characters in a trimmed label.
const MinLabelLength = 2

var whitespace = regexp.MustCompile(`\s`)

// Recorder persists custom categories as they are registered.
type Recorder interface {
	SaveCategory(ctx context.Context, category model.Category) error
}

// Registry holds every known category. Built-in categories come first,
// followed by custom categories in creation order. Categories are never
// removed.
type Registry struct {
	logger   *slog.Logger
	recorder Recorder
	byID     map[string]int
	ordered  []model.Category
	mu       sync.RWMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithRecorder persists every custom category registered after construction.
func WithRecorder(r Recorder) Option {
	return func(reg *Registry) {
		reg.recorder = r
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(reg *Registry) {
		reg.logger = logger
	}
}

// NewRegistry creates a registry seeded with the built-in defaults.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byID: make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = common.LoggerOrDefault(r.logger)

	for _, c := range Defaults() {
		r.byID[c.ID] = len(r.ordered)
		r.ordered = append(r.ordered, c)
	}
	return r
}

// Slugify derives a category ID from its label: lowercased, with every
// whitespace character replaced by a hyphen.
func Slugify(label string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "-")
}

// Register creates a custom category. It fails with a validation error when
// the trimmed label is too short or its derived ID is already taken.
func (r *Registry) Register(ctx context.Context, label, icon string) (model.Category, error) {
	cat, err := r.prepare(label, icon)
	if err != nil {
		return model.Category{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[cat.ID]; exists {
		return model.Category{}, common.NewValidationError("label",
			fmt.Sprintf("category %q already exists", cat.ID))
	}

	if r.recorder != nil {
		if err := r.recorder.SaveCategory(ctx, cat); err != nil {
			return model.Category{}, fmt.Errorf("failed to save category: %w", err)
		}
	}

	r.byID[cat.ID] = len(r.ordered)
	r.ordered = append(r.ordered, cat)

	r.logger.Info("registered category", "category_id", cat.ID, "label", cat.Label)
	return cat, nil
}

func (r *Registry) prepare(label, icon string) (model.Category, error) {
	label = strings.TrimSpace(label)
	if utf8.RuneCountInString(label) < MinLabelLength {
		return model.Category{}, common.NewValidationError("label",
			fmt.Sprintf("must be at least %d characters", MinLabelLength))
	}

	icon = strings.TrimSpace(icon)
	if icon == "" {
		icon = model.DefaultIcon
	}

	return model.Category{
		ID:    Slugify(label),
		Label: label,
		Icon:  icon,
	}, nil
}

// Restore re-adds previously persisted custom categories without recording
// them again. Categories whose ID is already present are rejected.
func (r *Registry) Restore(categories []model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range categories {
		if c.ID == "" || c.ID != Slugify(c.Label) {
			return fmt.Errorf("%w: category %q has inconsistent id %q", common.ErrValidation, c.Label, c.ID)
		}
		if _, exists := r.byID[c.ID]; exists {
			return fmt.Errorf("%w: category %q", common.ErrDuplicateEntry, c.ID)
		}
		c.BuiltIn = false
		if c.Icon == "" {
			c.Icon = model.DefaultIcon
		}
		r.byID[c.ID] = len(r.ordered)
		r.ordered = append(r.ordered, c)
	}

	r.logger.Debug("restored custom categories", "count", len(categories))
	return nil
}

// List returns all categories: built-ins first, then custom categories in
// creation order.
func (r *Registry) List() []model.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Category, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Resolve looks up a category by ID.
func (r *Registry) Resolve(id string) (model.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return model.Category{}, false
	}
	return r.ordered[idx], true
}

// Exists reports whether a category ID is registered.
func (r *Registry) Exists(id string) bool {
	_, ok := r.Resolve(id)
	return ok
}

// MatchLabel finds a category whose label equals label, ignoring case and
// surrounding whitespace.
func (r *Registry) MatchLabel(label string) (model.Category, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return model.Category{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.ordered {
		if strings.EqualFold(c.Label, label) {
			return c, true
		}
	}
	return model.Category{}, false
}

// Labels returns every category label in list order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := make([]string, len(r.ordered))
	for i, c := range r.ordered {
		labels[i] = c.Label
	}
	return labels
}

// ForKind returns the categories offered when entering a transaction of the
// given kind. Income is limited to salary and the catch-all; expenses get
// everything except salary.
func (r *Registry) ForKind(kind model.Kind) []model.Category {
	all := r.List()
	out := make([]model.Category, 0, len(all))

	for _, c := range all {
		switch kind {
		case model.KindIncome:
			if c.ID == Salary || c.ID == Other {
				out = append(out, c)
			}
		default:
			if c.ID != Salary {
				out = append(out, c)
			}
		}
	}
	return out
}
