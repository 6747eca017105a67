package ledger

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// MinDescriptionLength is the minimum number of characters in a trimmed description.
const MinDescriptionLength = 3

// earliestDate is the oldest date the ledger accepts.
var earliestDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// CategoryResolver reports whether a category ID exists.
type CategoryResolver interface {
	Exists(id string) bool
}

// validateDraft checks every field of d and returns all violations at once.
func validateDraft(d Draft, categories CategoryResolver, now time.Time) error {
	verr := &common.ValidationError{}

	if utf8.RuneCountInString(strings.TrimSpace(d.Description)) < MinDescriptionLength {
		verr.Add("description", fmt.Sprintf("must be at least %d characters", MinDescriptionLength))
	}

	switch {
	case !d.Amount.GreaterThan(decimal.Zero):
		verr.Add("amount", "must be positive")
	case !d.Amount.Equal(d.Amount.Truncate(2)):
		verr.Add("amount", "cannot have more than 2 decimal places")
	}

	switch {
	case d.Date.IsZero():
		verr.Add("date", "is required")
	case d.Date.After(now):
		verr.Add("date", "cannot be in the future")
	case d.Date.Before(earliestDate):
		verr.Add("date", "cannot be before 1900-01-01")
	}

	if !d.Kind.Valid() {
		verr.Add("kind", "must be income or expense")
	}

	if strings.TrimSpace(d.CategoryID) == "" {
		verr.Add("category", "is required")
	} else if !categories.Exists(d.CategoryID) {
		verr.Add("category", fmt.Sprintf("unknown category %q", d.CategoryID))
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// validateStored checks a persisted transaction before it is restored.
func validateStored(t model.Transaction, categories CategoryResolver) error {
	if t.ID == "" {
		return fmt.Errorf("%w: transaction missing id", common.ErrValidation)
	}
	if !t.Amount.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: transaction %s has non-positive amount", common.ErrValidation, t.ID)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: transaction %s has invalid kind %q", common.ErrValidation, t.ID, t.Kind)
	}
	if !categories.Exists(t.CategoryID) {
		return fmt.Errorf("%w: transaction %s references unknown category %q", common.ErrValidation, t.ID, t.CategoryID)
	}
	return nil
}
