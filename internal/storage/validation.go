package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidCategory    = errors.New("invalid category")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCategory checks the fields the schema requires.
func validateCategory(c model.Category) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCategory)
	}
	if strings.TrimSpace(c.Label) == "" {
		return fmt.Errorf("%w: missing label", ErrInvalidCategory)
	}
	if c.BuiltIn {
		return fmt.Errorf("%w: built-in category %q is not stored", ErrInvalidCategory, c.ID)
	}
	return nil
}

// validateTransaction checks the fields the schema requires.
func validateTransaction(txn model.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if txn.CategoryID == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidTransaction)
	}
	if !txn.Kind.Valid() {
		return fmt.Errorf("%w: invalid kind %q", ErrInvalidTransaction, txn.Kind)
	}
	if !txn.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	return nil
}
