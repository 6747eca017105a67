package storage

import (
	"context"
	"fmt"
)

// IsImported reports whether a statement entry has been imported before.
func (s *SQLiteStorage) IsImported(ctx context.Context, externalID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM imports WHERE external_id = ?`, externalID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check import %s: %w", externalID, err)
	}
	return count > 0, nil
}

// RecordImport marks a statement entry as imported. An empty transactionID
// records an entry that was seen but skipped.
func (s *SQLiteStorage) RecordImport(ctx context.Context, externalID, transactionID, source string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO imports (external_id, transaction_id, source)
		VALUES (?, NULLIF(?, ''), ?)`,
		externalID, transactionID, source)
	if err != nil {
		return wrapWriteError("import "+externalID, err)
	}
	return nil
}
