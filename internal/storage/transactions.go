package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/model"
)

// Dates are stored as RFC 3339 text so the original offset survives a round trip.
const timeLayout = time.RFC3339Nano

// SaveTransaction appends a transaction.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	createdAt := txn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, description, amount, date, category_id, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.Description,
		txn.Amount.String(),
		txn.Date.Format(timeLayout),
		txn.CategoryID,
		string(txn.Kind),
		createdAt.Format(timeLayout))
	if err != nil {
		return wrapWriteError("transaction "+txn.ID, err)
	}
	return nil
}

// GetTransactions returns every stored transaction, oldest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, date, category_id, kind, created_at
		FROM transactions
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var (
			txn                     model.Transaction
			amount, date, createdAt string
			kind                    string
		)
		if err := rows.Scan(&txn.ID, &txn.Description, &amount, &date, &txn.CategoryID, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if txn.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s has invalid amount %q: %w", txn.ID, amount, err)
		}
		if txn.Date, err = time.Parse(timeLayout, date); err != nil {
			return nil, fmt.Errorf("transaction %s has invalid date %q: %w", txn.ID, date, err)
		}
		if txn.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("transaction %s has invalid created_at %q: %w", txn.ID, createdAt, err)
		}
		txn.Kind = model.Kind(kind)

		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// CountTransactions returns the number of stored transactions.
func (s *SQLiteStorage) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
