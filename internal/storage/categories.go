package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tally/internal/model"
)

// SaveCategory stores a custom category. Saving an ID that already exists
// fails with common.ErrDuplicateEntry.
func (s *SQLiteStorage) SaveCategory(ctx context.Context, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, label, icon, accent_color)
		VALUES (?, ?, ?, ?)`,
		category.ID, category.Label, category.Icon, category.AccentColor)
	if err != nil {
		return wrapWriteError("category "+category.ID, err)
	}

	slog.Debug("saved category", "category_id", category.ID)
	return nil
}

// GetCustomCategories returns every stored category in creation order.
func (s *SQLiteStorage) GetCustomCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, icon, accent_color
		FROM categories
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Label, &c.Icon, &c.AccentColor); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}
