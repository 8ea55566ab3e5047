package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/production-planner/pkg/planner"
)

// ItemStore handles item data access.
type ItemStore struct {
	db *DB
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

// GetItem retrieves a single item by ID. It returns nil when the item does
// not exist.
func (s *ItemStore) GetItem(ctx context.Context, id string) (*planner.Item, error) {
	item := &planner.Item{ID: id}

	err := s.db.QueryRowContext(ctx, `
		SELECT name, category FROM items WHERE id = ?
	`, id).Scan(&item.Name, &item.Category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}

	return item, nil
}

// ListItemsByCategory lists item ids in a category.
func (s *ItemStore) ListItemsByCategory(ctx context.Context, category string) ([]string, error) {
	ids, err := queryStrings(ctx, s.db, `
		SELECT id FROM items WHERE category = ? ORDER BY id
	`, category)
	if err != nil {
		return nil, fmt.Errorf("listing items by category: %w", err)
	}
	return ids, nil
}

// CountItems returns the total number of items.
func (s *ItemStore) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// BulkInsertItems inserts or replaces multiple items in a transaction.
func (s *ItemStore) BulkInsertItems(ctx context.Context, items []planner.Item) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO items (id, name, category) VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing item statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, item := range items {
			if item.ID == "" {
				return fmt.Errorf("item %q has no id", item.Name)
			}
			if _, err := stmt.ExecContext(ctx, item.ID, item.Name, item.Category); err != nil {
				return fmt.Errorf("inserting item %s: %w", item.ID, err)
			}
		}
		return nil
	})
}
