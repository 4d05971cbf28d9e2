package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"soulkitchen/internal/database"
	"soulkitchen/internal/models"
)

// Store provides read-only access to the category and menu tables. Menu
// management belongs to an external system; nothing here writes.
type Store struct {
	db *database.DB
}

// NewStore creates a catalog store over the shared connection pool.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Categories returns all categories.
func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.Query(ctx, database.GetCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// MenuItems returns menu items, optionally filtered by category.
// categoryID == 0 means no filter.
func (s *Store) MenuItems(ctx context.Context, categoryID int) ([]models.MenuItem, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if categoryID > 0 {
		rows, err = s.db.Query(ctx, database.GetMenuItemsByCategorySQL, categoryID)
	} else {
		rows, err = s.db.Query(ctx, database.GetMenuItemsSQL)
	}
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var m models.MenuItem
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price, &m.ImageURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, m)
	}

	return items, rows.Err()
}

// MenuItem returns a single menu item by id, or models.ErrNotFound.
func (s *Store) MenuItem(ctx context.Context, id int) (*models.MenuItem, error) {
	var m models.MenuItem
	err := s.db.QueryRow(ctx, database.GetMenuItemSQL, id).Scan(
		&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price, &m.ImageURL, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("menu item %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("query menu item %d: %w", id, err)
	}
	return &m, nil
}
