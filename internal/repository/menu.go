package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tmsiti/backend/internal/models"
)

const menuNotFound = "Menu item not found"

const menuColumns = `id, title, url, icon, sort_order, parent_id, permissions, is_active, created_at`

// MenuRepository stores navigation menu items as a flat table of nodes.
type MenuRepository struct {
	DB *sql.DB
}

// NewMenuRepository creates a MenuRepository over db.
func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{DB: db}
}

func scanMenuItem(row rowScanner) (*models.MenuItem, error) {
	var (
		m            models.MenuItem
		title, perms string
	)
	if err := row.Scan(&m.ID, &title, &m.URL, &m.Icon, &m.Order, &m.ParentID, &perms, &m.IsActive, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(title, &m.Title); err != nil {
		return nil, err
	}
	if err := decodeJSON(perms, &m.Permissions); err != nil {
		return nil, err
	}
	return &m, nil
}

// All returns every menu item, active or not.
func (r *MenuRepository) All(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+menuColumns+` FROM menu_items ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// Get returns the menu item with id.
func (r *MenuRepository) Get(ctx context.Context, id int64) (*models.MenuItem, error) {
	m, err := scanMenuItem(r.DB.QueryRowContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, menuNotFound)
	}
	return m, nil
}

// Create inserts m and fills in its ID.
func (r *MenuRepository) Create(ctx context.Context, m *models.MenuItem) error {
	title, err := encodeJSON(m.Title)
	if err != nil {
		return err
	}
	perms, err := encodeJSON(m.Permissions)
	if err != nil {
		return err
	}
	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO menu_items (title, url, icon, sort_order, parent_id, permissions, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, title, m.URL, m.Icon, m.Order, m.ParentID, perms, m.IsActive, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

// Update replaces every mutable field of the item identified by m.ID.
func (r *MenuRepository) Update(ctx context.Context, m *models.MenuItem) error {
	title, err := encodeJSON(m.Title)
	if err != nil {
		return err
	}
	perms, err := encodeJSON(m.Permissions)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE menu_items
		   SET title = $1, url = $2, icon = $3, sort_order = $4, parent_id = $5, permissions = $6, is_active = $7
		 WHERE id = $8
	`, title, m.URL, m.Icon, m.Order, m.ParentID, perms, m.IsActive, m.ID)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	return checkAffected(res, menuNotFound)
}

// Delete removes the item with id together with its descendants.
func (r *MenuRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	return checkAffected(res, menuNotFound)
}
