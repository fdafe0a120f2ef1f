package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tmsiti/backend/internal/models"
)

const categoryNotFound = "Category not found"

const categoryColumns = `id, name, description, document_type, parent_id, sort_order, is_active, created_at`

// CategoryRepository stores the document category tree.
type CategoryRepository struct {
	DB *sql.DB
}

// NewCategoryRepository creates a CategoryRepository over db.
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func scanCategory(row rowScanner) (*models.DocumentCategory, error) {
	var (
		c           models.DocumentCategory
		name, descr string
	)
	if err := row.Scan(&c.ID, &name, &descr, &c.DocumentType, &c.ParentID, &c.Order, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(name, &c.Name); err != nil {
		return nil, err
	}
	if err := decodeJSON(descr, &c.Description); err != nil {
		return nil, err
	}
	return &c, nil
}

// All returns every category, active or not.
func (r *CategoryRepository) All(ctx context.Context) ([]models.DocumentCategory, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+categoryColumns+` FROM document_categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []models.DocumentCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// Get returns the category with id.
func (r *CategoryRepository) Get(ctx context.Context, id int64) (*models.DocumentCategory, error) {
	c, err := scanCategory(r.DB.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM document_categories WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, categoryNotFound)
	}
	return c, nil
}

// Create inserts c and fills in its ID.
func (r *CategoryRepository) Create(ctx context.Context, c *models.DocumentCategory) error {
	name, err := encodeJSON(c.Name)
	if err != nil {
		return err
	}
	descr, err := encodeJSON(c.Description)
	if err != nil {
		return err
	}
	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO document_categories (name, description, document_type, parent_id, sort_order, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, name, descr, c.DocumentType, c.ParentID, c.Order, c.IsActive, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Update replaces every mutable field of the category identified by c.ID.
func (r *CategoryRepository) Update(ctx context.Context, c *models.DocumentCategory) error {
	name, err := encodeJSON(c.Name)
	if err != nil {
		return err
	}
	descr, err := encodeJSON(c.Description)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE document_categories
		   SET name = $1, description = $2, document_type = $3, parent_id = $4, sort_order = $5, is_active = $6
		 WHERE id = $7
	`, name, descr, c.DocumentType, c.ParentID, c.Order, c.IsActive, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return checkAffected(res, categoryNotFound)
}

// Delete removes the category with id together with its descendants.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM document_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return checkAffected(res, categoryNotFound)
}
