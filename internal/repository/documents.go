package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tmsiti/backend/internal/models"
)

const documentNotFound = "Document not found"

const documentColumns = `id, title, description, content, document_type, category, document_number, author,
	issue_date, effective_date, file_path, file_size, file_type, download_count, tags, document_metadata,
	is_active, is_featured, created_at, updated_at, created_by`

// DocumentRepository stores normative documents and their download log.
type DocumentRepository struct {
	DB *sql.DB
}

// NewDocumentRepository creates a DocumentRepository over db.
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d                        models.Document
		title, descr, tags, meta string
	)
	err := row.Scan(
		&d.ID, &title, &descr, &d.Content, &d.DocumentType, &d.Category, &d.DocumentNumber, &d.Author,
		&d.IssueDate, &d.EffectiveDate, &d.FilePath, &d.FileSize, &d.FileType, &d.DownloadCount, &tags, &meta,
		&d.IsActive, &d.IsFeatured, &d.CreatedAt, &d.UpdatedAt, &d.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(title, &d.Title); err != nil {
		return nil, err
	}
	if err := decodeJSON(descr, &d.Description); err != nil {
		return nil, err
	}
	if err := decodeJSON(tags, &d.Tags); err != nil {
		return nil, err
	}
	if err := decodeJSON(meta, &d.Metadata); err != nil {
		return nil, err
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

// List returns active documents matching f, oldest first.
func (r *DocumentRepository) List(ctx context.Context, f models.DocumentFilter) ([]models.Document, error) {
	where := []string{"is_active = TRUE"}
	var args []any
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.DocumentType != "" {
		args = append(args, string(f.DocumentType))
		where = append(where, fmt.Sprintf("document_type = $%d", len(args)))
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		where = append(where, fmt.Sprintf("is_featured = $%d", len(args)))
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// Get returns the document with id regardless of its active flag.
func (r *DocumentRepository) Get(ctx context.Context, id int64) (*models.Document, error) {
	d, err := scanDocument(r.DB.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, documentNotFound)
	}
	return d, nil
}

type documentJSON struct {
	title, descr, tags, meta string
}

func encodeDocument(d *models.Document) (documentJSON, error) {
	var (
		out documentJSON
		err error
	)
	if out.title, err = encodeJSON(d.Title); err != nil {
		return out, err
	}
	if out.descr, err = encodeJSON(d.Description); err != nil {
		return out, err
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	if out.tags, err = encodeJSON(tags); err != nil {
		return out, err
	}
	meta := d.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	out.meta, err = encodeJSON(meta)
	return out, err
}

// Create inserts d and fills in its ID.
func (r *DocumentRepository) Create(ctx context.Context, d *models.Document) error {
	enc, err := encodeDocument(d)
	if err != nil {
		return err
	}
	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO documents (title, description, content, document_type, category, document_number, author,
			issue_date, effective_date, file_path, file_size, file_type, download_count, tags, document_metadata,
			is_active, is_featured, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id
	`,
		enc.title, enc.descr, d.Content, string(d.DocumentType), d.Category, d.DocumentNumber, d.Author,
		d.IssueDate, d.EffectiveDate, d.FilePath, d.FileSize, d.FileType, enc.tags, enc.meta,
		d.IsActive, d.IsFeatured, d.CreatedAt, d.UpdatedAt, d.CreatedBy,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Update replaces the descriptive fields of the document identified by d.ID.
// Download counter, file attachment and authorship are left untouched.
func (r *DocumentRepository) Update(ctx context.Context, d *models.Document) error {
	enc, err := encodeDocument(d)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE documents
		   SET title = $1, description = $2, content = $3, document_type = $4, category = $5,
		       document_number = $6, author = $7, issue_date = $8, effective_date = $9,
		       tags = $10, document_metadata = $11, is_active = $12, is_featured = $13, updated_at = $14
		 WHERE id = $15
	`,
		enc.title, enc.descr, d.Content, string(d.DocumentType), d.Category,
		d.DocumentNumber, d.Author, d.IssueDate, d.EffectiveDate,
		enc.tags, enc.meta, d.IsActive, d.IsFeatured, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return checkAffected(res, documentNotFound)
}

// Delete removes the document with id and its download log.
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return checkAffected(res, documentNotFound)
}

// SetFile records attachment metadata for the document with id.
func (r *DocumentRepository) SetFile(ctx context.Context, id int64, path string, size int64, mime string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE documents SET file_path = $1, file_size = $2, file_type = $3, updated_at = $4 WHERE id = $5
	`, path, size, mime, now, id)
	if err != nil {
		return fmt.Errorf("set document file: %w", err)
	}
	return checkAffected(res, documentNotFound)
}

// RecordDownload increments the download counter of an active document and
// appends entry to the download log in one transaction. It returns the
// document's file path and the new counter value.
func (r *DocumentRepository) RecordDownload(ctx context.Context, entry models.DownloadLog) (*string, int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		path  *string
		count int64
	)
	err = tx.QueryRowContext(ctx, `
		UPDATE documents SET download_count = download_count + 1
		 WHERE id = $1 AND is_active = TRUE
		RETURNING file_path, download_count
	`, entry.DocumentID).Scan(&path, &count)
	if err != nil {
		return nil, 0, notFound(err, documentNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO download_logs (document_id, user_id, ip_address, user_agent, downloaded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.DocumentID, entry.UserID, entry.IPAddress, entry.UserAgent, entry.DownloadedAt); err != nil {
		return nil, 0, fmt.Errorf("insert download log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit: %w", err)
	}
	return path, count, nil
}
