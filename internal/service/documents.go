package service

import (
	"context"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/models"
)

// DocumentRepository defines the persistence operations on documents.
type DocumentRepository interface {
	List(ctx context.Context, f models.DocumentFilter) ([]models.Document, error)
	Get(ctx context.Context, id int64) (*models.Document, error)
	Create(ctx context.Context, d *models.Document) error
	Update(ctx context.Context, d *models.Document) error
	Delete(ctx context.Context, id int64) error
	SetFile(ctx context.Context, id int64, path string, size int64, mime string, now time.Time) error
	// RecordDownload increments the counter of an active document and logs
	// the event atomically, returning the file path and new count.
	RecordDownload(ctx context.Context, entry models.DownloadLog) (*string, int64, error)
}

// DocumentInput carries document fields for create and update. On update,
// nil fields keep their stored value.
type DocumentInput struct {
	Title          models.Localized     `json:"title"`
	Description    models.Localized     `json:"description"`
	Content        *string              `json:"content"`
	DocumentType   *models.DocumentType `json:"document_type"`
	Category       *string              `json:"category"`
	DocumentNumber *string              `json:"document_number"`
	Author         *string              `json:"author"`
	IssueDate      *time.Time           `json:"issue_date"`
	EffectiveDate  *time.Time           `json:"effective_date"`
	Tags           []string             `json:"tags"`
	Metadata       map[string]any       `json:"document_metadata"`
	IsFeatured     *bool                `json:"is_featured"`
	IsActive       *bool                `json:"is_active"`
}

// Download is the result of a recorded download.
type Download struct {
	FilePath      *string `json:"file_path"`
	DownloadCount int64   `json:"download_count"`
}

// Attachment describes an uploaded file. Only metadata is kept; the bytes
// are not stored.
type Attachment struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"file_size"`
	MimeType string `json:"file_type"`
}

// UploadDir is the prefix of generated attachment paths.
const UploadDir = "uploads/documents"

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// DocumentService manages normative documents.
type DocumentService struct {
	repo DocumentRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo DocumentRepository, log *zap.Logger) *DocumentService {
	return &DocumentService{repo: repo, log: log, now: time.Now}
}

// List returns active documents matching f, oldest first.
func (s *DocumentService) List(ctx context.Context, f models.DocumentFilter) ([]models.Document, error) {
	if f.DocumentType != "" && !f.DocumentType.Valid() {
		return nil, apperr.Validation("invalid document_type " + string(f.DocumentType))
	}
	return s.repo.List(ctx, f)
}

// Get returns the document with id.
func (s *DocumentService) Get(ctx context.Context, id int64) (*models.Document, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new document authored by creator.
func (s *DocumentService) Create(ctx context.Context, creator *models.User, in DocumentInput) (*models.Document, error) {
	if len(in.Title) == 0 {
		return nil, apperr.Validation("title is required")
	}
	if in.DocumentType == nil {
		return nil, apperr.Validation("document_type is required")
	}

	now := s.now().UTC()
	d := &models.Document{
		Description: models.Localized{},
		Tags:        []string{},
		Metadata:    map[string]any{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if creator != nil {
		id := creator.ID
		d.CreatedBy = &id
	}
	if err := applyDocumentInput(d, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.log.Info("document created", zap.Int64("id", d.ID), zap.String("type", string(d.DocumentType)))
	return d, nil
}

// Update applies the non-nil fields of in to the document with id.
func (s *DocumentService) Update(ctx context.Context, id int64, in DocumentInput) (*models.Document, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil && len(in.Title) == 0 {
		return nil, apperr.Validation("title must not be empty")
	}
	if err := applyDocumentInput(d, in); err != nil {
		return nil, err
	}
	d.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func applyDocumentInput(d *models.Document, in DocumentInput) error {
	if in.DocumentType != nil {
		if !in.DocumentType.Valid() {
			return apperr.Validation("invalid document_type " + string(*in.DocumentType))
		}
		d.DocumentType = *in.DocumentType
	}
	if in.Title != nil {
		d.Title = in.Title
	}
	if in.Description != nil {
		d.Description = in.Description
	}
	if in.Content != nil {
		d.Content = in.Content
	}
	if in.Category != nil {
		d.Category = in.Category
	}
	if in.DocumentNumber != nil {
		d.DocumentNumber = in.DocumentNumber
	}
	if in.Author != nil {
		d.Author = in.Author
	}
	if in.IssueDate != nil {
		d.IssueDate = in.IssueDate
	}
	if in.EffectiveDate != nil {
		d.EffectiveDate = in.EffectiveDate
	}
	if in.Tags != nil {
		d.Tags = in.Tags
	}
	if in.Metadata != nil {
		d.Metadata = in.Metadata
	}
	if in.IsFeatured != nil {
		d.IsFeatured = *in.IsFeatured
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
	return nil
}

// Delete removes the document with id.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("document deleted", zap.Int64("id", id))
	return nil
}

// Download records a download of the document with id by the given client.
// user is nil for anonymous downloads.
func (s *DocumentService) Download(ctx context.Context, id int64, user *models.User, ip, userAgent string) (*Download, error) {
	entry := models.DownloadLog{
		DocumentID:   id,
		IPAddress:    ip,
		UserAgent:    userAgent,
		DownloadedAt: s.now().UTC(),
	}
	if user != nil {
		uid := user.ID
		entry.UserID = &uid
	}
	p, count, err := s.repo.RecordDownload(ctx, entry)
	if err != nil {
		return nil, err
	}
	return &Download{FilePath: p, DownloadCount: count}, nil
}

// AttachFile records attachment metadata for the document with id and
// returns the generated storage path.
func (s *DocumentService) AttachFile(ctx context.Context, id int64, a Attachment) (string, error) {
	name := strings.TrimSpace(a.FileName)
	if name == "" {
		return "", apperr.Validation("file_name is required")
	}
	if a.Size < 0 {
		return "", apperr.Validation("file_size must not be negative")
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	mimeType := a.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(ext)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	p := path.Join(UploadDir, strconv.FormatInt(id, 10), uuid.NewString()+ext)
	if err := s.repo.SetFile(ctx, id, p, a.Size, mimeType, s.now().UTC()); err != nil {
		return "", err
	}
	s.log.Info("document file attached", zap.Int64("id", id), zap.String("path", p), zap.Int64("size", a.Size))
	return p, nil
}
