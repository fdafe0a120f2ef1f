package http

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/auth"
	"github.com/tmsiti/backend/internal/i18n"
	"github.com/tmsiti/backend/internal/middleware"
	"github.com/tmsiti/backend/internal/models"
	"github.com/tmsiti/backend/internal/server/respond"
	"github.com/tmsiti/backend/internal/service"
)

// DocumentService defines the document operations required by
// DocumentHandler.
type DocumentService interface {
	List(ctx context.Context, f models.DocumentFilter) ([]models.Document, error)
	Get(ctx context.Context, id int64) (*models.Document, error)
	Create(ctx context.Context, creator *models.User, in service.DocumentInput) (*models.Document, error)
	Update(ctx context.Context, id int64, in service.DocumentInput) (*models.Document, error)
	Delete(ctx context.Context, id int64) error
	Download(ctx context.Context, id int64, user *models.User, ip, userAgent string) (*service.Download, error)
	AttachFile(ctx context.Context, id int64, a service.Attachment) (string, error)
}

// DocumentHandler serves the document catalogue.
type DocumentHandler struct {
	DocumentService DocumentService
	Log             *zap.Logger
}

// List handles GET /api/documents[?category=&document_type=&featured=].
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.DocumentFilter{
		Category:     q.Get("category"),
		DocumentType: models.DocumentType(q.Get("document_type")),
	}
	if v := q.Get("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respond.Error(w, h.Log, apperr.Validation("featured must be a boolean"))
			return
		}
		f.Featured = &b
	}

	docs, err := h.DocumentService.List(r.Context(), f)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	tag := i18n.ResolveTag(r)
	out := make([]*DocumentView, 0, len(docs))
	for i := range docs {
		out = append(out, documentView(&docs[i], tag))
	}
	respond.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	d, err := h.DocumentService.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, documentView(d, i18n.ResolveTag(r)))
}

// Create handles POST /api/documents. The caller becomes the creator.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.DocumentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	d, err := h.DocumentService.Create(r.Context(), auth.UserFromContext(r.Context()), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, documentView(d, i18n.ResolveTag(r)))
}

// Update handles PUT /api/documents/{id}.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in service.DocumentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	d, err := h.DocumentService.Update(r.Context(), id, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, documentView(d, i18n.ResolveTag(r)))
}

// Delete handles DELETE /api/documents/{id}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.DocumentService.Delete(r.Context(), id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, message{Message: "Document deleted successfully"})
}

// Download handles POST /api/documents/{id}/download.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	res, err := h.DocumentService.Download(r.Context(), id,
		auth.UserFromContext(r.Context()), middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// AttachFile handles POST /api/documents/{id}/file. Only the file metadata
// is recorded.
func (h *DocumentHandler) AttachFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var a service.Attachment
	if err := decodeJSON(w, r, &a); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p, err := h.DocumentService.AttachFile(r.Context(), id, a)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"file_path": p})
}
