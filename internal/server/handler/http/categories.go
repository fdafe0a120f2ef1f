package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/hierarchy"
	"github.com/tmsiti/backend/internal/i18n"
	"github.com/tmsiti/backend/internal/models"
	"github.com/tmsiti/backend/internal/server/respond"
	"github.com/tmsiti/backend/internal/service"
)

// CategoryService defines the category operations required by
// CategoryHandler.
type CategoryService interface {
	Tree(ctx context.Context, documentType string) ([]*hierarchy.Tree[models.DocumentCategory], error)
	Category(ctx context.Context, id int64) (*hierarchy.Tree[models.DocumentCategory], error)
	Create(ctx context.Context, in service.CategoryInput) (*models.DocumentCategory, error)
	Update(ctx context.Context, id int64, in service.CategoryInput) (*models.DocumentCategory, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryHandler serves the document category tree.
type CategoryHandler struct {
	CategoryService CategoryService
	Log             *zap.Logger
}

// List handles GET /api/documents/categories[?document_type=].
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	trees, err := h.CategoryService.Tree(r.Context(), r.URL.Query().Get("document_type"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	tag := i18n.ResolveTag(r)
	out := make([]*CategoryView, 0, len(trees))
	for _, t := range trees {
		out = append(out, categoryView(t, tag))
	}
	respond.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/documents/categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	t, err := h.CategoryService.Category(r.Context(), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, categoryView(t, i18n.ResolveTag(r)))
}

// Create handles POST /api/documents/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.CategoryService.Create(r.Context(), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, categoryLeaf(c, i18n.ResolveTag(r)))
}

// Update handles PUT /api/documents/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in service.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.CategoryService.Update(r.Context(), id, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, categoryLeaf(c, i18n.ResolveTag(r)))
}

// Delete handles DELETE /api/documents/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.CategoryService.Delete(r.Context(), id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, message{Message: "Category deleted successfully"})
}
