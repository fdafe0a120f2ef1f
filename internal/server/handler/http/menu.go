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

// MenuService defines the menu operations required by MenuHandler.
type MenuService interface {
	Tree(ctx context.Context) ([]*hierarchy.Tree[models.MenuItem], error)
	Item(ctx context.Context, id int64) (*hierarchy.Tree[models.MenuItem], error)
	Create(ctx context.Context, in service.MenuInput) (*models.MenuItem, error)
	Update(ctx context.Context, id int64, in service.MenuInput) (*models.MenuItem, error)
	Delete(ctx context.Context, id int64) error
}

// MenuHandler serves the navigation menu.
type MenuHandler struct {
	MenuService MenuService
	Log         *zap.Logger
}

// List handles GET /api/menu: active roots ordered, with nested children.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	trees, err := h.MenuService.Tree(r.Context())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	tag := i18n.ResolveTag(r)
	out := make([]*MenuItemView, 0, len(trees))
	for _, t := range trees {
		out = append(out, menuView(t, tag))
	}
	respond.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/menu/{id}.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	t, err := h.MenuService.Item(r.Context(), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, menuView(t, i18n.ResolveTag(r)))
}

// Create handles POST /api/menu.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.MenuInput
	if err := decodeJSON(w, r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	item, err := h.MenuService.Create(r.Context(), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, menuLeaf(item, i18n.ResolveTag(r)))
}

// Update handles PUT /api/menu/{id}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in service.MenuInput
	if err := decodeJSON(w, r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	item, err := h.MenuService.Update(r.Context(), id, in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, menuLeaf(item, i18n.ResolveTag(r)))
}

// Delete handles DELETE /api/menu/{id}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.MenuService.Delete(r.Context(), id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, message{Message: "Menu item deleted successfully"})
}
