package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/auth"
	"github.com/tmsiti/backend/internal/models"
	"github.com/tmsiti/backend/internal/server/respond"
	"github.com/tmsiti/backend/internal/service"
)

// UserService defines the administration operations required by
// UserHandler.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, actor *models.User, id int64, upd service.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

// UserHandler serves account administration.
type UserHandler struct {
	UserService UserService
	Log         *zap.Logger
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.List(r.Context())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.UserService.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// Update handles PUT /api/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var upd service.UserUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.UserService.Update(r.Context(), auth.UserFromContext(r.Context()), id, upd)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.UserService.Delete(r.Context(), auth.UserFromContext(r.Context()), id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, message{Message: "User deleted successfully"})
}
