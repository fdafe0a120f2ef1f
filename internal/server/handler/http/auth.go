// Package http provides the HTTP handlers and routing of the portal API.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/auth"
	"github.com/tmsiti/backend/internal/models"
	"github.com/tmsiti/backend/internal/server/respond"
	"github.com/tmsiti/backend/internal/service"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	// Login verifies credentials and issues an access token.
	Login(ctx context.Context, username, password string) (*service.Token, error)
	// Register creates a read-only account.
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
}

// AuthHandler handles login, registration and the current-user endpoints.
type AuthHandler struct {
	AuthService AuthService
	Log         *zap.Logger
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	tok, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, tok)
}

// Register handles POST /api/auth/register and answers 201 with the new user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	user, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, user)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respond.Error(w, h.Log, apperr.ErrUnauthenticated)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so the
// client discarding its token is the whole of logging out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, message{Message: "Successfully logged out"})
}
