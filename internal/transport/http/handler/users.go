package handler

import (
	"context"
	"net/http"

	"github.com/invest-api/internal/domain"
	"github.com/invest-api/internal/transport/http/middleware"
)

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// UserHandler exposes the authenticated user's account record.
type UserHandler struct {
	users userStore
}

func NewUserHandler(users userStore) *UserHandler { return &UserHandler{users: users} }

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
