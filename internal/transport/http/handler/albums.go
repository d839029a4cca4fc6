package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/invest-api/internal/application/album"
	"github.com/invest-api/internal/domain"
	"github.com/invest-api/internal/transport/http/middleware"
)

// AlbumHandler handles album CRUD and access-check endpoints.
type AlbumHandler struct {
	svc album.Service
}

func NewAlbumHandler(svc album.Service) *AlbumHandler { return &AlbumHandler{svc: svc} }

func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	albums, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.AlbumInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AlbumHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.AlbumInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "album deleted"})
}

// Access reports whether the authenticated user has purchased the album.
func (h *AlbumHandler) Access(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	hasAccess, err := h.svc.HasAccess(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasAccess": hasAccess})
}
