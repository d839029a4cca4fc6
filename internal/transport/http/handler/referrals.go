package handler

import (
	"net/http"

	"github.com/invest-api/internal/application/referral"
	"github.com/invest-api/internal/transport/http/middleware"
)

// ReferralHandler handles referral code endpoints.
type ReferralHandler struct {
	svc referral.Service
}

func NewReferralHandler(svc referral.Service) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

func (h *ReferralHandler) Generate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	res, err := h.svc.Generate(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ReferralHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	res, err := h.svc.Mine(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
