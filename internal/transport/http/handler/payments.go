package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/invest-api/internal/application/payment"
	"github.com/invest-api/internal/transport/http/middleware"
)

// maxWebhookBody bounds the raw payload read from Stripe before signature
// verification.
const maxWebhookBody = 1 << 20

// PaymentHandler handles checkout and the Stripe webhook endpoint.
type PaymentHandler struct {
	svc payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req payment.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The payer is always the authenticated caller, whatever the body says.
	req.UserID = claims.UserID
	url, err := h.svc.Checkout(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Webhook receives Stripe events. The body must be read raw: any re-encoding
// would break the signature check.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}
	if err := h.svc.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		// Deliberately generic: signature failures must not leak detail.
		writeError(w, http.StatusBadRequest, "webhook error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
