package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/invest-api/internal/application/payment"
	"github.com/invest-api/internal/domain"
	jwtinfra "github.com/invest-api/internal/infrastructure/jwt"
	"github.com/invest-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockPaymentSvc struct{ mock.Mock }

func (m *mockPaymentSvc) Checkout(ctx context.Context, req payment.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockPaymentSvc) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	return m.Called(ctx, payload, sigHeader).Error(0)
}

func authedRequest(method, path string, body []byte, userID string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	claims := &jwtinfra.Claims{UserID: userID, Role: domain.RoleInvestitore}
	ctx := context.WithValue(req.Context(), middleware.ClaimsKey, claims)
	return req.WithContext(ctx)
}

// --- Checkout ---

func TestCheckoutHandler_UsesCallerIdentity(t *testing.T) {
	svc := &mockPaymentSvc{}
	svc.On("Checkout", mock.Anything, mock.Anything).Return("https://checkout.test/session", nil)

	body, _ := json.Marshal(payment.CheckoutRequest{
		Products: []payment.CheckoutProduct{{Name: "Opera", Price: 10}},
		UserID:   "usr-spoofed",
		AlbumID:  "alb-1",
	})
	req := authedRequest(http.MethodPost, "/api/payments/checkout", body, "usr-1")
	rr := httptest.NewRecorder()
	NewPaymentHandler(svc).Checkout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	sent := svc.Calls[0].Arguments.Get(1).(payment.CheckoutRequest)
	assert.Equal(t, "usr-1", sent.UserID, "body userId must not override the token")

	var res map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "https://checkout.test/session", res["url"])
}

func TestCheckoutHandler_NoClaims(t *testing.T) {
	svc := &mockPaymentSvc{}
	req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", bytes.NewReader(nil))
	rr := httptest.NewRecorder()
	NewPaymentHandler(svc).Checkout(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
}

// --- Webhook ---

func TestWebhookHandler_PassesRawBodyAndHeader(t *testing.T) {
	svc := &mockPaymentSvc{}
	svc.On("HandleEvent", mock.Anything, mock.Anything, "t=1,v1=abc").Return(nil)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rr := httptest.NewRecorder()
	NewPaymentHandler(svc).Webhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var res map[string]bool
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res["received"])

	raw := svc.Calls[0].Arguments.Get(1).([]byte)
	assert.Equal(t, payload, raw, "body must reach the service byte-for-byte")
}

func TestWebhookHandler_BadSignatureIs400Generic(t *testing.T) {
	svc := &mockPaymentSvc{}
	svc.On("HandleEvent", mock.Anything, mock.Anything, mock.Anything).Return(
		fmt.Errorf("invalid webhook signature: %w", domain.ErrUnauthorized))

	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	rr := httptest.NewRecorder()
	NewPaymentHandler(svc).Webhook(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var env MessageEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "webhook error", env.Error, "response must not leak verification detail")
}
