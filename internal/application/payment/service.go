package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/invest-api/internal/domain"
	"github.com/invest-api/internal/pkg/validate"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type CheckoutProduct struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Quantity int64   `json:"quantity" validate:"omitempty,gt=0"`
}

type CheckoutRequest struct {
	Products []CheckoutProduct `json:"products" validate:"required,min=1,dive"`
	UserID   string            `json:"userId" validate:"required"`
	AlbumID  string            `json:"albumId" validate:"required"`
}

type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) (url string, err error)
	// HandleEvent authenticates a raw webhook payload and applies its side
	// effect. The returned error reflects only authentication: persistence
	// failures after a verified signature are absorbed so the provider
	// stops retrying.
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type checkoutClient interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type accessStore interface {
	Grant(ctx context.Context, a *domain.AlbumAccess) error
}

type alertPublisher interface {
	PublishAlert(ctx context.Context, subject, message string) error
}

type service struct {
	stripeClient  checkoutClient
	accessRepo    accessStore
	alerts        alertPublisher
	webhookSecret string
	successURL    string
	cancelURL     string
	now           func() time.Time
}

func NewService(stripeClient checkoutClient, accessRepo accessStore, alerts alertPublisher, webhookSecret, successURL, cancelURL string) Service {
	return &service{
		stripeClient:  stripeClient,
		accessRepo:    accessRepo,
		alerts:        alerts,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
		now:           time.Now,
	}
}

func (s *service) Checkout(ctx context.Context, req CheckoutRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Products))
	for _, p := range req.Products {
		qty := p.Quantity
		if qty == 0 {
			qty = 1
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyEUR)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(p.Name),
				},
				UnitAmount: stripe.Int64(int64(math.Round(p.Price * 100))),
			},
			Quantity: stripe.Int64(qty),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.successURL),
		CancelURL:          stripe.String(s.cancelURL),
	}
	params.AddMetadata("userId", req.UserID)
	params.AddMetadata("albumId", req.AlbumID)

	sess, err := s.stripeClient.NewCheckoutSession(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// checkoutSession is the slice of the event payload this service cares about.
type checkoutSession struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

func (s *service) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	// The raw, unparsed body is what the signature covers; nothing may parse
	// it before this check.
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("invalid webhook signature: %w", domain.ErrUnauthorized)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil
	}

	var sess checkoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		slog.Error("malformed checkout session payload", "event_id", event.ID, "err", err)
		return nil
	}

	userID := sess.Metadata["userId"]
	albumID := sess.Metadata["albumId"]
	if userID == "" || albumID == "" {
		slog.Warn("checkout session completed without entitlement metadata", "event_id", event.ID)
		return nil
	}

	grant := &domain.AlbumAccess{
		UserID:    userID,
		AlbumID:   albumID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.accessRepo.Grant(ctx, grant); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Redelivered event; the grant already exists.
			slog.Info("duplicate entitlement grant ignored", "event_id", event.ID, "user_id", userID, "album_id", albumID)
			return nil
		}
		// Absorbed: the provider retrying would not help, reconciliation
		// happens out of band.
		slog.Error("failed to persist entitlement grant", "event_id", event.ID, "user_id", userID, "album_id", albumID, "err", err)
		if s.alerts != nil {
			msg := fmt.Sprintf("event=%s user=%s album=%s err=%v", event.ID, userID, albumID, err)
			if alertErr := s.alerts.PublishAlert(ctx, "entitlement grant failed", msg); alertErr != nil {
				slog.Error("failed to publish reconciliation alert", "err", alertErr)
			}
		}
	}
	return nil
}
