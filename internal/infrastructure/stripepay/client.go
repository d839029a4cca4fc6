package stripepay

import (
	"net/http"

	"github.com/invest-api/internal/config"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// Client wraps the Stripe SDK for checkout session creation.
type Client struct {
	api *client.API
}

// NewClient builds a Stripe client with a bounded HTTP timeout so no request
// handler can block indefinitely on the payment provider.
func NewClient(cfg *config.Config) *Client {
	httpClient := &http.Client{Timeout: cfg.ExternalTimeout}
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, stripe.NewBackends(httpClient))
	return &Client{api: api}
}

// NewCheckoutSession creates a hosted checkout session.
func (c *Client) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return c.api.CheckoutSessions.New(params)
}
