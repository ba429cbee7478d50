// Package billing sells plans and boosts: coupons, subscriptions, gateway
// payments and referral rewards.
package billing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/billing"
)

// Gateway is a hosted-checkout payment provider
type Gateway interface {
	Provider() billing.Provider
	// Initialize opens a checkout session and returns where to send the payer
	Initialize(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// Verify asks the provider for the outcome of a payment
	Verify(ctx context.Context, reference string) (*Verification, error)
	// ParseWebhook authenticates and decodes a provider notification
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest describes a payment to collect
type CheckoutRequest struct {
	Reference   string
	Email       string
	Amount      decimal.Decimal
	Currency    string
	CallbackURL string
	Metadata    map[string]string
}

// CheckoutSession is an opened hosted checkout
type CheckoutSession struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Verification is the provider's view of a payment
type Verification struct {
	Reference             string
	Status                billing.TransactionStatus
	Amount                decimal.Decimal
	Currency              string
	ProviderTransactionID string
	Channel               string
	Message               string
}

// WebhookEvent is a decoded provider notification
type WebhookEvent struct {
	Event        string
	Verification Verification
}
