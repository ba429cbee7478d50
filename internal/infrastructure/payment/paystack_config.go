package payment

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

const defaultPaystackBaseURL = "https://api.paystack.co"

// PaystackConfig contains configuration for the Paystack API
type PaystackConfig struct {
	// SecretKey authenticates API calls and signs webhooks
	SecretKey string
	// BaseURL overrides the API host; tests point it at httptest servers
	BaseURL string
	Timeout time.Duration
	// HTTPClient is optional; a client with Timeout is built when nil
	HTTPClient *http.Client
}

// Errors for configuration validation
var (
	ErrPaystackMissingSecretKey = errors.New("paystack: missing secret key")
	ErrPaystackInvalidSecretKey = errors.New("paystack: secret key must start with sk_")
)

// Validate validates the configuration and fills defaults
func (c *PaystackConfig) Validate() error {
	if c.SecretKey == "" {
		return ErrPaystackMissingSecretKey
	}
	if !strings.HasPrefix(c.SecretKey, "sk_") {
		return ErrPaystackInvalidSecretKey
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultPaystackBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return nil
}
