package payment

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	"github.com/wazhop/backend/internal/domain/billing"
)

const defaultFlutterwaveBaseURL = "https://api.flutterwave.com/v3"

// FlutterwaveConfig contains configuration for the Flutterwave v3 API
type FlutterwaveConfig struct {
	SecretKey string
	// SecretHash is the value Flutterwave sends in the verif-hash header
	SecretHash string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Errors for configuration validation
var (
	ErrFlutterwaveMissingSecretKey  = errors.New("flutterwave: missing secret key")
	ErrFlutterwaveMissingSecretHash = errors.New("flutterwave: missing webhook secret hash")
)

// Validate validates the configuration and fills defaults
func (c *FlutterwaveConfig) Validate() error {
	if c.SecretKey == "" {
		return ErrFlutterwaveMissingSecretKey
	}
	if c.SecretHash == "" {
		return ErrFlutterwaveMissingSecretHash
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultFlutterwaveBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return nil
}

type flutterwaveEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type flutterwaveCustomer struct {
	Email string `json:"email"`
}

type flutterwavePaymentRequest struct {
	TxRef       string              `json:"tx_ref"`
	Amount      string              `json:"amount"`
	Currency    string              `json:"currency"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	Customer    flutterwaveCustomer `json:"customer"`
	Meta        map[string]string   `json:"meta,omitempty"`
}

type flutterwaveTransaction struct {
	ID                int64           `json:"id"`
	TxRef             string          `json:"tx_ref"`
	Status            string          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	PaymentType       string          `json:"payment_type"`
	ProcessorResponse string          `json:"processor_response"`
}

type flutterwaveWebhook struct {
	Event string                 `json:"event"`
	Data  flutterwaveTransaction `json:"data"`
}

// FlutterwaveAdapter implements billing.Gateway for Flutterwave Standard
type FlutterwaveAdapter struct {
	config     *FlutterwaveConfig
	httpClient *http.Client
}

var _ billingapp.Gateway = (*FlutterwaveAdapter)(nil)

// NewFlutterwaveAdapter creates a new Flutterwave adapter
func NewFlutterwaveAdapter(config *FlutterwaveConfig) (*FlutterwaveAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &FlutterwaveAdapter{config: config, httpClient: client}, nil
}

// Provider returns the provider name
func (a *FlutterwaveAdapter) Provider() billing.Provider {
	return billing.ProviderFlutterwave
}

// Initialize creates a Flutterwave Standard payment link
func (a *FlutterwaveAdapter) Initialize(ctx context.Context, req billingapp.CheckoutRequest) (*billingapp.CheckoutSession, error) {
	body := flutterwavePaymentRequest{
		TxRef:       req.Reference,
		Amount:      req.Amount.StringFixed(2),
		Currency:    strings.ToUpper(req.Currency),
		RedirectURL: req.CallbackURL,
		Customer:    flutterwaveCustomer{Email: req.Email},
		Meta:        req.Metadata,
	}
	var data struct {
		Link string `json:"link"`
	}
	if err := a.do(ctx, http.MethodPost, "/payments", body, &data); err != nil {
		return nil, err
	}
	if data.Link == "" {
		return nil, fmt.Errorf("%w: missing payment link", ErrGatewayRequestFailed)
	}
	return &billingapp.CheckoutSession{AuthorizationURL: data.Link, Reference: req.Reference}, nil
}

// Verify looks a transaction up by our reference
func (a *FlutterwaveAdapter) Verify(ctx context.Context, reference string) (*billingapp.Verification, error) {
	var data flutterwaveTransaction
	path := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	if err := a.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	v := data.verification()
	return &v, nil
}

// ParseWebhook compares the verif-hash header with the configured secret hash
func (a *FlutterwaveAdapter) ParseWebhook(payload []byte, signature string) (*billingapp.WebhookEvent, error) {
	if signature == "" || subtle.ConstantTimeCompare([]byte(signature), []byte(a.config.SecretHash)) != 1 {
		return nil, ErrInvalidSignature
	}
	var hook flutterwaveWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("flutterwave: failed to parse webhook: %w", err)
	}
	return &billingapp.WebhookEvent{Event: hook.Event, Verification: hook.Data.verification()}, nil
}

func (a *FlutterwaveAdapter) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("flutterwave: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("flutterwave: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.SecretKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayRequestFailed, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("flutterwave: failed to read response: %w", err)
	}

	var env flutterwaveEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: HTTP %d", ErrGatewayRequestFailed, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrTransactionNotFound
	}
	if resp.StatusCode >= 300 || env.Status != "success" {
		return fmt.Errorf("%w: %s", ErrGatewayRequestFailed, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("flutterwave: failed to parse response: %w", err)
	}
	return nil
}

func (t flutterwaveTransaction) verification() billingapp.Verification {
	v := billingapp.Verification{
		Reference: t.TxRef,
		Status:    mapFlutterwaveStatus(t.Status),
		Amount:    t.Amount,
		Currency:  strings.ToUpper(t.Currency),
		Channel:   t.PaymentType,
		Message:   t.ProcessorResponse,
	}
	if t.ID != 0 {
		v.ProviderTransactionID = strconv.FormatInt(t.ID, 10)
	}
	return v
}

func mapFlutterwaveStatus(status string) billing.TransactionStatus {
	switch strings.ToLower(status) {
	case "successful":
		return billing.StatusSuccessful
	case "failed":
		return billing.StatusFailed
	case "cancelled":
		return billing.StatusCancelled
	default:
		return billing.StatusPending
	}
}
