package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	"github.com/wazhop/backend/internal/domain/billing"
)

// Errors returned by the gateway adapters
var (
	ErrGatewayRequestFailed = errors.New("payment: gateway request failed")
	ErrInvalidSignature     = errors.New("payment: invalid webhook signature")
	ErrTransactionNotFound  = errors.New("payment: transaction not found")
)

// PaystackAdapter implements billing.Gateway for Paystack
type PaystackAdapter struct {
	config     *PaystackConfig
	httpClient *http.Client
}

var _ billingapp.Gateway = (*PaystackAdapter)(nil)

// NewPaystackAdapter creates a new Paystack adapter
func NewPaystackAdapter(config *PaystackConfig) (*PaystackAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &PaystackAdapter{config: config, httpClient: client}, nil
}

// Provider returns the provider name
func (a *PaystackAdapter) Provider() billing.Provider {
	return billing.ProviderPaystack
}

// Initialize opens a hosted checkout. Amounts go to Paystack in the
// currency's subunit (kobo for NGN).
func (a *PaystackAdapter) Initialize(ctx context.Context, req billingapp.CheckoutRequest) (*billingapp.CheckoutSession, error) {
	body := paystackInitializeRequest{
		Email:       req.Email,
		Amount:      toSubunits(req.Amount),
		Currency:    strings.ToUpper(req.Currency),
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	var data paystackInitializeData
	if err := a.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}
	if data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: missing authorization url", ErrGatewayRequestFailed)
	}
	ref := data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return &billingapp.CheckoutSession{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        ref,
	}, nil
}

// Verify fetches a transaction by reference
func (a *PaystackAdapter) Verify(ctx context.Context, reference string) (*billingapp.Verification, error) {
	var data paystackTransaction
	if err := a.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}
	v := data.verification()
	return &v, nil
}

// ParseWebhook checks the x-paystack-signature header, an HMAC-SHA512 of
// the raw body keyed with the secret key.
func (a *PaystackAdapter) ParseWebhook(payload []byte, signature string) (*billingapp.WebhookEvent, error) {
	if !a.validSignature(payload, signature) {
		return nil, ErrInvalidSignature
	}
	var hook paystackWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("paystack: failed to parse webhook: %w", err)
	}
	return &billingapp.WebhookEvent{Event: hook.Event, Verification: hook.Data.verification()}, nil
}

func (a *PaystackAdapter) validSignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}
	given, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(a.config.SecretKey))
	mac.Write(payload)
	return hmac.Equal(given, mac.Sum(nil))
}

func (a *PaystackAdapter) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("paystack: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("paystack: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.SecretKey)
	req.Header.Set("Accept", "application/json")
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
		return fmt.Errorf("paystack: failed to read response: %w", err)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: HTTP %d", ErrGatewayRequestFailed, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrTransactionNotFound
	}
	if resp.StatusCode >= 300 || !env.Status {
		return fmt.Errorf("%w: %s", ErrGatewayRequestFailed, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("paystack: failed to parse response: %w", err)
	}
	return nil
}

func (t paystackTransaction) verification() billingapp.Verification {
	v := billingapp.Verification{
		Reference: t.Reference,
		Status:    mapPaystackStatus(t.Status),
		Amount:    fromSubunits(t.Amount),
		Currency:  strings.ToUpper(t.Currency),
		Channel:   t.Channel,
		Message:   t.GatewayResponse,
	}
	if t.ID != 0 {
		v.ProviderTransactionID = strconv.FormatInt(t.ID, 10)
	}
	return v
}

// mapPaystackStatus maps Paystack transaction statuses to ours
func mapPaystackStatus(status string) billing.TransactionStatus {
	switch strings.ToLower(status) {
	case "success":
		return billing.StatusSuccessful
	case "failed", "reversed":
		return billing.StatusFailed
	case "abandoned":
		return billing.StatusAbandoned
	default:
		return billing.StatusPending
	}
}

func toSubunits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func fromSubunits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}
