// Package whatsapp sends messages through the WhatsApp Business Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultAPIURL = "https://graph.facebook.com/v18.0"

// Errors returned by the Cloud API client
var (
	ErrSendFailed       = errors.New("whatsapp: send failed")
	ErrInvalidSignature = errors.New("whatsapp: invalid webhook signature")
	ErrNotConfigured    = errors.New("whatsapp: phone number id and access token are required")
)

// Config configures the Cloud API client
type Config struct {
	APIURL        string
	PhoneNumberID string
	AccessToken   string
	// VerifyToken answers the webhook subscription challenge
	VerifyToken string
	// AppSecret signs webhook deliveries (X-Hub-Signature-256)
	AppSecret string
	Timeout   time.Duration
}

// CloudClient implements the order Notifier on top of the Cloud API
type CloudClient struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCloudClient creates a Cloud API client
func NewCloudClient(cfg Config, logger *zap.Logger) (*CloudClient, error) {
	if cfg.PhoneNumberID == "" || cfg.AccessToken == "" {
		return nil, ErrNotConfigured
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &CloudClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type messageRequest struct {
	MessagingProduct string    `json:"messaging_product"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             *textBody `json:"text,omitempty"`
}

type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send delivers a text message to an international number without '+'
func (c *CloudClient) Send(ctx context.Context, phone, message string) error {
	_, err := c.SendText(ctx, phone, message)
	return err
}

// SendText sends a text message and returns the WhatsApp message id
func (c *CloudClient) SendText(ctx context.Context, phone, message string) (string, error) {
	payload, err := json.Marshal(messageRequest{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             &textBody{Body: message, PreviewURL: strings.Contains(message, "http")},
	})
	if err != nil {
		return "", fmt.Errorf("whatsapp: failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.config.APIURL, c.config.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("whatsapp: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("whatsapp: failed to read response: %w", err)
	}

	var out messageResponse
	_ = json.Unmarshal(body, &out)
	if resp.StatusCode >= 300 || out.Error != nil {
		reason := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if out.Error != nil {
			reason = fmt.Sprintf("%s (code %d)", out.Error.Message, out.Error.Code)
		}
		return "", fmt.Errorf("%w: %s", ErrSendFailed, reason)
	}
	if len(out.Messages) == 0 {
		return "", fmt.Errorf("%w: no message id returned", ErrSendFailed)
	}
	c.logger.Debug("WhatsApp message sent", zap.String("to", phone), zap.String("message_id", out.Messages[0].ID))
	return out.Messages[0].ID, nil
}

// VerifyChallenge answers Meta's webhook subscription handshake. It returns
// the challenge to echo when mode and token match.
func (c *CloudClient) VerifyChallenge(mode, token, challenge string) (string, bool) {
	if mode != "subscribe" || c.config.VerifyToken == "" || token != c.config.VerifyToken {
		return "", false
	}
	return challenge, true
}

// VerifySignature checks an X-Hub-Signature-256 header against the body
func (c *CloudClient) VerifySignature(body []byte, header string) error {
	if c.config.AppSecret == "" {
		return ErrInvalidSignature
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return ErrInvalidSignature
	}
	given, err := hex.DecodeString(sig)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(c.config.AppSecret))
	mac.Write(body)
	if !hmac.Equal(given, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
