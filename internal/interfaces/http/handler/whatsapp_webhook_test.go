package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubVerifier struct{}

func (stubVerifier) VerifyChallenge(mode, token, challenge string) (string, bool) {
	return challenge, mode == "subscribe" && token == "hook-token"
}

func (stubVerifier) VerifySignature(_ []byte, header string) error {
	if header != "sha256=ok" {
		return errors.New("signature mismatch")
	}
	return nil
}

func TestWhatsAppWebhookHandler(t *testing.T) {
	h := NewWhatsAppWebhookHandler(stubVerifier{})
	r := gin.New()
	r.GET("/webhooks/whatsapp", h.Verify)
	r.POST("/webhooks/whatsapp", h.Receive)

	t.Run("handshake echoes challenge", func(t *testing.T) {
		w := do(t, r, anonymous(), http.MethodGet,
			"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=hook-token&hub.challenge=12345", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "12345", w.Body.String())
	})

	t.Run("handshake with wrong token", func(t *testing.T) {
		w := do(t, r, anonymous(), http.MethodGet,
			"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	post := func(body, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
		req.Header.Set("X-Hub-Signature-256", signature)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	status := `{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.1","status":"delivered","recipient_id":"2348012345678"}]}}]}]}`

	t.Run("unsigned notification", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, post(status, "sha256=bad").Code)
	})

	t.Run("signed status update", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post(status, "sha256=ok").Code)
	})

	t.Run("malformed payload", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post("{not json", "sha256=ok").Code)
	})
}
