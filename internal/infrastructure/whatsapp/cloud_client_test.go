package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *CloudClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewCloudClient(Config{
		APIURL:        srv.URL,
		PhoneNumberID: "1234567890",
		AccessToken:   "EAAG-token",
		VerifyToken:   "wazhop-verify",
		AppSecret:     "app-secret",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestNewCloudClient_RequiresCredentials(t *testing.T) {
	_, err := NewCloudClient(Config{PhoneNumberID: "1"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCloudClient_SendText(t *testing.T) {
	var got messageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1234567890/messages", r.URL.Path)
		assert.Equal(t, "Bearer EAAG-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.HBgM"}]}`))
	})

	id, err := c.SendText(context.Background(), "2348012345678", "Track your order: https://wazhop.test/orders/1")
	require.NoError(t, err)
	assert.Equal(t, "wamid.HBgM", id)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "2348012345678", got.To)
	assert.Equal(t, "text", got.Type)
	require.NotNil(t, got.Text)
	assert.True(t, got.Text.PreviewURL)
}

func TestCloudClient_SendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Recipient phone number not in allowed list","code":131030}}`))
	})
	err := c.Send(context.Background(), "2348012345678", "hi")
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "131030")
}

func TestCloudClient_VerifyChallenge(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {})

	challenge, ok := c.VerifyChallenge("subscribe", "wazhop-verify", "1158201444")
	assert.True(t, ok)
	assert.Equal(t, "1158201444", challenge)

	_, ok = c.VerifyChallenge("subscribe", "wrong", "1")
	assert.False(t, ok)
	_, ok = c.VerifyChallenge("unsubscribe", "wazhop-verify", "1")
	assert.False(t, ok)
}

func TestCloudClient_VerifySignature(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	body := []byte(`{"object":"whatsapp_business_account","entry":[]}`)
	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write(body)
	valid := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.NoError(t, c.VerifySignature(body, valid))
	assert.ErrorIs(t, c.VerifySignature(body, hex.EncodeToString(mac.Sum(nil))), ErrInvalidSignature)
	assert.ErrorIs(t, c.VerifySignature([]byte(`{}`), valid), ErrInvalidSignature)
	assert.ErrorIs(t, c.VerifySignature(body, "sha256=xyz"), ErrInvalidSignature)
}

func TestLogNotifier_Send(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Send(context.Background(), "2348012345678", "hello"))
	entries := logs.FilterField(zap.String("to", "2348012345678")).All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "not sent")
}
