package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"insight-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBillingClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&config.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_test",
		PriceID:       "price_123",
		BaseURL:       srv.URL,
		SuccessURL:    "http://localhost/success",
		CancelURL:     "http://localhost/cancel",
	}, zap.NewNop())
}

func signPayload(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateCustomer(t *testing.T) {
	client := newBillingClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "jo@example.com", r.PostForm.Get("email"))

		json.NewEncoder(w).Encode(map[string]string{"id": "cus_123"})
	})

	id, err := client.CreateCustomer(context.Background(), "jo@example.com", "Jo Smith")
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)
}

func TestCreateCheckoutSession(t *testing.T) {
	client := newBillingClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_123", r.PostForm.Get("customer"))
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "price_123", r.PostForm.Get("line_items[0][price]"))

		json.NewEncoder(w).Encode(map[string]string{"id": "cs_1", "url": "https://checkout.example/cs_1"})
	})

	url, err := client.CreateCheckoutSession(context.Background(), "cus_123")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_1", url)
}

func TestAPIErrorSurfacesMessage(t *testing.T) {
	client := newBillingClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"type": "card_error", "message": "card declined"},
		})
	})

	_, err := client.CreateCustomer(context.Background(), "jo@example.com", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}

func TestVerifyWebhook(t *testing.T) {
	client := newBillingClient(t, nil)

	payload := []byte(`{"type": "customer.subscription.created", "data": {"object": {"id": "sub_1", "customer": "cus_123", "status": "active"}}}`)
	ts := fmt.Sprintf("%d", time.Now().Unix())
	sig := signPayload("whsec_test", ts, payload)

	event, err := client.VerifyWebhook(payload, fmt.Sprintf("t=%s,v1=%s", ts, sig))
	require.NoError(t, err)
	assert.Equal(t, "customer.subscription.created", event.Type)
	assert.Equal(t, "sub_1", event.Data.Object.ID)
	assert.Equal(t, "cus_123", event.Data.Object.Customer)
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	client := newBillingClient(t, nil)

	payload := []byte(`{"type": "x"}`)
	ts := fmt.Sprintf("%d", time.Now().Unix())
	_, err := client.VerifyWebhook(payload, fmt.Sprintf("t=%s,v1=deadbeef", ts))
	require.Error(t, err)

	_, err = client.VerifyWebhook(payload, "garbage")
	require.Error(t, err)
}

func TestVerifyWebhookRejectsStaleTimestamp(t *testing.T) {
	client := newBillingClient(t, nil)

	payload := []byte(`{"type": "customer.subscription.created"}`)

	// Correctly signed, but an hour old: a captured delivery replayed later
	stale := fmt.Sprintf("%d", time.Now().Add(-time.Hour).Unix())
	sig := signPayload("whsec_test", stale, payload)
	_, err := client.VerifyWebhook(payload, fmt.Sprintf("t=%s,v1=%s", stale, sig))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tolerance")

	_, err = client.VerifyWebhook(payload, "t=notanumber,v1=deadbeef")
	require.Error(t, err)
}

func TestCredentialsResolveOnceUnderConcurrency(t *testing.T) {
	client := newBillingClient(t, nil)

	var wg sync.WaitGroup
	creds := make([]*Credentials, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := client.credentials()
			assert.NoError(t, err)
			creds[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range creds {
		assert.Same(t, creds[0], c)
	}
}

func TestCredentialsRequireSecretKey(t *testing.T) {
	client := NewClient(&config.StripeConfig{}, zap.NewNop())
	_, err := client.credentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
}
