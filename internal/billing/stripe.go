package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"insight-service/pkg/config"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Credentials holds the billing provider secrets resolved once per process.
type Credentials struct {
	SecretKey     string
	WebhookSecret string
}

// Client talks to the subscription billing provider. Credentials are resolved
// lazily on first use and cached for the process lifetime; concurrent first
// callers share a single in-flight resolution.
type Client struct {
	cfg        *config.StripeConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.RWMutex
	creds *Credentials
	group singleflight.Group
}

// ErrorResponse represents a billing provider error payload
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a billing client
func NewClient(cfg *config.StripeConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// credentials returns the cached provider secrets, resolving them on first
// access. Resolution is singleflight-guarded so parallel early requests do
// not trigger duplicate fetches.
func (c *Client) credentials() (*Credentials, error) {
	c.mu.RLock()
	creds := c.creds
	c.mu.RUnlock()
	if creds != nil {
		return creds, nil
	}

	v, err, _ := c.group.Do("credentials", func() (interface{}, error) {
		if c.cfg.SecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY not set")
		}
		resolved := &Credentials{
			SecretKey:     c.cfg.SecretKey,
			WebhookSecret: c.cfg.WebhookSecret,
		}
		c.mu.Lock()
		c.creds = resolved
		c.mu.Unlock()
		c.logger.Info("Billing credentials resolved")
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Credentials), nil
}

// CreateCustomer creates a billing customer for the user and returns its id
func (c *Client) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	data := url.Values{}
	data.Set("email", email)
	if name != "" {
		data.Set("name", name)
	}

	var customer struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/customers", data, &customer); err != nil {
		return "", err
	}

	c.logger.Info("Billing customer created", zap.String("customer_id", customer.ID))
	return customer.ID, nil
}

// CreateCheckoutSession creates a subscription checkout session and returns
// its hosted URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, customerID string) (string, error) {
	data := url.Values{}
	data.Set("customer", customerID)
	data.Set("mode", "subscription")
	data.Set("line_items[0][price]", c.cfg.PriceID)
	data.Set("line_items[0][quantity]", "1")
	data.Set("success_url", c.cfg.SuccessURL)
	data.Set("cancel_url", c.cfg.CancelURL)

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/checkout/sessions", data, &session); err != nil {
		return "", err
	}

	c.logger.Info("Checkout session created", zap.String("session_id", session.ID))
	return session.URL, nil
}

// CreatePortalSession creates a billing-portal session and returns its URL
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	data := url.Values{}
	data.Set("customer", customerID)
	data.Set("return_url", returnURL)

	var session struct {
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/billing_portal/sessions", data, &session); err != nil {
		return "", err
	}
	return session.URL, nil
}

// webhookTolerance bounds the age of an accepted webhook. Signatures are
// bound to the timestamp, so anything outside the window cannot be replayed.
const webhookTolerance = 5 * time.Minute

// WebhookEvent is a subscription-state change delivered by the provider
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Customer string `json:"customer"`
			Status   string `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the webhook signature header against the payload and
// returns the parsed event. Signature scheme: HMAC-SHA256 over "<t>.<payload>"
// with the webhook secret, delivered as "t=<t>,v1=<hex>". Timestamps older
// than webhookTolerance are rejected even with a valid signature.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (*WebhookEvent, error) {
	creds, err := c.credentials()
	if err != nil {
		return nil, err
	}
	if creds.WebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET not set")
	}

	var timestamp, signature string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signature = kv[1]
		}
	}
	if timestamp == "" || signature == "" {
		return nil, fmt.Errorf("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed signature timestamp")
	}
	if age := time.Since(time.Unix(ts, 0)); age > webhookTolerance || age < -webhookTolerance {
		return nil, fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(creds.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("signature mismatch")
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}
	return &event, nil
}

// post sends a form-encoded request to the provider API and decodes the JSON
// response into out.
func (c *Client) post(ctx context.Context, path string, data url.Values, out interface{}) error {
	creds, err := c.credentials()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+creds.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Billing API request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			c.logger.Error("Billing API error",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("message", errResp.Error.Message))
			return fmt.Errorf("billing API error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("billing API error: %d %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}
