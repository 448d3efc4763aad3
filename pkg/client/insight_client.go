package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"insight-service/internal/model"
	"insight-service/pkg/validate"
)

// InsightClient is a typed client for the report API. Every response body is
// validated against the same contract types the server serializes, so shape
// drift surfaces as an error instead of silently reaching a consumer. The
// report list is cached until a create invalidates it.
type InsightClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	validate *validate.Validator

	mu         sync.Mutex
	cachedList []model.Report
	listCached bool
}

// ErrorResponse is the server's uniform error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewInsightClient creates a client for the given server and bearer token
func NewInsightClient(baseURL, token string) *InsightClient {
	return &InsightClient{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		validate:   validate.New(),
	}
}

// ListReports returns the caller's reports, serving from cache when the list
// has not been invalidated by a create.
func (c *InsightClient) ListReports(ctx context.Context) ([]model.Report, error) {
	c.mu.Lock()
	if c.listCached {
		cached := c.cachedList
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var reports []model.Report
	if err := c.do(ctx, http.MethodGet, "/api/reports", nil, &reports); err != nil {
		return nil, err
	}
	for i := range reports {
		if err := c.validateReport(&reports[i]); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.cachedList = reports
	c.listCached = true
	c.mu.Unlock()

	return reports, nil
}

// GetReport fetches one report by id
func (c *InsightClient) GetReport(ctx context.Context, id uint) (*model.Report, error) {
	var report model.Report
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/reports/%d", id), nil, &report); err != nil {
		return nil, err
	}
	if err := c.validateReport(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CreateReport generates and persists a new analysis, then invalidates the
// cached report list so the next list read reflects the new row.
func (c *InsightClient) CreateReport(ctx context.Context, address, businessType string) (*model.Report, error) {
	body := map[string]string{
		"address":      address,
		"businessType": businessType,
	}

	var report model.Report
	if err := c.do(ctx, http.MethodPost, "/api/reports/analyze", body, &report); err != nil {
		return nil, err
	}
	if err := c.validateReport(&report); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cachedList = nil
	c.listCached = false
	c.mu.Unlock()

	return &report, nil
}

// validateReport checks the response against the shared contract: required
// report fields plus the embedded AnalysisData shape.
func (c *InsightClient) validateReport(report *model.Report) error {
	if report.ID == 0 || report.Address == "" || report.BusinessType == "" {
		return fmt.Errorf("response failed contract validation: missing report fields")
	}
	var data model.AnalysisData
	if err := json.Unmarshal(report.Data, &data); err != nil {
		return fmt.Errorf("response failed contract validation: %w", err)
	}
	if err := c.validate.Validate(&data); err != nil {
		return fmt.Errorf("response failed contract validation: %w", err)
	}
	return nil
}

// do sends one request and decodes the JSON response into out
func (c *InsightClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.Unmarshal(respBody, out)
}
