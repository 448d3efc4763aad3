package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnalysisJSON = `{
  "marketSize": {
    "tam": {"value": 12000000, "description": "total market"},
    "sam": {"value": 3000000, "description": "serviceable market"},
    "som": {"value": 400000, "description": "obtainable market"}
  },
  "demographics": {
    "population": 85000,
    "medianIncome": 61000,
    "ageGroups": [{"range": "25-34", "percentage": 28}],
    "description": "young professional area"
  },
  "psychographics": {
    "interests": ["coffee", "fitness"],
    "lifestyle": "busy urban",
    "buyingBehavior": "convenience driven"
  },
  "weather": {
    "seasonalTrends": "cold winters",
    "impactOnBusiness": "hot drinks in winter"
  },
  "traffic": {
    "typicalTraffic": "heavy commuter flow",
    "challenges": ["limited parking"],
    "peakHours": "7-9am"
  }
}`

func reportJSON(id uint, address string) string {
	return fmt.Sprintf(`{
		"id": %d,
		"userId": "user-1",
		"address": %q,
		"businessType": "Bakery",
		"data": %s,
		"createdAt": "2026-08-01T10:00:00Z"
	}`, id, address, sampleAnalysisJSON)
}

func TestListReportsServesFromCache(t *testing.T) {
	var listCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "/api/reports", r.URL.Path)
		atomic.AddInt64(&listCalls, 1)
		fmt.Fprintf(w, "[%s]", reportJSON(1, "1 Main St"))
	}))
	defer srv.Close()

	c := NewInsightClient(srv.URL, "test-token")

	first, err := c.ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "1 Main St", first[0].Address)

	second, err := c.ListReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&listCalls))
}

func TestCreateReportInvalidatesListCache(t *testing.T) {
	var listCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/reports":
			n := atomic.AddInt64(&listCalls, 1)
			if n == 1 {
				fmt.Fprintf(w, "[%s]", reportJSON(1, "1 Main St"))
			} else {
				fmt.Fprintf(w, "[%s,%s]", reportJSON(2, "2 Oak Ave"), reportJSON(1, "1 Main St"))
			}
		case "/api/reports/analyze":
			require.Equal(t, http.MethodPost, r.Method)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "2 Oak Ave", body["address"])
			assert.Equal(t, "Bakery", body["businessType"])
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, reportJSON(2, "2 Oak Ave"))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewInsightClient(srv.URL, "test-token")

	first, err := c.ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	created, err := c.CreateReport(context.Background(), "2 Oak Ave", "Bakery")
	require.NoError(t, err)
	assert.Equal(t, uint(2), created.ID)

	second, err := c.ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, int64(2), atomic.LoadInt64(&listCalls))
}

func TestGetReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/reports/7", r.URL.Path)
		fmt.Fprint(w, reportJSON(7, "7 Elm Rd"))
	}))
	defer srv.Close()

	c := NewInsightClient(srv.URL, "test-token")
	report, err := c.GetReport(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), report.ID)
	assert.Equal(t, "7 Elm Rd", report.Address)
}

func TestGetReportRejectsContractViolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Report row looks fine, but the analysis payload is an empty object
		fmt.Fprint(w, `{"id": 7, "userId": "user-1", "address": "7 Elm Rd", "businessType": "Bakery", "data": {}, "createdAt": "2026-08-01T10:00:00Z"}`)
	}))
	defer srv.Close()

	c := NewInsightClient(srv.URL, "test-token")
	_, err := c.GetReport(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contract validation")
}

func TestErrorEnvelopeSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "report not found"}`)
	}))
	defer srv.Close()

	c := NewInsightClient(srv.URL, "test-token")
	_, err := c.GetReport(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report not found")
	assert.Contains(t, err.Error(), "404")
}
