package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"insight-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCreatesReport(t *testing.T) {
	analysis := sampleAnalysis()
	e, _ := setupAPI(t, &stubAnalysis{data: analysis}, &stubLive{}, &stubBrand{})

	rec := doJSON(e, http.MethodPost, "/api/reports/analyze", map[string]string{
		"address":      "1 Main St",
		"businessType": "Bakery",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "1 Main St", created.Address)
	assert.Equal(t, "Bakery", created.BusinessType)
	assert.Equal(t, "user-1", created.UserID)

	expectedData, err := json.Marshal(analysis)
	require.NoError(t, err)
	assert.JSONEq(t, string(expectedData), string(created.Data))

	// A subsequent fetch by id returns the identical report
	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/reports/%d", created.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Address, fetched.Address)
	assert.JSONEq(t, string(created.Data), string(fetched.Data))
}

func TestAnalyzeValidatesInput(t *testing.T) {
	e, db := setupAPI(t, &stubAnalysis{data: sampleAnalysis()}, &stubLive{}, &stubBrand{})

	for _, body := range []map[string]string{
		{},
		{"address": "1 Main St"},
		{"businessType": "Bakery"},
		{"address": "", "businessType": "Bakery"},
	} {
		rec := doJSON(e, http.MethodPost, "/api/reports/analyze", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	var count int64
	require.NoError(t, db.Model(&model.Report{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAnalyzeGenerationFailure(t *testing.T) {
	e, db := setupAPI(t, &stubAnalysis{err: errors.New("model unavailable")}, &stubLive{}, &stubBrand{})

	rec := doJSON(e, http.MethodPost, "/api/reports/analyze", map[string]string{
		"address":      "1 Main St",
		"businessType": "Bakery",
	}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// Nothing persisted on failure
	var count int64
	require.NoError(t, db.Model(&model.Report{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetReportErrors(t *testing.T) {
	e, _ := setupAPI(t, &stubAnalysis{data: sampleAnalysis()}, &stubLive{}, &stubBrand{})

	rec := doJSON(e, http.MethodGet, "/api/reports/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/reports/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReportOtherUsersNotFound(t *testing.T) {
	e, _ := setupAPI(t, &stubAnalysis{data: sampleAnalysis()}, &stubLive{}, &stubBrand{})

	rec := doJSON(e, http.MethodPost, "/api/reports/analyze", map[string]string{
		"address": "1 Main St", "businessType": "Bakery",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// Another caller sees 404, not 403
	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/reports/%d", created.ID), nil,
		map[string]string{"X-Test-User": "user-2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReportsScopedToCaller(t *testing.T) {
	e, _ := setupAPI(t, &stubAnalysis{data: sampleAnalysis()}, &stubLive{}, &stubBrand{})

	doJSON(e, http.MethodPost, "/api/reports/analyze", map[string]string{
		"address": "1 Main St", "businessType": "Bakery",
	}, nil)
	doJSON(e, http.MethodPost, "/api/reports/analyze", map[string]string{
		"address": "2 Oak Ave", "businessType": "Gym",
	}, map[string]string{"X-Test-User": "user-2"})

	rec := doJSON(e, http.MethodGet, "/api/reports", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reports []model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "user-1", reports[0].UserID)
}

func TestRenameReport(t *testing.T) {
	e, _ := setupAPI(t, &stubAnalysis{data: sampleAnalysis()}, &stubLive{}, &stubBrand{})

	rec := doJSON(e, http.MethodPost, "/api/reports/analyze", map[string]string{
		"address": "1 Main St", "businessType": "Bakery",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodPatch, fmt.Sprintf("/api/reports/%d", created.ID),
		map[string]string{"name": "My Report"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var renamed model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renamed))
	require.NotNil(t, renamed.Name)
	assert.Equal(t, "My Report", *renamed.Name)

	// All other fields unchanged
	assert.Equal(t, created.Address, renamed.Address)
	assert.Equal(t, created.BusinessType, renamed.BusinessType)
	assert.JSONEq(t, string(created.Data), string(renamed.Data))
}

func TestRenameReportValidation(t *testing.T) {
	e, _ := setupAPI(t, &stubAnalysis{data: sampleAnalysis()}, &stubLive{}, &stubBrand{})

	rec := doJSON(e, http.MethodPatch, "/api/reports/abc", map[string]string{"name": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/api/reports/999", map[string]string{"name": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLiveInsights(t *testing.T) {
	insight := &model.LiveInsight{
		Weather: model.LiveWeather{Temp: 72.5, Condition: "sunny", Impact: "good patio weather"},
		Traffic: model.LiveTraffic{Status: "moderate", Delay: "5 min"},
		News:    []model.NewsItem{{Title: "Street fair this weekend"}},
	}
	e, _ := setupAPI(t, &stubAnalysis{data: sampleAnalysis()}, &stubLive{insight: insight}, &stubBrand{})

	// Missing report: 404 before any generation
	rec := doJSON(e, http.MethodGet, "/api/live-insights/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/reports/analyze", map[string]string{
		"address": "1 Main St", "businessType": "Bakery",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/live-insights/%d", created.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.LiveInsight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sunny", got.Weather.Condition)
	require.Len(t, got.News, 1)
}

func TestLiveInsightsGenerationFailure(t *testing.T) {
	e, _ := setupAPI(t, &stubAnalysis{data: sampleAnalysis()},
		&stubLive{err: errors.New("model unavailable")}, &stubBrand{})

	rec := doJSON(e, http.MethodPost, "/api/reports/analyze", map[string]string{
		"address": "1 Main St", "businessType": "Bakery",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/live-insights/%d", created.ID), nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
