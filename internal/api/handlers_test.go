package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/msa-market-engine/internal/auth"
	"github.com/ajharbinger/msa-market-engine/internal/errors"
	"github.com/ajharbinger/msa-market-engine/internal/metrics"
	"github.com/ajharbinger/msa-market-engine/internal/services"
	"github.com/ajharbinger/msa-market-engine/pkg/config"
)

type testRouter struct {
	engine   *gin.Engine
	datasets *MockDatasetService
	profiles *MockProfileService
}

func newTestRouter(t *testing.T, cfg *config.Config, db HealthChecker) *testRouter {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if cfg == nil {
		cfg = &config.Config{}
	}
	tr := &testRouter{
		engine:   gin.New(),
		datasets: &MockDatasetService{},
		profiles: NewMockProfileService(),
	}
	svc := &services.Services{
		Analytics: services.NewAnalyticsService(config.DefaultEngineProfile(), tr.datasets, nil, nil),
		Datasets:  tr.datasets,
		Profiles:  tr.profiles,
	}
	require.NoError(t, SetupRoutes(tr.engine, RouterOptions{
		Config:   cfg,
		Services: svc,
		DB:       db,
		Metrics:  metrics.New(),
	}))
	return tr
}

func (tr *testRouter) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	tr.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

const scoreBody = `{
	"mode": "weights",
	"records": [
		{"msa": "TX-Austin", "product": "Treasury", "market_size": 1000, "parameters": {
			"market_size": "High", "revenue_growth": "High", "market_growth": "High",
			"market_concentration": "Low", "credit_risk": "Low", "risk_migration": "Low",
			"relative_risk_migration": "Below National Avg", "premium_discount": "Premium",
			"pricing_rationality": "Rational"}},
		{"msa": "WA-Seattle", "product": "Treasury", "market_size": 2000, "parameters": {
			"market_size": "Low", "credit_risk": "High"}}
	]
}`

func TestScoreEndpoint(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	w := tr.do(http.MethodPost, "/api/v1/score", scoreBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decode(t, w)
	assert.Contains(t, response, "timestamp")
	assert.Equal(t, "weights", response["mode"])
	assert.Equal(t, float64(100), response["weights_total"])

	records := response["records"].([]interface{})
	require.Len(t, records, 2)
	first := records[0].(map[string]interface{})
	assert.Equal(t, "TX-Austin", first["msa"])
	assert.Equal(t, 3.0, first["attractiveness_score"])
}

func TestScoreEndpoint_Errors(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	w := tr.do(http.MethodPost, "/api/v1/score", `{"records": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/score", `{"mode": "ranked", "records": []}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeInvalidInput, decode(t, w)["code"])

	w = tr.do(http.MethodPost, "/api/v1/score", `{"records": [{"msa": "X", "parameters": {"nonsense": "High"}}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilterEndpoint(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	body := `{
		"records": [
			{"msa": "TX-Austin", "market_size": 1000},
			{"msa": "WA-Seattle", "market_size": 5000}
		],
		"filters": {"selected_regions": ["Far West"]}
	}`
	w := tr.do(http.MethodPost, "/api/v1/filter", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decode(t, w)
	assert.Equal(t, float64(2), response["total"])
	assert.Equal(t, float64(1), response["visible"])
	assert.Equal(t, map[string]interface{}{"Far West": float64(1)}, response["region_counts"])
}

func TestAcquisitionImpactEndpoint(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	body := `{
		"acquirer_records": [{"msa": "TX-Austin", "provider": "First Bank", "market_share_pct": 20, "market_size": 1000}],
		"target_records": [{"msa": "TX-Austin", "provider": "Lone Star", "market_share_pct": 15, "market_size": 1000}],
		"deposit_records": [
			{"msa": "TX-Austin", "provider": "First Bank", "market_share_pct": 20},
			{"msa": "TX-Austin", "provider": "Lone Star", "market_share_pct": 15}
		],
		"haircut_pct": 0
	}`
	w := tr.do(http.MethodPost, "/api/v1/acquisition-impact", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decode(t, w)
	rows := response["rows"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, float64(625), row["current_hhi"])
	assert.Equal(t, float64(1225), row["new_hhi"])
	assert.Equal(t, false, row["regulatory_risk"])
	assert.Equal(t, float64(35), row["projected_share"])

	w = tr.do(http.MethodPost, "/api/v1/acquisition-impact", `{"acquirer": "First Bank", "target": "First Bank"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProvidersEndpoint(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	body := `{"opportunities": [
		{"msa": "TX-Austin", "provider": "First Bank", "market_share_pct": 20, "market_size": 1000, "defend_dollars": 50, "included_in_ranking": true},
		{"msa": "TX-Dallas", "provider": "First Bank", "market_share_pct": 10, "market_size": 3000, "included_in_ranking": true}
	]}`
	w := tr.do(http.MethodPost, "/api/v1/market/providers", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decode(t, w)
	providers := response["providers"].([]interface{})
	require.Len(t, providers, 1)
	first := providers[0].(map[string]interface{})
	assert.Equal(t, float64(500), first["market_share_dollars"])
	assert.Equal(t, float64(2), first["msas_penetrated"])
	assert.Equal(t, float64(10), first["market_share_at_risk_pct"])
}

func TestWeightsAndBucketEndpoints(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	w := tr.do(http.MethodGet, "/api/v1/weights/default", "")
	require.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, float64(100), response["total"])
	assert.Equal(t, float64(15), response["weights"].(map[string]interface{})["market_size"])

	w = tr.do(http.MethodPost, "/api/v1/weights/from-buckets", `{"bucket_assignments": [
		{"parameter_id": "market_growth", "selected_target_value": "High", "bucket": "high"}
	]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(100), decode(t, w)["total"])

	w = tr.do(http.MethodPost, "/api/v1/buckets/assign", `{"parameter_id": "Credit Risk", "selected_target_value": "low", "bucket": "medium"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode(t, w)["bucket_assignments"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "credit_risk", list[0].(map[string]interface{})["parameter_id"])

	w = tr.do(http.MethodPost, "/api/v1/buckets/remove", `{"bucket_assignments": [
		{"parameter_id": "credit_risk", "selected_target_value": "Low", "bucket": "medium"}
	], "parameter_id": "credit_risk", "selected_target_value": "Low"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode(t, w)["bucket_assignments"])

	w = tr.do(http.MethodPost, "/api/v1/buckets/assign", `{"parameter_id": "credit_risk", "selected_target_value": "Low", "bucket": "top"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveRegionEndpoint(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	w := tr.do(http.MethodGet, "/api/v1/regions/resolve?msa=NC-SC-Charlotte-Concord-Gastonia", "")
	require.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, "Southeast", response["region"])
	assert.Equal(t, []interface{}{"NC", "SC"}, response["state_codes"])

	w = tr.do(http.MethodGet, "/api/v1/regions/resolve?msa=Somewhere&lat=47&lon=-122", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Far West", decode(t, w)["region"])

	w = tr.do(http.MethodGet, "/api/v1/regions/resolve?lat=abc&lon=1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/regions/resolve", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestDatasetUploadEndpoint(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	body, contentType := multipartUpload(t, "file", "deposits.html", "<table><tr><th>MSA</th></tr></table>\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets/deposits/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	tr.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "html", string(tr.datasets.lastFormat))
	assert.Equal(t, "deposits.html", decode(t, w)["filename"])

	w = tr.do(http.MethodGet, "/api/v1/datasets/deposits", "")
	require.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, true, response["stored"])
	assert.Equal(t, "deposits", response["kind"])

	// format override
	body, contentType = multipartUpload(t, "file", "export.txt", "MSA\nTX-Austin\n")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/datasets/markets/upload?format=csv", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	tr.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "csv", string(tr.datasets.lastFormat))
}

func TestDatasetUploadEndpoint_Errors(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	testCases := []struct {
		name   string
		path   string
		field  string
		status int
	}{
		{"unknown kind", "/api/v1/datasets/companies/upload", "file", http.StatusBadRequest},
		{"missing file", "/api/v1/datasets/deposits/upload", "", http.StatusBadRequest},
		{"wrong field", "/api/v1/datasets/deposits/upload", "csv_file", http.StatusBadRequest},
		{"bad format", "/api/v1/datasets/deposits/upload?format=xlsx", "file", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tc.field, "d.csv", "MSA\nTX-Austin\n")
			req := httptest.NewRequest(http.MethodPost, tc.path, body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			tr.engine.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestStorageEndpointsWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, SetupRoutes(r, RouterOptions{
		Config:   &config.Config{},
		Services: services.NewServices(nil, config.DefaultEngineProfile(), nil, nil),
	}))

	for _, path := range []string{"/api/v1/datasets/deposits", "/api/v1/profiles"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/score", strings.NewReader(`{"use_stored_data": true}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProfileEndpoints(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	w := tr.do(http.MethodPost, "/api/v1/profiles", `{"name": "Growth", "settings": {"mode": "buckets"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	profile := decode(t, w)["profile"].(map[string]interface{})
	id := profile["id"].(string)

	w = tr.do(http.MethodPost, "/api/v1/profiles", `{"name": "Growth"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/profiles", `{"description": "no name"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/profiles/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = tr.do(http.MethodPut, "/api/v1/profiles/"+id, `{"name": "Renamed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decode(t, w)["profile"].(map[string]interface{})["name"])

	w = tr.do(http.MethodGet, "/api/v1/profiles", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = tr.do(http.MethodDelete, "/api/v1/profiles/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/profiles/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/profiles/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		tr := newTestRouter(t, nil, nil)
		w := tr.do(http.MethodGet, "/api/v1/health", "")
		require.Equal(t, http.StatusOK, w.Code)

		response := decode(t, w)
		assert.Equal(t, true, response["healthy"])
		assert.Equal(t, "disabled", response["database"].(map[string]interface{})["status"])
	})

	t.Run("healthy database", func(t *testing.T) {
		tr := newTestRouter(t, nil, &MockHealthChecker{})
		w := tr.do(http.MethodGet, "/api/v1/health", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", decode(t, w)["database"].(map[string]interface{})["status"])
	})

	t.Run("unreachable database", func(t *testing.T) {
		tr := newTestRouter(t, nil, &MockHealthChecker{err: stderrors.New("connection refused")})
		w := tr.do(http.MethodGet, "/api/v1/health", "")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		response := decode(t, w)
		assert.Equal(t, false, response["healthy"])
		assert.Equal(t, "degraded", response["status"])
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	tr.do(http.MethodPost, "/api/v1/score", scoreBody)
	w := tr.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAuthFlow(t *testing.T) {
	hash, err := auth.HashAPIKey("correct-key")
	require.NoError(t, err)
	tr := newTestRouter(t, &config.Config{JWTSecret: "test-secret", APIKeyHash: hash}, nil)

	w := tr.do(http.MethodGet, "/api/v1/weights/default", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/auth/token", `{"api_key": "wrong-key"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/auth/token", `{"api_key": "correct-key", "scope": "admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/auth/token", `{"api_key": "correct-key", "client": "analyst"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	response := decode(t, w)
	assert.Equal(t, "read", response["scope"])
	readToken := response["access_token"].(string)

	w = tr.do(http.MethodGet, "/api/v1/weights/default", "", "Authorization", "Bearer "+readToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/profiles", `{"name": "p"}`, "Authorization", "Bearer "+readToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/auth/token", `{"api_key": "correct-key", "scope": "write"}`)
	require.Equal(t, http.StatusOK, w.Code)
	writeToken := decode(t, w)["access_token"].(string)

	w = tr.do(http.MethodPost, "/api/v1/profiles", `{"name": "p"}`, "Authorization", "Bearer "+writeToken)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAuthTokenDisabled(t *testing.T) {
	tr := newTestRouter(t, nil, nil)

	w := tr.do(http.MethodPost, "/api/v1/auth/token", `{"api_key": "anything"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusForCode(t *testing.T) {
	testCases := map[string]int{
		errors.ErrCodeInvalidInput:       http.StatusBadRequest,
		errors.ErrCodeValidationError:    http.StatusBadRequest,
		errors.ErrCodeUnauthorized:       http.StatusUnauthorized,
		errors.ErrCodeForbidden:          http.StatusForbidden,
		errors.ErrCodeNotFound:           http.StatusNotFound,
		errors.ErrCodeConflict:           http.StatusConflict,
		errors.ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
		errors.ErrCodeDatabaseError:      http.StatusInternalServerError,
		errors.ErrCodeInternalError:      http.StatusInternalServerError,
		"SOMETHING_NEW":                  http.StatusInternalServerError,
	}
	for code, status := range testCases {
		assert.Equal(t, status, statusForCode(code), code)
	}
}
