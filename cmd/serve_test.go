package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplens/shoplens-cli/internal/config"
	"github.com/shoplens/shoplens-cli/internal/model"
	"github.com/shoplens/shoplens-cli/internal/store"
)

const sampleCSV = `Name,Created at,Lineitem quantity,Lineitem name,Lineitem price,Lineitem variant,Total
#1001,2026-01-15 10:30:00 -0500,2,Classic Tee,25.00,M,75.00
#1001,2026-01-15 10:30:00 -0500,1,Classic Tee,25.00,L,75.00
#1002,2026-01-16 09:00:00 -0500,1,Hoodie,50.00,XL,50.00
`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg = &config.Config{
		User: config.UserConfig{Key: "test"},
		Server: config.ServerConfig{
			AllowedOrigins: []string{"*"},
			RatePerSecond:  1000,
			RateBurst:      1000,
			MaxUploadBytes: 32 << 20,
		},
	}

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	api := &apiServer{st: st, userKey: "test"}
	return api.routes()
}

func multipartCSV(t *testing.T, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, h http.Handler, csv, query string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartCSV(t, "orders.csv", csv)
	req := httptest.NewRequest(http.MethodPost, "/api/upload"+query, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServeHealth(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServeDatasetEmpty(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var d model.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Empty(t, d.Orders)
	assert.Equal(t, 0, d.Summary.TotalOrders)
}

func TestServeUploadStoresDataset(t *testing.T) {
	h := newTestServer(t)

	w := doUpload(t, h, sampleCSV, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Status  string        `json:"status"`
		Summary model.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "stored", resp.Status)
	assert.Equal(t, 2, resp.Summary.TotalOrders)
	assert.InDelta(t, 125.00, resp.Summary.TotalRevenue, 0.001)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var d model.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Len(t, d.Orders, 2)
	assert.Len(t, d.Products, 2)
}

func TestServeUploadMergeSkipsDuplicates(t *testing.T) {
	h := newTestServer(t)

	require.Equal(t, http.StatusOK, doUpload(t, h, sampleCSV, "").Code)

	// Same orders again plus one new one; merge keeps existing records.
	second := sampleCSV + "#1003,2026-01-17 09:00:00 -0500,1,Cap,15.00,,15.00\n"
	w := doUpload(t, h, second, "?mode=merge")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Summary model.Summary   `json:"summary"`
		Upload  model.UploadLog `json:"upload"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Summary.TotalOrders)
	assert.Equal(t, 1, resp.Upload.NewOrders)
	assert.Equal(t, 2, resp.Upload.DuplicateOrders)
}

func TestServeUploadReplaceDropsExisting(t *testing.T) {
	h := newTestServer(t)

	require.Equal(t, http.StatusOK, doUpload(t, h, sampleCSV, "").Code)

	only := `Name,Lineitem name,Total
#2001,Poster,20.00
`
	w := doUpload(t, h, only, "?mode=replace")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Summary model.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Summary.TotalOrders)
}

func TestServeUploadUnknownMode(t *testing.T) {
	h := newTestServer(t)

	w := doUpload(t, h, sampleCSV, "?mode=append")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServeUploadSchemaRejected(t *testing.T) {
	h := newTestServer(t)

	w := doUpload(t, h, "Foo,Bar\n1,2\n", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Kind       string `json:"kind"`
		Diagnostic string `json:"diagnostic"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Kind)
	assert.NotEmpty(t, resp.Diagnostic)
}

func TestServeUploadHeaderOnly(t *testing.T) {
	h := newTestServer(t)

	w := doUpload(t, h, "Name,Lineitem name\n", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "no_rows")
}

func TestServeSettingsRoundTrip(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var settings model.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.True(t, settings.DarkMode)

	settings.SetCost("Classic Tee", 12.5)
	settings.SizeCostingEnabled = true
	body, err := json.Marshal(settings)
	require.NoError(t, err)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var loaded model.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loaded))
	assert.InDelta(t, 12.5, loaded.CostFor("Classic Tee"), 0.001)
	assert.True(t, loaded.SizeCostingEnabled)
}

func TestServeReportAndAnalytics(t *testing.T) {
	h := newTestServer(t)

	require.Equal(t, http.StatusOK, doUpload(t, h, sampleCSV, "").Code)

	for _, path := range []string{"/api/report", "/api/analytics", "/api/products", "/api/products?view=costing", "/api/uploads"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestServeProductsBadCombine(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products?combine=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServeBackupRoundTrip(t *testing.T) {
	h := newTestServer(t)

	require.Equal(t, http.StatusOK, doUpload(t, h, sampleCSV, "").Code)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/backup", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	exported := w.Body.Bytes()

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/dataset", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/backup", bytes.NewReader(exported)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var d model.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Len(t, d.Orders, 2)
}

func TestServeBackupRejectsInvalid(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/backup", strings.NewReader(`{"data":{}}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	limited := rateLimit(0.001, 1)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	limited.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	limited.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
