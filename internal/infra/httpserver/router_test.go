package httpserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appdocs "github.com/bryanwahyu/docutrust/internal/application/documents"
	"github.com/bryanwahyu/docutrust/internal/config"
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
	"github.com/bryanwahyu/docutrust/internal/infra/analysis/extract"
	"github.com/bryanwahyu/docutrust/internal/infra/analysis/format"
	"github.com/bryanwahyu/docutrust/internal/infra/analysis/imagecheck"
	memcache "github.com/bryanwahyu/docutrust/internal/infra/cache"
	"github.com/bryanwahyu/docutrust/internal/middleware"
)

func newTestHandler() http.Handler {
	cfg := config.DefaultEngine()
	svc := &appdocs.Service{
		Cache:         memcache.New(24*time.Hour, 0, domain.SystemClock{}),
		Extractor:     extract.New(),
		Format:        format.NewInspector(cfg),
		Image:         imagecheck.NewAnalyzer(cfg),
		Clock:         domain.SystemClock{},
		Fingerprinter: appdocs.NewFingerprinter(cfg.MaxUploadMiB),
	}
	return NewRouter(svc)
}

func multipartUpload(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestHandleValidateReturnsReport(t *testing.T) {
	h := newTestHandler()

	doc := []byte("Date: 2026-01-15.\nAmount: 100.00.\nSignature: X.\nParty one agrees to the terms.\n" +
		"Line five of the body.\nLine six of the body.\nLine seven of the body.\n" +
		"Line eight of the body.\nLine nine of the body.\nLine ten of the body.\n")
	body, ctype := multipartUpload(t, "file", "contract.txt", doc)

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/documents/validate", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		ReportID string `json:"report_id"`
		Summary  struct {
			Status string `json:"status"`
		} `json:"summary"`
		Cached bool `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.NotEmpty(t, report.ReportID)
	assert.NotEmpty(t, report.Summary.Status)
	assert.False(t, report.Cached)
}

func TestHandleValidateRejectionIs400(t *testing.T) {
	h := newTestHandler()
	body, ctype := multipartUpload(t, "file", "empty.txt", []byte("   "))

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/documents/validate", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var verr struct {
		Code     string `json:"code"`
		Metadata struct {
			FileName string `json:"file_name"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verr))
	assert.Equal(t, "empty_file", verr.Code)
	assert.Equal(t, "empty.txt", verr.Metadata.FileName)
}

func TestHandleValidateMissingFileField(t *testing.T) {
	h := newTestHandler()
	body, ctype := multipartUpload(t, "wrong", "a.txt", []byte("data"))

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/documents/validate", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_request")
}

func TestHandleValidateRejectsBadTenant(t *testing.T) {
	h := newTestHandler()
	body, ctype := multipartUpload(t, "file", "a.txt", []byte("data"))

	req := httptest.NewRequest(http.MethodPost, "/v1/ac%20me!/documents/validate", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_request")
}

func TestHandleValidateRejectsTraversalFileName(t *testing.T) {
	h := newTestHandler()
	body, ctype := multipartUpload(t, "file", "../../etc/passwd", []byte("data"))

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/documents/validate", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_request")
}

func TestVersionEndpointsRejectMalformedHash(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/documents/versions/nothex", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/acme/cache/nothex", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareRejectsNonPositiveVersion(t *testing.T) {
	h := newTestHandler()
	hash := strings.Repeat("ab", 32)

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/documents/compare/"+hash+"/0/2", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateBumpsCounters(t *testing.T) {
	h := newTestHandler()

	total0 := middleware.GetMetrics()["validations_total"].(uint64)
	rejected0 := middleware.GetMetrics()["validations_rejected"].(uint64)

	body, ctype := multipartUpload(t, "file", "empty.txt", []byte("   "))
	req := httptest.NewRequest(http.MethodPost, "/v1/acme/documents/validate", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	m := middleware.GetMetrics()
	assert.Equal(t, total0+1, m["validations_total"].(uint64))
	assert.Equal(t, rejected0+1, m["validations_rejected"].(uint64))
}

func TestCacheEndpoints(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/acme/cache/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.CacheStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalEntries)

	req = httptest.NewRequest(http.MethodPost, "/v1/acme/cache/clear/all", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.Zero(t, cleared["cleared"])
}

func TestHealth(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
