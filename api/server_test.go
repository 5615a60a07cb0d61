package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	scraper "github.com/flavioespinoza/seo-scraper"
	"github.com/flavioespinoza/seo-scraper/db"
	"github.com/flavioespinoza/seo-scraper/feedback"
	"github.com/flavioespinoza/seo-scraper/metrics"
	"github.com/flavioespinoza/seo-scraper/models"
	"github.com/flavioespinoza/seo-scraper/storage"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
<title>Handmade Ceramic Mugs and Bowls for Your Kitchen</title>
<meta name="description" content="Shop our collection of handmade ceramic mugs, bowls and plates. Every product is glazed by hand in our studio and ships worldwide with free returns.">
<link rel="shortcut icon" href="/favicon.ico">
</head>
<body>
<h1>Handmade ceramics</h1>
<img src="/mug.jpg">
</body>
</html>`

const testFeedback = `Summary:
Solid page with a clear focus.

Strengths:
- Descriptive title

Recommendations:
1. Add product schema`

type testEnv struct {
	server     *Server
	site       *httptest.Server
	ollamaDown *atomic.Bool
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/broken":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(testPage))
		default:
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(testPage))
		}
	}))
	t.Cleanup(site.Close)

	ollamaDown := &atomic.Bool{}
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ollamaDown.Load() {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.OllamaResponse{Response: testFeedback, Done: true})
	}))
	t.Cleanup(ollama.Close)

	store, err := storage.New(storage.Config{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	scraperConfig := scraper.DefaultConfig()
	scraperConfig.HTTPTimeout = 100 * time.Millisecond

	config := Config{
		Addr: ":0",
		DBConfig: db.Config{
			Driver: db.DriverSQLite,
			DSN:    t.TempDir() + "/test.db",
		},
		ScraperConfig:  scraperConfig,
		FeedbackConfig: feedback.Config{BaseURL: ollama.URL, Model: "test-model"},
		Store:          store,
		Metrics:        metrics.New(),
		CORSEnabled:    false,
	}

	server, err := NewServer(config)
	if err != nil {
		t.Fatalf("Failed to create test server: %v", err)
	}
	t.Cleanup(func() { server.db.Close() })

	return &testEnv{server: server, site: site, ollamaDown: ollamaDown}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("Failed to marshal body: %v", err)
			}
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) analyze(t *testing.T) *models.Report {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/analyze", AnalyzeRequest{URL: e.site.URL + "/shop"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ReportResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success || resp.Report == nil {
		t.Fatalf("Expected successful response with report, got %+v", resp)
	}
	return resp.Report
}

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", resp["status"])
	}
	if resp["count"] != float64(0) {
		t.Errorf("Expected count 0, got %v", resp["count"])
	}
}

func TestHandleAnalyze(t *testing.T) {
	env := setupTestServer(t)
	report := env.analyze(t)

	if report.URL != env.site.URL+"/shop" {
		t.Errorf("Expected URL %s, got %s", env.site.URL+"/shop", report.URL)
	}
	if report.PageTitle != "Handmade Ceramic Mugs and Bowls for Your Kitchen" {
		t.Errorf("Unexpected page title %q", report.PageTitle)
	}
	if report.AIFeedback != testFeedback {
		t.Errorf("Expected stub feedback, got %q", report.AIFeedback)
	}
	if report.BusinessCategory != "E-commerce" {
		t.Errorf("Expected E-commerce, got %q", report.BusinessCategory)
	}
	if report.SnapshotKey == "" {
		t.Error("Expected snapshot key")
	}
	if report.HasIssues {
		t.Error("Expected complete page to have no issues")
	}

	stored, err := env.server.db.GetReport(t.Context(), report.ID)
	if err != nil || stored == nil {
		t.Fatalf("Expected report persisted, got %v, %v", stored, err)
	}
}

func TestHandleAnalyzeErrors(t *testing.T) {
	env := setupTestServer(t)

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name           string
		body           interface{}
		wantStatusCode int
		wantErrMsg     string
	}{
		{
			name:           "invalid JSON",
			body:           "{not json",
			wantStatusCode: http.StatusBadRequest,
			wantErrMsg:     "invalid request body",
		},
		{
			name:           "missing URL",
			body:           AnalyzeRequest{},
			wantStatusCode: http.StatusBadRequest,
			wantErrMsg:     "url is required",
		},
		{
			name:           "invalid URL",
			body:           AnalyzeRequest{URL: "not-a-url"},
			wantStatusCode: http.StatusBadRequest,
			wantErrMsg:     "invalid URL format",
		},
		{
			name:           "remote not found",
			body:           AnalyzeRequest{URL: env.site.URL + "/missing"},
			wantStatusCode: http.StatusNotFound,
			wantErrMsg:     "failed to fetch URL: 404 Not Found",
		},
		{
			name:           "remote unavailable",
			body:           AnalyzeRequest{URL: env.site.URL + "/broken"},
			wantStatusCode: http.StatusServiceUnavailable,
			wantErrMsg:     "failed to fetch URL: 503 Service Unavailable",
		},
		{
			name:           "timeout",
			body:           AnalyzeRequest{URL: env.site.URL + "/slow"},
			wantStatusCode: http.StatusGatewayTimeout,
			wantErrMsg:     "request timeout - the website took too long to respond",
		},
		{
			name:           "network error",
			body:           AnalyzeRequest{URL: closedURL},
			wantStatusCode: http.StatusBadGateway,
			wantErrMsg:     "failed to scrape URL:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/analyze", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatusCode, w.Code, w.Body.String())
			}

			var errResp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if !strings.HasPrefix(errResp["error"], tt.wantErrMsg) {
				t.Errorf("Expected error starting with %q, got %q", tt.wantErrMsg, errResp["error"])
			}
		})
	}

	count, err := env.server.db.Count(t.Context())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no reports stored after failures, got %d", count)
	}
}

func TestHandleAnalyzeFeedbackFailure(t *testing.T) {
	env := setupTestServer(t)
	env.ollamaDown.Store(true)

	w := env.do(t, http.MethodPost, "/api/analyze", AnalyzeRequest{URL: env.site.URL})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ollama API error") {
		t.Errorf("Expected ollama error in body, got %s", w.Body.String())
	}
}

func TestReportLifecycle(t *testing.T) {
	env := setupTestServer(t)
	report := env.analyze(t)

	t.Run("get", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/reports/"+report.ID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp ReportResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Report.ID != report.ID {
			t.Errorf("Expected report %s, got %s", report.ID, resp.Report.ID)
		}
	})

	t.Run("export markdown", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/reports/"+report.ID+"/export", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
			t.Errorf("Expected markdown content type, got %s", ct)
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment; filename=\"seo-report-") {
			t.Errorf("Unexpected Content-Disposition %q", cd)
		}
		if !strings.Contains(w.Body.String(), "## AI-Powered SEO Analysis") {
			t.Error("Expected AI section in markdown export")
		}
	})

	t.Run("export yaml", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/reports/"+report.ID+"/export?format=yaml", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "id: "+report.ID) {
			t.Error("Expected report id in YAML export")
		}
	})

	t.Run("export rejects history format", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/reports/"+report.ID+"/export?format=csv", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("snapshot", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/reports/"+report.ID+"/snapshot", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != testPage {
			t.Error("Expected snapshot to match fetched page")
		}
	})

	t.Run("delete", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/reports/"+report.ID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		if _, err := env.server.store.Read(t.Context(), report.SnapshotKey); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected snapshot removed, got %v", err)
		}

		for _, path := range []string{
			"/api/reports/" + report.ID,
			"/api/reports/" + report.ID + "/snapshot",
		} {
			if w := env.do(t, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
				t.Errorf("GET %s: expected status 404, got %d", path, w.Code)
			}
		}
		if w := env.do(t, http.MethodDelete, "/api/reports/"+report.ID, nil); w.Code != http.StatusNotFound {
			t.Errorf("Expected second delete to return 404, got %d", w.Code)
		}
	})
}

func TestHandleListReports(t *testing.T) {
	env := setupTestServer(t)
	first := env.analyze(t)
	env.analyze(t)

	t.Run("default", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/reports", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp ListResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Total != 2 || resp.Count != 2 {
			t.Errorf("Expected 2 reports, got count=%d total=%d", resp.Count, resp.Total)
		}
		if resp.Limit != db.DefaultListLimit {
			t.Errorf("Expected default limit %d, got %d", db.DefaultListLimit, resp.Limit)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/reports?limit=1&offset=1", nil)
		var resp ListResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Count != 1 || resp.Total != 2 {
			t.Errorf("Expected 1 of 2 reports, got count=%d total=%d", resp.Count, resp.Total)
		}
		if resp.Reports[0].ID != first.ID {
			t.Errorf("Expected oldest report on second page, got %s", resp.Reports[0].ID)
		}
	})

	t.Run("filters", func(t *testing.T) {
		tests := []struct {
			query string
			want  int
		}{
			{"category=E-commerce", 2},
			{"category=Healthcare", 0},
			{"has_issues=false", 2},
			{"has_issues=true", 0},
			{"tag=Optimized", 2},
		}
		for _, tt := range tests {
			w := env.do(t, http.MethodGet, "/api/reports?"+tt.query, nil)
			var resp ListResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("%s: failed to decode response: %v", tt.query, err)
			}
			if resp.Total != tt.want {
				t.Errorf("%s: expected %d reports, got %d", tt.query, tt.want, resp.Total)
			}
		}
	})

	t.Run("invalid parameters", func(t *testing.T) {
		for _, query := range []string{"has_issues=maybe", "limit=ten", "offset=x"} {
			if w := env.do(t, http.MethodGet, "/api/reports?"+query, nil); w.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status 400, got %d", query, w.Code)
			}
		}
	})
}

func TestHandleExportHistory(t *testing.T) {
	env := setupTestServer(t)
	report := env.analyze(t)

	tests := []struct {
		query       string
		wantStatus  int
		contentType string
	}{
		{"", http.StatusOK, "text/csv"},
		{"?format=xlsx", http.StatusOK, "application/vnd.openxmlformats"},
		{"?format=json", http.StatusOK, "application/json"},
		{"?format=markdown", http.StatusBadRequest, "application/json"},
		{"?format=pdf", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run("format"+tt.query, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/reports/export"+tt.query, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Expected content type %s, got %s", tt.contentType, ct)
			}
		})
	}

	w := env.do(t, http.MethodGet, "/api/reports/export?format=csv", nil)
	if !strings.Contains(w.Body.String(), report.ID) {
		t.Error("Expected report ID in CSV export")
	}
}

func TestHandleTags(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/api/tags", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp TagsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Status) != 4 {
		t.Errorf("Expected 4 status tags, got %d", len(resp.Status))
	}
	if len(resp.Technical) != 10 {
		t.Errorf("Expected 10 technical tags, got %d", len(resp.Technical))
	}
	if len(resp.Business) != 15 || resp.Business[14] != "Other" {
		t.Errorf("Expected 15 categories ending with Other, got %v", resp.Business)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodGet, "/api/tags", nil)
	env.server.UpdateReportMetrics(t.Context())

	w := env.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`seo_scraper_http_requests_total{method="GET",route="/api/tags",status="200"} 1`,
		"seo_scraper_reports_stored 0",
		"go_sql_open_connections",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics to contain %q", want)
		}
	}
}

func TestCORS(t *testing.T) {
	env := setupTestServer(t)
	env.server.corsEnabled = true

	w := env.do(t, http.MethodOptions, "/api/analyze", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected preflight status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid url", &scraper.Error{Kind: scraper.KindInvalidURL}, http.StatusBadRequest},
		{"remote 404", &scraper.Error{Kind: scraper.KindFetchFailed, StatusCode: 404}, http.StatusNotFound},
		{"remote 500", &scraper.Error{Kind: scraper.KindFetchFailed, StatusCode: 500}, http.StatusInternalServerError},
		{"remote redirect", &scraper.Error{Kind: scraper.KindFetchFailed, StatusCode: 304}, http.StatusBadGateway},
		{"timeout", &scraper.Error{Kind: scraper.KindTimeout}, http.StatusGatewayTimeout},
		{"network", &scraper.Error{Kind: scraper.KindNetwork}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError() = %d, want %d", got, tt.want)
			}
		})
	}
}
