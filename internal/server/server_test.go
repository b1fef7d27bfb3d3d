package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumegap/internal/ai"
	"resumegap/internal/config"
	"resumegap/internal/errors"
	"resumegap/internal/types"
)

func testLogger() *errors.Logger {
	return errors.NewLoggerTo(io.Discard, slog.LevelDebug)
}

type fakeAnalyzer struct {
	state types.PipelineState
	err   error

	fileName string
	data     []byte
	jobURL   string
	calls    int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, fileName string, data []byte, jobURL string) (types.PipelineState, error) {
	f.calls++
	f.fileName, f.data, f.jobURL = fileName, data, jobURL
	return f.state, f.err
}

type fakeExtractor struct {
	result *types.ExtractionResult
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, fileName string, data []byte) (*types.ExtractionResult, error) {
	if f.err != nil {
		return &types.ExtractionResult{FileName: fileName}, f.err
	}
	return f.result, nil
}

func (f *fakeExtractor) Formats() []string { return []string{"docx", "pdf", "pptx"} }

type fakeModels struct {
	info *ai.ModelInfo
}

func (f *fakeModels) GetModelInfo(ctx context.Context) *ai.ModelInfo { return f.info }
func (f *fakeModels) Stats() map[string]any {
	return map[string]any{"generate": map[string]any{"state": "closed"}}
}

func newTestServer(t *testing.T, cfg ServerConfig, deps Dependencies) *httptest.Server {
	t.Helper()
	s := NewServer(&config.Config{}, cfg, deps, testLogger())
	t.Cleanup(s.cleanupRateLimiter)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func multipartBody(t *testing.T, fileName string, content []byte, jobURL string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := mw.CreateFormFile("resume", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if jobURL != "" {
		require.NoError(t, mw.WriteField("job_url", jobURL))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func post(t *testing.T, srv *httptest.Server, path string, body io.Reader, contentType string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestAnalyzeEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "success",
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"updated_resume": "Built web apps using **Go**"},
		},
		{
			name:       "unsupported document",
			err:        errors.NewExtractionError(errors.ErrCodeUnsupportedFormat, "unsupported file type", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   map[string]any{"error": "Unsupported file type or extraction error."},
		},
		{
			name:       "listing unreachable",
			err:        errors.NewFetchError(errors.ErrCodeFetchStatus, "status 404", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   map[string]any{"error": "Error fetching job description."},
		},
		{
			name:       "generation failure",
			err:        errors.NewGenerationError(errors.ErrCodeGenerationFailed, "stage analyze_gaps failed", nil),
			wantStatus: http.StatusBadGateway,
			wantBody:   map[string]any{"error": "Error generating analysis."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{
				state: types.PipelineState{UpdatedResume: "Built web apps using **Go**", FileType: "docx"},
				err:   tt.err,
			}
			srv := newTestServer(t, ServerConfig{}, Dependencies{Analyzer: analyzer})

			body, ct := multipartBody(t, "resume.docx", []byte("PK-data"), "https://jobs.example.com/42")
			resp, decoded := post(t, srv, "/analyze", body, ct, nil)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, decoded)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
			assert.Equal(t, "resume.docx", analyzer.fileName)
			assert.Equal(t, []byte("PK-data"), analyzer.data)
			assert.Equal(t, "https://jobs.example.com/42", analyzer.jobURL)
		})
	}
}

func TestAnalyzeRejectsBadRequests(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	srv := newTestServer(t, ServerConfig{MaxRequestSize: 512}, Dependencies{Analyzer: analyzer})

	body, ct := multipartBody(t, "", nil, "https://jobs.example.com/1")
	resp, decoded := post(t, srv, "/analyze", body, ct, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing resume file", decoded["error"])

	big, ct := multipartBody(t, "resume.pdf", bytes.Repeat([]byte("x"), 4096), "https://jobs.example.com/1")
	resp, decoded = post(t, srv, "/analyze", big, ct, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "Request too large", decoded["error"])

	resp, _ = post(t, srv, "/analyze", bytes.NewBufferString(`{"job_url":"x"}`), "application/json", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	getResp, err := srv.Client().Get(srv.URL + "/analyze")
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, getResp.StatusCode)

	assert.Zero(t, analyzer.calls)
}

func TestExtractEndpoint(t *testing.T) {
	extractor := &fakeExtractor{result: &types.ExtractionResult{
		FileName:   "resume.docx",
		FileType:   "docx",
		Text:       "Jane Doe",
		Formatting: []types.FormattingSegment{{Text: "Jane Doe", Bold: types.Ptr(true)}},
	}}
	srv := newTestServer(t, ServerConfig{}, Dependencies{Extractor: extractor})

	body, ct := multipartBody(t, "resume.docx", []byte("data"), "")
	resp, decoded := post(t, srv, "/extract", body, ct, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Jane Doe", decoded["text"])
	assert.Len(t, decoded["formatting"], 1)

	extractor.err = errors.NewExtractionError(errors.ErrCodeUnsupportedFormat, "unsupported file type", nil)
	body, ct = multipartBody(t, "notes.txt", []byte("plain"), "")
	resp, decoded = post(t, srv, "/extract", body, ct, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, map[string]any{"error": "Unsupported file type or extraction error."}, decoded)
}

func TestAuthMiddleware(t *testing.T) {
	analyzer := &fakeAnalyzer{state: types.PipelineState{UpdatedResume: "ok"}}
	srv := newTestServer(t, ServerConfig{APIKeys: []string{"secret-key-123"}}, Dependencies{Analyzer: analyzer})

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret-key-123"}, http.StatusOK},
		{"bearer token", map[string]string{"Authorization": "Bearer secret-key-123"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, "resume.docx", []byte("x"), "https://jobs.example.com")
			resp, _ := post(t, srv, "/analyze", body, ct, tt.headers)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestAPIKeyRotation(t *testing.T) {
	s := NewServer(&config.Config{}, ServerConfig{APIKeys: []string{"old-key"}}, Dependencies{
		Analyzer: &fakeAnalyzer{state: types.PipelineState{UpdatedResume: "ok"}},
	}, testLogger())
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	s.SetAPIKeys([]string{"new-key"})

	body, ct := multipartBody(t, "resume.docx", []byte("x"), "https://jobs.example.com")
	resp, _ := post(t, srv, "/analyze", body, ct, map[string]string{"X-API-Key": "old-key"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, ct = multipartBody(t, "resume.docx", []byte("x"), "https://jobs.example.com")
	resp, _ = post(t, srv, "/analyze", body, ct, map[string]string{"X-API-Key": "new-key"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	analyzer := &fakeAnalyzer{state: types.PipelineState{UpdatedResume: "ok"}}
	rl := &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true}
	s := NewServer(&config.Config{}, ServerConfig{RateLimit: rl}, Dependencies{Analyzer: analyzer}, testLogger())
	t.Cleanup(s.cleanupRateLimiter)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	body, ct := multipartBody(t, "resume.docx", []byte("x"), "https://jobs.example.com")
	resp, _ := post(t, srv, "/analyze", body, ct, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, ct = multipartBody(t, "resume.docx", []byte("x"), "https://jobs.example.com")
	resp, decoded := post(t, srv, "/analyze", body, ct, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Rate limit exceeded", decoded["error"])
	assert.Equal(t, 1, analyzer.calls)

	stats := s.RateLimiter.GetStats()
	assert.Equal(t, int64(1), stats["rejected_requests"])
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		info       *ai.ModelInfo
		wantStatus int
		wantState  string
	}{
		{"model available", &ai.ModelInfo{Name: "gemini-test", Available: true}, http.StatusOK, "healthy"},
		{"model down", &ai.ModelInfo{Name: "gemini-test", Error: "quota"}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, ServerConfig{Version: "1.0.0"}, Dependencies{Models: &fakeModels{info: tt.info}})

			resp, err := srv.Client().Get(srv.URL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close()

			var decoded map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantState, decoded["status"])
			assert.Equal(t, "1.0.0", decoded["version"])
			assert.Contains(t, decoded, "circuit_breakers")
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, ServerConfig{MaxRequestSize: 1024, APIKeys: []string{"a", "b"}}, Dependencies{
		Extractor: &fakeExtractor{},
		Models:    &fakeModels{info: &ai.ModelInfo{Available: true}},
	})

	resp, err := srv.Client().Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	serverStats, ok := decoded["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1024), serverStats["max_request_size_bytes"])
	assert.Equal(t, float64(2), serverStats["api_keys_configured"])
	assert.Equal(t, []any{"docx", "pdf", "pptx"}, serverStats["document_formats"])
	assert.Equal(t, map[string]any{"enabled": false}, decoded["rate_limiting"])
}

func TestClientIPAndKeys(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "garbage, 203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", getClientIP(r))
	assert.Equal(t, "ip:203.0.113.7", getRateLimitKey(r, true, true))

	r.Header.Set("Authorization", "Bearer token-xyz")
	assert.Equal(t, "api:token-xyz", getRateLimitKey(r, true, true))
	assert.Equal(t, "", getRateLimitKey(r, false, false))

	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(60, 1, testLogger())
	t.Cleanup(rl.Close)

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return start }
	assert.True(t, rl.Allow("ip:10.0.0.1"))
	assert.False(t, rl.Allow("ip:10.0.0.1"))

	rl.now = func() time.Time { return start.Add(idleLimiterTTL / 2) }
	assert.True(t, rl.Allow("ip:10.0.0.2"))

	rl.now = func() time.Time { return start.Add(idleLimiterTTL + time.Second) }
	assert.Equal(t, 1, rl.evictIdle())

	stats := rl.GetStats()
	assert.Equal(t, 1, stats["active_limiters"])
	assert.Equal(t, int64(1), stats["rejected_requests"])
	assert.Equal(t, 60.0, stats["rate_per_minute"])
}

func TestServerInfo(t *testing.T) {
	rl := &config.RateLimitConfig{Enabled: true, RequestsPerMin: 30, BurstCapacity: 5, ByAPIKey: true}
	s := NewServer(&config.Config{}, ServerConfig{APIKeys: []string{"k1", "k2"}, MaxRequestSize: 11 << 20, RateLimit: rl},
		Dependencies{}, testLogger())
	t.Cleanup(s.cleanupRateLimiter)

	var buf bytes.Buffer
	s.writeServerInfo(&buf)
	out := buf.String()

	assert.Contains(t, out, "POST /analyze")
	assert.Contains(t, out, "API keys: 2 configured")
	assert.Contains(t, out, "Upload limit: 11.0 MB")
	assert.Contains(t, out, "Rate limit: 30/min, burst 5, per API key")
}
