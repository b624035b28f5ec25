package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/speech-relay/internal/config"
	"github.com/deppfellow/speech-relay/internal/handler"
	"github.com/deppfellow/speech-relay/internal/metrics"
	"github.com/deppfellow/speech-relay/internal/model"
	"github.com/deppfellow/speech-relay/internal/router"
	"github.com/deppfellow/speech-relay/internal/server"
	"github.com/deppfellow/speech-relay/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "forsen-secret"

type fakeSynthesizer struct {
	mu       sync.Mutex
	requests []*model.SynthesisRequest

	audio string
	err   error
	panic bool
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, req *model.SynthesisRequest) (*model.SynthesisResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.panic {
		panic("synthesizer exploded")
	}

	if f.err != nil {
		return nil, f.err
	}

	return &model.SynthesisResult{Audio: f.audio}, nil
}

func (f *fakeSynthesizer) calls() []*model.SynthesisRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.SynthesisRequest(nil), f.requests...)
}

func newTestRouter(t *testing.T, synth *fakeSynthesizer) *echo.Echo {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Auth.APIKey = testAPIKey
	cfg.Synthesis.AccountID = "account"
	cfg.Synthesis.APIToken = "token"

	logger := zerolog.Nop()

	s := &server.Server{
		Config:      cfg,
		Logger:      &logger,
		Synthesizer: synth,
	}

	services, err := service.NewServices(s)
	require.NoError(t, err)

	return router.NewRouter(s, handler.NewHandlers(s, services))
}

func do(r *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func withKey(headers ...string) map[string]string {
	h := map[string]string{"X-Api-Key": testAPIKey}
	for i := 0; i+1 < len(headers); i += 2 {
		h[headers[i]] = headers[i+1]
	}
	return h
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, X-Api-Key, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	body := map[string]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPreflight(t *testing.T) {
	synth := &fakeSynthesizer{audio: "AAAA"}
	r := newTestRouter(t, synth)

	for _, path := range []string{"/", "/some/deep/path"} {
		rec := do(r, http.MethodOptions, path, "{not json", map[string]string{
			"X-Api-Key":                     "wrong",
			"Origin":                        "https://example.com",
			"Access-Control-Request-Method": "POST",
		})

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
		assertCORS(t, rec)
	}

	assert.Empty(t, synth.calls())
}

func TestMethodNotAllowed(t *testing.T) {
	r := newTestRouter(t, &fakeSynthesizer{audio: "AAAA"})

	methods := []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete}

	for _, method := range methods {
		for _, path := range []string{"/", "/tts"} {
			rec := do(r, method, path, `{"prompt":"hi"}`, withKey())

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method+" "+path)
			assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assertCORS(t, rec)
		}
	}
}

func TestUnauthorized(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "no credential", headers: map[string]string{}},
		{name: "wrong api key", headers: map[string]string{"X-Api-Key": "nope"}},
		{name: "wrong authorization", headers: map[string]string{"Authorization": "nope"}},
		{name: "bearer scheme is not stripped", headers: map[string]string{"Authorization": "Bearer " + testAPIKey}},
		{name: "api key wins over authorization", headers: map[string]string{"X-Api-Key": "nope", "Authorization": testAPIKey}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &fakeSynthesizer{audio: "AAAA"}
			r := newTestRouter(t, synth)

			rec := do(r, http.MethodPost, "/", `{"prompt":"hello"}`, tt.headers)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized: Invalid or missing API key"}`, rec.Body.String())
			assertCORS(t, rec)
			assert.Empty(t, synth.calls())
		})
	}
}

func TestAuthorizationFallback(t *testing.T) {
	synth := &fakeSynthesizer{audio: "AAAA"}
	r := newTestRouter(t, synth)

	rec := do(r, http.MethodPost, "/", `{"prompt":"hello"}`, map[string]string{"Authorization": testAPIKey})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, synth.calls(), 1)
}

func TestMissingPrompt(t *testing.T) {
	bodies := []string{
		`{}`, `{"lang":"fr"}`,
		`{"prompt":""}`, `{"prompt":null}`, `{"prompt":0}`, `{"prompt":false}`,
		`[]`, `"hello"`, `42`,
	}

	for _, body := range bodies {
		synth := &fakeSynthesizer{audio: "AAAA"}
		r := newTestRouter(t, synth)

		rec := do(r, http.MethodPost, "/", body, withKey())

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Missing prompt parameter"}`, rec.Body.String())
		assertCORS(t, rec)
		assert.Empty(t, synth.calls())
	}
}

func TestSuccess(t *testing.T) {
	synth := &fakeSynthesizer{audio: "UklGRiQAAABXQVZF"}
	r := newTestRouter(t, synth)

	rec := do(r, http.MethodPost, "/", `{"prompt":"Hello world","lang":"es"}`, withKey("Content-Type", "application/json"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"audio":"UklGRiQAAABXQVZF"}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assertCORS(t, rec)

	calls := synth.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Hello world", calls[0].Prompt)
	assert.Equal(t, "es", calls[0].Lang)
}

func TestBodyParsedWithoutContentType(t *testing.T) {
	synth := &fakeSynthesizer{audio: "AAAA"}
	r := newTestRouter(t, synth)

	rec := do(r, http.MethodPost, "/any/path", `{"prompt":"hi"}`, withKey("Content-Type", "text/plain"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, synth.calls(), 1)
}

func TestDefaultLang(t *testing.T) {
	for _, body := range []string{`{"prompt":"hi"}`, `{"prompt":"hi","lang":""}`, `{"prompt":"hi","lang":false}`} {
		synth := &fakeSynthesizer{audio: "AAAA"}
		r := newTestRouter(t, synth)

		rec := do(r, http.MethodPost, "/", body, withKey())

		require.Equal(t, http.StatusOK, rec.Code)
		calls := synth.calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "en", calls[0].Lang)
	}
}

func TestPromptTruncation(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{name: "ascii", prompt: strings.Repeat("a", 3500), want: strings.Repeat("a", 3000)},
		{name: "multi-byte", prompt: strings.Repeat("é", 3001), want: strings.Repeat("é", 3000)},
		{name: "exactly at limit", prompt: strings.Repeat("b", 3000), want: strings.Repeat("b", 3000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &fakeSynthesizer{audio: "AAAA"}
			r := newTestRouter(t, synth)

			body, err := json.Marshal(map[string]string{"prompt": tt.prompt})
			require.NoError(t, err)

			rec := do(r, http.MethodPost, "/", string(body), withKey())

			require.Equal(t, http.StatusOK, rec.Code)
			calls := synth.calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.want, calls[0].Prompt)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	bodies := []string{
		`{"prompt":`, `not json`, ``, `null`, `{"prompt":42}`,
		`{"prompt":"hi"} trailing garbage`, `{"prompt":"hi"}{"x":1}`,
	}

	for _, body := range bodies {
		synth := &fakeSynthesizer{audio: "AAAA"}
		r := newTestRouter(t, synth)

		rec := do(r, http.MethodPost, "/", body, withKey())

		assert.Equal(t, http.StatusInternalServerError, rec.Code, body)
		assertCORS(t, rec)

		got := decodeBody(t, rec)
		assert.Equal(t, "Failed to generate speech", got["error"])
		assert.NotEmpty(t, got["details"])
		assert.Empty(t, synth.calls())
	}
}

func TestUpstreamFailure(t *testing.T) {
	synth := &fakeSynthesizer{err: errors.New("InferenceUpstreamError: model overloaded")}
	r := newTestRouter(t, synth)

	rec := do(r, http.MethodPost, "/", `{"prompt":"hi"}`, withKey())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t,
		`{"error":"Failed to generate speech","details":"InferenceUpstreamError: model overloaded"}`,
		rec.Body.String(),
	)
	assertCORS(t, rec)
}

func TestSynthesizerPanic(t *testing.T) {
	synth := &fakeSynthesizer{panic: true}
	r := newTestRouter(t, synth)

	rec := do(r, http.MethodPost, "/", `{"prompt":"hi"}`, withKey())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assertCORS(t, rec)

	got := decodeBody(t, rec)
	assert.Equal(t, "Failed to generate speech", got["error"])
	assert.Contains(t, got["details"], "synthesizer exploded")
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newTestRouter(t, &fakeSynthesizer{audio: "AAAA"})

	rec := do(r, http.MethodPost, "/", `{"prompt":"hi"}`, withKey("X-Request-ID", "req-123"))

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRequestsAreCounted(t *testing.T) {
	r := newTestRouter(t, &fakeSynthesizer{audio: "AAAA"})

	unauthorized := metrics.Requests.WithLabelValues("401")
	ok := metrics.Requests.WithLabelValues("200")

	beforeUnauthorized := testutil.ToFloat64(unauthorized)
	beforeOK := testutil.ToFloat64(ok)

	do(r, http.MethodPost, "/", `{"prompt":"hi"}`, map[string]string{"X-Api-Key": "nope"})
	do(r, http.MethodPost, "/", `{"prompt":"hi"}`, withKey())

	assert.Equal(t, beforeUnauthorized+1, testutil.ToFloat64(unauthorized))
	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
}
