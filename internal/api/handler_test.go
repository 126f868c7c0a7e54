package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/engine"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/formula"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/lookup"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/export"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/generation"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/template"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/testutil"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/validation"
)

func f64(v float64) *float64 { return &v }

func i64(v int64) *int64 { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func campaignTemplate() *domain.Template {
	return &domain.Template{
		ID:       "campaign_performance",
		DataType: "campaign_performance",
		Rules: []domain.GenerationRule{
			{Field: "spend", Method: domain.MethodStatistical, Params: domain.RuleParams{
				Distribution: domain.DistributionNormal, Mean: 2500, StdDev: 1200,
				Min: f64(100), Max: f64(10000),
			}},
			{Field: "channel", Method: domain.MethodLookupTable, Params: domain.RuleParams{
				LookupTable: "channels",
			}},
			{Field: "conversions", Method: domain.MethodFormula, Params: domain.RuleParams{
				Formula: "spend / 25.0", Dependencies: []string{"spend"},
			}},
		},
	}
}

func minimalTemplate(id string) *domain.Template {
	return &domain.Template{
		ID:       id,
		DataType: "metric",
		Rules: []domain.GenerationRule{
			{Field: "value", Method: domain.MethodStatistical, Params: domain.RuleParams{
				Distribution: domain.DistributionUniform, Min: f64(0), Max: f64(1),
			}},
		},
	}
}

// apiStack wires the real services against in-memory stores and serves them
// over httptest, so handler tests exercise the same paths production does.
type apiStack struct {
	handler   *Handler
	templates *template.Service
	lookups   *lookup.Registry
	runs      *testutil.MockRunStore
	sink      *testutil.MockRecordSink
	keys      *testutil.MockAPIKeyStore
	objects   *testutil.MockObjectStore
	server    *httptest.Server
}

func newAPIStack(t *testing.T) *apiStack {
	t.Helper()
	reg := lookup.NewRegistry()
	require.NoError(t, reg.Register("channels", []string{"search", "social", "email", "display"}))

	eng := engine.New(reg, formula.NewRuntime(), discardLogger())
	templates := template.NewService(eng, validation.NewPolicyRegistry(), nil, discardLogger())
	runs := &testutil.MockRunStore{}
	sink := &testutil.MockRecordSink{}
	gen := generation.NewService(templates, eng, runs, sink, discardLogger(), 4)
	objects := &testutil.MockObjectStore{}
	exporter := export.NewService(objects, discardLogger())
	keys := &testutil.MockAPIKeyStore{}

	h := NewHandler(templates, reg, gen, exporter, runs, keys, discardLogger())
	r := chi.NewRouter()
	MountRoutes(r, h, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &apiStack{
		handler:   h,
		templates: templates,
		lookups:   reg,
		runs:      runs,
		sink:      sink,
		keys:      keys,
		objects:   objects,
		server:    srv,
	}
}

func (s *apiStack) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, rd)
	require.NoError(t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

// doRaw sends body verbatim, for malformed payload tests.
func (s *apiStack) doRaw(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func mustRegister(t *testing.T, s *apiStack, tmpl *domain.Template) {
	t.Helper()
	require.NoError(t, s.templates.Register(context.Background(), tmpl))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newAPIStack(t)
	resp := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeInto(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, domain.GeneratorVersion, body["version"])
}

func TestMountRoutes_AuthGuardsV1(t *testing.T) {
	t.Parallel()

	s := newAPIStack(t)
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
		})
	}
	r := chi.NewRouter()
	MountRoutes(r, s.handler, deny)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, path := range []string{"/v1/templates", "/v1/runs", "/v1/generate"} {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
	}
}

func TestHTTPStatusFromDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrNotFound("template %q not found", "x"), http.StatusNotFound},
		{"access denied", domain.ErrAccessDenied("nope"), http.StatusForbidden},
		{"validation", domain.ErrValidation("bad input"), http.StatusBadRequest},
		{"formula", domain.ErrFormula("parse error"), http.StatusBadRequest},
		{"conflict", domain.ErrConflict("duplicate"), http.StatusConflict},
		{"unknown", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, httpStatusFromDomainError(tt.err))
		})
	}
}

func TestDecodeJSON_RejectsMalformedBody(t *testing.T) {
	t.Parallel()

	s := newAPIStack(t)
	resp := s.doRaw(t, http.MethodPost, "/v1/generate", "{")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var e Error
	decodeInto(t, resp, &e)
	assert.Equal(t, http.StatusBadRequest, e.Code)
	assert.Contains(t, e.Message, "invalid request body")
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	s := newAPIStack(t)
	resp := s.doRaw(t, http.MethodPost, "/v1/generate", `{"template": "typo"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var e Error
	decodeInto(t, resp, &e)
	assert.Contains(t, e.Message, "unknown field")
}
