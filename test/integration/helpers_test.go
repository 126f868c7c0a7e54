//go:build integration

package integration

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/api"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/app"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/config"
	internaldb "github.com/skinclarityclub/Future-MarketingAI-sub004/internal/db"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/middleware"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/sink"
)

// testJWTSecret signs bearer tokens for the HS256 validator wired into the
// test server.
const testJWTSecret = "integration-test-secret"

// ---------------------------------------------------------------------------
// Server setup
// ---------------------------------------------------------------------------

// apiKeys holds the plaintext API keys seeded for each test principal.
type apiKeys struct {
	Operator string // principal "operator", used by most tests
	Pipeline string // principal "svc.pipeline", used for attribution checks
}

// testEnv bundles the in-process server with the handles tests assert
// against directly: the wired app and the sink's DuckDB pool.
type testEnv struct {
	Server *httptest.Server
	App    *app.App
	SinkDB *sql.DB
	Keys   apiKeys
}

// setupIntegrationServer boots the full stack the way cmd/server does: a
// migrated SQLite metadata pair, an in-memory DuckDB sink, app.New wiring
// with the builtin seeds, and the real auth middleware in front of the API
// routes. The backfill cron is left stopped.
func setupIntegrationServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	tmpDir := t.TempDir()
	cfg := &config.Config{
		MetaDBPath:        filepath.Join(tmpDir, "meta.sqlite"),
		ExportDir:         filepath.Join(tmpDir, "exports"),
		GenerationWorkers: 4,
		Auth: config.AuthConfig{
			JWTSecret:     testJWTSecret,
			APIKeyEnabled: true,
			APIKeyHeader:  "X-API-Key",
			NameClaim:     "sub",
		},
	}

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 2)
	if err != nil {
		t.Fatalf("open sqlite pair: %v", err)
	}
	t.Cleanup(func() {
		_ = writeDB.Close()
		_ = readDB.Close()
	})
	if err := internaldb.RunMigrations(writeDB); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	sinkDB, err := sink.Open("")
	if err != nil {
		t.Fatalf("open in-memory duckdb sink: %v", err)
	}
	t.Cleanup(func() { _ = sinkDB.Close() })

	logger := slog.New(slog.DiscardHandler)
	application, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		SinkDB:  sinkDB,
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("wire application: %v", err)
	}

	keys := seedAPIKeys(t, application)

	validator, err := middleware.NewHS256Validator(cfg.Auth.JWTSecret)
	if err != nil {
		t.Fatalf("jwt validator: %v", err)
	}
	auth := middleware.NewAuthenticator(validator, application.APIKeyReader, cfg.Auth, logger)

	handler := api.NewHandler(
		application.Services.Templates,
		application.Lookups,
		application.Services.Generation,
		application.Services.Export,
		application.Runs,
		application.APIKeyWriter,
		logger,
	)

	r := chi.NewRouter()
	api.MountRoutes(r, handler, auth.Middleware())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{Server: srv, App: application, SinkDB: sinkDB, Keys: keys}
}

// seedAPIKeys stores hashed keys for the test principals and returns the
// plaintext values. Mirrors what POST /v1/apikeys stores.
func seedAPIKeys(t *testing.T, application *app.App) apiKeys {
	t.Helper()
	keys := apiKeys{
		Operator: "test-operator-key",
		Pipeline: "test-pipeline-key",
	}
	for principal, raw := range map[string]string{
		"operator":     keys.Operator,
		"svc.pipeline": keys.Pipeline,
	} {
		key := &domain.APIKey{
			Principal: principal,
			Name:      principal + "-test",
			KeyPrefix: raw[:8],
			KeyHash:   sha256Hex(raw),
		}
		if err := application.APIKeyWriter.Insert(context.Background(), key); err != nil {
			t.Fatalf("seed api key for %s: %v", principal, err)
		}
	}
	return keys
}

func sha256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// signTestJWT issues an HS256 token the test server's validator accepts.
func signTestJWT(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign test jwt: %v", err)
	}
	return signed
}

// projectRoot returns the absolute path to the repository root.
// Derived from this file's location: test/integration → up 2 dirs.
func projectRoot() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..")
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

// doJSON performs one request against the test server with an optional JSON
// body, authenticated by API key. The caller owns the response body.
func doJSON(t *testing.T, env *testEnv, method, path, apiKey string, body interface{}) *http.Response {
	t.Helper()
	return doWithHeader(t, env, method, path, "X-API-Key", apiKey, body)
}

// doBearer is doJSON with a JWT bearer token instead of an API key.
func doBearer(t *testing.T, env *testEnv, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	return doWithHeader(t, env, method, path, "Authorization", "Bearer "+token, body)
}

func doWithHeader(t *testing.T, env *testEnv, method, path, header, value string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, env.Server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request %s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if value != "" {
		req.Header.Set(header, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// requireStatus fails the test with the response body when the status code
// does not match.
func requireStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, body)
	}
}

// decodeInto decodes the response body into out and closes it.
func decodeInto(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// drain closes a response whose body the test does not inspect.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// adCampaignTemplate builds a small template against the builtin channels
// lookup. DataType doubles as the sink table name, so each test that persists
// passes a distinct id.
func adCampaignTemplate(id string) *domain.Template {
	spendMin := 0.0
	return &domain.Template{
		ID:       id,
		DataType: id,
		Rules: []domain.GenerationRule{
			{
				Field:  "channel",
				Method: domain.MethodLookupTable,
				Params: domain.RuleParams{LookupTable: "channels"},
			},
			{
				Field:  "spend",
				Method: domain.MethodStatistical,
				Params: domain.RuleParams{
					Distribution: domain.DistributionNormal,
					Mean:         2500,
					StdDev:       900,
					Min:          &spendMin,
				},
			},
			{
				Field:  "conversions",
				Method: domain.MethodFormula,
				Params: domain.RuleParams{
					Formula:      "spend / 25.0",
					Dependencies: []string{"spend"},
				},
			},
		},
	}
}

// registerTemplate registers a template over the API and fails on anything
// but 201.
func registerTemplate(t *testing.T, env *testEnv, apiKey string, tmpl *domain.Template) {
	t.Helper()
	resp := doJSON(t, env, http.MethodPost, "/v1/templates", apiKey, tmpl)
	requireStatus(t, resp, http.StatusCreated)
	drain(resp)
}

// readActualState gathers the live registry view the same way the CLI does:
// paged template listing plus the lookup table dump.
func readActualState(t *testing.T, env *testEnv) *declarative.ActualState {
	t.Helper()

	var templates []*domain.Template
	pageToken := ""
	for {
		path := "/v1/templates"
		if pageToken != "" {
			path += "?page_token=" + url.QueryEscape(pageToken)
		}
		resp := doJSON(t, env, http.MethodGet, path, env.Keys.Operator, nil)
		requireStatus(t, resp, http.StatusOK)

		var page struct {
			Data          []*domain.Template `json:"data"`
			NextPageToken string             `json:"next_page_token"`
		}
		decodeInto(t, resp, &page)
		templates = append(templates, page.Data...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	resp := doJSON(t, env, http.MethodGet, "/v1/lookups", env.Keys.Operator, nil)
	requireStatus(t, resp, http.StatusOK)
	var lookups struct {
		Data []struct {
			Table  string   `json:"table"`
			Values []string `json:"values"`
		} `json:"data"`
	}
	decodeInto(t, resp, &lookups)

	actual := &declarative.ActualState{
		Templates: templates,
		Lookups:   make(map[string][]string, len(lookups.Data)),
	}
	for _, lt := range lookups.Data {
		actual.Lookups[lt.Table] = lt.Values
	}
	return actual
}
