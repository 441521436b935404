package integration_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	apphttp "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAlgorithm:        "HS256",
		JWTAccessTTLMinutes: 30,
		CacheTTL:            time.Minute,
		MaxBodyBytes:        1 << 20,
	}
}

type testApp struct {
	router *gin.Engine
	now    time.Time
}

func (a *testApp) advance(d time.Duration) {
	a.now = a.now.Add(d)
}

// newTestApp builds the real router over the given stores with a settable
// clock. The clock stays on whole seconds because exp does.
func newTestApp(t *testing.T, users apphttp.UserRepository, tasks handlers.TaskStore, cfg config.Config) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &testApp{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	tokens, err := auth.NewManager(auth.Config{
		Secret:    cfg.JWTSecret,
		Algorithm: cfg.JWTAlgorithm,
		AccessTTL: cfg.AccessTTL(),
	}, auth.WithClock(func() time.Time { return app.now }))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	resolver := auth.NewResolver(tokens, users, log, func(r auth.FailureReason) {
		prom.IncAuthFailure(string(r))
	})

	app.router = apphttp.NewRouter(log, apphttp.Deps{
		Users:    users,
		Tasks:    tasks,
		Cache:    cache.New(cfg.CacheTTL),
		Hasher:   security.NewHasher(security.Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}),
		Tokens:   tokens,
		Resolver: resolver,
		Prom:     prom,
		Gatherer: reg,
	}, cfg)

	return app
}

func (a *testApp) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(username, password string) *httptest.ResponseRecorder {
	return a.loginVia("", username, password)
}

// loginVia logs in from a fixed peer, optionally claiming a forwarded client.
func (a *testApp) loginVia(forwardedFor, username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.10:5000"
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// mustToken logs in and returns the access token.
func (a *testApp) mustToken(t *testing.T, username, password string) string {
	t.Helper()

	w := a.login(username, password)
	requireStatus(t, w, http.StatusOK)

	var resp handlers.TokenResponse
	decodeInto(t, w, &resp)
	return resp.AccessToken
}

func (a *testApp) mustRegister(t *testing.T, username, email, password string) int64 {
	t.Helper()

	w := a.do(http.MethodPost, "/users", "", `{"username":"`+username+`","email":"`+email+`","password":"`+password+`"}`)
	requireStatus(t, w, http.StatusCreated)

	var u struct {
		ID int64 `json:"id"`
	}
	decodeInto(t, w, &u)
	return u.ID
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()

	if w.Code != status {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, status, w.Body.String())
	}
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("unmarshal: %v, body=%s", err, w.Body.String())
	}
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Detail string `json:"detail"`
	}
	decodeInto(t, w, &body)
	return body.Detail
}
