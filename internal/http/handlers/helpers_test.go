package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testHasher = security.NewHasher(security.Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32})

// asUser stands in for RequireAuth.
func asUser(u user.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUser, u)
		c.Next()
	}
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
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
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Detail string `json:"detail"`
	Errors []struct {
		Field   string `json:"field"`
		Rule    string `json:"rule"`
		Message string `json:"message"`
	} `json:"errors"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v, body=%s", err, w.Body.String())
	}
	return out
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()

	if w.Code != status {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, status, w.Body.String())
	}
}
