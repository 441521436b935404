package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestHealth_Readyz(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "ready", want: http.StatusOK},
		{name: "db down", err: context.DeadlineExceeded, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(nil, map[string]handlers.Pinger{"postgres": pingFunc(func(context.Context) error { return tt.err })})

			r := gin.New()
			r.GET("/readyz", h.Readyz)
			r.GET("/healthz", h.Healthz)

			wantStatus(t, do(r, http.MethodGet, "/readyz", ""), tt.want)
			wantStatus(t, do(r, http.MethodGet, "/healthz", ""), http.StatusOK)
		})
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
