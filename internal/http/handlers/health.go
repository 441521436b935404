package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything readyz should wait on: the pg pool, the redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	log     *slog.Logger
	pingers map[string]Pinger
}

func NewHealthHandler(log *slog.Logger, pingers map[string]Pinger) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{log: log, pingers: pingers}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	for name, p := range h.pingers {
		if err := p.Ping(cctx); err != nil {
			h.log.Warn("readiness check failed", "dependency", name, "err", err)
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "dependency": name})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
