package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestLogger_AddsContextIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := actorctx.WithRequestID(context.Background(), "req-9")
	ctx = actorctx.WithUserID(ctx, 7)

	log.InfoContext(ctx, "hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}

	if line["request_id"] != "req-9" {
		t.Fatalf("missing request_id: %v", line)
	}
	if line["user_id"] != float64(7) {
		t.Fatalf("missing user_id: %v", line)
	}
}

func TestLogger_LevelByEnv(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Debug("hidden")

	if buf.Len() != 0 {
		t.Fatalf("debug should be off outside dev, got %s", buf.String())
	}

	newLogger(&buf, "dev").Debug("shown")
	if buf.Len() == 0 {
		t.Fatalf("debug should be on in dev")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func seriesCount(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}

func TestObserveDB(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	_ = p.ObserveDB("users.get", func() error { return nil })
	_ = p.ObserveDB("users.get", func() error { return pgx.ErrNoRows })
	err := p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Fatalf("ObserveDB should return fn's error unchanged, got %v", err)
	}

	if got := counterValue(t, p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("got %v unique violations, want 1", got)
	}
	if got := seriesCount(t, reg, "taskhub_db_errors_total"); got != 1 {
		t.Fatalf("no rows should not be counted as an error, got %d series", got)
	}
}

func TestNilPromIsSafe(t *testing.T) {
	var p *Prom

	called := false
	if err := p.ObserveDB("x", func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("nil prom should still run fn")
	}

	p.IncAuthFailure("invalid_token")
	p.IncTokenIssued("login")
	p.IncLogin("ok")
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "40P01"}, "deadlock"},
		{&pgconn.PgError{Code: "23503"}, "foreign_key_violation"},
		{&pgconn.PgError{Code: "XX000"}, "pg_XX000"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("connection reset by peer"), "connection"},
		{errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		if got := classifyDBErr(tt.err); got != tt.want {
			t.Fatalf("classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracerConfig{ServiceName: "taskhub-api"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}

func TestSampleRatio(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{-0.5, 1},
		{1.5, 1},
		{0.25, 0.25},
		{1, 1},
	}

	for _, tt := range tests {
		if got := sampleRatio(tt.in); got != tt.want {
			t.Fatalf("sampleRatio(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
