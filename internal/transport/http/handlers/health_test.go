package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newHealthEngine(db ReadinessChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewHealthHandler(db)
	engine.GET("/healthz", handler.Status)
	engine.GET("/readyz", handler.Ready)
	return engine
}

func healthGet(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestLivenessIgnoresDatabase(t *testing.T) {
	engine := newHealthEngine(pingerFunc(func(context.Context) error {
		return errors.New("database down")
	}))

	rec := healthGet(engine, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, liveness must not depend on the database", rec.Code)
	}
}

func TestReadinessReportsHealthyDatabase(t *testing.T) {
	engine := newHealthEngine(pingerFunc(func(context.Context) error { return nil }))

	rec := healthGet(engine, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.StartedAt.IsZero() {
		t.Fatal("started_at missing")
	}
}

func TestReadinessReportsUnreachableDatabase(t *testing.T) {
	engine := newHealthEngine(pingerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))

	rec := healthGet(engine, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unavailable" {
		t.Fatalf("status = %q", resp.Status)
	}
}

func TestReadinessWithoutDatabaseChecker(t *testing.T) {
	engine := newHealthEngine(nil)

	rec := healthGet(engine, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
