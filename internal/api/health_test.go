package api_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/auditflow/auditflow/internal/api"
	"github.com/auditflow/auditflow/internal/service"
)

func newHealthRouter(wd *service.Watchdog) *gin.Engine {
	r := gin.New()
	h := api.NewHealthHandler(nil, wd, testLogger(), "test")
	r.GET("/health", h.Liveness)
	r.GET("/ready", h.Readiness)

	return r
}

func TestLiveness_FreshPipeline(t *testing.T) {
	t.Parallel()

	r := newHealthRouter(service.NewWatchdog(time.Hour))
	w := doRequest(r, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["last_processed_at"] == "" {
		t.Error("response missing last_processed_at")
	}
}

func TestLiveness_StalePipeline(t *testing.T) {
	t.Parallel()

	// A zero threshold makes any elapsed time stale.
	wd := service.NewWatchdog(0)
	time.Sleep(5 * time.Millisecond)

	r := newHealthRouter(wd)
	w := doRequest(r, http.MethodGet, "/health", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "stale" {
		t.Errorf("status = %v, want stale", resp["status"])
	}
	if resp["last_processed_at"] == nil || resp["last_processed_at"] == "" {
		t.Error("stale response must still carry last_processed_at")
	}
}

func TestReadiness_AlwaysReady(t *testing.T) {
	t.Parallel()

	// Readiness ignores pipeline staleness: ingest must keep flowing.
	wd := service.NewWatchdog(0)
	time.Sleep(5 * time.Millisecond)

	r := newHealthRouter(wd)
	w := doRequest(r, http.MethodGet, "/ready", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "ready" {
		t.Errorf("status = %v, want ready", resp["status"])
	}
}
