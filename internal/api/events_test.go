package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/auditflow/auditflow/internal/api"
	"github.com/auditflow/auditflow/internal/models"
	"github.com/auditflow/auditflow/internal/service"
)

func TestCreateEvent_OK(t *testing.T) {
	t.Parallel()

	var gotScope models.Scope
	ingest := &mockIngestor{
		createEvent: func(_ context.Context, scope models.Scope, event *models.AuditEvent) (*service.IngestReceipt, error) {
			gotScope = scope
			return &service.IngestReceipt{
				DocumentID: event.DeriveID(scope),
				QueueID:    7,
				Received:   time.Now().UTC(),
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewEventHandler(ingest, testLogger())
	r.POST("/project/:projectId/event", h.Create)

	body := `{"action":"user.login","crud":"c","group":{"id":"grp-1"},"actor":{"id":"actor-1"}}`
	w := doRequest(r, http.MethodPost, "/project/proj-1/event", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if gotScope != testScope() {
		t.Errorf("handler passed scope %+v, want token scope %+v", gotScope, testScope())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["id"] == "" {
		t.Error("response missing document id")
	}
}

func TestCreateEvent_ProjectMismatch(t *testing.T) {
	t.Parallel()

	ingest := &mockIngestor{}

	r := newTestRouter()
	h := api.NewEventHandler(ingest, testLogger())
	r.POST("/project/:projectId/event", h.Create)

	body := `{"action":"user.login","group":{"id":"grp-1"}}`
	w := doRequest(r, http.MethodPost, "/project/other-project/event", body)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if len(ingest.calls) != 0 {
		t.Error("event reached ingestion despite project mismatch")
	}
}

func TestCreateEvent_ValidationFailure(t *testing.T) {
	t.Parallel()

	ingest := &mockIngestor{
		createEvent: func(_ context.Context, _ models.Scope, event *models.AuditEvent) (*service.IngestReceipt, error) {
			return nil, event.Validate()
		},
	}

	r := newTestRouter()
	h := api.NewEventHandler(ingest, testLogger())
	r.POST("/project/:projectId/event", h.Create)

	// Missing action.
	w := doRequest(r, http.MethodPost, "/project/proj-1/event", `{"group":{"id":"grp-1"}}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateEvent_BadJSON(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewEventHandler(&mockIngestor{}, testLogger())
	r.POST("/project/:projectId/event", h.Create)

	w := doRequest(r, http.MethodPost, "/project/proj-1/event", `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
