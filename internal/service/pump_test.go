package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/auditflow/auditflow/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func testScope() models.Scope {
	return models.Scope{ProjectID: "p1", EnvironmentID: "e1", GroupID: "g1"}
}

func v1Descriptor() models.QueryDescriptor {
	return models.QueryDescriptor{
		Version:    models.DescriptorVersion1,
		ShowCreate: true, ShowRead: true, ShowUpdate: true, ShowDelete: true,
	}
}

func activeSearch(id, savedID string, offset int) *models.ActiveSearch {
	return &models.ActiveSearch{
		ID: id, ProjectID: "p1", EnvironmentID: "e1", GroupID: "g1",
		SavedSearchID: savedID,
		Cursor:        models.Cursor{Offset: offset},
	}
}

func indexedDocs(n int) []models.IndexedDocument {
	docs := make([]models.IndexedDocument, n)
	for i := range docs {
		docs[i] = models.IndexedDocument{
			ID: string(rune('a' + i)),
			Event: models.AuditEvent{
				Action:  "user.login",
				Crud:    models.CrudCreate,
				Created: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
				Group:   models.Group{ID: "g1", Name: "Group One"},
				Actor:   models.Actor{ID: "actor-1"},
			},
		}
	}
	return docs
}

func TestPump_MissingID(t *testing.T) {
	searches := &mockSearchStore{}
	index := &mockIndex{}
	engine := NewPumpEngine(searches, index, testLogger())

	_, err := engine.Pump(context.Background(), testScope(), PumpRequest{})
	if err == nil {
		t.Fatal("expected error for missing id")
	}
	if err.Error() != "Missing required 'id' parameter" {
		t.Errorf("error = %q, want %q", err.Error(), "Missing required 'id' parameter")
	}
	if len(index.getCalls()) != 0 {
		t.Errorf("index queried despite missing id: %v", index.getCalls())
	}
	if len(searches.getCalls()) != 0 {
		t.Errorf("stores queried despite missing id: %v", searches.getCalls())
	}
}

func TestPump_ActiveSearchNotFound(t *testing.T) {
	searches := &mockSearchStore{
		getActiveSearch: func(_ context.Context, _ models.Scope, id string) (*models.ActiveSearch, error) {
			return nil, models.ErrActiveSearchNotFound(id)
		},
	}
	index := &mockIndex{}
	engine := NewPumpEngine(searches, index, testLogger())

	_, err := engine.Pump(context.Background(), testScope(), PumpRequest{ActiveSearchID: "wdcedc"})
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if err.Error() != "Active search not found (id=wdcedc)" {
		t.Errorf("error = %q, want %q", err.Error(), "Active search not found (id=wdcedc)")
	}
	if !models.IsNotFound(err) {
		t.Error("IsNotFound(err) = false, want true")
	}
	if len(index.getCalls()) != 0 {
		t.Errorf("index queried despite missing active search: %v", index.getCalls())
	}
}

func TestPump_DanglingSavedSearch(t *testing.T) {
	searches := &mockSearchStore{
		getActiveSearch: func(_ context.Context, _ models.Scope, id string) (*models.ActiveSearch, error) {
			return activeSearch(id, "saved-gone", 0), nil
		},
		getSavedSearch: func(_ context.Context, _ models.Scope, id string) (*models.SavedSearch, error) {
			return nil, models.ErrSavedSearchNotFound(id)
		},
	}
	index := &mockIndex{}
	engine := NewPumpEngine(searches, index, testLogger())

	_, err := engine.Pump(context.Background(), testScope(), PumpRequest{ActiveSearchID: "act-1"})
	if err == nil {
		t.Fatal("expected dangling reference error")
	}
	want := "Active search (id=act-1) refers to a non-existent saved search (id=saved-gone)"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
	var dangling *models.DanglingSearchError
	if !errors.As(err, &dangling) {
		t.Error("error is not a DanglingSearchError")
	}
	if len(index.getCalls()) != 0 {
		t.Errorf("index queried despite dangling reference: %v", index.getCalls())
	}
}

func TestPump_UnknownDescriptorVersion(t *testing.T) {
	searches := &mockSearchStore{
		getActiveSearch: func(_ context.Context, _ models.Scope, id string) (*models.ActiveSearch, error) {
			return activeSearch(id, "saved-1", 0), nil
		},
		getSavedSearch: func(_ context.Context, _ models.Scope, id string) (*models.SavedSearch, error) {
			return &models.SavedSearch{ID: id, Query: models.QueryDescriptor{Version: 2}}, nil
		},
	}
	index := &mockIndex{}
	engine := NewPumpEngine(searches, index, testLogger())

	_, err := engine.Pump(context.Background(), testScope(), PumpRequest{ActiveSearchID: "act-1"})
	if err == nil {
		t.Fatal("expected version error")
	}
	if err.Error() != "Unknown query descriptor version: 2" {
		t.Errorf("error = %q, want %q", err.Error(), "Unknown query descriptor version: 2")
	}
	if len(index.getCalls()) != 0 {
		t.Errorf("index queried despite unknown version: %v", index.getCalls())
	}
	for _, call := range searches.getCalls() {
		if call == "UpdateActiveSearchCursor" {
			t.Error("cursor persisted despite unknown version")
		}
	}
}

func TestPump_AdvancesStoredCursor(t *testing.T) {
	var gotOffset, gotLimit int
	var persisted models.Cursor

	searches := &mockSearchStore{
		getActiveSearch: func(_ context.Context, _ models.Scope, id string) (*models.ActiveSearch, error) {
			return activeSearch(id, "saved-1", 3), nil
		},
		getSavedSearch: func(_ context.Context, _ models.Scope, id string) (*models.SavedSearch, error) {
			return &models.SavedSearch{ID: id, Query: v1Descriptor()}, nil
		},
		updateActiveSearchCursor: func(_ context.Context, _ models.Scope, _ string, cursor models.Cursor) error {
			persisted = cursor
			return nil
		},
	}
	index := &mockIndex{
		queryPage: func(_ context.Context, _ models.Scope, _ *models.QueryDescriptor, offset, limit int) ([]models.IndexedDocument, error) {
			gotOffset, gotLimit = offset, limit
			return indexedDocs(2), nil
		},
	}
	engine := NewPumpEngine(searches, index, testLogger())

	res, err := engine.Pump(context.Background(), testScope(), PumpRequest{ActiveSearchID: "act-1"})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if gotOffset != 3 {
		t.Errorf("query offset = %d, want 3", gotOffset)
	}
	if gotLimit != defaultPageSize {
		t.Errorf("query limit = %d, want %d", gotLimit, defaultPageSize)
	}
	if persisted.Offset != 5 {
		t.Errorf("persisted offset = %d, want 5", persisted.Offset)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}

	next, err := models.ParseCursor(res.NextCursor)
	if err != nil {
		t.Fatalf("ParseCursor(%q): %v", res.NextCursor, err)
	}
	if next.Offset != 5 {
		t.Errorf("returned cursor offset = %d, want 5", next.Offset)
	}
}

func TestPump_ExplicitNextOverridesStoredCursor(t *testing.T) {
	var gotOffset int
	searches := &mockSearchStore{
		getActiveSearch: func(_ context.Context, _ models.Scope, id string) (*models.ActiveSearch, error) {
			return activeSearch(id, "saved-1", 40), nil
		},
		getSavedSearch: func(_ context.Context, _ models.Scope, id string) (*models.SavedSearch, error) {
			return &models.SavedSearch{ID: id, Query: v1Descriptor()}, nil
		},
		updateActiveSearchCursor: func(_ context.Context, _ models.Scope, _ string, _ models.Cursor) error {
			return nil
		},
	}
	index := &mockIndex{
		queryPage: func(_ context.Context, _ models.Scope, _ *models.QueryDescriptor, offset, _ int) ([]models.IndexedDocument, error) {
			gotOffset = offset
			return nil, nil
		},
	}
	engine := NewPumpEngine(searches, index, testLogger())

	// Bare decimal offsets are accepted alongside encoded tokens.
	_, err := engine.Pump(context.Background(), testScope(), PumpRequest{ActiveSearchID: "act-1", Next: "7"})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if gotOffset != 7 {
		t.Errorf("query offset = %d, want 7", gotOffset)
	}

	_, err = engine.Pump(context.Background(), testScope(), PumpRequest{
		ActiveSearchID: "act-1",
		Next:           models.Cursor{Offset: 12}.Encode(),
	})
	if err != nil {
		t.Fatalf("Pump with encoded cursor: %v", err)
	}
	if gotOffset != 12 {
		t.Errorf("query offset = %d, want 12", gotOffset)
	}
}

func TestPump_MalformedCursor(t *testing.T) {
	searches := &mockSearchStore{
		getActiveSearch: func(_ context.Context, _ models.Scope, id string) (*models.ActiveSearch, error) {
			return activeSearch(id, "saved-1", 0), nil
		},
		getSavedSearch: func(_ context.Context, _ models.Scope, id string) (*models.SavedSearch, error) {
			return &models.SavedSearch{ID: id, Query: v1Descriptor()}, nil
		},
	}
	index := &mockIndex{}
	engine := NewPumpEngine(searches, index, testLogger())

	_, err := engine.Pump(context.Background(), testScope(), PumpRequest{ActiveSearchID: "act-1", Next: "not-a-cursor"})
	if !errors.Is(err, models.ErrInvalidCursor) {
		t.Fatalf("error = %v, want ErrInvalidCursor", err)
	}
	if len(index.getCalls()) != 0 {
		t.Errorf("index queried despite malformed cursor: %v", index.getCalls())
	}
}

func TestPump_PageSizeCap(t *testing.T) {
	var gotLimit int
	searches := &mockSearchStore{
		getActiveSearch: func(_ context.Context, _ models.Scope, id string) (*models.ActiveSearch, error) {
			return activeSearch(id, "saved-1", 0), nil
		},
		getSavedSearch: func(_ context.Context, _ models.Scope, id string) (*models.SavedSearch, error) {
			return &models.SavedSearch{ID: id, Query: v1Descriptor()}, nil
		},
		updateActiveSearchCursor: func(_ context.Context, _ models.Scope, _ string, _ models.Cursor) error {
			return nil
		},
	}
	index := &mockIndex{
		queryPage: func(_ context.Context, _ models.Scope, _ *models.QueryDescriptor, _, limit int) ([]models.IndexedDocument, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	engine := NewPumpEngine(searches, index, testLogger())

	_, err := engine.Pump(context.Background(), testScope(), PumpRequest{ActiveSearchID: "act-1", PageSize: 5000})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if gotLimit != maxPageSize {
		t.Errorf("query limit = %d, want %d", gotLimit, maxPageSize)
	}
}

func TestPump_QueryFailureLeavesCursorAlone(t *testing.T) {
	searches := &mockSearchStore{
		getActiveSearch: func(_ context.Context, _ models.Scope, id string) (*models.ActiveSearch, error) {
			return activeSearch(id, "saved-1", 10), nil
		},
		getSavedSearch: func(_ context.Context, _ models.Scope, id string) (*models.SavedSearch, error) {
			return &models.SavedSearch{ID: id, Query: v1Descriptor()}, nil
		},
	}
	index := &mockIndex{
		queryPage: func(_ context.Context, _ models.Scope, _ *models.QueryDescriptor, _, _ int) ([]models.IndexedDocument, error) {
			return nil, errors.New("index unavailable")
		},
	}
	engine := NewPumpEngine(searches, index, testLogger())

	_, err := engine.Pump(context.Background(), testScope(), PumpRequest{ActiveSearchID: "act-1"})
	if err == nil {
		t.Fatal("expected query error")
	}
	for _, call := range searches.getCalls() {
		if call == "UpdateActiveSearchCursor" {
			t.Error("cursor persisted despite query failure")
		}
	}
}

func TestPump_MaskProjection(t *testing.T) {
	searches := &mockSearchStore{
		getActiveSearch: func(_ context.Context, _ models.Scope, id string) (*models.ActiveSearch, error) {
			return activeSearch(id, "saved-1", 0), nil
		},
		getSavedSearch: func(_ context.Context, _ models.Scope, id string) (*models.SavedSearch, error) {
			return &models.SavedSearch{ID: id, Query: v1Descriptor()}, nil
		},
		updateActiveSearchCursor: func(_ context.Context, _ models.Scope, _ string, _ models.Cursor) error {
			return nil
		},
	}
	index := &mockIndex{
		queryPage: func(_ context.Context, _ models.Scope, _ *models.QueryDescriptor, _, _ int) ([]models.IndexedDocument, error) {
			return indexedDocs(1), nil
		},
	}
	engine := NewPumpEngine(searches, index, testLogger())

	res, err := engine.Pump(context.Background(), testScope(), PumpRequest{
		ActiveSearchID: "act-1",
		Mask: &models.MaskDescriptor{
			Action: true,
			Group:  &models.GroupMask{ID: true},
		},
	})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}

	rec := res.Records[0]
	if rec["action"] != "user.login" {
		t.Errorf("action = %v, want user.login", rec["action"])
	}
	if _, ok := rec["crud"]; ok {
		t.Error("crud present despite being masked out")
	}
	group, ok := rec["group"].(map[string]any)
	if !ok {
		t.Fatalf("group missing or wrong type: %v", rec["group"])
	}
	if group["id"] != "g1" {
		t.Errorf("group.id = %v, want g1", group["id"])
	}
	if _, ok := group["name"]; ok {
		t.Error("group.name present despite being masked out")
	}
}
