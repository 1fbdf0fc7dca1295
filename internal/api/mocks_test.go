package api_test

import (
	"context"
	"sync"

	"github.com/auditflow/auditflow/internal/models"
	"github.com/auditflow/auditflow/internal/service"
)

// mockIngestor records calls and returns configured responses.
type mockIngestor struct {
	mu    sync.Mutex
	calls []string

	createEvent func(ctx context.Context, scope models.Scope, event *models.AuditEvent) (*service.IngestReceipt, error)
}

func (m *mockIngestor) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockIngestor) CreateEvent(ctx context.Context, scope models.Scope, event *models.AuditEvent) (*service.IngestReceipt, error) {
	m.record("CreateEvent")
	return m.createEvent(ctx, scope, event)
}

// mockSearchRepo records calls and returns configured responses.
type mockSearchRepo struct {
	mu    sync.Mutex
	calls []string

	createSavedSearch  func(ctx context.Context, scope models.Scope, name string, q models.QueryDescriptor) (*models.SavedSearch, error)
	getSavedSearch     func(ctx context.Context, scope models.Scope, id string) (*models.SavedSearch, error)
	deleteSavedSearch  func(ctx context.Context, scope models.Scope, id string) error
	createActiveSearch func(ctx context.Context, scope models.Scope, savedSearchID string) (*models.ActiveSearch, error)
	getActiveSearch    func(ctx context.Context, scope models.Scope, id string) (*models.ActiveSearch, error)
}

func (m *mockSearchRepo) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockSearchRepo) CreateSavedSearch(ctx context.Context, scope models.Scope, name string, q models.QueryDescriptor) (*models.SavedSearch, error) {
	m.record("CreateSavedSearch")
	return m.createSavedSearch(ctx, scope, name, q)
}

func (m *mockSearchRepo) GetSavedSearch(ctx context.Context, scope models.Scope, id string) (*models.SavedSearch, error) {
	m.record("GetSavedSearch")
	return m.getSavedSearch(ctx, scope, id)
}

func (m *mockSearchRepo) DeleteSavedSearch(ctx context.Context, scope models.Scope, id string) error {
	m.record("DeleteSavedSearch")
	return m.deleteSavedSearch(ctx, scope, id)
}

func (m *mockSearchRepo) CreateActiveSearch(ctx context.Context, scope models.Scope, savedSearchID string) (*models.ActiveSearch, error) {
	m.record("CreateActiveSearch")
	return m.createActiveSearch(ctx, scope, savedSearchID)
}

func (m *mockSearchRepo) GetActiveSearch(ctx context.Context, scope models.Scope, id string) (*models.ActiveSearch, error) {
	m.record("GetActiveSearch")
	return m.getActiveSearch(ctx, scope, id)
}

// mockPumper records calls and returns configured responses.
type mockPumper struct {
	mu    sync.Mutex
	calls []string

	pump func(ctx context.Context, scope models.Scope, req service.PumpRequest) (*service.PumpResult, error)
}

func (m *mockPumper) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockPumper) Pump(ctx context.Context, scope models.Scope, req service.PumpRequest) (*service.PumpResult, error) {
	m.record("Pump")
	return m.pump(ctx, scope, req)
}
