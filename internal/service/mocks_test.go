package service

import (
	"context"
	"sync"
	"time"

	"github.com/auditflow/auditflow/internal/models"
	"github.com/auditflow/auditflow/internal/store"
)

// mockSearchStore records calls and returns configured responses.
type mockSearchStore struct {
	mu    sync.Mutex
	calls []string

	getActiveSearch          func(ctx context.Context, scope models.Scope, id string) (*models.ActiveSearch, error)
	getSavedSearch           func(ctx context.Context, scope models.Scope, id string) (*models.SavedSearch, error)
	updateActiveSearchCursor func(ctx context.Context, scope models.Scope, id string, cursor models.Cursor) error
}

func (m *mockSearchStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockSearchStore) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockSearchStore) GetActiveSearch(ctx context.Context, scope models.Scope, id string) (*models.ActiveSearch, error) {
	m.record("GetActiveSearch")
	return m.getActiveSearch(ctx, scope, id)
}

func (m *mockSearchStore) GetSavedSearch(ctx context.Context, scope models.Scope, id string) (*models.SavedSearch, error) {
	m.record("GetSavedSearch")
	return m.getSavedSearch(ctx, scope, id)
}

func (m *mockSearchStore) UpdateActiveSearchCursor(ctx context.Context, scope models.Scope, id string, cursor models.Cursor) error {
	m.record("UpdateActiveSearchCursor")
	return m.updateActiveSearchCursor(ctx, scope, id, cursor)
}

// mockIndex records calls and returns configured responses.
type mockIndex struct {
	mu    sync.Mutex
	calls []string

	queryPage     func(ctx context.Context, scope models.Scope, q *models.QueryDescriptor, offset, limit int) ([]models.IndexedDocument, error)
	writeDocument func(ctx context.Context, doc *models.IndexedDocument) error
}

func (m *mockIndex) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockIndex) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockIndex) QueryPage(ctx context.Context, scope models.Scope, q *models.QueryDescriptor, offset, limit int) ([]models.IndexedDocument, error) {
	m.record("QueryPage")
	return m.queryPage(ctx, scope, q, offset, limit)
}

func (m *mockIndex) WriteDocument(ctx context.Context, doc *models.IndexedDocument) error {
	m.record("WriteDocument")
	return m.writeDocument(ctx, doc)
}

// mockQueue records calls and returns configured responses.
type mockQueue struct {
	mu    sync.Mutex
	calls []string

	enqueue      func(ctx context.Context, scope models.Scope, event *models.AuditEvent) (store.QueueReceipt, error)
	dequeueBatch func(ctx context.Context, max int, visibility time.Duration, maxAttempts int) ([]store.QueuedEvent, error)
	acknowledge  func(ctx context.Context, receipt store.QueueReceipt) error
	quarantine   func(ctx context.Context, maxAttempts int) (int, error)
	depth        func(ctx context.Context) (int, error)
}

func (m *mockQueue) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockQueue) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockQueue) Enqueue(ctx context.Context, scope models.Scope, event *models.AuditEvent) (store.QueueReceipt, error) {
	m.record("Enqueue")
	return m.enqueue(ctx, scope, event)
}

func (m *mockQueue) DequeueBatch(ctx context.Context, max int, visibility time.Duration, maxAttempts int) ([]store.QueuedEvent, error) {
	m.record("DequeueBatch")
	return m.dequeueBatch(ctx, max, visibility, maxAttempts)
}

func (m *mockQueue) Acknowledge(ctx context.Context, receipt store.QueueReceipt) error {
	m.record("Acknowledge")
	return m.acknowledge(ctx, receipt)
}

func (m *mockQueue) Quarantine(ctx context.Context, maxAttempts int) (int, error) {
	m.record("Quarantine")
	if m.quarantine == nil {
		return 0, nil
	}
	return m.quarantine(ctx, maxAttempts)
}

func (m *mockQueue) Depth(ctx context.Context) (int, error) {
	m.record("Depth")
	if m.depth == nil {
		return 0, nil
	}
	return m.depth(ctx)
}
