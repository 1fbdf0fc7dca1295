package api

import (
	"context"

	"github.com/auditflow/auditflow/internal/models"
	"github.com/auditflow/auditflow/internal/service"
)

// EventIngestor defines the ingestion operations used by EventHandler.
type EventIngestor interface {
	CreateEvent(ctx context.Context, scope models.Scope, event *models.AuditEvent) (*service.IngestReceipt, error)
}

// SearchRepository defines saved and active search operations used by SearchHandler.
type SearchRepository interface {
	CreateSavedSearch(ctx context.Context, scope models.Scope, name string, q models.QueryDescriptor) (*models.SavedSearch, error)
	GetSavedSearch(ctx context.Context, scope models.Scope, id string) (*models.SavedSearch, error)
	DeleteSavedSearch(ctx context.Context, scope models.Scope, id string) error
	CreateActiveSearch(ctx context.Context, scope models.Scope, savedSearchID string) (*models.ActiveSearch, error)
	GetActiveSearch(ctx context.Context, scope models.Scope, id string) (*models.ActiveSearch, error)
}

// Pumper fetches the next page of an active search.
type Pumper interface {
	Pump(ctx context.Context, scope models.Scope, req service.PumpRequest) (*service.PumpResult, error)
}
