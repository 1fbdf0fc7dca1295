package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/auditflow/auditflow/internal/mask"
	"github.com/auditflow/auditflow/internal/metrics"
	"github.com/auditflow/auditflow/internal/models"
)

// Page size bounds for a single pump.
const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

// ActiveSearchStore is the search persistence surface the pump engine needs.
type ActiveSearchStore interface {
	GetActiveSearch(ctx context.Context, scope models.Scope, id string) (*models.ActiveSearch, error)
	GetSavedSearch(ctx context.Context, scope models.Scope, id string) (*models.SavedSearch, error)
	UpdateActiveSearchCursor(ctx context.Context, scope models.Scope, id string, cursor models.Cursor) error
}

// IndexQuerier executes descriptor queries against the event index.
type IndexQuerier interface {
	QueryPage(ctx context.Context, scope models.Scope, q *models.QueryDescriptor, offset, limit int) ([]models.IndexedDocument, error)
}

// PumpRequest is one page request against an active search. Next, when set,
// overrides the session's stored cursor so callers can re-fetch a page.
type PumpRequest struct {
	ActiveSearchID string
	PageSize       int
	Next           string
	Mask           *models.MaskDescriptor
}

// PumpResult is one page of projected records plus the resume token. The
// field names on the wire are part of the pump contract.
type PumpResult struct {
	Records    []models.PartialRecord `json:"currentResults"`
	NextCursor string                 `json:"next_cursor"`
}

// PumpEngine resolves an active search to its saved descriptor, fetches the
// next page from the index, and advances the session cursor. All descriptor
// validation happens before any index query is issued.
type PumpEngine struct {
	Searches ActiveSearchStore
	Index    IndexQuerier
	Log      *logrus.Logger
}

// NewPumpEngine creates a PumpEngine.
func NewPumpEngine(searches ActiveSearchStore, index IndexQuerier, log *logrus.Logger) *PumpEngine {
	return &PumpEngine{Searches: searches, Index: index, Log: log}
}

// Pump fetches the next page of an active search.
func (p *PumpEngine) Pump(ctx context.Context, scope models.Scope, req PumpRequest) (*PumpResult, error) {
	res, err := p.pump(ctx, scope, req)
	if err != nil {
		metrics.PumpsTotal.WithLabelValues("error").Inc()

		return nil, err
	}
	metrics.PumpsTotal.WithLabelValues("ok").Inc()

	return res, nil
}

func (p *PumpEngine) pump(ctx context.Context, scope models.Scope, req PumpRequest) (*PumpResult, error) {
	if req.ActiveSearchID == "" {
		return nil, models.ErrMissingActiveSearchID
	}

	active, err := p.Searches.GetActiveSearch(ctx, scope, req.ActiveSearchID)
	if err != nil {
		return nil, err
	}

	saved, err := p.Searches.GetSavedSearch(ctx, scope, active.SavedSearchID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, &models.DanglingSearchError{
				ActiveSearchID: active.ID,
				SavedSearchID:  active.SavedSearchID,
			}
		}

		return nil, err
	}

	if err := saved.Query.Validate(); err != nil {
		return nil, err
	}

	cursor := active.Cursor
	if req.Next != "" {
		if cursor, err = models.ParseCursor(req.Next); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidCursor, err)
		}
	}

	pageSize := req.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	docs, err := p.Index.QueryPage(ctx, scope, &saved.Query, cursor.Offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	// The cursor is persisted only after the page came back cleanly, so a
	// failed query never skips results on the next pump.
	next := cursor.Advance(len(docs))
	if err := p.Searches.UpdateActiveSearchCursor(ctx, scope, active.ID, next); err != nil {
		return nil, fmt.Errorf("persisting cursor: %w", err)
	}

	records := make([]models.PartialRecord, 0, len(docs))
	for i := range docs {
		records = append(records, mask.Project(&docs[i], req.Mask))
	}

	p.Log.WithFields(logrus.Fields{
		"active_search_id": active.ID,
		"offset":           cursor.Offset,
		"returned":         len(records),
	}).Debug("pumped active search")

	return &PumpResult{Records: records, NextCursor: next.Encode()}, nil
}

// IsBadPumpRequest reports whether err is caller error rather than backend
// failure, for status mapping at the HTTP layer.
func IsBadPumpRequest(err error) bool {
	var version *models.UnknownVersionError

	return errors.Is(err, models.ErrMissingActiveSearchID) ||
		errors.Is(err, models.ErrInvalidCursor) ||
		errors.As(err, &version)
}
