// Package service holds the domain engines sitting between the HTTP layer
// and the stores: event ingestion, the indexing worker, the search pump and
// the liveness watchdog.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/auditflow/auditflow/internal/metrics"
	"github.com/auditflow/auditflow/internal/models"
	"github.com/auditflow/auditflow/internal/store"
)

// Enqueuer is the queue surface ingestion needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, scope models.Scope, event *models.AuditEvent) (store.QueueReceipt, error)
}

// IngestReceipt acknowledges a durably accepted event. The document id is
// returned immediately even though indexing is asynchronous, so callers can
// correlate before the event becomes searchable.
type IngestReceipt struct {
	DocumentID string    `json:"id"`
	QueueID    int64     `json:"queue_id"`
	Received   time.Time `json:"received"`
}

// IngestService validates incoming events and hands them to the durable
// queue. It never touches the index; acceptance must stay fast and cannot
// depend on indexing health.
type IngestService struct {
	Queue Enqueuer
	Log   *logrus.Logger

	now func() time.Time
}

// NewIngestService creates an IngestService.
func NewIngestService(queue Enqueuer, log *logrus.Logger) *IngestService {
	return &IngestService{Queue: queue, Log: log, now: time.Now}
}

// CreateEvent validates and enqueues one event. Rejected events never reach
// the queue. A zero Created timestamp is defaulted to the receive time.
func (s *IngestService) CreateEvent(ctx context.Context, scope models.Scope, event *models.AuditEvent) (*IngestReceipt, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	// The token's group is the only group this caller may write to; the
	// event's own group.id must agree, since the stored document's scope
	// tags are immutable once accepted.
	if event.Group.ID != scope.GroupID {
		return nil, models.ErrGroupScopeMismatch
	}

	received := s.now().UTC()
	if event.Created.IsZero() {
		event.Created = received
	}

	receipt, err := s.Queue.Enqueue(ctx, scope, event)
	if err != nil {
		return nil, fmt.Errorf("enqueuing event: %w", err)
	}

	metrics.EventsEnqueued.Inc()
	s.Log.WithFields(logrus.Fields{
		"project_id": scope.ProjectID,
		"queue_id":   receipt.ID,
		"action":     event.Action,
	}).Debug("event enqueued")

	return &IngestReceipt{
		DocumentID: event.DeriveID(scope),
		QueueID:    receipt.ID,
		Received:   received,
	}, nil
}
