package client

import (
	"context"
	"fmt"
	"net/url"
)

// EventService submits audit events for ingestion.
type EventService struct {
	c *Client
}

// Create submits an event to the given project's ingestion queue. The project
// id must match the one bound to the client's token. Acceptance means the
// event is durably queued; it becomes searchable once the indexing worker
// processes it.
func (s *EventService) Create(ctx context.Context, projectID string, event *AuditEvent) (*IngestReceipt, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}

	path := fmt.Sprintf("/api/v1/project/%s/event", url.PathEscape(projectID))

	var receipt IngestReceipt
	if err := s.c.post(ctx, path, event, &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}
