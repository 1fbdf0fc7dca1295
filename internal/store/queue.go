package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/auditflow/auditflow/internal/models"
)

// QueueStore is the durable ingestion queue backing the write path. Accepted
// events land in the ingest_queue table and become searchable only once the
// indexing worker has drained them, so enqueue latency never depends on
// indexing latency.
//
// Delivery is at least once: a claimed row whose receipt is never
// acknowledged becomes visible again when its visibility timeout lapses.
// Consumers must therefore index idempotently.
type QueueStore struct {
	Base
}

// NewQueueStore creates a QueueStore.
func NewQueueStore(base Base) *QueueStore {
	return &QueueStore{Base: base}
}

// QueueReceipt identifies one claimed or enqueued queue item.
type QueueReceipt struct {
	ID int64
}

// QueuedEvent is a claimed queue item awaiting indexing.
type QueuedEvent struct {
	Receipt  QueueReceipt
	Scope    models.Scope
	Received time.Time
	Attempts int
	Event    models.AuditEvent
}

// Enqueue durably accepts an event for asynchronous indexing.
func (s *QueueStore) Enqueue(ctx context.Context, scope models.Scope, event *models.AuditEvent) (QueueReceipt, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(event)
	if err != nil {
		return QueueReceipt{}, fmt.Errorf("marshaling event payload: %w", err)
	}

	var id int64
	err = s.Pool.QueryRow(ctx, `
		INSERT INTO ingest_queue (project_id, environment_id, group_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		scope.ProjectID, scope.EnvironmentID, scope.GroupID, payload,
	).Scan(&id)
	if err != nil {
		return QueueReceipt{}, fmt.Errorf("enqueuing event: %w", err)
	}

	return QueueReceipt{ID: id}, nil
}

// DequeueBatch atomically claims up to max visible items and hides them for
// the visibility window. Rows that have burned through maxAttempts are left
// for Quarantine. Competing consumers are safe: FOR UPDATE SKIP LOCKED keeps
// them from claiming the same rows.
func (s *QueueStore) DequeueBatch(ctx context.Context, max int, visibility time.Duration, maxAttempts int) ([]QueuedEvent, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `
		UPDATE ingest_queue SET
			attempts = attempts + 1,
			visible_at = now() + $1::interval
		WHERE id IN (
			SELECT id FROM ingest_queue
			WHERE visible_at <= now() AND attempts < $2
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, project_id, environment_id, group_id, payload, attempts, received`,
		visibility.String(), maxAttempts, max,
	)
	if err != nil {
		return nil, fmt.Errorf("claiming queue batch: %w", err)
	}
	defer rows.Close()

	var batch []QueuedEvent
	for rows.Next() {
		var (
			item    QueuedEvent
			payload []byte
		)
		if err := rows.Scan(&item.Receipt.ID, &item.Scope.ProjectID, &item.Scope.EnvironmentID,
			&item.Scope.GroupID, &payload, &item.Attempts, &item.Received); err != nil {
			return nil, fmt.Errorf("scanning queue item: %w", err)
		}
		if err := json.Unmarshal(payload, &item.Event); err != nil {
			// Unparsable payloads cannot make progress; leave the row for
			// quarantine rather than failing the whole batch.
			s.Log.WithError(err).WithField("queue_id", item.Receipt.ID).Warn("skipping unparsable queue payload")

			continue
		}
		batch = append(batch, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating queue batch: %w", err)
	}

	return batch, nil
}

// Acknowledge removes a fully processed item. Never called before the index
// write is confirmed, so a crash between write and ack costs a redelivery,
// not an event.
func (s *QueueStore) Acknowledge(ctx context.Context, receipt QueueReceipt) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, "DELETE FROM ingest_queue WHERE id = $1", receipt.ID)
	if err != nil {
		return fmt.Errorf("acknowledging queue item %d: %w", receipt.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("queue item %d already acknowledged", receipt.ID)
	}

	return nil
}

// Quarantine moves items that exhausted their delivery attempts into the
// dead-letter table, preserving the full payload for operators. Returns the
// number of items moved.
func (s *QueueStore) Quarantine(ctx context.Context, maxAttempts int) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning quarantine transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	tag, err := tx.Exec(ctx, `
		WITH exhausted AS (
			DELETE FROM ingest_queue
			WHERE attempts >= $1 AND visible_at <= now()
			RETURNING id, project_id, environment_id, group_id, payload, attempts, received
		)
		INSERT INTO ingest_dead_letter
			(queue_id, project_id, environment_id, group_id, payload, attempts, received)
		SELECT id, project_id, environment_id, group_id, payload, attempts, received
		FROM exhausted`,
		maxAttempts,
	)
	if err != nil {
		return 0, fmt.Errorf("quarantining exhausted items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing quarantine: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// Depth returns the number of pending queue items, for the depth gauge.
func (s *QueueStore) Depth(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var depth int
	if err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM ingest_queue").Scan(&depth); err != nil {
		return 0, fmt.Errorf("measuring queue depth: %w", err)
	}

	return depth, nil
}
