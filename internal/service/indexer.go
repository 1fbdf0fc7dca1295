package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/auditflow/auditflow/internal/metrics"
	"github.com/auditflow/auditflow/internal/models"
	"github.com/auditflow/auditflow/internal/store"
)

// EventQueue is the queue surface the indexing worker consumes.
type EventQueue interface {
	DequeueBatch(ctx context.Context, max int, visibility time.Duration, maxAttempts int) ([]store.QueuedEvent, error)
	Acknowledge(ctx context.Context, receipt store.QueueReceipt) error
	Quarantine(ctx context.Context, maxAttempts int) (int, error)
	Depth(ctx context.Context) (int, error)
}

// DocumentIndex is the index surface the worker writes to.
type DocumentIndex interface {
	WriteDocument(ctx context.Context, doc *models.IndexedDocument) error
}

// IndexerConfig tunes one worker loop.
type IndexerConfig struct {
	BatchSize    int
	PollInterval time.Duration
	Visibility   time.Duration
	MaxAttempts  int
}

// Indexer drains the ingestion queue into the search index. Multiple
// instances may run concurrently against the same queue; claims do not
// overlap and index writes are idempotent, so duplicate deliveries converge
// on the same document.
type Indexer struct {
	Queue    EventQueue
	Index    DocumentIndex
	Watchdog *Watchdog
	Log      *logrus.Logger

	cfg IndexerConfig
}

// NewIndexer creates an Indexer.
func NewIndexer(queue EventQueue, index DocumentIndex, watchdog *Watchdog, log *logrus.Logger, cfg IndexerConfig) *Indexer {
	return &Indexer{Queue: queue, Index: index, Watchdog: watchdog, Log: log, cfg: cfg}
}

// Run processes batches until ctx is cancelled. A full batch is followed
// immediately by another claim; a short or empty one waits out the poll
// interval first.
func (w *Indexer) Run(ctx context.Context) error {
	for {
		n, err := w.cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.Log.WithError(err).Error("indexing cycle failed")
		}

		if err == nil && n >= w.cfg.BatchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

// cycle claims one batch, indexes it, and sweeps exhausted items into the
// dead letter table. Returns the number of items claimed.
func (w *Indexer) cycle(ctx context.Context) (int, error) {
	batch, err := w.Queue.DequeueBatch(ctx, w.cfg.BatchSize, w.cfg.Visibility, w.cfg.MaxAttempts)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for i := range batch {
		if w.processItem(ctx, &batch[i]) {
			indexed++
		}
	}

	// An empty queue is a healthy pipeline, not a stale one. A batch where
	// every write failed is neither: the watermark only advances when the
	// cycle indexed something or had nothing to do.
	if len(batch) == 0 || indexed > 0 {
		w.Watchdog.MarkProgress()
	}

	if moved, err := w.Queue.Quarantine(ctx, w.cfg.MaxAttempts); err != nil {
		w.Log.WithError(err).Warn("dead letter sweep failed")
	} else if moved > 0 {
		metrics.EventsQuarantined.Add(float64(moved))
		w.Log.WithField("count", moved).Warn("quarantined exhausted queue items")
	}

	if depth, err := w.Queue.Depth(ctx); err == nil {
		metrics.QueueDepth.Set(float64(depth))
	}

	return len(batch), nil
}

// processItem writes one claimed event to the index and acknowledges it,
// reporting whether both steps succeeded. The write always precedes the ack;
// a crash in between costs a redelivery, which the idempotent document id
// absorbs.
func (w *Indexer) processItem(ctx context.Context, item *store.QueuedEvent) bool {
	doc := &models.IndexedDocument{
		ID:            item.Event.DeriveID(item.Scope),
		ProjectID:     item.Scope.ProjectID,
		EnvironmentID: item.Scope.EnvironmentID,
		GroupID:       item.Scope.GroupID,
		Received:      item.Received,
		Event:         item.Event,
	}

	if err := w.Index.WriteDocument(ctx, doc); err != nil {
		// Leave the item unacked; it becomes visible again after the
		// visibility timeout and eventually quarantines.
		metrics.IndexFailures.Inc()
		w.Log.WithError(err).WithFields(logrus.Fields{
			"queue_id": item.Receipt.ID,
			"doc_id":   doc.ID,
			"attempts": item.Attempts,
		}).Error("index write failed")

		return false
	}

	if err := w.Queue.Acknowledge(ctx, item.Receipt); err != nil {
		w.Log.WithError(err).WithField("queue_id", item.Receipt.ID).Warn("acknowledge failed")

		return false
	}

	metrics.EventsIndexed.Inc()

	return true
}
