package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/auditflow/auditflow/internal/models"
)

// IndexStore owns the searchable event index (indexed_events table). Rows
// are written exactly once per derived document id and never updated; the
// search side reads them with stable keyset ordering.
type IndexStore struct {
	Base
}

// NewIndexStore creates an IndexStore.
func NewIndexStore(base Base) *IndexStore {
	return &IndexStore{Base: base}
}

// indexColumns is the scan list shared by all document reads.
const indexColumns = `id, project_id, environment_id, group_id, group_name, received,
	action, crud, created, actor_id, actor_name, actor_href,
	target_id, target_name, target_href, target_type,
	source_ip, description, is_anonymous, is_failure, fields, component, version`

// WriteDocument inserts an indexed document. Idempotent: a duplicate
// delivery of the same event resolves to the same document id and the
// conflict is ignored, so competing workers converge on one row.
func (s *IndexStore) WriteDocument(ctx context.Context, doc *models.IndexedDocument) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var fields []byte
	if doc.Event.Fields != nil {
		var err error
		if fields, err = json.Marshal(doc.Event.Fields); err != nil {
			return fmt.Errorf("marshaling event fields: %w", err)
		}
	}

	ev := &doc.Event
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO indexed_events (
			id, project_id, environment_id, group_id, group_name, received,
			action, crud, created, actor_id, actor_name, actor_href,
			target_id, target_name, target_href, target_type,
			source_ip, description, is_anonymous, is_failure, fields, component, version
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23
		)
		ON CONFLICT (id) DO NOTHING`,
		doc.ID, doc.ProjectID, doc.EnvironmentID, doc.GroupID, ev.Group.Name, doc.Received,
		ev.Action, ev.Crud, ev.Created, ev.Actor.ID, ev.Actor.Name, ev.Actor.Href,
		ev.Target.ID, ev.Target.Name, ev.Target.Href, ev.Target.Type,
		ev.SourceIP, ev.Description, ev.IsAnonymous, ev.IsFailure, fields, ev.Component, ev.Version,
	)
	if err != nil {
		return fmt.Errorf("indexing document %s: %w", doc.ID, err)
	}

	return nil
}

// GetDocument fetches one document by id within the caller's scope.
func (s *IndexStore) GetDocument(ctx context.Context, scope models.Scope, id string) (*models.IndexedDocument, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	scopeClause, args, argIdx := scopeFilter(scope, []any{}, 1)
	args = append(args, id)

	row := s.Pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM indexed_events WHERE %s AND id = $%d", indexColumns, scopeClause, argIdx,
	), args...)

	doc, err := scanDocument(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", id, err)
	}

	return doc, nil
}

// buildDescriptorFilter translates a version-1 query descriptor into
// conjunctive WHERE conditions. Callers must have validated the descriptor
// version already; this function only shapes SQL.
func buildDescriptorFilter(q *models.QueryDescriptor, args []any, argIdx int) (conditions []string, outArgs []any, nextArg int) {
	crud := q.CrudCodes()
	if len(crud) == 0 {
		// All show flags false: empty result set by design, not an error.
		return []string{"FALSE"}, args, argIdx
	}
	if len(crud) < 4 {
		conditions = append(conditions, "crud IN ("+placeholders(argIdx, len(crud))+")")
		for _, code := range crud {
			args = append(args, code)
		}
		argIdx += len(crud)
	}

	if q.StartTime != nil {
		conditions = append(conditions, "created >= $"+strconv.Itoa(argIdx))
		args = append(args, *q.StartTime)
		argIdx++
	}
	if q.EndTime != nil {
		conditions = append(conditions, "created <= $"+strconv.Itoa(argIdx))
		args = append(args, *q.EndTime)
		argIdx++
	}
	if len(q.Actions) > 0 {
		conditions = append(conditions, "action = ANY($"+strconv.Itoa(argIdx)+")")
		args = append(args, q.Actions)
		argIdx++
	}
	if len(q.ActorIDs) > 0 {
		conditions = append(conditions, "actor_id = ANY($"+strconv.Itoa(argIdx)+")")
		args = append(args, q.ActorIDs)
		argIdx++
	}
	if q.SearchQuery != "" {
		conditions = append(conditions, "search_tsv @@ plainto_tsquery('english', $"+strconv.Itoa(argIdx)+")")
		args = append(args, q.SearchQuery)
		argIdx++
	}

	return conditions, args, argIdx
}

// QueryPage executes one page of a descriptor query. Ordering is fixed for
// the life of a search session: created DESC, then id DESC as the tie-break,
// so pages never repeat or skip rows as the index grows ahead of the cursor.
func (s *IndexStore) QueryPage(ctx context.Context, scope models.Scope, q *models.QueryDescriptor, offset, limit int) ([]models.IndexedDocument, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	scopeClause, args, argIdx := scopeFilter(scope, []any{}, 1)
	conditions := []string{scopeClause}

	descriptorConds, args, argIdx := buildDescriptorFilter(q, args, argIdx)
	conditions = append(conditions, descriptorConds...)

	query := fmt.Sprintf(`SELECT %s FROM indexed_events
		WHERE %s
		ORDER BY created DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		indexColumns, strings.Join(conditions, " AND "), argIdx, argIdx+1,
	)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing index query: %w", err)
	}
	defer rows.Close()

	var docs []models.IndexedDocument
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index rows: %w", err)
	}

	return docs, nil
}

// scanDocument scans one indexed_events row via the provided scan function.
func scanDocument(scan func(dest ...any) error) (*models.IndexedDocument, error) {
	var (
		doc    models.IndexedDocument
		fields []byte
	)

	ev := &doc.Event
	if err := scan(
		&doc.ID, &doc.ProjectID, &doc.EnvironmentID, &doc.GroupID, &ev.Group.Name, &doc.Received,
		&ev.Action, &ev.Crud, &ev.Created, &ev.Actor.ID, &ev.Actor.Name, &ev.Actor.Href,
		&ev.Target.ID, &ev.Target.Name, &ev.Target.Href, &ev.Target.Type,
		&ev.SourceIP, &ev.Description, &ev.IsAnonymous, &ev.IsFailure, &fields, &ev.Component, &ev.Version,
	); err != nil {
		return nil, fmt.Errorf("scanning indexed document: %w", err)
	}

	ev.Group.ID = doc.GroupID
	if fields != nil {
		if err := json.Unmarshal(fields, &ev.Fields); err != nil {
			return nil, fmt.Errorf("unmarshaling event fields: %w", err)
		}
	}

	return &doc, nil
}
