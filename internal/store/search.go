package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/auditflow/auditflow/internal/models"
)

// SearchStore owns saved searches and their resumable active sessions.
// Descriptors are persisted as opaque JSON; only the version field inside
// them is interpreted, and only at query time.
type SearchStore struct {
	Base
}

// NewSearchStore creates a SearchStore.
func NewSearchStore(base Base) *SearchStore {
	return &SearchStore{Base: base}
}

// CreateSavedSearch persists a named filter definition within a scope.
func (s *SearchStore) CreateSavedSearch(ctx context.Context, scope models.Scope, name string, q models.QueryDescriptor) (*models.SavedSearch, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	desc, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshaling query descriptor: %w", err)
	}

	saved := &models.SavedSearch{
		ID:            uuid.New().String(),
		Name:          name,
		ProjectID:     scope.ProjectID,
		EnvironmentID: scope.EnvironmentID,
		GroupID:       scope.GroupID,
		Query:         q,
	}

	_, err = s.Pool.Exec(ctx, `
		INSERT INTO saved_search (id, name, project_id, environment_id, group_id, query_desc)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		saved.ID, saved.Name, saved.ProjectID, saved.EnvironmentID, saved.GroupID, desc,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting saved search: %w", err)
	}

	return saved, nil
}

// GetSavedSearch fetches a saved search by id within the caller's scope.
func (s *SearchStore) GetSavedSearch(ctx context.Context, scope models.Scope, id string) (*models.SavedSearch, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	scopeClause, args, argIdx := scopeFilter(scope, []any{}, 1)
	args = append(args, id)

	saved := &models.SavedSearch{}
	var desc []byte

	err := s.Pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, name, project_id, environment_id, group_id, query_desc
		FROM saved_search WHERE %s AND id = $%d`, scopeClause, argIdx),
		args...,
	).Scan(&saved.ID, &saved.Name, &saved.ProjectID, &saved.EnvironmentID, &saved.GroupID, &desc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrSavedSearchNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching saved search %s: %w", id, err)
	}

	// The stored descriptor is opaque JSON; decoding tolerates fields this
	// deployment does not know. Version validation happens at query time.
	if err := json.Unmarshal(desc, &saved.Query); err != nil {
		return nil, fmt.Errorf("unmarshaling query descriptor of saved search %s: %w", id, err)
	}

	return saved, nil
}

// DeleteSavedSearch removes a saved search. Active searches that still
// reference it are left in place; their next pump reports the dangling
// reference instead of crashing.
func (s *SearchStore) DeleteSavedSearch(ctx context.Context, scope models.Scope, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	scopeClause, args, argIdx := scopeFilter(scope, []any{}, 1)
	args = append(args, id)

	tag, err := s.Pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM saved_search WHERE %s AND id = $%d", scopeClause, argIdx), args...)
	if err != nil {
		return fmt.Errorf("deleting saved search %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSavedSearchNotFound(id)
	}

	return nil
}

// CreateActiveSearch opens a resumable session over a saved search, with the
// cursor at the start of the result set.
func (s *SearchStore) CreateActiveSearch(ctx context.Context, scope models.Scope, savedSearchID string) (*models.ActiveSearch, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	active := &models.ActiveSearch{
		ID:            uuid.New().String(),
		ProjectID:     scope.ProjectID,
		EnvironmentID: scope.EnvironmentID,
		GroupID:       scope.GroupID,
		SavedSearchID: savedSearchID,
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO active_search (id, project_id, environment_id, group_id, saved_search_id, next_offset)
		VALUES ($1, $2, $3, $4, $5, 0)`,
		active.ID, active.ProjectID, active.EnvironmentID, active.GroupID, active.SavedSearchID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting active search: %w", err)
	}

	return active, nil
}

// GetActiveSearch fetches an active search by id within the caller's scope.
func (s *SearchStore) GetActiveSearch(ctx context.Context, scope models.Scope, id string) (*models.ActiveSearch, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	scopeClause, args, argIdx := scopeFilter(scope, []any{}, 1)
	args = append(args, id)

	active := &models.ActiveSearch{}
	err := s.Pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, project_id, environment_id, group_id, saved_search_id, next_offset
		FROM active_search WHERE %s AND id = $%d`, scopeClause, argIdx),
		args...,
	).Scan(&active.ID, &active.ProjectID, &active.EnvironmentID, &active.GroupID,
		&active.SavedSearchID, &active.Cursor.Offset)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrActiveSearchNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching active search %s: %w", id, err)
	}

	return active, nil
}

// UpdateActiveSearchCursor persists the advanced cursor. Last writer wins
// under concurrent pumps of the same session; the stored value is always a
// well-formed offset, never a torn one.
func (s *SearchStore) UpdateActiveSearchCursor(ctx context.Context, scope models.Scope, id string, cursor models.Cursor) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	scopeClause, args, argIdx := scopeFilter(scope, []any{cursor.Offset}, 2)
	args = append(args, id)

	tag, err := s.Pool.Exec(ctx, fmt.Sprintf(
		"UPDATE active_search SET next_offset = $1 WHERE %s AND id = $%d", scopeClause, argIdx),
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating active search cursor %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrActiveSearchNotFound(id)
	}

	return nil
}
