package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/auditflow/auditflow/internal/dbpool"
	"github.com/auditflow/auditflow/internal/models"
)

// ErrTokenNotFound is returned for unknown or disabled API tokens. The same
// error covers both cases so a caller cannot probe which tokens exist.
var ErrTokenNotFound = errors.New("api token not found")

// TokenStore resolves API tokens to their tenant scope. Tokens are stored as
// sha256 hashes; the raw value never touches the database.
type TokenStore struct {
	Pool *dbpool.Pool
}

// NewTokenStore creates a TokenStore.
func NewTokenStore(pool *dbpool.Pool) *TokenStore {
	return &TokenStore{Pool: pool}
}

// GetScopeByToken looks up the scope an API token is bound to.
func (s *TokenStore) GetScopeByToken(ctx context.Context, token string) (models.Scope, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	hash := sha256.Sum256([]byte(token))
	tokenHash := hex.EncodeToString(hash[:])

	var scope models.Scope
	err := s.Pool.QueryRow(ctx, `
		SELECT project_id, environment_id, group_id
		FROM api_tokens
		WHERE token_hash = $1 AND NOT disabled`,
		tokenHash,
	).Scan(&scope.ProjectID, &scope.EnvironmentID, &scope.GroupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Scope{}, ErrTokenNotFound
	}
	if err != nil {
		return models.Scope{}, fmt.Errorf("looking up scope by token: %w", err)
	}

	return scope, nil
}
