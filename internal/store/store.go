// Package store provides focused, single-concern data access stores for the
// auditflow platform.
//
// Each store owns one domain (ingest queue, event index, searches, tokens)
// and embeds shared helpers (Pool, logger) via the Base struct. Stores never
// import each other; shared logic lives in this file.
//
// Every read and write that touches tenant data takes a models.Scope and
// appends its (project_id, environment_id, group_id) predicate through
// scopeFilter. Scope comes from the caller's token, so there is no code path
// where a request payload can widen it.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/auditflow/auditflow/internal/dbpool"
	"github.com/auditflow/auditflow/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores. Embed this in each
// store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// scopeFilter appends the mandatory tenant predicate to a WHERE clause under
// construction. Returns the updated arg list and the next placeholder index.
func scopeFilter(scope models.Scope, args []any, argIdx int) (string, []any, int) {
	clause := fmt.Sprintf("project_id = $%d AND environment_id = $%d AND group_id = $%d",
		argIdx, argIdx+1, argIdx+2)
	args = append(args, scope.ProjectID, scope.EnvironmentID, scope.GroupID)

	return clause, args, argIdx + 3
}

// placeholders renders $n,$n+1,... for an IN list of the given length.
func placeholders(start, n int) string {
	s := ""
	for i := range n {
		if i > 0 {
			s += ","
		}
		s += "$" + strconv.Itoa(start+i)
	}

	return s
}
