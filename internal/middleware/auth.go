package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/auditflow/auditflow/internal/models"
)

// authTimingFloor is the minimum response time for failed auth to prevent
// timing oracle attacks that could distinguish valid from invalid tokens.
const authTimingFloor = 50 * time.Millisecond

// ScopeKey is the gin context key holding the authenticated tenant scope.
const ScopeKey = "scope"

// ScopeLookup resolves an API token to its tenant scope.
type ScopeLookup interface {
	GetScopeByToken(ctx context.Context, token string) (models.Scope, error)
}

// ScopeFromContext returns the scope placed in the context by AuthMiddleware.
func ScopeFromContext(c *gin.Context) (models.Scope, bool) {
	v, exists := c.Get(ScopeKey)
	if !exists {
		return models.Scope{}, false
	}

	scope, ok := v.(models.Scope)

	return scope, ok
}

// truncateToken returns at most the first 4 characters of token followed by "...".
func truncateToken(token string) string {
	if len(token) > 4 {
		return token[:4] + "..."
	}
	return token
}

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// AuthMiddleware returns Gin middleware that authenticates requests via Bearer
// token and binds the resolved tenant scope to the request context. If a
// BruteForceGuard is provided, failed attempts are tracked per token hash.
func AuthMiddleware(lookup ScopeLookup, log *logrus.Logger, guards ...*BruteForceGuard) gin.HandlerFunc {
	var guard *BruteForceGuard
	if len(guards) > 0 {
		guard = guards[0]
	}

	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		token := ExtractBearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		scope, err := lookup.GetScopeByToken(c.Request.Context(), token)
		if err != nil {
			logAuthFailure(log, c, token)

			if guard != nil {
				guard.RecordFailure(token)
			}

			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid api token")
			return
		}

		if guard != nil {
			guard.ResetKey(token)
		}

		c.Set(ScopeKey, scope)
		c.Next()
	}
}

// ExtractBearerToken extracts the API token from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// logAuthFailure logs a failed authentication attempt.
func logAuthFailure(log *logrus.Logger, c *gin.Context, token string) {
	log.WithFields(logrus.Fields{
		"client_ip":    c.ClientIP(),
		"method":       c.Request.Method,
		"path":         c.Request.URL.Path,
		"user_agent":   c.Request.UserAgent(),
		"request_id":   c.GetString("request_id"),
		"token_prefix": truncateToken(token),
	}).Warn("authentication failed: invalid api token")
}
