package models

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Scope is the tenant boundary every store lookup and index query must carry.
// It comes from the caller's token, never from request payloads, so a crafted
// descriptor cannot widen it.
type Scope struct {
	ProjectID     string
	EnvironmentID string
	GroupID       string
}

// SavedSearch is a persisted, named filter definition. Read-only after
// creation; deleted explicitly. Deleting one must not crash in-flight active
// searches; their next pump fails with a DanglingSearchError instead.
type SavedSearch struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ProjectID     string          `json:"project_id"`
	EnvironmentID string          `json:"environment_id"`
	GroupID       string          `json:"group_id"`
	Query         QueryDescriptor `json:"query"`
}

// ActiveSearch is a resumable session over a saved search. Only the pump
// operation advances its cursor.
type ActiveSearch struct {
	ID            string `json:"id"`
	ProjectID     string `json:"project_id"`
	EnvironmentID string `json:"environment_id"`
	GroupID       string `json:"group_id"`
	SavedSearchID string `json:"saved_search_id"`
	Cursor        Cursor `json:"cursor"`
}

// cursorPrefix tags encoded cursor tokens so the format can evolve without
// breaking stored sessions.
const cursorPrefix = "o:"

// Cursor is the resume position of an active search. It is exposed to
// callers only as an opaque token so the index backend can change its
// positional representation without changing the public contract. The
// current representation is a row offset.
type Cursor struct {
	Offset int
}

// Encode returns the opaque wire form of the cursor.
func (c Cursor) Encode() string {
	return base64.URLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(c.Offset)))
}

// Advance returns the cursor moved past n fetched documents.
func (c Cursor) Advance(n int) Cursor {
	return Cursor{Offset: c.Offset + n}
}

// ParseCursor decodes a caller-supplied cursor token. Empty input means the
// start of the result set. Bare decimal offsets are accepted for
// compatibility with clients that treat the cursor as an integer.
func ParseCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}

	if raw, err := base64.URLEncoding.DecodeString(s); err == nil && strings.HasPrefix(string(raw), cursorPrefix) {
		offset, err := strconv.Atoi(strings.TrimPrefix(string(raw), cursorPrefix))
		if err != nil || offset < 0 {
			return Cursor{}, fmt.Errorf("malformed cursor token %q", s)
		}

		return Cursor{Offset: offset}, nil
	}

	offset, err := strconv.Atoi(s)
	if err != nil || offset < 0 {
		return Cursor{}, fmt.Errorf("malformed cursor %q", s)
	}

	return Cursor{Offset: offset}, nil
}
