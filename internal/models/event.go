package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Crud codes classify an event as create/read/update/delete.
const (
	CrudCreate = "c"
	CrudRead   = "r"
	CrudUpdate = "u"
	CrudDelete = "d"
)

// Field length caps applied during ingest validation.
const (
	maxActionLen      = 512
	maxDescriptionLen = 4096
	maxFieldKeyLen    = 256
	maxFieldValueLen  = 4096
)

// Group is the tenant boundary an event belongs to (e.g. a customer project).
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Actor identifies who performed the action.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Href string `json:"href,omitempty"`
}

// Target identifies what was acted upon.
type Target struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Href string `json:"href,omitempty"`
	Type string `json:"type,omitempty"`
}

// AuditEvent is an immutable record of an action taken by an actor on a
// target within a group. Corrections are modelled as new events, never as
// mutations of an accepted one.
type AuditEvent struct {
	Action      string            `json:"action"`
	Crud        string            `json:"crud,omitempty"`
	Created     time.Time         `json:"created,omitempty"`
	Group       Group             `json:"group"`
	Actor       Actor             `json:"actor"`
	Target      Target            `json:"target,omitempty"`
	SourceIP    string            `json:"source_ip,omitempty"`
	Description string            `json:"description,omitempty"`
	IsAnonymous bool              `json:"is_anonymous,omitempty"`
	IsFailure   bool              `json:"is_failure,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	Component   string            `json:"component,omitempty"`
	Version     string            `json:"version,omitempty"`
}

// Validate checks an incoming event before it is accepted for ingestion.
func (e *AuditEvent) Validate() error {
	if strings.TrimSpace(e.Action) == "" {
		return ErrMissingAction
	}
	if len(e.Action) > maxActionLen {
		return ErrFieldTooLong("action", maxActionLen)
	}
	switch e.Crud {
	case "", CrudCreate, CrudRead, CrudUpdate, CrudDelete:
	default:
		return ErrInvalidCrud
	}
	if e.Group.ID == "" {
		return ErrMissingGroup
	}
	if len(e.Description) > maxDescriptionLen {
		return ErrFieldTooLong("description", maxDescriptionLen)
	}
	for k, v := range e.Fields {
		if len(k) > maxFieldKeyLen {
			return ErrFieldTooLong("fields key", maxFieldKeyLen)
		}
		if len(v) > maxFieldValueLen {
			return ErrFieldTooLong("fields value", maxFieldValueLen)
		}
	}

	return nil
}

// DeriveID computes the stable document id for an event within a scope.
// Duplicate deliveries of the same event hash to the same id, which is what
// makes index writes idempotent under at-least-once queue semantics.
func (e *AuditEvent) DeriveID(scope Scope) string {
	h := sha256.New()

	for _, part := range []string{
		scope.ProjectID,
		scope.EnvironmentID,
		e.Group.ID,
		e.Action,
		e.Crud,
		strconv.FormatInt(e.Created.UnixNano(), 10),
		e.Actor.ID,
		e.Target.ID,
		e.SourceIP,
		e.Description,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// IndexedDocument is the searchable representation of an AuditEvent plus the
// system metadata attached by the indexing worker. One-to-one with its source
// event and immutable after the index write.
type IndexedDocument struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"-"`
	EnvironmentID string     `json:"-"`
	GroupID       string     `json:"-"`
	Received      time.Time  `json:"received"`
	Event         AuditEvent `json:"event"`
}
