package client

import "time"

// Group is the tenant boundary an event belongs to.
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

// AuditEvent is a single audit record submitted for ingestion.
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

// IngestReceipt acknowledges an accepted event. The document id is stable for
// a given event, so a retried submission returns the same id.
type IngestReceipt struct {
	DocumentID string    `json:"id"`
	QueueID    int64     `json:"queue_id"`
	Received   time.Time `json:"received"`
}

// QueryDescriptor is the versioned filter definition stored in a saved
// search. Version must be 1.
type QueryDescriptor struct {
	Version int `json:"version"`

	ShowCreate bool `json:"showCreate"`
	ShowRead   bool `json:"showRead"`
	ShowUpdate bool `json:"showUpdate"`
	ShowDelete bool `json:"showDelete"`

	SearchQuery string     `json:"searchQuery,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Actions     []string   `json:"actions,omitempty"`
	ActorIDs    []string   `json:"actorIds,omitempty"`
}

// MaskDescriptor selects which event fields appear in pumped records. A nil
// mask returns full records.
type MaskDescriptor struct {
	Action      bool `json:"action,omitempty"`
	Crud        bool `json:"crud,omitempty"`
	Created     bool `json:"created,omitempty"`
	SourceIP    bool `json:"source_ip,omitempty"`
	Description bool `json:"description,omitempty"`
	IsAnonymous bool `json:"is_anonymous,omitempty"`
	IsFailure   bool `json:"is_failure,omitempty"`
	Component   bool `json:"component,omitempty"`
	Version     bool `json:"version,omitempty"`
	Fields      bool `json:"fields,omitempty"`

	Group  *GroupMask  `json:"group,omitempty"`
	Actor  *ActorMask  `json:"actor,omitempty"`
	Target *TargetMask `json:"target,omitempty"`
}

// GroupMask selects group sub-fields.
type GroupMask struct {
	ID   bool `json:"id,omitempty"`
	Name bool `json:"name,omitempty"`
}

// ActorMask selects actor sub-fields.
type ActorMask struct {
	ID   bool `json:"id,omitempty"`
	Name bool `json:"name,omitempty"`
	Href bool `json:"href,omitempty"`
}

// TargetMask selects target sub-fields.
type TargetMask struct {
	ID   bool `json:"id,omitempty"`
	Name bool `json:"name,omitempty"`
	Href bool `json:"href,omitempty"`
	Type bool `json:"type,omitempty"`
}

// SavedSearch is a persisted, named filter definition.
type SavedSearch struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ProjectID     string          `json:"project_id"`
	EnvironmentID string          `json:"environment_id"`
	GroupID       string          `json:"group_id"`
	Query         QueryDescriptor `json:"query"`
}

// ActiveSearch is a resumable pagination session over a saved search.
type ActiveSearch struct {
	ID            string `json:"id"`
	ProjectID     string `json:"project_id"`
	EnvironmentID string `json:"environment_id"`
	GroupID       string `json:"group_id"`
	SavedSearchID string `json:"saved_search_id"`
}

// PartialRecord is a projected view of an indexed event. Its keys depend on
// the mask supplied to the pump.
type PartialRecord map[string]any

// PumpResult is one page of records plus the cursor for the next page.
type PumpResult struct {
	Records    []PartialRecord `json:"currentResults"`
	NextCursor string          `json:"next_cursor"`
}

// HealthResponse describes server liveness, including the indexing watermark.
type HealthResponse struct {
	Status          string    `json:"status"`
	LastProcessedAt time.Time `json:"last_processed_at"`
	Version         string    `json:"version"`
	Database        string    `json:"database,omitempty"`
	UptimeSeconds   float64   `json:"uptime_seconds"`
}

// ReadyResponse describes server readiness.
type ReadyResponse struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schema_version"`
}
