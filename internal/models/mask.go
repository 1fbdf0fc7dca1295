package models

// MaskDescriptor is a tree of booleans mirroring the nested shape of an
// AuditEvent. A field appears in projected output iff its full path is true.
// Unknown keys in a decoded mask are ignored, so masks stay forward
// compatible as the event shape grows.
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

	// Fields is an open string map; it is included wholesale or not at all.
	// There is no partial masking inside it.
	Fields bool `json:"fields,omitempty"`

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

// PartialRecord is a projected view of an indexed document containing only
// the fields a mask requested.
type PartialRecord map[string]any
