package models

import "time"

// DescriptorVersion1 is the only query descriptor version this deployment
// understands. The version field is the single authoritative contract about
// which descriptor fields are meaningful; new optional fields may be added
// under version 1 without migrating stored rows.
const DescriptorVersion1 = 1

// QueryDescriptor is the versioned filter definition persisted inside a
// saved search. It is stored opaquely as JSON; unknown versions must be
// rejected at query time, never silently defaulted.
type QueryDescriptor struct {
	Version int `json:"version"`

	// Version 1 fields. The four show flags gate which crud codes match;
	// all-false means the result set is empty by design.
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

// Validate rejects descriptor versions this deployment does not understand.
// Called before any query translation.
func (d *QueryDescriptor) Validate() error {
	if d.Version != DescriptorVersion1 {
		return &UnknownVersionError{Version: d.Version}
	}

	return nil
}

// CrudCodes expands the show flags into the set of matching crud letters.
func (d *QueryDescriptor) CrudCodes() []string {
	var codes []string
	if d.ShowCreate {
		codes = append(codes, CrudCreate)
	}
	if d.ShowRead {
		codes = append(codes, CrudRead)
	}
	if d.ShowUpdate {
		codes = append(codes, CrudUpdate)
	}
	if d.ShowDelete {
		codes = append(codes, CrudDelete)
	}

	return codes
}
