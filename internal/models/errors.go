package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for ingest validation.
var (
	ErrMissingAction = errors.New("action is required")
	ErrMissingGroup  = errors.New("group.id is required")
	ErrInvalidCrud   = errors.New("crud must be one of c, r, u, d")

	// ErrGroupScopeMismatch rejects an event claiming a group other than the
	// one the caller's token is bound to. Accepting it would re-home the
	// record into the token's group, and indexed events never change after
	// acceptance.
	ErrGroupScopeMismatch = errors.New("group.id does not match the token's group")
)

// ErrMissingActiveSearchID is returned by the pump engine when the caller
// omits the active search id. The message is part of the API contract.
var ErrMissingActiveSearchID = errors.New("Missing required 'id' parameter")

// ErrInvalidCursor marks a caller-supplied 'next' value that could not be
// decoded as a cursor token or bare offset.
var ErrInvalidCursor = errors.New("invalid 'next' cursor")

// FieldTooLongError reports a field exceeding its maximum length.
type FieldTooLongError struct {
	Field  string
	MaxLen int
}

func (e *FieldTooLongError) Error() string {
	return fmt.Sprintf("%s exceeds maximum length of %d", e.Field, e.MaxLen)
}

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return &FieldTooLongError{Field: field, MaxLen: maxLen}
}

// IsValidationError reports whether err is an ingest validation failure
// rather than a backend fault.
func IsValidationError(err error) bool {
	var tooLong *FieldTooLongError

	return errors.Is(err, ErrMissingAction) ||
		errors.Is(err, ErrMissingGroup) ||
		errors.Is(err, ErrInvalidCrud) ||
		errors.Is(err, ErrGroupScopeMismatch) ||
		errors.As(err, &tooLong)
}

// NotFoundError reports a lookup miss for a single resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (id=%s)", e.Resource, e.ID)
}

// ErrActiveSearchNotFound builds the pump engine's not-found error. The
// message names the offending id so callers can tell requests apart.
func ErrActiveSearchNotFound(id string) error {
	return &NotFoundError{Resource: "Active search", ID: id}
}

// ErrSavedSearchNotFound builds the saved search lookup error.
func ErrSavedSearchNotFound(id string) error {
	return &NotFoundError{Resource: "Saved search", ID: id}
}

// DanglingSearchError reports an active search whose saved search was
// deleted. Distinct from NotFoundError: the request was well-formed, the
// stored reference is broken, and the message names both ids so operators
// can distinguish "never existed" from "dangling reference".
type DanglingSearchError struct {
	ActiveSearchID string
	SavedSearchID  string
}

func (e *DanglingSearchError) Error() string {
	return fmt.Sprintf("Active search (id=%s) refers to a non-existent saved search (id=%s)",
		e.ActiveSearchID, e.SavedSearchID)
}

// UnknownVersionError reports a query descriptor version this deployment does
// not understand. Raised before any index query is issued.
type UnknownVersionError struct {
	Version int
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("Unknown query descriptor version: %d", e.Version)
}

// IsNotFound reports whether err is a lookup miss of either kind.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	var dangling *DanglingSearchError

	return errors.As(err, &nf) || errors.As(err, &dangling)
}
