package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling at the
// handler boundary without enumerating every concrete type there.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ErrResourceHidden is returned for filed resources the subject cannot read.
// It is deliberately indistinguishable from ErrNotFound at the HTTP boundary
// so that a denied read does not reveal whether the resource exists. The two
// are kept distinct internally for logging and audit.
var ErrResourceHidden = errors.New("not found or access denied")

// OwnershipInvariantError indicates a write that would leave a resource with
// zero or two owner references. Rejected before persistence, never partially
// applied.
type OwnershipInvariantError struct {
	Message string
}

func (e *OwnershipInvariantError) Error() string { return e.Message }

func (e *OwnershipInvariantError) StatusCode() int { return http.StatusBadRequest }

// Is allows errors.Is() to match against ErrValidation
func (e *OwnershipInvariantError) Is(target error) bool {
	return target == ErrValidation
}

// VisibilityEscalationBlockedError indicates an upgrade to public was blocked
// because referenced documents resolve to a stricter visibility. Blocking
// carries the offending document ids so the caller can present them.
type VisibilityEscalationBlockedError struct {
	Blocking []string
}

func (e *VisibilityEscalationBlockedError) Error() string {
	return fmt.Sprintf("visibility upgrade blocked by documents: %s", strings.Join(e.Blocking, ", "))
}

func (e *VisibilityEscalationBlockedError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *VisibilityEscalationBlockedError) Is(target error) bool {
	return target == ErrConflict
}

// ConflictError represents a resource conflict with details about the
// existing resource.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
