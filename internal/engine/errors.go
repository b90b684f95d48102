package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/scenesync/internal/scenepath"
)

// SyncError represents a recoverable condition detected while keeping the
// render index in step with the host.
//
// Sync errors include:
//   - Stale reference: a queued entity died before settle reached it
//   - Lookup miss: an operation named a path with no adapter
//   - Unsupported entity: no creator, or the render index lacks the prim type
//   - Duplicate creation: an adapter already exists at the computed path
//
// None of these are fatal. The engine logs them and moves on; they are
// returned from the exported creation and removal entry points so callers
// and tests can tell the cases apart.
type SyncError struct {
	// Code identifies the error category.
	Code SyncErrorCode

	// Path is the affected render-index path, when known.
	Path scenepath.Path

	// Message is a human-readable description.
	Message string
}

// SyncErrorCode categorizes sync errors.
type SyncErrorCode string

const (
	// ErrCodeStaleReference indicates the entity is no longer valid.
	ErrCodeStaleReference SyncErrorCode = "STALE_REFERENCE"

	// ErrCodeLookupMiss indicates no adapter exists at the path.
	ErrCodeLookupMiss SyncErrorCode = "LOOKUP_MISS"

	// ErrCodeUnsupportedEntity indicates the entity cannot be represented.
	ErrCodeUnsupportedEntity SyncErrorCode = "UNSUPPORTED_ENTITY"

	// ErrCodeDuplicateCreation indicates an adapter already exists at the path.
	ErrCodeDuplicateCreation SyncErrorCode = "DUPLICATE_CREATION"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	if !e.Path.IsEmpty() {
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code SyncErrorCode) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsLookupMiss returns true if the error is a lookup miss.
// Uses errors.As to handle wrapped errors.
func IsLookupMiss(err error) bool { return hasCode(err, ErrCodeLookupMiss) }

// IsDuplicate returns true if the error is a duplicate creation.
func IsDuplicate(err error) bool { return hasCode(err, ErrCodeDuplicateCreation) }

// IsStale returns true if the error is a stale entity reference.
func IsStale(err error) bool { return hasCode(err, ErrCodeStaleReference) }

// IsUnsupported returns true if the error is an unsupported entity.
func IsUnsupported(err error) bool { return hasCode(err, ErrCodeUnsupportedEntity) }

func staleError(p scenepath.Path, format string, args ...any) *SyncError {
	return &SyncError{Code: ErrCodeStaleReference, Path: p, Message: fmt.Sprintf(format, args...)}
}

func lookupMiss(p scenepath.Path, op string) *SyncError {
	return &SyncError{Code: ErrCodeLookupMiss, Path: p, Message: op + ": adapter does not exist"}
}

func unsupported(p scenepath.Path, typeName string) *SyncError {
	return &SyncError{Code: ErrCodeUnsupportedEntity, Path: p, Message: fmt.Sprintf("type %q is not supported", typeName)}
}

func duplicate(p scenepath.Path) *SyncError {
	return &SyncError{Code: ErrCodeDuplicateCreation, Path: p, Message: "adapter already exists"}
}
