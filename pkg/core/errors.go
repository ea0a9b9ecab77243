// Package core provides the main OpenMemory client and memory management functionality.
package core

import (
	"errors"
	"fmt"

	"github.com/openmemory-ai/openmemory-go/pkg/attachment"
	"github.com/openmemory-ai/openmemory-go/pkg/pipeline"
)

// Predefined errors for common failure scenarios.
var (
	// ErrNotFound indicates that a requested memory was not found.
	ErrNotFound = errors.New("memory not found")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtractionFailed indicates that the fact extraction phase failed.
	// Fatal for the add-call; nothing is written.
	ErrExtractionFailed = pipeline.ErrExtractionFailed

	// ErrResolutionFailed indicates that the resolution phase failed.
	// Fatal for the add-call; nothing is written.
	ErrResolutionFailed = pipeline.ErrResolutionFailed

	// ErrAttachmentNotFound indicates a referenced attachment does not exist.
	ErrAttachmentNotFound = attachment.ErrNotFound

	// ErrAttachmentTooLarge indicates attachment content exceeds the size limit.
	ErrAttachmentTooLarge = attachment.ErrTooLarge

	// ErrAttachmentExists indicates an attachment ID collision on create.
	ErrAttachmentExists = attachment.ErrExists
)

// MemoryError wraps errors with operation context.
//
// It provides additional context about which operation failed,
// making error messages more informative for debugging.
//
// Example:
//
//	err := &MemoryError{
//	    Op:  "Add",
//	    Err: ErrExtractionFailed,
//	}
//	// Error() returns: "openmemory: Add: fact extraction failed"
type MemoryError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "openmemory: <Op>: <Err>"
func (e *MemoryError) Error() string {
	return fmt.Sprintf("openmemory: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with MemoryError.
func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError creates a new MemoryError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewMemoryError("Add", err)
//	}
//
// Parameters:
//   - op: Name of the operation (e.g., "Add", "Search", "Update")
//   - err: The underlying error to wrap
//
// Returns a MemoryError, or nil if err is nil.
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{
		Op:  op,
		Err: err,
	}
}
