// Package errors provides centralized error definitions and error handling utilities
// for the roadmap codebase. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - MutationError: errors raised while editing a roadmap document
//   - StoreError: errors related to fetching or writing the backing document
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewMutationError("cannot set pr", errors.ErrPlanNotAddressed).WithNodeID("1.2")
//
//	// Semantic error
//	err := errors.NewNotFoundError("node", "1.2")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrNodeNotFound) { ... }
//
//	var storeErr *errors.StoreError
//	if errors.As(err, &storeErr) { ... }
//
// # Error Classification
//
// The taxonomy follows the three kinds of failure a roadmap operation can
// produce. Structural problems (a table that does not parse) are reported as
// warnings next to partial results and never become errors. Semantic problems
// (a document that parses but is inconsistent) are reported as failed
// validation checks. Only operational problems (unknown node, a mutation that
// omits a required field, store I/O) surface as error values.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Roadmap-related sentinel errors
var (
	// ErrRoadmapNotFound indicates that a document carries neither a roadmap
	// table nor a roadmap data block.
	ErrRoadmapNotFound = New("roadmap not found in document")
	// ErrNodeNotFound indicates that no step matches the requested node ID.
	ErrNodeNotFound = New("node not found")
	// ErrAmbiguousNode indicates that more than one step matches a node ID.
	ErrAmbiguousNode = New("node matches more than one row")
	// ErrDependencyCycle indicates a circular dependency between nodes.
	ErrDependencyCycle = New("dependency cycle detected")
)

// Mutation-related sentinel errors
var (
	// ErrPlanNotAddressed indicates that a PR reference was set without
	// saying what should happen to the plan reference.
	ErrPlanNotAddressed = New("pr set without addressing plan")
	// ErrInvalidStatus indicates a status value outside the canonical set.
	ErrInvalidStatus = New("invalid status")
	// ErrDocumentChanged indicates that the backing document changed between
	// read and write of a guarded full-body update.
	ErrDocumentChanged = New("document changed since it was read")
)

// Store-related sentinel errors
var (
	// ErrIssueNotFound indicates that the requested issue or comment does not exist.
	ErrIssueNotFound = New("issue not found")
	// ErrAuthRequired indicates that authentication is required.
	ErrAuthRequired = New("authentication required")
	// ErrProviderUnavailable indicates that the provider tool/API is not available.
	ErrProviderUnavailable = New("provider unavailable")
	// ErrInvalidRef indicates that a document reference could not be parsed.
	ErrInvalidRef = New("invalid document reference")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed indicates a general operation failure.
	ErrOperationFailed = New("operation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// RoadmapError is the base interface for all roadmap errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type RoadmapError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// MutationError represents errors raised while editing a roadmap document.
//
// Example:
//
//	err := errors.NewMutationError("cannot update step", errors.ErrNodeNotFound)
//	err = err.WithNodeID("2.1").WithField("pr")
//	fmt.Println(err) // "mutation error [node=2.1, field=pr]: cannot update step: node not found"
type MutationError struct {
	baseError
	NodeID string
	Field  string
}

// NewMutationError creates a new MutationError.
func NewMutationError(message string, cause error) *MutationError {
	return &MutationError{
		baseError: baseError{
			message: message,
			cause:   cause,
		},
	}
}

// WithNodeID adds a node ID to the error context.
func (e *MutationError) WithNodeID(id string) *MutationError {
	e.NodeID = id
	return e
}

// WithField adds the name of the offending field to the error context.
func (e *MutationError) WithField(field string) *MutationError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *MutationError) Error() string {
	var parts []string
	if e.NodeID != "" {
		parts = append(parts, fmt.Sprintf("node=%s", e.NodeID))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}

	prefix := "mutation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("mutation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *MutationError) Is(target error) bool {
	if _, ok := target.(*MutationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// StoreError represents errors related to fetching or writing the backing
// document of an objective.
//
// Example:
//
//	err := errors.NewStoreError("fetch failed", errors.ErrAuthRequired)
//	err = err.WithRef("acme/app#12").WithOperation("fetch")
type StoreError struct {
	baseError
	Ref       string
	Operation string
	Output    string // Captured provider output
}

// NewStoreError creates a new StoreError.
func NewStoreError(message string, cause error) *StoreError {
	return &StoreError{
		baseError: baseError{
			message: message,
			cause:   cause,
		},
	}
}

// WithRef adds the document reference to the error context.
func (e *StoreError) WithRef(ref string) *StoreError {
	e.Ref = ref
	return e
}

// WithOperation adds the store operation (fetch, write, create) to the error context.
func (e *StoreError) WithOperation(op string) *StoreError {
	e.Operation = op
	return e
}

// WithOutput adds provider output to the error context.
func (e *StoreError) WithOutput(output string) *StoreError {
	e.Output = output
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *StoreError) WithRetryable(r bool) *StoreError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	var parts []string
	if e.Ref != "" {
		parts = append(parts, fmt.Sprintf("ref=%s", e.Ref))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Operation))
	}

	prefix := "store error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("store error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\noutput: %s", msg, e.Output)
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *StoreError) Is(target error) bool {
	if _, ok := target.(*StoreError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("node", "1.3")
//	fmt.Println(err) // "node '1.3' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message: fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("status must be one of the canonical values")
//	err = err.WithField("status").WithValue("finished")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message: message,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var roadmapErr RoadmapError
	if As(err, &roadmapErr) {
		return roadmapErr.IsRetryable()
	}

	return false
}

// IsNotFound reports whether err means that a node, roadmap, or backing
// issue does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *NotFoundError
	return As(err, &notFound) ||
		Is(err, ErrNodeNotFound) ||
		Is(err, ErrRoadmapNotFound) ||
		Is(err, ErrIssueNotFound)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap prefixes err with a context message. The result wraps err with %w,
// so errors.Is and errors.As still reach the original error.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to update objective")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to update node %s", nodeID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
