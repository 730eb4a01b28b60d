// Package errors provides centralized error definitions and error handling utilities
// for taskpanel. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures at the module's two real
// boundaries:
//   - PanelError: the presentation host could not create a document surface
//   - OrchestrationError: the orchestration server could not be reached or
//     answered with a non-success status
//   - MalformedResponseError: the orchestration server answered with a body
//     that could not be decoded
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found (unknown trigger, missing plan file)
//   - ValidationError: invalid input or configuration
//   - TimeoutError: an orchestration request exceeded its deadline
//
// Two conditions are not errors: querying children of an
// unrecognized tree node yields an empty sequence, and disposing an absent
// panel is a no-op.
//
// # Usage
//
//	err := errors.NewOrchestrationError("fetch status", cause).
//	    WithEndpoint("/project/status").
//	    WithStatusCode(500)
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
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

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Panel-related sentinel errors
var (
	// ErrSurfaceCreate indicates the host refused to create a document surface.
	ErrSurfaceCreate = New("surface creation failed")
	// ErrInvalidResourceRoot indicates a local resource root the host cannot serve.
	ErrInvalidResourceRoot = New("invalid local resource root")
)

// Orchestration-related sentinel errors
var (
	// ErrServerUnavailable indicates the orchestration server could not be reached.
	ErrServerUnavailable = New("orchestration server unavailable")
	// ErrServerRejected indicates the orchestration server returned a non-success status.
	ErrServerRejected = New("orchestration server rejected request")
	// ErrMalformedResponse indicates a response body that could not be decoded.
	ErrMalformedResponse = New("malformed orchestration response")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TaskPanelError is the base interface for all taskpanel errors.
type TaskPanelError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error      { return e.cause }
func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsRetryable() bool  { return e.retryable }
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// format renders "<prefix> [k=v, ...]: message: cause".
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// PanelError represents a failure to create or drive a document surface.
// Surface creation failures are fatal to the trigger that asked for the panel.
//
// Example:
//
//	err := errors.NewPanelError("create surface", errors.ErrSurfaceCreate).
//	    WithViewType("projectPlan")
type PanelError struct {
	baseError
	ViewType string
}

// NewPanelError creates a new PanelError.
func NewPanelError(message string, cause error) *PanelError {
	return &PanelError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityCritical,
			userFacing: true,
		},
	}
}

// WithViewType adds the panel's view type to the error context.
func (e *PanelError) WithViewType(viewType string) *PanelError {
	e.ViewType = viewType
	return e
}

// Error returns the formatted error message.
func (e *PanelError) Error() string {
	var parts []string
	if e.ViewType != "" {
		parts = append(parts, fmt.Sprintf("view=%s", e.ViewType))
	}
	return e.format("panel error", parts)
}

// OrchestrationError represents a failed exchange with the orchestration server.
// Connection failures are retryable; rejected requests are not.
//
// Example:
//
//	err := errors.NewOrchestrationError("fetch status", errors.ErrServerUnavailable).
//	    WithEndpoint("/project/status")
type OrchestrationError struct {
	baseError
	Endpoint   string
	StatusCode int
	Detail     string
}

// NewOrchestrationError creates a new OrchestrationError.
// Errors wrapping ErrServerUnavailable are marked retryable.
func NewOrchestrationError(message string, cause error) *OrchestrationError {
	return &OrchestrationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  errors.Is(cause, ErrServerUnavailable),
			userFacing: true,
		},
	}
}

// WithEndpoint adds the request path to the error context.
func (e *OrchestrationError) WithEndpoint(endpoint string) *OrchestrationError {
	e.Endpoint = endpoint
	return e
}

// WithStatusCode adds the HTTP status code to the error context.
func (e *OrchestrationError) WithStatusCode(code int) *OrchestrationError {
	e.StatusCode = code
	return e
}

// WithDetail adds the server-provided detail message.
func (e *OrchestrationError) WithDetail(detail string) *OrchestrationError {
	e.Detail = detail
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *OrchestrationError) WithRetryable(r bool) *OrchestrationError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *OrchestrationError) Error() string {
	var parts []string
	if e.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("endpoint=%s", e.Endpoint))
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	msg := e.format("orchestration error", parts)
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	return msg
}

// MalformedResponseError represents a server response that could not be decoded.
type MalformedResponseError struct {
	baseError
	Endpoint string
}

// NewMalformedResponseError creates a new MalformedResponseError.
func NewMalformedResponseError(endpoint string, cause error) *MalformedResponseError {
	return &MalformedResponseError{
		baseError: baseError{
			message:    "could not decode response",
			cause:      cause,
			severity:   SeverityError,
			userFacing: false,
		},
		Endpoint: endpoint,
	}
}

// Error returns the formatted error message.
func (e *MalformedResponseError) Error() string {
	return e.format("malformed response", []string{fmt.Sprintf("endpoint=%s", e.Endpoint)})
}

// Is reports whether target is ErrMalformedResponse.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("trigger", "missTaskmaster.bogus")
//	fmt.Println(err) // "trigger 'missTaskmaster.bogus' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
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

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("GET /project/status", 10*time.Second)
//	fmt.Println(err) // "timeout error: GET /project/status (timeout: 10s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
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
	var tpErr TaskPanelError
	if As(err, &tpErr) {
		return tpErr.IsRetryable()
	}
	return Is(err, ErrTimeout)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var tpErr TaskPanelError
	if As(err, &tpErr) {
		return tpErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement TaskPanelError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var tpErr TaskPanelError
	if As(err, &tpErr) {
		return tpErr.Severity()
	}
	return SeverityError
}

// UserMessage returns a message suitable for a status bar: the error text when
// it is user-facing, a generic line otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsUserFacing(err) {
		return err.Error()
	}
	return "An internal error occurred (see log for details)"
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
