// Package errors provides centralized error definitions and error handling
// utilities for gpm. It defines the provisioning error taxonomy, semantic
// error types and the classification helpers the CLI reports with.
//
// # Error Types
//
// ProvisionError is the domain error. It records the pipeline stage that
// failed and, for task-level failures, the week, task and step:
//
//   - StageBoard, StageMilestones, StageBaseCommit: fatal, the run aborts
//   - StageTask: recoverable, the run logs it and moves to the next task
//
// Semantic errors represent common conditions:
//   - NotFoundError: a remote resource does not exist
//   - AlreadyExistsError: a remote resource already exists
//   - ValidationError: invalid plan or configuration input
//
// # Usage
//
//	err := errors.NewProvisionError(errors.StageMilestones, "milestone batch failed", cause)
//	if errors.IsFatal(err) { ... }
//
//	err := errors.NewProvisionError(errors.StageTask, "task failed", cause).
//		WithWeek("Week 1").WithTask("Add login form").WithStep(errors.StepBranch)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
var (
	As   = errors.As
	New  = errors.New
	Join = errors.Join
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
	// SeverityCritical is for errors that abort the whole run.
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

var (
	// ErrPlanInvalid indicates that the plan document failed validation.
	ErrPlanInvalid = New("plan is invalid")
	// ErrBoardUnavailable indicates that the project board could not be found or created.
	ErrBoardUnavailable = New("project board unavailable")
	// ErrMilestoneBatch indicates that at least one milestone could not be resolved.
	ErrMilestoneBatch = New("milestone batch failed")
	// ErrBaseCommit indicates that the default branch head could not be resolved.
	ErrBaseCommit = New("base commit unavailable")
	// ErrTaskFailed indicates that provisioning a single task failed.
	ErrTaskFailed = New("task failed")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrCanceled indicates that the run was canceled.
	ErrCanceled = New("operation canceled")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// GPMError is the base interface for all gpm errors.
type GPMError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if rerunning the tool may succeed.
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
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

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Provisioning Errors
// -----------------------------------------------------------------------------

// Stage identifies the pipeline stage an error came from.
type Stage string

const (
	StageBoard      Stage = "board"
	StageMilestones Stage = "milestones"
	StageBaseCommit Stage = "base_commit"
	StageTask       Stage = "task"
)

// Step identifies the per-task operation that failed.
type Step string

const (
	StepBranch Step = "branch"
	StepIssue  Step = "issue"
	StepLink   Step = "link"
)

// ProvisionError represents a failure in the provisioning pipeline.
//
// Example:
//
//	err := errors.NewProvisionError(errors.StageTask, "create branch", cause).
//		WithWeek("Week 1 (Jan 6-12)").WithTask("Add login form").WithStep(errors.StepBranch)
//	fmt.Println(err) // "provision error [stage=task, week=Week 1 (Jan 6-12), task=Add login form, step=branch]: create branch: ..."
type ProvisionError struct {
	baseError
	Stage Stage
	Week  string
	Task  string
	Step  Step
}

// NewProvisionError creates a new ProvisionError. Errors from any stage other
// than StageTask are fatal and get critical severity.
func NewProvisionError(stage Stage, message string, cause error) *ProvisionError {
	severity := SeverityCritical
	if stage == StageTask {
		severity = SeverityError
	}
	return &ProvisionError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  severity,
			retryable: true,
		},
		Stage: stage,
	}
}

// WithWeek adds the week label to the error context.
func (e *ProvisionError) WithWeek(week string) *ProvisionError {
	e.Week = week
	return e
}

// WithTask adds the task title to the error context.
func (e *ProvisionError) WithTask(task string) *ProvisionError {
	e.Task = task
	return e
}

// WithStep adds the failing task step to the error context.
func (e *ProvisionError) WithStep(step Step) *ProvisionError {
	e.Step = step
	return e
}

// Fatal reports whether the error aborts the run.
func (e *ProvisionError) Fatal() bool {
	return e.Stage != StageTask
}

// Error returns the formatted error message.
func (e *ProvisionError) Error() string {
	parts := []string{fmt.Sprintf("stage=%s", e.Stage)}
	if e.Week != "" {
		parts = append(parts, fmt.Sprintf("week=%s", e.Week))
	}
	if e.Task != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.Task))
	}
	if e.Step != "" {
		parts = append(parts, fmt.Sprintf("step=%s", e.Step))
	}

	prefix := fmt.Sprintf("provision error [%s]", strings.Join(parts, ", "))
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target. Each stage also matches its
// stage sentinel, so errors.Is(err, ErrMilestoneBatch) works without a type
// assertion.
func (e *ProvisionError) Is(target error) bool {
	if _, ok := target.(*ProvisionError); ok {
		return true
	}
	switch e.Stage {
	case StageBoard:
		if target == ErrBoardUnavailable {
			return true
		}
	case StageMilestones:
		if target == ErrMilestoneBatch {
			return true
		}
	case StageBaseCommit:
		if target == ErrBaseCommit {
			return true
		}
	case StageTask:
		if target == ErrTaskFailed {
			return true
		}
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
//	err := errors.NewNotFoundError("milestone", "Week 1")
//	fmt.Println(err) // "milestone 'Week 1' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:   fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:  SeverityWarning,
			retryable: false,
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

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("branch", "feat/add-login-form")
//	fmt.Println(err) // "branch 'feat/add-login-form' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:   fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:  SeverityInfo,
			retryable: false,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("unknown commit type").
//		WithField("weeks[0].tasks[1].commit_type").WithValue("feature")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:   message,
			severity:  SeverityWarning,
			retryable: false,
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

// Message returns the bare validation message without field context.
func (e *ValidationError) Message() string {
	return e.message
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
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsFatal returns true if the error aborts a provisioning run. Anything that
// is not a task-level ProvisionError is treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var provErr *ProvisionError
	if As(err, &provErr) {
		return provErr.Fatal()
	}
	return true
}

// IsRetryable returns true if rerunning may succeed. Provisioning is
// idempotent for boards, milestones and branches, so pipeline errors are
// retryable while validation errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var gpmErr GPMError
	if As(err, &gpmErr) {
		return gpmErr.IsRetryable()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement GPMError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var gpmErr GPMError
	if As(err, &gpmErr) {
		return gpmErr.Severity()
	}
	return SeverityError
}
