// Package errs defines the engine's closed error taxonomy and its mapping
// onto the process exit-code bands of spec §6.3. Errors are values: every
// engine operation returns one of these instead of panicking or logging.
package errs

import "fmt"

// Kind groups codes into the categories of spec §7.
type Kind string

const (
	KindInput       Kind = "input"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindState       Kind = "state"
	KindConcurrency Kind = "concurrency"
	KindGate        Kind = "gate"
	KindProvenance  Kind = "provenance"
	KindInternal    Kind = "internal"
	KindSuccessInfo Kind = "success_info" // exit 100+: no-op/no-data/already-exists
)

// Code is a closed enum; adding a new one requires a schema bump per spec §7.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeBadArgument        Code = "BAD_ARGUMENT"
	CodeDependencyError    Code = "DEPENDENCY_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodePositionConflict   Code = "POSITION_CONFLICT"
	CodeCircularDependency Code = "CIRCULAR_DEPENDENCY"
	CodeDepthExceeded      Code = "DEPTH_EXCEEDED"
	CodeSiblingCapExceeded Code = "SIBLING_CAP_EXCEEDED"
	CodeHasChildren        Code = "HAS_CHILDREN"
	CodeInvalidTransition  Code = "INVALID_TRANSITION"
	CodeNotCancelled       Code = "NOT_CANCELLED"
	CodeTaskCompleted      Code = "TASK_COMPLETED"
	CodeLockTimeout        Code = "LOCK_TIMEOUT"
	CodeChecksumMismatch   Code = "CHECKSUM_MISMATCH"
	CodeGenerationConflict Code = "GENERATION_CONFLICT"
	CodeCancelled          Code = "CANCELLED"
	CodeGateNotMet         Code = "GATE_NOT_MET"
	CodeCircularValidation Code = "CIRCULAR_VALIDATION"
	CodeFocusRequired      Code = "FOCUS_REQUIRED"
	CodeSessionRequired    Code = "SESSION_REQUIRED"
	CodeProvenanceMissing  Code = "PROVENANCE_MISSING"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeNoChange           Code = "NO_CHANGE"
	CodeAlreadyInState     Code = "ALREADY_IN_STATE"
)

// exitCodes maps each Code to exactly one process exit status (spec §6.3 bands).
var exitCodes = map[Code]int{
	CodeValidation:         1,
	CodeBadArgument:        2,
	CodeDependencyError:    3,
	CodeNotFound:           4,
	CodeAlreadyExists:      5,
	CodeDepthExceeded:      10,
	CodeSiblingCapExceeded: 11,
	CodeHasChildren:        12,
	CodeInvalidTransition:  13,
	CodeNotCancelled:       14,
	CodeTaskCompleted:      15,
	CodeLockTimeout:        20,
	CodeChecksumMismatch:   21,
	CodePositionConflict:   22,
	CodeGenerationConflict: 23,
	CodeCircularDependency: 24,
	CodeCancelled:          25,
	CodeSessionRequired:    30,
	CodeFocusRequired:      31,
	CodeGateNotMet:         40,
	CodeCircularValidation: 41,
	CodeProvenanceMissing:  90,
	CodeInternal:           9,
	CodeNoChange:           100,
	CodeAlreadyInState:     101,
}

// KindOf returns the taxonomy group a code belongs to, used by the
// orchestration layer to decide warning-vs-error treatment (§7).
func KindOf(c Code) Kind {
	switch c {
	case CodeNoChange, CodeAlreadyInState:
		return KindSuccessInfo
	case CodeValidation, CodeBadArgument:
		return KindInput
	case CodeNotFound:
		return KindNotFound
	case CodeAlreadyExists, CodePositionConflict, CodeCircularDependency,
		CodeDepthExceeded, CodeSiblingCapExceeded:
		return KindConflict
	case CodeInvalidTransition, CodeNotCancelled, CodeTaskCompleted, CodeHasChildren:
		return KindState
	case CodeLockTimeout, CodeChecksumMismatch, CodeGenerationConflict, CodeCancelled:
		return KindConcurrency
	case CodeGateNotMet, CodeCircularValidation:
		return KindGate
	case CodeProvenanceMissing, CodeSessionRequired, CodeFocusRequired:
		return KindProvenance
	default:
		return KindInternal
	}
}

// ExitCode returns the process exit status for a Code. Every Code maps to
// exactly one exit code; unknown codes fall back to a generic internal error.
func ExitCode(c Code) int {
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return 9
}

// Error is the engine's error value. It always carries a closed Code and
// optional operator-facing remediation hints, never formatted for display.
type Error struct {
	Code          Code
	Message       string
	Recoverable   bool
	Fix           string
	Alternatives  []Alternative
	Details       map[string]any
	cause         error
}

// Alternative is a suggested follow-up action (§6.2 "alternatives").
type Alternative struct {
	Action  string `json:"action"`
	Command string `json:"command"`
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs an Error of the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given code, message, and underlying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// WithFix attaches a remediation hint and returns the receiver.
func (e *Error) WithFix(fix string) *Error {
	e.Fix = fix
	return e
}

// WithAlternatives attaches alternative next actions and returns the receiver.
func (e *Error) WithAlternatives(alts ...Alternative) *Error {
	e.Alternatives = alts
	return e
}

// WithDetails attaches structured detail and returns the receiver.
func (e *Error) WithDetails(d map[string]any) *Error {
	e.Details = d
	return e
}

// AsError extracts an *Error from any error produced by the engine, falling
// back to wrapping unknown errors as internal failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return Wrap(CodeInternal, err, "unexpected internal error")
}
