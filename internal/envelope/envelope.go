// Package envelope implements the Response Envelope (spec §4.14,
// component 14): the single uniform JSON shape every engine invocation
// emits exactly once.
package envelope

import (
	"time"

	"github.com/google/uuid"

	"github.com/cleohq/cleo/internal/errs"
)

// SchemaURI is the envelope's declared $schema identifier.
const SchemaURI = "https://cleo.dev/schema/envelope/v1.json"

// Version is the engine's semantic version stamped into every envelope.
const Version = "1.0.0"

// Transport names how the invocation reached the engine (cli, mcp, lib).
type Meta struct {
	Command   string    `json:"command"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	RequestID string    `json:"requestId"`
	Transport string    `json:"transport"`
}

// ErrorInfo is the error branch of the envelope, mirroring an *errs.Error.
type ErrorInfo struct {
	Code         errs.Code        `json:"code"`
	Name         string           `json:"name"`
	Message      string           `json:"message"`
	ExitCode     int              `json:"exitCode"`
	Recoverable  bool             `json:"recoverable"`
	Fix          string           `json:"fix,omitempty"`
	Alternatives []errs.Alternative `json:"alternatives,omitempty"`
	Details      map[string]any   `json:"details,omitempty"`
}

// Envelope is the uniform response shape of every invocation (§4.14).
type Envelope struct {
	Schema   string     `json:"$schema"`
	Meta     Meta       `json:"_meta"`
	Success  bool       `json:"success"`
	Result   any        `json:"result"`
	Message  string     `json:"message,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
	Error    *ErrorInfo `json:"error,omitempty"`
}

// NewMeta stamps a fresh _meta block with a generated requestId.
func NewMeta(command, operation, transport string, now time.Time) Meta {
	return Meta{
		Command:   command,
		Operation: operation,
		Timestamp: now,
		Version:   Version,
		RequestID: uuid.NewString(),
		Transport: transport,
	}
}

// Success builds a success envelope carrying result and any non-fatal
// warnings accumulated during the operation (e.g. a best-effort backup or
// checkpoint failure, or a checksum mismatch that survived a retry, §4.11).
func Success(meta Meta, result any, message string, warnings ...string) Envelope {
	return Envelope{
		Schema:   SchemaURI,
		Meta:     meta,
		Success:  true,
		Result:   result,
		Message:  message,
		Warnings: warnings,
	}
}

// Failure builds an error envelope from an engine error; result is always
// null on the error branch (§4.14). Warnings accumulated before the failing
// step (e.g. a backup that failed before the mutation itself errored) are
// still surfaced.
func Failure(meta Meta, err *errs.Error, warnings ...string) Envelope {
	return Envelope{
		Schema:   SchemaURI,
		Meta:     meta,
		Success:  false,
		Result:   nil,
		Warnings: warnings,
		Error: &ErrorInfo{
			Code:         err.Code,
			Name:         string(err.Code),
			Message:      err.Message,
			ExitCode:     errs.ExitCode(err.Code),
			Recoverable:  err.Recoverable,
			Fix:          err.Fix,
			Alternatives: err.Alternatives,
			Details:      err.Details,
		},
	}
}

// ExitCode returns the process exit status implied by this envelope: 0 on
// success, the mapped error exit code otherwise (§4.14, §6.3).
func (e Envelope) ExitCode() int {
	if e.Success || e.Error == nil {
		return 0
	}
	return e.Error.ExitCode
}
