package ffmpeg

import (
	"fmt"

	"video-editor-mcp/internal/runner"
)

// OpError is an operation-aware error with optional command context.
type OpError struct {
	Op         string            `json:"op"`
	Message    string            `json:"message"`
	CommandLog runner.CommandLog `json:"commandLog"`
	Err        error             `json:"-"`
}

// Error formats operation failures for logs and tool results.
func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Op,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// opErr builds an OpError for an invalid-input failure.
func opErr(op, format string, args ...any) *OpError {
	return &OpError{Op: op, Message: fmt.Sprintf(format, args...)}
}
