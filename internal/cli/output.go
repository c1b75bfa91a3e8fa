package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failure or unexpected error
	ExitCommandError = 2 // Bad flags, unreadable files, invalid arguments
	ExitNotFound     = 3 // Contract or rate does not exist
	ExitConflict     = 4 // Operation not allowed in the entity's current state
)

// ExitError carries an exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Reported is set when the command already wrote the error to its
	// output.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Domain errors map to
// codes by kind; anything else is ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitCodeFor(domain.CodeOf(err))
}

func exitCodeFor(code domain.ErrorCode) int {
	switch code {
	case domain.ErrCodeNotFound:
		return ExitNotFound
	case domain.ErrCodeNoDraft, domain.ErrCodeAlreadyUnlocked, domain.ErrCodeUnsubmittedDependency:
		return ExitConflict
	case domain.ErrCodeInvalidArgument:
		return ExitCommandError
	default:
		return ExitFailure
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; defaults to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data. Text output uses text when non-empty and the
// value's default formatting otherwise.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	if text != "" {
		_, err := fmt.Fprint(f.Writer, text)
		return err
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// ReportError writes err through Error, using the domain code when there
// is one.
func (f *OutputFormatter) ReportError(err error) error {
	code := string(domain.CodeOf(err))
	if code == "" {
		code = "ERROR"
	}
	var details any
	var de *domain.Error
	if errors.As(err, &de) && len(de.IDs) > 0 {
		details = map[string]any{"kind": de.Kind, "ids": de.IDs}
	}
	return f.Error(code, err.Error(), details)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// It always goes to the diagnostic writer so JSON output stays clean.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
