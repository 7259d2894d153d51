package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/council/internal/airdrop"
	"github.com/roach88/council/internal/chain"
	"github.com/roach88/council/internal/delegate"
	"github.com/roach88/council/internal/eligibility"
	"github.com/roach88/council/internal/governance"
	"github.com/roach88/council/internal/session"
	"github.com/roach88/council/internal/store"
	"github.com/roach88/council/internal/vault"
	"github.com/roach88/council/internal/wizard"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected action, failed transaction or failed scenario
	ExitCommandError = 2 // Command error (bad config, unreachable node, bad arguments)
)

// Error codes reported in the output envelope.
const (
	CodeConfig      = "E101"
	CodeStore       = "E102"
	CodeUnavailable = "E103"
	CodeInput       = "E104"
	CodeTransaction = "E105"
	CodeRejected    = "E106"
	CodeScenario    = "E107"
	CodeInternal    = "E199"
)

// ExitError represents an error with a specific exit code and output code.
type ExitError struct {
	Code     int    // Exit code (ExitFailure or ExitCommandError)
	Message  string // Error message
	Err      error  // Underlying error (optional)
	CodeName string // Envelope error code, derived from Err when empty
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

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode maps err to its envelope code.
func ErrorCode(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.CodeName != "" {
		return exitErr.CodeName
	}
	var txErr *chain.TransactionError
	var phaseErr *airdrop.TransitionError
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		return CodeStore
	case eligibility.IsUnavailable(err):
		return CodeUnavailable
	case errors.As(err, &txErr):
		return CodeTransaction
	case wizard.IsRejected(err), errors.As(err, &phaseErr),
		errors.Is(err, airdrop.ErrNothingToClaim),
		errors.Is(err, airdrop.ErrNoDelegate):
		return CodeRejected
	case errors.Is(err, eligibility.ErrProofMismatch):
		return CodeConfig
	case errors.Is(err, delegate.ErrInvalidAddress),
		errors.Is(err, governance.ErrInvalidBallot),
		errors.Is(err, governance.ErrProposalNotActive),
		errors.Is(err, governance.ErrNoVotingPower),
		errors.Is(err, session.ErrWrongFlow),
		errors.Is(err, vault.ErrNoBalance),
		errors.Is(err, vault.ErrEmptyAmount),
		errors.Is(err, vault.ErrInsufficientBalance),
		errors.Is(err, vault.ErrAllowanceRequired),
		errors.Is(err, vault.ErrNoDelegate),
		errors.Is(err, eligibility.ErrNegativeAmount),
		errors.Is(err, eligibility.ErrTooPrecise):
		return CodeInput
	}
	return CodeInternal
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// NewFormatter builds a formatter writing to the command's streams.
func NewFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	Session string    `json:"session,omitempty"` // session id when a flow was recorded
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E101", "E102", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format. In text
// mode data is printed with its String method when it has one.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// SuccessInSession is Success with the recording session id attached.
func (f *OutputFormatter) SuccessInSession(sessionID string, data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			Session: sessionID,
		})
	}

	fmt.Fprintln(f.Writer, data)
	fmt.Fprintf(f.Writer, "Session: %s\n", sessionID)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err through Error using its mapped code.
func (f *OutputFormatter) Fail(err error) error {
	return f.Error(ErrorCode(err), err.Error(), nil)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
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
