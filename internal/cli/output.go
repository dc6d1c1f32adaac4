package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/roach88/machinist/internal/machine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (conflict, not found)
	ExitCommandError = 2 // Command error (invalid paths, bad flags, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string `json:"status"`         // "ok" or "error"
	Data   any    `json:"data,omitempty"` // success payload
}

// StatusView renders a machine status view in the configured format.
func (f *OutputFormatter) StatusView(view machine.StatusView) error {
	if f.Format == "json" {
		return f.jsonOK(view)
	}

	fmt.Fprintf(f.Writer, "machine:    %s\n", view.MachineID)
	fmt.Fprintf(f.Writer, "schematic:  %s\n", view.Schematic.Name)
	fmt.Fprintf(f.Writer, "state:      %s\n", view.State)
	fmt.Fprintf(f.Writer, "commit:     %d\n", view.CommitNumber)
	fmt.Fprintf(f.Writer, "updated:    %s\n", view.UpdatedTime.Format("2006-01-02T15:04:05Z07:00"))
	for _, k := range sortedKeys(view.Metadata) {
		fmt.Fprintf(f.Writer, "meta.%s: %s\n", k, view.Metadata[k])
	}
	return nil
}

// Schematic renders a schematic in the configured format.
func (f *OutputFormatter) Schematic(s machine.Schematic) error {
	if f.Format == "json" {
		return f.jsonOK(s)
	}

	fmt.Fprintf(f.Writer, "schematic: %s\n", s.Name)
	fmt.Fprintf(f.Writer, "initial:   %s\n", s.InitialState)
	for _, name := range sortedStateKeys(s.States) {
		fmt.Fprintf(f.Writer, "state %s:\n", name)
		transitions := s.States[name].Transitions
		for _, input := range sortedKeys(transitions) {
			fmt.Fprintf(f.Writer, "  %s -> %s\n", input, transitions[input])
		}
	}
	return nil
}

// Message renders a plain confirmation line, or a JSON ok envelope.
func (f *OutputFormatter) Message(msg string) error {
	if f.Format == "json" {
		return f.jsonOK(map[string]string{"message": msg})
	}
	fmt.Fprintln(f.Writer, msg)
	return nil
}

func (f *OutputFormatter) jsonOK(data any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(CLIResponse{Status: "ok", Data: data})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStateKeys(m map[string]machine.State) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
