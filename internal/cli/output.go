package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // rejected input or a failed call to the school API
	ExitCommandError = 2 // bad flags, missing session, unreadable config
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Table is the text rendering of a result.
type Table struct {
	Headers []string
	Rows    [][]string
	Footer  string
}

// OutputFormatter writes command results as text tables, JSON or YAML.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success writes data. table is used only for text output and may be nil,
// in which case data is printed with %v.
func (f *OutputFormatter) Success(data interface{}, table *Table) error {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		return f.yaml(data)
	}
	if table == nil {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return f.table(*table)
}

// Error reports err in the configured format. Validation failures list the
// offending fields in name order.
func (f *OutputFormatter) Error(err error) error {
	appErr := appErrors.FromError(err)
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"error": appErr})
	case "yaml":
		return f.yaml(map[string]interface{}{"error": appErr})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", appErr.Code, appErr.Message)
	names := make([]string, 0, len(appErr.Fields))
	for name := range appErr.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(f.Writer, "  %s: %s\n", name, appErr.Fields[name])
	}
	return nil
}

// yaml renders data through its JSON form so keys match the API field names.
func (f *OutputFormatter) yaml(data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func (f *OutputFormatter) table(t Table) error {
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if t.Footer != "" {
		_, err := fmt.Fprintln(f.Writer, t.Footer)
		return err
	}
	return nil
}
