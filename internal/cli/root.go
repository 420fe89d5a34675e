// Package cli implements the sma-admin command line client. Every command
// runs against the same session store and query cache as the console
// gateway, so a login from the terminal is visible to both.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/service"
	"github.com/noah-isme/sma-adp-client/internal/validation"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

type authService interface {
	Login(ctx context.Context, draft validation.LoginDraft) (models.Session, error)
	Logout(ctx context.Context) error
	Session() models.Session
}

type teacherService interface {
	List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Teacher], error)
	Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Teacher], error)
	Get(ctx context.Context, teacherID int) (*models.Teacher, error)
	Create(ctx context.Context, draft validation.TeacherDraft) (*models.Teacher, error)
	Update(ctx context.Context, teacherID int, draft validation.TeacherDraft) (*models.Teacher, error)
}

type studentService interface {
	List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Student], error)
	Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Student], error)
	Get(ctx context.Context, admissionNo string) (*models.Student, error)
	Create(ctx context.Context, draft validation.StudentDraft) (*models.Student, error)
	Update(ctx context.Context, admissionNo string, draft validation.StudentDraft) (*models.Student, error)
	Remove(ctx context.Context, admissionNo string) error
}

type parentService interface {
	List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Parent], error)
	Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Parent], error)
	Get(ctx context.Context, parentID int) (*models.Parent, error)
	Create(ctx context.Context, draft validation.ParentDraft) (*models.Parent, error)
	Update(ctx context.Context, parentID int, draft validation.ParentDraft) (*models.Parent, error)
}

type exportService interface {
	Export(ctx context.Context, kind models.RosterKind, format models.ExportFormat, filter models.RosterFilter) (*service.ExportResult, error)
}

// Console is the set of services a command needs. Close is optional.
type Console struct {
	Auth      authService
	Teachers  teacherService
	Students  studentService
	Parents   parentService
	Exports   exportService
	Validator *validation.Validator
	Close     func() error
}

// Opener assembles a Console for one command invocation.
type Opener func(ctx context.Context, verbose bool) (*Console, error)

// PasswordPrompt reads a secret without echoing it.
type PasswordPrompt func(label string) (string, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string

	open   Opener
	prompt PasswordPrompt
}

// NewRootCommand creates the root command. open is called lazily by the
// commands that need the school API.
func NewRootCommand(open Opener, prompt PasswordPrompt) *cobra.Command {
	opts := &RootOptions{open: open, prompt: prompt}

	cmd := &cobra.Command{
		Use:           "sma-admin",
		Short:         "SMA ADP school administration client",
		Long:          "Manage the teacher, student and parent rosters of your school from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewTeachersCommand(opts))
	cmd.AddCommand(NewStudentsCommand(opts))
	cmd.AddCommand(NewParentsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: w}
}

// withConsole opens the console, runs fn and closes it. Failures from fn are
// printed in the selected format and turned into exit codes.
func (o *RootOptions) withConsole(cmd *cobra.Command, fn func(ctx context.Context, c *Console) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	console, err := o.open(ctx, o.Verbose)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "failed to start client", Err: err}
	}
	if console.Close != nil {
		defer console.Close() //nolint:errcheck
	}
	if console.Validator == nil {
		console.Validator = validation.New()
	}
	if err := fn(ctx, console); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		_ = o.formatter(cmd.OutOrStdout()).Error(err)
		return &ExitError{Code: ExitFailure, Message: "command failed", Err: err}
	}
	return nil
}
