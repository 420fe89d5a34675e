package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/validation"
)

type sessionInfo struct {
	Authenticated bool       `json:"authenticated"`
	Email         string     `json:"email,omitempty"`
	Organization  int        `json:"organization,omitempty"`
	Role          int        `json:"role,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func infoOf(sess models.Session) sessionInfo {
	info := sessionInfo{Authenticated: sess.Authenticated()}
	if sess.User != nil {
		info.Email = sess.User.Email
		info.Organization = sess.User.Organization.Int()
		info.Role = sess.User.Role.Int()
	}
	if exp, ok := sess.ExpiresAt(); ok {
		exp = exp.UTC()
		info.ExpiresAt = &exp
	}
	return info
}

func (s sessionInfo) table() *Table {
	if !s.Authenticated {
		return &Table{Headers: []string{"STATUS"}, Rows: [][]string{{"signed out"}}}
	}
	expires := "-"
	if s.ExpiresAt != nil {
		expires = s.ExpiresAt.Format(time.RFC3339)
	}
	return &Table{
		Headers: []string{"EMAIL", "ORGANIZATION", "ROLE", "EXPIRES"},
		Rows:    [][]string{{s.Email, fmt.Sprint(s.Organization), fmt.Sprint(s.Role), expires}},
	}
}

// TerminalPrompt reads a password from the controlling terminal.
func TerminalPrompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// NewLoginCommand creates the login command.
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the school API",
		Long:  "Sign in and store the session. The password is prompted for when --password is not given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" && opts.prompt != nil {
				secret, err := opts.prompt("Password: ")
				if err != nil {
					return &ExitError{Code: ExitCommandError, Message: "failed to read password", Err: err}
				}
				password = secret
			}
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				sess, err := c.Auth.Login(ctx, validation.LoginDraft{Email: strings.TrimSpace(email), Password: password})
				if err != nil {
					return err
				}
				info := infoOf(sess)
				return opts.formatter(cmd.OutOrStdout()).Success(info, info.table())
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop cached rosters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				if err := c.Auth.Logout(ctx); err != nil {
					return err
				}
				info := infoOf(models.Session{})
				return opts.formatter(cmd.OutOrStdout()).Success(info, info.table())
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				info := infoOf(c.Auth.Session())
				if err := opts.formatter(cmd.OutOrStdout()).Success(info, info.table()); err != nil {
					return err
				}
				if !info.Authenticated {
					return NewExitError(ExitCommandError, "not signed in")
				}
				return nil
			})
		},
	}
}
