package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/service"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

var (
	teacherHeaders = []string{"ID", "NAME", "EMAIL", "MOBILE", "CITY"}
	studentHeaders = []string{"ADMISSION NO", "NAME", "PARENT", "CLASS"}
	parentHeaders  = []string{"ID", "NAME", "RELATION", "EMAIL", "MOBILE"}
)

func teacherRow(t models.Teacher) []string {
	return []string{strconv.Itoa(t.TeacherID), t.Name, t.Email, t.MobileNo, t.City}
}

func studentRow(s models.Student) []string {
	return []string{string(s.AdmissionNo), s.Name, strconv.Itoa(s.Parent.Int()), strconv.Itoa(s.ClassRoom.Int())}
}

func parentRow(p models.Parent) []string {
	return []string{strconv.Itoa(p.ParentID), p.Name, p.Relation, p.Email, p.MobileNo}
}

type listFlags struct {
	search  string
	page    int
	limit   int
	refresh bool
}

func (l *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&l.search, "search", "s", "", "filter by name, email or city")
	cmd.Flags().IntVar(&l.page, "page", 1, "page number")
	cmd.Flags().IntVar(&l.limit, "limit", 20, "page size")
	cmd.Flags().BoolVar(&l.refresh, "refresh", false, "bypass the cache")
}

func (l *listFlags) filter() models.RosterFilter {
	return models.RosterFilter{Search: l.search, Page: l.page, PageSize: l.limit}
}

func pageTable[T any](page *service.Page[T], headers []string, row func(T) []string) *Table {
	t := &Table{Headers: headers}
	for _, item := range page.Items {
		t.Rows = append(t.Rows, row(item))
	}
	pages := 1
	if size := page.Pagination.PageSize; size > 0 && page.Pagination.TotalCount > 0 {
		pages = (page.Pagination.TotalCount + size - 1) / size
	}
	t.Footer = fmt.Sprintf("page %d/%d, %d total", page.Pagination.Page, pages, page.Pagination.TotalCount)
	if page.Stale {
		t.Footer += " (stale)"
	}
	return t
}

func recordTable[T any](item *T, headers []string, row func(T) []string) *Table {
	return &Table{Headers: headers, Rows: [][]string{row(*item)}}
}

// submitForm applies field=value assignments to draft and validates it
// locally. A rejection from the server is mapped back onto the same fields.
func submitForm[D any, R any](v *validation.Validator, draft D, sets []string, send func(D) (R, error)) (R, error) {
	var zero R
	form := validation.NewForm(v, draft)
	for _, set := range sets {
		field, value, ok := strings.Cut(set, "=")
		if !ok {
			return zero, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("--set %q: expected field=value", set)}
		}
		if err := form.Set(strings.TrimSpace(field), value); err != nil {
			return zero, &ExitError{Code: ExitCommandError, Message: "--set", Err: err}
		}
	}
	if !form.Submit() {
		return zero, form.Errors().Err()
	}
	out, err := send(form.Draft())
	if err != nil {
		if form.ApplyServerErrors(err) {
			return zero, appErrors.Validation(appErrors.FromError(err).Message, form.Errors())
		}
		return zero, err
	}
	return out, nil
}

func idArg(arg, what string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid %s id %q", what, arg)}
	}
	return id, nil
}

// NewTeachersCommand creates the teachers command group.
func NewTeachersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "teachers", Short: "Manage the teacher roster"}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List teachers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				fetch := c.Teachers.List
				if lf.refresh {
					fetch = c.Teachers.Refetch
				}
				page, err := fetch(ctx, lf.filter())
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(page, pageTable(page, teacherHeaders, teacherRow))
			})
		},
	}
	lf.bind(list)

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one teacher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args[0], "teacher")
			if err != nil {
				return err
			}
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				teacher, err := c.Teachers.Get(ctx, id)
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(teacher, recordTable(teacher, teacherHeaders, teacherRow))
			})
		},
	}

	var createSets []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a teacher",
		Long:  "Register a teacher. Fields are given as --set name=value using the API field names.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				teacher, err := submitForm(c.Validator, validation.TeacherDraft{}, createSets, func(d validation.TeacherDraft) (*models.Teacher, error) {
					return c.Teachers.Create(ctx, d)
				})
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(teacher, recordTable(teacher, teacherHeaders, teacherRow))
			})
		},
	}
	create.Flags().StringArrayVar(&createSets, "set", nil, "field=value (repeatable)")

	var updateSets []string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a teacher",
		Long:  "Edit a teacher. The current record is loaded and the --set fields are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args[0], "teacher")
			if err != nil {
				return err
			}
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				current, err := c.Teachers.Get(ctx, id)
				if err != nil {
					return err
				}
				teacher, err := submitForm(c.Validator, validation.TeacherDraftFrom(*current), updateSets, func(d validation.TeacherDraft) (*models.Teacher, error) {
					return c.Teachers.Update(ctx, id, d)
				})
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(teacher, recordTable(teacher, teacherHeaders, teacherRow))
			})
		},
	}
	update.Flags().StringArrayVar(&updateSets, "set", nil, "field=value (repeatable)")

	cmd.AddCommand(list, get, create, update)
	return cmd
}

// NewStudentsCommand creates the students command group. Students are
// addressed by admission number.
func NewStudentsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "students", Short: "Manage the student roster"}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				fetch := c.Students.List
				if lf.refresh {
					fetch = c.Students.Refetch
				}
				page, err := fetch(ctx, lf.filter())
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(page, pageTable(page, studentHeaders, studentRow))
			})
		},
	}
	lf.bind(list)

	get := &cobra.Command{
		Use:   "get <admission-no>",
		Short: "Show one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				student, err := c.Students.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(student, recordTable(student, studentHeaders, studentRow))
			})
		},
	}

	var createSets []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Admit a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				student, err := submitForm(c.Validator, validation.StudentDraft{}, createSets, func(d validation.StudentDraft) (*models.Student, error) {
					return c.Students.Create(ctx, d)
				})
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(student, recordTable(student, studentHeaders, studentRow))
			})
		},
	}
	create.Flags().StringArrayVar(&createSets, "set", nil, "field=value (repeatable)")

	var updateSets []string
	update := &cobra.Command{
		Use:   "update <admission-no>",
		Short: "Edit a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				current, err := c.Students.Get(ctx, args[0])
				if err != nil {
					return err
				}
				student, err := submitForm(c.Validator, validation.StudentDraftFrom(*current), updateSets, func(d validation.StudentDraft) (*models.Student, error) {
					return c.Students.Update(ctx, args[0], d)
				})
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(student, recordTable(student, studentHeaders, studentRow))
			})
		},
	}
	update.Flags().StringArrayVar(&updateSets, "set", nil, "field=value (repeatable)")

	del := &cobra.Command{
		Use:   "delete <admission-no>",
		Short: "Remove a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				if err := c.Students.Remove(ctx, args[0]); err != nil {
					return err
				}
				result := map[string]string{"deleted": args[0]}
				return opts.formatter(cmd.OutOrStdout()).Success(result, &Table{Headers: []string{"DELETED"}, Rows: [][]string{{args[0]}}})
			})
		},
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

// NewParentsCommand creates the parents command group.
func NewParentsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "parents", Short: "Manage the parent roster"}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List parents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				fetch := c.Parents.List
				if lf.refresh {
					fetch = c.Parents.Refetch
				}
				page, err := fetch(ctx, lf.filter())
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(page, pageTable(page, parentHeaders, parentRow))
			})
		},
	}
	lf.bind(list)

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args[0], "parent")
			if err != nil {
				return err
			}
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				parent, err := c.Parents.Get(ctx, id)
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(parent, recordTable(parent, parentHeaders, parentRow))
			})
		},
	}

	var createSets []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				parent, err := submitForm(c.Validator, validation.ParentDraft{}, createSets, func(d validation.ParentDraft) (*models.Parent, error) {
					return c.Parents.Create(ctx, d)
				})
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(parent, recordTable(parent, parentHeaders, parentRow))
			})
		},
	}
	create.Flags().StringArrayVar(&createSets, "set", nil, "field=value (repeatable)")

	var updateSets []string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args[0], "parent")
			if err != nil {
				return err
			}
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				current, err := c.Parents.Get(ctx, id)
				if err != nil {
					return err
				}
				parent, err := submitForm(c.Validator, validation.ParentDraftFrom(*current), updateSets, func(d validation.ParentDraft) (*models.Parent, error) {
					return c.Parents.Update(ctx, id, d)
				})
				if err != nil {
					return err
				}
				return opts.formatter(cmd.OutOrStdout()).Success(parent, recordTable(parent, parentHeaders, parentRow))
			})
		},
	}
	update.Flags().StringArrayVar(&updateSets, "set", nil, "field=value (repeatable)")

	cmd.AddCommand(list, get, create, update)
	return cmd
}
