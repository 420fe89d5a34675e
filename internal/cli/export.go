package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-adp-client/internal/models"
)

type exportInfo struct {
	File   string `json:"file"`
	Format string `json:"format"`
	Rows   int    `json:"rows"`
	Bytes  int    `json:"bytes"`
}

// NewExportCommand creates the export command.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var (
		as     string
		output string
		search string
	)

	cmd := &cobra.Command{
		Use:       "export <teachers|students|parents>",
		Short:     "Export a roster to CSV or PDF",
		Long:      "Export a roster. The file is written to --output, or to a timestamped name in the current directory.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.RosterTeachers), string(models.RosterStudents), string(models.RosterParents)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := models.RosterKind(strings.ToLower(args[0]))
			return opts.withConsole(cmd, func(ctx context.Context, c *Console) error {
				res, err := c.Exports.Export(ctx, kind, models.ExportFormat(strings.ToLower(as)), models.RosterFilter{Search: search})
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = res.Filename
				}
				if dir := filepath.Dir(path); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return &ExitError{Code: ExitCommandError, Message: "failed to create output directory", Err: err}
					}
				}
				if err := os.WriteFile(path, res.Data, 0o644); err != nil {
					return &ExitError{Code: ExitCommandError, Message: "failed to write export", Err: err}
				}
				info := exportInfo{File: path, Format: string(res.Format), Rows: res.Rows, Bytes: len(res.Data)}
				return opts.formatter(cmd.OutOrStdout()).Success(info, &Table{
					Headers: []string{"FILE", "FORMAT", "ROWS"},
					Rows:    [][]string{{info.File, info.Format, fmt.Sprint(info.Rows)}},
				})
			})
		},
	}

	cmd.Flags().StringVar(&as, "as", string(models.ExportFormatCSV), "file format (csv|pdf)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path")
	cmd.Flags().StringVarP(&search, "search", "s", "", "export only matching records")
	return cmd
}
