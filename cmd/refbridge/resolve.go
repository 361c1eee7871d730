// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/refbridge/refbridge/internal/report"
	"github.com/refbridge/refbridge/internal/tui"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var errNoInput = errors.New("a model file or --project is required")

// newResolveCommand creates the `refbridge resolve` command.
func newResolveCommand(app *App) *cobra.Command {
	var (
		format  string
		output  string
		project string
	)

	cmd := &cobra.Command{
		Use:   "resolve [model-file]",
		Short: "Build the project and print its resolution report",
		Long: `Build the project next to the model file (or the --project file), collect
its references from the build trace, drop modules the runtime cannot load and
print the resulting resolution table.

The report lists the modules each reference source offered, the ignored
modules with the reason, the platform siblings that were added and the final
table in lookup order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := report.Format(format)
			if err := f.Validate(); err != nil {
				return err
			}
			modelFile, err := modelFileArg(args, project)
			if err != nil {
				return err
			}

			s, err := app.openSession(cmd.Context(), modelFile, project)
			if err != nil {
				return app.fail(cmd, err)
			}
			return app.fail(cmd, app.writeReport(report.New(s), f, output))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatText), "report format (text, json, yaml, toml, cue)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVarP(&project, "project", "p", "", "project file to build instead of searching next to the model file")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(report.Formats()))
		for _, f := range report.Formats() {
			names = append(names, f.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// modelFileArg returns the model file argument, which --project makes
// optional.
func modelFileArg(args []string, project string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if project == "" {
		return "", errNoInput
	}
	return "", nil
}

// writeReport writes r to output, or to stdout when output is empty. Text
// reports are styled on a terminal.
func (a *App) writeReport(r *report.Report, f report.Format, output string) error {
	if output != "" {
		data, err := report.Marshal(r, f)
		if err != nil {
			return err
		}
		if err := afero.WriteFile(a.Fs, output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(a.stdout, "%s Report written to %s\n", SuccessStyle.Render("✓"), PathStyle.Render(output))
		return nil
	}

	if f == report.FormatText && tui.IsTerminal(a.stdout) {
		return report.WriteText(a.stdout, r, report.DefaultTextStyles())
	}
	return report.Encode(a.stdout, r, f)
}
