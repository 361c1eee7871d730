// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/refbridge/refbridge/pkg/clrmeta"

	"github.com/spf13/cobra"
)

// newInspectCommand creates the `refbridge inspect` command.
func newInspectCommand(app *App) *cobra.Command {
	var (
		types      bool
		references bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <module>...",
		Short: "Show the metadata of compiled modules",
		Long: `Read the metadata of each module file and show its identity, target
framework and whether the resolution pipeline would keep it.

The verdict uses the configured accepted frameworks. It is shown even when
the filter is disabled in the configuration.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}

			filter := clrmeta.Filter{Fs: app.Fs, AcceptedFrameworks: cfg.Filter.AcceptedFrameworks}
			unreadable := 0
			for i, path := range args {
				if i > 0 {
					fmt.Fprintln(app.stdout)
				}
				v := filter.Evaluate(absPath(path))
				if v.Module == nil {
					unreadable++
				}
				app.printVerdict(v, types, references)
			}

			if unreadable > 0 {
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d of %d modules could not be read", unreadable, len(args))}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&types, "types", false, "list the declared types")
	cmd.Flags().BoolVar(&references, "references", false, "list the referenced assemblies")

	return cmd
}

func (a *App) printVerdict(v clrmeta.Verdict, types, references bool) {
	fmt.Fprintln(a.stdout, PathStyle.Render(v.Path))

	verdict := SuccessStyle.Render("loadable")
	if v.Ignore {
		verdict = WarningStyle.Render("ignored") + SubtitleStyle.Render(" ("+v.Reason.String()+")")
	}

	m := v.Module
	if m == nil {
		a.field("Verdict", verdict)
		if v.Err != nil {
			a.field("Error", ErrorStyle.Render(v.Err.Error()))
		}
		return
	}

	a.field("Assembly", m.Name+" "+m.Version.String())
	if m.Culture != "" {
		a.field("Culture", m.Culture)
	}
	a.field("Module", m.ModuleName)
	a.field("Runtime", m.RuntimeVersion)
	framework := m.TargetFramework
	if framework == "" {
		framework = SubtitleStyle.Render("(not declared)")
	}
	a.field("Framework", framework)
	a.field("Reference", fmt.Sprintf("%t", m.IsReferenceAssembly))
	a.field("References", fmt.Sprintf("%d", len(m.References)))
	a.field("Types", fmt.Sprintf("%d", len(m.Types)))
	a.field("Verdict", verdict)
	if m.DetailErr != nil {
		a.field("Warning", WarningStyle.Render("partial metadata: "+m.DetailErr.Error()))
	}

	if references && len(m.References) > 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("  References:"))
		for _, ref := range m.References {
			fmt.Fprintf(a.stdout, "    %s %s\n", ref.Name, SubtitleStyle.Render(ref.Version.String()))
		}
	}
	if types && len(m.Types) > 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("  Types:"))
		for _, t := range m.Types {
			fmt.Fprintf(a.stdout, "    %s\n", t)
		}
	}
}

func (a *App) field(label, value string) {
	fmt.Fprintf(a.stdout, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-11s", label+":")), value)
}
