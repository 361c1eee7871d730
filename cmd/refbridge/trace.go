// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/refbridge/refbridge/internal/tracestore"
	"github.com/refbridge/refbridge/pkg/pathrewrite"
	"github.com/refbridge/refbridge/pkg/refcollect"

	"github.com/spf13/cobra"
)

// traceSummary is what `refbridge trace` prints.
type traceSummary struct {
	obtained  *tracestore.Result
	collected *refcollect.Result
}

// newTraceCommand creates the `refbridge trace` command.
func newTraceCommand(app *App) *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "trace <project>",
		Short: "Obtain the build trace of a project and count its references",
		Long: `Obtain the build trace of a project, reusing the cached trace log when it is
newer than the project output, and count the references each source offers.

Use --fresh to discard the cached trace and build again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.traceProject(cmd.Context(), absPath(args[0]), fresh)
			if err != nil {
				return app.fail(cmd, err)
			}
			app.printTraceSummary(summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore the cached trace and build the project")

	return cmd
}

// traceProject obtains the trace of project and collects its candidates.
func (a *App) traceProject(ctx context.Context, project string, fresh bool) (*traceSummary, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	store := a.store(cfg)
	if fresh {
		if err := a.Fs.Remove(store.LogPath(project)); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove cached trace: %w", err)
		}
	}
	obtained, err := store.Obtain(ctx, project)
	if err != nil {
		return nil, err
	}

	rewriter := pathrewrite.New(a.Fs, pathrewrite.WithSiblingPattern(cfg.SiblingPattern()))
	collector, err := refcollect.New(obtained.Trace, project,
		refcollect.WithFs(a.Fs),
		refcollect.WithLogger(a.logger()),
		refcollect.WithFamily(cfg.Runtime.Family),
		refcollect.WithRewriter(rewriter),
		refcollect.WithModuleExtension(cfg.Runtime.ModuleExtension))
	if err != nil {
		return nil, err
	}
	collected, err := collector.Collect()
	if err != nil {
		return nil, err
	}
	return &traceSummary{obtained: obtained, collected: collected}, nil
}

func (a *App) printTraceSummary(s *traceSummary) {
	field := func(label, value string) {
		fmt.Fprintf(a.stdout, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-8s", label)), value)
	}

	trace := s.obtained.Trace
	logLine := PathStyle.Render(s.obtained.LogPath)
	if s.obtained.Cached {
		logLine += " " + SubtitleStyle.Render("(cached)")
	}
	status := SuccessStyle.Render("succeeded")
	if !trace.Succeeded() {
		status = WarningStyle.Render("failed")
	}
	if !trace.EndTime().IsZero() && !trace.StartTime().IsZero() {
		status += SubtitleStyle.Render(fmt.Sprintf(" in %s", trace.EndTime().Sub(trace.StartTime()).Round(10*time.Millisecond)))
	}

	field("Trace", logLine)
	field("Build", status)
	field("Nodes", fmt.Sprintf("%d", trace.Len()))
	field("Output", PathStyle.Render(s.collected.ProjectOutput))

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, TitleStyle.Render("Sources"))
	var perSource [refcollect.SourceCount]int
	for _, c := range s.collected.Candidates {
		perSource[c.Source]++
	}
	for src := range refcollect.SourceCount {
		fmt.Fprintf(a.stdout, "  %-18s %4d offered %4d unique\n",
			refcollect.Source(src), s.collected.Contributed[src], perSource[src])
	}
	fmt.Fprintf(a.stdout, "  %-18s %4s         %4d\n", "total", "", len(s.collected.Candidates))
}
