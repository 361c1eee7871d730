// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/refbridge/refbridge/internal/issue"
	"github.com/refbridge/refbridge/internal/resolveserver"
	"github.com/refbridge/refbridge/internal/session"

	"github.com/spf13/cobra"
)

// newServeCommand creates the `refbridge serve` command.
func newServeCommand(app *App) *cobra.Command {
	var (
		project string
		addr    string
		token   string
	)

	cmd := &cobra.Command{
		Use:   "serve [model-file]",
		Short: "Serve the resolution table over HTTP",
		Long: `Build the resolution table and answer module requests over HTTP until
interrupted. A host started with the printed environment variables can ask
the server where each module lives instead of running the pipeline itself.

Requests must carry the bearer token. A random token is generated unless
--token is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelFile, err := modelFileArg(args, project)
			if err != nil {
				return err
			}
			s, err := app.openSession(cmd.Context(), modelFile, project)
			if err != nil {
				return app.fail(cmd, err)
			}
			if addr == "" {
				addr = app.cfg.ServerAddr()
			}
			return app.fail(cmd, app.serve(cmd.Context(), s, addr, resolveserver.AuthToken(token)))
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "project file to build instead of searching next to the model file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.host and server.port)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (default is random)")

	return cmd
}

// serve runs the resolution server for s until ctx is done or serving fails.
func (a *App) serve(ctx context.Context, s *session.Session, addr string, token resolveserver.AuthToken) error {
	opts := []resolveserver.Option{
		resolveserver.WithAddr(addr),
		resolveserver.WithLogger(a.logger()),
	}
	if token != "" {
		opts = append(opts, resolveserver.WithToken(token))
	}

	srv, err := resolveserver.New(s.Resolver, opts...)
	if err == nil {
		err = srv.Start(ctx)
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("start resolution server").
			WithResource(addr).
			WithIssue(issue.ResolverServerFailedId).
			WithSuggestion("Pick a free port with --addr 127.0.0.1:0").
			Wrap(err).
			BuildError()
	}
	defer func() {
		if stopErr := srv.Stop(); stopErr != nil {
			a.logger().Warn("resolution server did not stop cleanly", "error", stopErr)
		}
	}()

	fmt.Fprintf(a.stdout, "%s Serving %d modules at %s\n",
		SuccessStyle.Render("✓"), s.Table.Len(), PathStyle.Render(srv.URL()))
	fmt.Fprintln(a.stdout, SubtitleStyle.Render("Point a host at the server with:"))
	for _, kv := range srv.Env() {
		fmt.Fprintf(a.stdout, "  export %s\n", kv)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-srv.Err():
		return issue.NewErrorContext().
			WithOperation("serve resolution requests").
			WithResource(srv.URL()).
			WithIssue(issue.ResolverServerFailedId).
			Wrap(err).
			BuildError()
	}
}
