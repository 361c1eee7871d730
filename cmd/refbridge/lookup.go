// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/refbridge/refbridge/internal/resolveserver"
	"github.com/refbridge/refbridge/pkg/resolution"

	"github.com/spf13/cobra"
)

var errNoLookupSource = errors.New("lookup needs --model, --project, --server or " + resolveserver.EnvAddr)

type (
	// lookupResult is the answer for one requested name.
	lookupResult struct {
		Name          string
		Path          string
		ProjectOutput bool
		Types         []string
		Found         bool
	}

	// lookupFunc answers one request, loading the module when load is set.
	// A miss is reported through Found, not as an error.
	lookupFunc func(ctx context.Context, name string, load bool) (lookupResult, error)
)

// newLookupCommand creates the `refbridge lookup` command.
func newLookupCommand(app *App) *cobra.Command {
	var (
		modelFile string
		project   string
		server    string
		token     string
		load      bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <name>...",
		Short: "Ask where a module is served from",
		Long: `Resolve module names the way a host would. Names may be simple names or
full display names such as "DevExpress.Data.v24.2, Version=24.2.3.0".

The table comes from the --model or --project pipeline run in process, or
from a running 'refbridge serve' reached through --server or the
` + resolveserver.EnvAddr + ` and ` + resolveserver.EnvToken + ` variables.

The command exits with status 2 when any name is not resolved.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lookup, err := app.lookupSource(cmd.Context(), modelFile, project, server, token)
			if err != nil {
				return app.fail(cmd, err)
			}

			misses := 0
			for _, name := range args {
				res, err := lookup(cmd.Context(), name, load)
				if err != nil {
					return app.fail(cmd, err)
				}
				if !res.Found {
					misses++
				}
				app.printLookup(res)
			}

			if misses > 0 {
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return &ExitError{
					Code: ExitUnresolved,
					Err:  fmt.Errorf("%d of %d modules not resolved: %w", misses, len(args), resolution.ErrResolutionMiss),
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelFile, "model", "m", "", "model file whose project builds the table")
	cmd.Flags().StringVarP(&project, "project", "p", "", "project file that builds the table")
	cmd.Flags().StringVar(&server, "server", "", "URL of a running resolution server")
	cmd.Flags().StringVar(&token, "token", "", "bearer token of the server (default $"+resolveserver.EnvToken+")")
	cmd.Flags().BoolVar(&load, "load", false, "load each module and list its declared types")

	return cmd
}

// lookupSource picks the table to ask. An explicit model or project wins over
// a server named in the environment.
func (a *App) lookupSource(ctx context.Context, modelFile, project, server, token string) (lookupFunc, error) {
	if server != "" {
		if token == "" {
			token = os.Getenv(resolveserver.EnvToken)
		}
		return clientLookup(resolveserver.NewClient(server, resolveserver.AuthToken(token))), nil
	}
	if modelFile != "" || project != "" {
		s, err := a.openSession(ctx, modelFile, project)
		if err != nil {
			return nil, err
		}
		return resolverLookup(s.Resolver), nil
	}
	if client := resolveserver.NewClientFromEnv(); client != nil {
		return clientLookup(client), nil
	}
	return nil, errNoLookupSource
}

func resolverLookup(r *resolution.Resolver) lookupFunc {
	return func(_ context.Context, name string, load bool) (lookupResult, error) {
		res, ok := r.Resolve(name)
		if !ok {
			return lookupResult{Name: resolution.SimpleName(name)}, nil
		}
		out := lookupResult{Name: res.Name, Path: res.Path, ProjectOutput: res.ProjectOutput, Found: true}
		if load {
			m, err := r.Load(name)
			if err != nil {
				return out, err
			}
			out.Types = m.Types()
		}
		return out, nil
	}
}

func clientLookup(c *resolveserver.Client) lookupFunc {
	return func(ctx context.Context, name string, load bool) (lookupResult, error) {
		ask := c.Resolve
		if load {
			ask = c.Load
		}
		resp, err := ask(ctx, name)
		if errors.Is(err, resolution.ErrResolutionMiss) {
			return lookupResult{Name: resolution.SimpleName(name)}, nil
		}
		if err != nil {
			return lookupResult{}, err
		}
		return lookupResult{
			Name:          resp.Name,
			Path:          resp.Path,
			ProjectOutput: resp.ProjectOutput,
			Types:         resp.Types,
			Found:         true,
		}, nil
	}
}

func (a *App) printLookup(res lookupResult) {
	if !res.Found {
		fmt.Fprintf(a.stdout, "%s %s %s\n", ErrorStyle.Render("✗"), res.Name, SubtitleStyle.Render("not found"))
		return
	}

	line := fmt.Sprintf("%s %s → %s", SuccessStyle.Render("✓"), res.Name, PathStyle.Render(res.Path))
	if res.ProjectOutput {
		line += " " + SubtitleStyle.Render("[output]")
	}
	fmt.Fprintln(a.stdout, line)
	for _, typ := range res.Types {
		fmt.Fprintf(a.stdout, "    %s\n", typ)
	}
}
