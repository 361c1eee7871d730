// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"errors"
	"io"

	"github.com/refbridge/refbridge/internal/tracestore"
	"github.com/refbridge/refbridge/pkg/buildtrace"
	"github.com/refbridge/refbridge/pkg/clrmeta"
	"github.com/refbridge/refbridge/pkg/pathrewrite"
	"github.com/refbridge/refbridge/pkg/refcollect"
	"github.com/refbridge/refbridge/pkg/resolution"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

type (
	// Dependencies are the collaborators of a session. Nil fields are
	// replaced with defaults; Store is required.
	Dependencies struct {
		Store  *tracestore.Store
		Fs     afero.Fs
		Logger *log.Logger
		// Filter prunes candidates. Nil keeps every candidate.
		Filter *clrmeta.Filter
		// Loader backs the session resolver. Nil limits it to lookups.
		Loader resolution.Loader
	}

	// Options tune the pipeline. Zero values select the defaults.
	Options struct {
		ProjectPatterns []string
		Family          buildtrace.RuntimeFamily
		ModuleExtension string
		Sibling         pathrewrite.SiblingPattern
		// Siblings nil means DefaultSiblings; an empty slice adds none.
		Siblings []Sibling
	}

	// Ignored is a candidate removed by the filter.
	Ignored struct {
		Candidate refcollect.Candidate
		Reason    clrmeta.Reason
		Err       error
	}

	// Session is an assembled resolution table and its provenance.
	Session struct {
		ProjectPath string
		Trace       *tracestore.Result
		Collection  *refcollect.Result
		Kept        []refcollect.Candidate
		Ignored     []Ignored
		Version     string
		Siblings    []SiblingResult
		Table       *resolution.Table
		Resolver    *resolution.Resolver
	}
)

func (d *Dependencies) defaults() error {
	if d.Store == nil {
		return errors.New("session: trace store is required")
	}
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard)
	}
	return nil
}

func (o *Options) defaults() {
	if o.Family == "" {
		o.Family = buildtrace.FamilyModern
	}
	if o.ModuleExtension == "" {
		o.ModuleExtension = refcollect.DefaultModuleExtension
	}
	if o.Sibling == (pathrewrite.SiblingPattern{}) {
		o.Sibling = pathrewrite.DefaultSiblingPattern()
	}
	if o.Sibling.ModuleExtension == "" {
		o.Sibling.ModuleExtension = o.ModuleExtension
	}
	if o.Siblings == nil {
		o.Siblings = DefaultSiblings()
	}
}

// Open locates the project next to modelFile and assembles its session.
func Open(ctx context.Context, modelFile string, deps Dependencies, opts Options) (*Session, error) {
	if err := deps.defaults(); err != nil {
		return nil, err
	}
	project, err := FindProject(deps.Fs, modelFile, opts.ProjectPatterns)
	if err != nil {
		return nil, err
	}
	deps.Logger.Info("project file found", "project", project)
	return OpenProject(ctx, project, deps, opts)
}

// OpenProject assembles the session of a project: obtain the trace, collect
// candidates, filter them, detect the framework release, add the platform
// siblings and build the resolver.
func OpenProject(ctx context.Context, projectPath string, deps Dependencies, opts Options) (*Session, error) {
	if err := deps.defaults(); err != nil {
		return nil, err
	}
	opts.defaults()
	logger := deps.Logger

	obtained, err := deps.Store.Obtain(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	rewriter := pathrewrite.New(deps.Fs, pathrewrite.WithSiblingPattern(opts.Sibling))
	collector, err := refcollect.New(obtained.Trace, projectPath,
		refcollect.WithFs(deps.Fs),
		refcollect.WithLogger(logger),
		refcollect.WithFamily(opts.Family),
		refcollect.WithRewriter(rewriter),
		refcollect.WithModuleExtension(opts.ModuleExtension))
	if err != nil {
		return nil, err
	}
	collected, err := collector.Collect()
	if err != nil {
		return nil, err
	}
	logger.Info("references collected", "candidates", len(collected.Candidates), "output", collected.ProjectOutput)

	s := &Session{
		ProjectPath: projectPath,
		Trace:       obtained,
		Collection:  collected,
		Table:       resolution.NewTable(collected.ProjectOutput, resolution.WithModuleExtension(opts.ModuleExtension)),
	}

	for _, c := range collected.Candidates {
		if deps.Filter != nil {
			if v := deps.Filter.Evaluate(c.Path); v.Ignore {
				logger.Debug("module ignored", "path", c.Path, "reason", v.Reason)
				s.Ignored = append(s.Ignored, Ignored{Candidate: c, Reason: v.Reason, Err: v.Err})
				continue
			}
		}
		s.Kept = append(s.Kept, c)
		if _, err := s.Table.Add(c.Path); err != nil {
			return nil, err
		}
	}

	s.Version, err = DetectVersion(deps.Fs, collected.ProjectOutput, opts.Sibling.Family)
	if err != nil {
		return nil, err
	}
	logger.Info("framework version detected", "family", opts.Sibling.Family, "version", s.Version)

	if err := s.addSiblings(rewriter, opts.Siblings, logger); err != nil {
		return nil, err
	}

	s.Resolver = resolution.NewResolver(s.Table, deps.Loader, resolution.WithFs(deps.Fs))
	return s, nil
}

// addSiblings guesses each sibling from the current table, so a sibling
// found earlier can serve as the anchor of a later one.
func (s *Session) addSiblings(rewriter *pathrewrite.Rewriter, siblings []Sibling, logger *log.Logger) error {
	for _, sib := range siblings {
		file := sib.ModuleFile(s.Version)
		res := SiblingResult{Module: file}

		guess, ok := rewriter.GuessSibling(pathrewrite.SiblingRequest{
			Candidates:     s.paths(),
			Version:        s.Version,
			ModuleFile:     file,
			PackageSegment: sib.Package,
		})
		if ok {
			res.Path = guess
			added, err := s.Table.Add(guess)
			if err != nil {
				return err
			}
			res.Added = added
		}
		logger.Debug("platform sibling", "module", file, "path", res.Path, "added", res.Added)
		s.Siblings = append(s.Siblings, res)
	}
	return nil
}

func (s *Session) paths() []string {
	entries := s.Table.Entries()
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
