// SPDX-License-Identifier: MPL-2.0

package refcollect

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/refbridge/refbridge/pkg/buildtrace"
	"github.com/refbridge/refbridge/pkg/pathrewrite"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// DefaultModuleExtension is the file extension of compiled modules.
const DefaultModuleExtension = ".dll"

// Trace node names the collector looks for.
const (
	TargetResolveAssemblyReferences = "ResolveAssemblyReferences"
	TargetResolveLockFileReferences = "ResolveLockFileReferences"
	TargetResolvePackageAssets      = "ResolvePackageAssets"

	FolderTargetOutputs     = "TargetOutputs"
	AddItemLockFileCompile  = "ResolvedCompileFileDefinitionsToAdd"
	ParameterPackageCompile = "ResolvedCompileFileDefinitions"

	PropOutputPath     = "OutputPath"
	PropTargetPath     = "TargetPath"
	PropTargetFileName = "TargetFileName"
	PropAssemblyName   = "AssemblyName"
)

// ErrOutputPathUnresolvable is returned when the trace does not say where the
// project's own module is written.
var ErrOutputPathUnresolvable = errors.New("project output path cannot be resolved")

type (
	// OutputPathError details why the project output could not be resolved.
	OutputPathError struct {
		Project string
		Reason  string
	}

	// Candidate is one reference module, after rewriting to its runtime path.
	Candidate struct {
		// Path is the runtime-loadable path.
		Path string
		// Original is the path as recorded by its source.
		Original string
		// Source is the contributing source.
		Source Source
	}

	// Result is the outcome of a collection.
	Result struct {
		// ProjectOutput is the path of the module the project builds.
		ProjectOutput string
		// Candidates is the deduplicated list in source priority order.
		Candidates []Candidate
		// Contributed counts the paths each source offered before
		// deduplication.
		Contributed [SourceCount]int
	}

	// Collector extracts references of one project from a trace.
	Collector struct {
		trace       *buildtrace.Trace
		projectPath string
		query       buildtrace.Query
		props       buildtrace.PropertySet
		fs          afero.Fs
		rewriter    *pathrewrite.Rewriter
		logger      *log.Logger
		ext         string
	}

	// Option configures a Collector.
	Option func(*Collector)
)

// Error implements the error interface.
func (e *OutputPathError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Project, ErrOutputPathUnresolvable, e.Reason)
}

// Unwrap returns ErrOutputPathUnresolvable for errors.Is() compatibility.
func (e *OutputPathError) Unwrap() error { return ErrOutputPathUnresolvable }

// WithFs sets the filesystem used to scan the output directory and to guard
// path rewrites.
func WithFs(fs afero.Fs) Option {
	return func(c *Collector) { c.fs = fs }
}

// WithLogger sets the logger for per-source diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// WithFamily sets the runtime family whose target frameworks are accepted.
func WithFamily(f buildtrace.RuntimeFamily) Option {
	return func(c *Collector) { c.query.Family = f }
}

// WithRewriter sets the path rewriter. The default uses the collector's
// filesystem.
func WithRewriter(r *pathrewrite.Rewriter) Option {
	return func(c *Collector) { c.rewriter = r }
}

// WithModuleExtension sets the compiled module extension, including the dot.
func WithModuleExtension(ext string) Option {
	return func(c *Collector) { c.ext = ext }
}

// New prepares a collector for the project at projectPath. The evaluated
// properties of the project must be present in the trace.
func New(trace *buildtrace.Trace, projectPath string, opts ...Option) (*Collector, error) {
	c := &Collector{
		trace:       trace,
		projectPath: projectPath,
		query: buildtrace.Query{
			ProjectFile: filepath.Base(projectPath),
			Family:      buildtrace.FamilyModern,
		},
		ext: DefaultModuleExtension,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.rewriter == nil {
		c.rewriter = pathrewrite.New(c.fs)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	folder, ok := c.query.FindEvaluationNode(trace.EvaluationFolder(), buildtrace.KindFolder, buildtrace.PropertiesFolderName)
	if !ok {
		return nil, &OutputPathError{Project: projectPath, Reason: "no evaluated properties for a compatible target framework"}
	}
	c.props = buildtrace.PropertiesOf(folder)
	c.query.Fallback = c.props
	return c, nil
}

// Properties returns the evaluated properties of the project.
func (c *Collector) Properties() buildtrace.PropertySet {
	return c.props
}

// Query returns the trace query bound to the project.
func (c *Collector) Query() buildtrace.Query {
	return c.query
}

// ProjectOutput returns the path of the module the project builds: the
// project directory joined with the output path and the first non-blank of
// the target path, target file name and assembly name. The module extension
// is appended when missing; an absolute target path is used as is.
func (c *Collector) ProjectOutput() (string, error) {
	var name string
	for _, prop := range []string{PropTargetPath, PropTargetFileName, PropAssemblyName} {
		if v, ok := c.props.NonBlank(prop); ok {
			name = v
			break
		}
	}
	if name == "" {
		return "", &OutputPathError{Project: c.projectPath, Reason: "none of TargetPath, TargetFileName or AssemblyName is set"}
	}
	name = nativePath(name)
	if filepath.Ext(name) != c.ext {
		name += c.ext
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(filepath.Dir(c.projectPath), nativePath(c.props.Value(PropOutputPath)), name), nil
}

// Collect gathers, deduplicates and rewrites the reference candidates.
func (c *Collector) Collect() (*Result, error) {
	output, err := c.ProjectOutput()
	if err != nil {
		return nil, err
	}

	res := &Result{ProjectOutput: output}
	seen := make(map[string]struct{})
	sources := [SourceCount]func() []string{
		SourceDirectReference: c.directReferences,
		SourceLockFile:        c.lockFileReferences,
		SourcePackageAsset:    c.packageAssets,
		SourceOutputScan:      func() []string { return c.outputModules(filepath.Dir(output)) },
	}
	for src, gather := range sources {
		paths := gather()
		res.Contributed[src] = len(paths)
		for _, p := range paths {
			key := strings.ToLower(pathrewrite.ModuleName(p))
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			res.Candidates = append(res.Candidates, Candidate{
				Path:     c.rewriter.ToRuntime(p),
				Original: p,
				Source:   Source(src),
			})
		}
		c.logger.Debug("collected references", "source", Source(src), "offered", len(paths))
	}
	return res, nil
}

func (c *Collector) directReferences() []string {
	target, ok := c.query.FindProjectNode(c.trace.Root(), buildtrace.KindTarget, TargetResolveAssemblyReferences)
	if !ok {
		return nil
	}
	outputs, ok := target.Child(buildtrace.KindFolder, FolderTargetOutputs)
	if !ok {
		return nil
	}
	return outputs.Items()
}

func (c *Collector) lockFileReferences() []string {
	target, ok := c.query.FindProjectNode(c.trace.Root(), buildtrace.KindTarget, TargetResolveLockFileReferences)
	if !ok {
		return nil
	}
	added, ok := target.Child(buildtrace.KindAddItem, AddItemLockFileCompile)
	if !ok {
		c.logger.Warn("lock-file target has no compile items", "target", TargetResolveLockFileReferences, "item", AddItemLockFileCompile)
		return nil
	}
	return added.Items()
}

func (c *Collector) packageAssets() []string {
	target, ok := c.query.FindProjectNode(c.trace.Root(), buildtrace.KindTarget, TargetResolvePackageAssets)
	if !ok {
		return nil
	}
	param, ok := target.Find(buildtrace.KindParameter, ParameterPackageCompile)
	if !ok {
		return nil
	}
	return param.Items()
}

// outputModules lists the modules in dir in name order.
func (c *Collector) outputModules(dir string) []string {
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		c.logger.Debug("output directory not scanned", "dir", dir, "error", err)
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), c.ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths
}

// nativePath converts trace paths written with either separator to the host
// separator.
func nativePath(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}
