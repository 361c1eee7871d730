// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ProjectNotFoundId Id = iota + 1
	BuildFailedId
	TraceUnreadableId
	OutputPathUnresolvableId
	VersionUndetectableId
	ModuleIgnoredId
	ResolutionMissId
	ConfigLoadFailedId
	ResolverServerFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation of the tools involved
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue with the glamour style at stylePath; an empty
// path selects the style from the terminal background.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	if stylePath == "" {
		stylePath = "auto"
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	projectNotFoundIssue = &Issue{
		id: ProjectNotFoundId,
		mdMsg: `
# No project file found!

The project file is looked up in the directory of the application model,
trying each configured pattern in order.

## Things you can try:
- Run refbridge from a directory that holds exactly one project
~~~
$ refbridge resolve ./Model.xafml
~~~

- Or configure the patterns used to find it:
~~~cue
project: patterns: ["*.csproj", "*.vbproj"]
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# The project build failed!

refbridge builds the project once to record a structured trace of the build.
The build tool exited with an error or the trace recorded one.

## Things you can try:
- Build the project yourself and fix the reported errors
~~~
$ dotnet build
~~~

- Run with --verbose to see the tail of the build output
- Check the build command in your configuration (build.command)`,
		docLinks: []HttpLink{"https://learn.microsoft.com/visualstudio/msbuild/msbuild-command-line-reference"},
		extLinks: []HttpLink{"https://msbuildlog.com/"},
	}

	traceUnreadableIssue = &Issue{
		id: TraceUnreadableId,
		mdMsg: `
# The build trace could not be read!

The build finished but the trace file next to the project is missing or is
not in the expected format.

## Things you can try:
- Check that the structured logger named in build.trace_logger is installed
- Delete the stale trace file and run again
- Run 'refbridge trace' to rebuild the trace without resolving`,
		extLinks: []HttpLink{"https://msbuildlog.com/"},
	}

	outputPathUnresolvableIssue = &Issue{
		id: OutputPathUnresolvableId,
		mdMsg: `
# The project output could not be located!

The trace does not say where the project writes its own module. It needs the
evaluated OutputPath together with TargetPath, TargetFileName or AssemblyName
for a target framework of the configured runtime family.

## Things you can try:
- Check runtime.family in your configuration
- Make sure the project targets a framework of that family`,
		docLinks: []HttpLink{"https://learn.microsoft.com/visualstudio/msbuild/common-msbuild-project-properties"},
	}

	versionUndetectableIssue = &Issue{
		id: VersionUndetectableId,
		mdMsg: `
# The framework release could not be detected!

The release is read from the references of the project output. None of them
matched the configured framework family.

## Things you can try:
- Check framework.family in your configuration
- Make sure the project references a module of that framework`,
	}

	moduleIgnoredIssue = &Issue{
		id: ModuleIgnoredId,
		mdMsg: `
# A reference module was ignored!

Modules that cannot be loaded at runtime are dropped from the table:
reference assemblies, native images, modules without an assembly and modules
built for another framework.

## Things you can try:
- Run 'refbridge inspect <module>' to see why
- Add the framework to filter.accepted_frameworks to keep its modules`,
	}

	resolutionMissIssue = &Issue{
		id: ResolutionMissId,
		mdMsg: `
# The module is not in the resolution table!

Lookups match the simple module name against the table case-insensitively.

## Things you can try:
- List the table with 'refbridge resolve --format json'
- Check that the module is referenced by the project or is a platform sibling`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your refbridge configuration file could not be loaded.

## Things you can try:
- Check the syntax of your config file
~~~
$ refbridge config show
~~~

- Write a fresh file with the defaults
~~~
$ refbridge config init
~~~`,
		docLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	resolverServerFailedIssue = &Issue{
		id: ResolverServerFailedId,
		mdMsg: `
# The resolver server is not available!

Remote lookups need a running 'refbridge serve' and its token.

## Things you can try:
- Start the server and export the variables it prints
~~~
$ refbridge serve ./Model.xafml
~~~

- Check REFBRIDGE_RESOLVER_ADDR and REFBRIDGE_RESOLVER_TOKEN`,
	}

	issues = map[Id]*Issue{
		projectNotFoundIssue.Id():        projectNotFoundIssue,
		buildFailedIssue.Id():            buildFailedIssue,
		traceUnreadableIssue.Id():        traceUnreadableIssue,
		outputPathUnresolvableIssue.Id(): outputPathUnresolvableIssue,
		versionUndetectableIssue.Id():    versionUndetectableIssue,
		moduleIgnoredIssue.Id():          moduleIgnoredIssue,
		resolutionMissIssue.Id():         resolutionMissIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		resolverServerFailedIssue.Id():   resolverServerFailedIssue,
	}
)

// Values returns every issue in id order.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
