// SPDX-License-Identifier: MPL-2.0

package buildtrace

import "testing"

// multiTargetTrace builds a trace with one legacy and one modern inner build
// of App.csproj plus a modern build of Lib.csproj that runs first.
func multiTargetTrace(t *testing.T) (*Trace, map[string]NodeID) {
	t.Helper()

	ids := make(map[string]NodeID)
	b := NewBuilder()

	lib := b.AddProject(b.Root(), "Lib.csproj", "/src/Lib/Lib.csproj")
	b.AddProperties(lib, GlobalPropertiesFolderName, Property{Name: PropTargetFramework, Value: "net8.0"})
	ids["lib.rar"] = b.Add(lib, KindTarget, "ResolveAssemblyReferences", "")

	legacy := b.AddProject(b.Root(), "App.csproj", "/src/App/App.csproj")
	b.AddProperties(legacy, GlobalPropertiesFolderName, Property{Name: PropTargetFramework, Value: "net48"})
	ids["legacy.rar"] = b.Add(legacy, KindTarget, "ResolveAssemblyReferences", "")

	modern := b.AddProject(b.Root(), "App.csproj", "/src/App/App.csproj")
	b.AddProperties(modern, GlobalPropertiesFolderName, Property{Name: PropTargetFramework, Value: "net8.0-windows"})
	ids["modern.rar"] = b.Add(modern, KindTarget, "ResolveAssemblyReferences", "")
	task := b.Add(ids["modern.rar"], KindTask, "ResolveAssemblyReference", "")
	ids["modern.task"] = task

	eval := b.Add(b.Root(), KindFolder, EvaluationFolderName, "")
	legacyEval := b.AddEvaluation(eval, "App.csproj", "/src/App/App.csproj")
	ids["legacy.props"] = b.AddProperties(legacyEval, PropertiesFolderName,
		Property{Name: PropTargetFrameworkIdentifier, Value: ".NETFramework"})
	modernEval := b.AddEvaluation(eval, "App.csproj", "/src/App/App.csproj")
	ids["modern.props"] = b.AddProperties(modernEval, PropertiesFolderName,
		Property{Name: PropTargetFramework, Value: "net8.0-windows"},
		Property{Name: "OutputPath", Value: "bin/Debug/net8.0-windows/"})

	return b.Build(), ids
}

func TestQuery_FindProjectNode(t *testing.T) {
	t.Parallel()

	tr, ids := multiTargetTrace(t)

	tests := []struct {
		name      string
		query     Query
		kind      Kind
		node      string
		wantID    NodeID
		wantFound bool
	}{
		{
			name:      "modern family skips legacy inner build",
			query:     Query{ProjectFile: "App.csproj", Family: FamilyModern},
			kind:      KindTarget,
			node:      "ResolveAssemblyReferences",
			wantID:    ids["modern.rar"],
			wantFound: true,
		},
		{
			name:      "legacy family picks legacy inner build",
			query:     Query{ProjectFile: "App.csproj", Family: FamilyLegacy},
			kind:      KindTarget,
			node:      "ResolveAssemblyReferences",
			wantID:    ids["legacy.rar"],
			wantFound: true,
		},
		{
			name:      "other project is ignored even when it comes first",
			query:     Query{ProjectFile: "Lib.csproj", Family: FamilyModern},
			kind:      KindTarget,
			node:      "ResolveAssemblyReferences",
			wantID:    ids["lib.rar"],
			wantFound: true,
		},
		{
			name:      "nested node is matched through its enclosing project",
			query:     Query{ProjectFile: "App.csproj", Family: FamilyModern},
			kind:      KindTask,
			node:      "ResolveAssemblyReference",
			wantID:    ids["modern.task"],
			wantFound: true,
		},
		{
			name:      "name must match exactly",
			query:     Query{ProjectFile: "App.csproj", Family: FamilyModern},
			kind:      KindTarget,
			node:      "resolveassemblyreferences",
			wantFound: false,
		},
		{
			name:      "kind must match",
			query:     Query{ProjectFile: "App.csproj", Family: FamilyModern},
			kind:      KindTask,
			node:      "ResolveAssemblyReferences",
			wantFound: false,
		},
		{
			name:      "unknown project",
			query:     Query{ProjectFile: "Other.csproj", Family: FamilyModern},
			kind:      KindTarget,
			node:      "ResolveAssemblyReferences",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, found := tt.query.FindProjectNode(tr.Root(), tt.kind, tt.node)
			if found != tt.wantFound {
				t.Fatalf("FindProjectNode() found = %v, want %v", found, tt.wantFound)
			}
			if found && got.ID() != tt.wantID {
				t.Errorf("FindProjectNode() = node %d, want %d", got.ID(), tt.wantID)
			}
		})
	}
}

func TestQuery_FindEvaluationNode(t *testing.T) {
	t.Parallel()

	tr, ids := multiTargetTrace(t)

	modern := Query{ProjectFile: "App.csproj", Family: FamilyModern}
	got, ok := modern.FindEvaluationNode(tr.EvaluationFolder(), KindFolder, PropertiesFolderName)
	if !ok {
		t.Fatal("FindEvaluationNode() found nothing for the modern family")
	}
	if got.ID() != ids["modern.props"] {
		t.Errorf("FindEvaluationNode() = node %d, want %d", got.ID(), ids["modern.props"])
	}
	if v := PropertiesOf(got).Value("OutputPath"); v != "bin/Debug/net8.0-windows/" {
		t.Errorf("OutputPath = %q", v)
	}

	legacy := Query{ProjectFile: "App.csproj", Family: FamilyLegacy}
	got, ok = legacy.FindEvaluationNode(tr.EvaluationFolder(), KindFolder, PropertiesFolderName)
	if !ok || got.ID() != ids["legacy.props"] {
		t.Errorf("legacy FindEvaluationNode() = (%d, %v), want (%d, true)", got.ID(), ok, ids["legacy.props"])
	}

	// Project build nodes are not evaluations.
	if _, ok := modern.FindEvaluationNode(tr.Root(), KindTarget, "ResolveAssemblyReferences"); ok {
		t.Error("FindEvaluationNode() matched a node owned by a project build")
	}
}

func TestQuery_FallbackProperties(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	project := b.AddProject(b.Root(), "App.csproj", "/src/App/App.csproj")
	target := b.Add(project, KindTarget, "ResolvePackageAssets", "")
	evalProps := b.AddProperties(b.Root(), PropertiesFolderName, Property{Name: PropTargetFramework, Value: "net8.0"})
	tr := b.Build()
	fallback, _ := tr.Node(evalProps)

	without := Query{ProjectFile: "App.csproj", Family: FamilyModern}
	if _, ok := without.FindProjectNode(tr.Root(), KindTarget, "ResolvePackageAssets"); ok {
		t.Error("project without framework properties matched without a fallback")
	}

	with := Query{ProjectFile: "App.csproj", Family: FamilyModern, Fallback: PropertiesOf(fallback)}
	got, ok := with.FindProjectNode(tr.Root(), KindTarget, "ResolvePackageAssets")
	if !ok || got.ID() != target {
		t.Errorf("FindProjectNode() with fallback = (%d, %v), want (%d, true)", got.ID(), ok, target)
	}
}
