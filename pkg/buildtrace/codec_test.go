// SPDX-License-Identifier: MPL-2.0

package buildtrace

import (
	"bytes"
	"compress/gzip"
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleLog = `<?xml version="1.0" encoding="utf-8"?>
<Build Succeeded="True" StartTime="2024-05-01T10:00:00.1234567+02:00" EndTime="2024-05-01T10:00:42.5+02:00">
  <Project Name="App.csproj" ProjectFile="C:\src\App\App.csproj">
    <Folder Name="Global Properties">
      <Property Name="TargetFramework" Value="net8.0-windows" />
    </Folder>
    <Target Name="ResolveAssemblyReferences">
      <TargetOutputs>
        <Item Text="C:\nuget\refa\1.0.0\lib\net8.0\RefA.dll" />
        <Item>C:\nuget\refb\2.0.0\lib\net8.0\RefB.dll</Item>
      </TargetOutputs>
    </Target>
    <Target Name="ResolvePackageAssets">
      <Task Name="ResolvePackageAssets">
        <OutputItems>
          <TaskParameterItem Name="ResolvedCompileFileDefinitions">
            <Item Include="C:\nuget\refc\3.0.0\ref\net8.0\RefC.dll">
              <Metadata Name="NuGetPackageId">RefC</Metadata>
            </Item>
          </TaskParameterItem>
        </OutputItems>
      </Task>
      <Message Text="resolved assets" />
    </Target>
  </Project>
  <Folder Name="Evaluation">
    <ProjectEvaluation ProjectFile="C:\src\App\App.csproj">
      <Folder Name="Properties">
        <Property Name="OutputPath">bin\Debug\net8.0-windows\</Property>
        <Property Name="AssemblyName" Value="App" />
      </Folder>
    </ProjectEvaluation>
  </Folder>
  <CustomThing Flavor="unknown">
    <Item Text="inside-unknown" />
  </CustomThing>
</Build>`

func TestDecode(t *testing.T) {
	t.Parallel()

	tr, err := Decode(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !tr.Succeeded() {
		t.Error("Succeeded() = false, want true")
	}
	if tr.HasErrors() {
		t.Error("HasErrors() = true, want false")
	}
	wantEnd := time.Date(2024, 5, 1, 8, 0, 42, 500_000_000, time.UTC)
	if !tr.EndTime().Equal(wantEnd) {
		t.Errorf("EndTime() = %v, want %v", tr.EndTime(), wantEnd)
	}
	if !tr.StartTime().Before(tr.EndTime()) {
		t.Errorf("StartTime() = %v is not before EndTime()", tr.StartTime())
	}

	project, ok := tr.Root().Child(KindProject, "App.csproj")
	if !ok {
		t.Fatal("project node not found")
	}
	if project.Value() != `C:\src\App\App.csproj` {
		t.Errorf("project Value() = %q", project.Value())
	}

	outputs, ok := project.Find(KindFolder, "TargetOutputs")
	if !ok {
		t.Fatal("TargetOutputs folder not found")
	}
	items := outputs.Items()
	wantItems := []string{`C:\nuget\refa\1.0.0\lib\net8.0\RefA.dll`, `C:\nuget\refb\2.0.0\lib\net8.0\RefB.dll`}
	if len(items) != len(wantItems) {
		t.Fatalf("Items() = %v, want %v", items, wantItems)
	}
	for i := range wantItems {
		if items[i] != wantItems[i] {
			t.Errorf("Items()[%d] = %q, want %q", i, items[i], wantItems[i])
		}
	}

	param, ok := project.Find(KindParameter, "ResolvedCompileFileDefinitions")
	if !ok {
		t.Fatal("ResolvedCompileFileDefinitions parameter not found")
	}
	if got := param.Items(); len(got) != 1 || got[0] != `C:\nuget\refc\3.0.0\ref\net8.0\RefC.dll` {
		t.Errorf("parameter Items() = %v", got)
	}
	meta, ok := param.Find(KindMetadata, "NuGetPackageId")
	if !ok || meta.Value() != "RefC" {
		t.Errorf("metadata = (%q, %v), want (RefC, true)", meta.Value(), ok)
	}

	eval, ok := tr.EvaluationFolder().Child(KindProjectEvaluation, "App.csproj")
	if !ok {
		t.Fatal("evaluation named after its project file not found")
	}
	props, _ := eval.Child(KindFolder, PropertiesFolderName)
	set := PropertiesOf(props)
	if v := set.Value("OutputPath"); v != `bin\Debug\net8.0-windows\` {
		t.Errorf("OutputPath = %q", v)
	}
	if v := set.Value("AssemblyName"); v != "App" {
		t.Errorf("AssemblyName = %q", v)
	}

	unknown, ok := tr.Root().Child(KindFolder, "CustomThing")
	if !ok {
		t.Fatal("unknown element was not kept as a folder")
	}
	if got := unknown.Items(); len(got) != 1 || got[0] != "inside-unknown" {
		t.Errorf("unknown folder Items() = %v", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte("binary log"))
	_ = zw.Close()

	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{"binary log", gz.Bytes(), ErrUnsupportedTraceFormat},
		{"empty", nil, ErrMalformedTrace},
		{"wrong root", []byte(`<Project Name="x"/>`), ErrMalformedTrace},
		{"truncated", []byte(`<Build><Project Name="a">`), ErrMalformedTrace},
		{"bad time", []byte(`<Build EndTime="yesterday"/>`), ErrMalformedTrace},
		{"bad result", []byte(`<Build Succeeded="maybe"/>`), ErrMalformedTrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(bytes.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode_FailedBuild(t *testing.T) {
	t.Parallel()

	tr, err := Decode(strings.NewReader(`<Build Succeeded="False"><Project Name="App.csproj"><Error Text="CS1002: ; expected"/></Project></Build>`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !tr.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	first, ok := tr.FirstError()
	if !ok || first.Value() != "CS1002: ; expected" {
		t.Errorf("FirstError() = (%q, %v)", first.Value(), ok)
	}
}

func TestEncode_DecodesBack(t *testing.T) {
	t.Parallel()

	end := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	b := NewBuilder().SetTimes(end.Add(-time.Minute), end)
	p := b.AddProject(b.Root(), "App.csproj", "/src/App/App.csproj")
	target := b.Add(p, KindTarget, "ResolveAssemblyReferences", "")
	outputs := b.Add(target, KindFolder, "TargetOutputs", "")
	b.AddItems(outputs, "/nuget/a.dll", "/nuget/b & c.dll")
	tr := b.Build()

	var buf bytes.Buffer
	if err := Encode(&buf, tr); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}

	if back.Len() != tr.Len() {
		t.Errorf("Len() = %d, want %d", back.Len(), tr.Len())
	}
	if !back.EndTime().Equal(end) {
		t.Errorf("EndTime() = %v, want %v", back.EndTime(), end)
	}
	folder, ok := back.Root().Find(KindFolder, "TargetOutputs")
	if !ok {
		t.Fatal("TargetOutputs not found after decode")
	}
	if got := folder.Items(); len(got) != 2 || got[1] != "/nuget/b & c.dll" {
		t.Errorf("Items() = %v", got)
	}
}
