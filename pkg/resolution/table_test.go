// SPDX-License-Identifier: MPL-2.0

package resolution

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestTable(t *testing.T, paths ...string) *Table {
	t.Helper()
	tbl := NewTable("/src/App/bin/Debug/App.dll")
	for _, p := range paths {
		if _, err := tbl.Add(p); err != nil {
			t.Fatalf("Add(%s) error = %v", p, err)
		}
	}
	return tbl
}

func TestTable_Lookup(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t,
		"/refs/Foo.dll",
		"/other/FOO.dll",
		"/refs/Bar.xml",
		"/refs/Bar.DLL",
		`C:\nuget\baz\1.0.0\lib\net8.0\Baz.Core.dll`,
		"/src/App/bin/Debug/App.dll",
	)

	tests := []struct {
		name   string
		want   Entry
		wantOK bool
	}{
		{"foo", Entry{Path: "/refs/Foo.dll"}, true},
		{"FOO", Entry{Path: "/refs/Foo.dll"}, true},
		{"Bar", Entry{Path: "/refs/Bar.DLL"}, true},
		{"baz.core", Entry{Path: `C:\nuget\baz\1.0.0\lib\net8.0\Baz.Core.dll`}, true},
		{"App", Entry{Path: "/src/App/bin/Debug/App.dll", ProjectOutput: true}, true},
		{"Foo.dll", Entry{}, false},
		{"Missing", Entry{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tbl.Lookup(tt.name)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Lookup(%q) = (%+v, %v), want (%+v, %v)", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTable_Add(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, "/refs/Foo.dll")

	added, err := tbl.Add("/refs/Foo.dll")
	if err != nil || added {
		t.Errorf("Add(duplicate) = (%v, %v), want (false, nil)", added, err)
	}
	added, err = tbl.Add("/sibling/Foo.dll")
	if err != nil || !added {
		t.Errorf("Add(same name, other path) = (%v, %v), want (true, nil)", added, err)
	}
	if e, _ := tbl.Lookup("Foo"); e.Path != "/refs/Foo.dll" {
		t.Errorf("Lookup after append = %q, want the earlier entry", e.Path)
	}

	tbl.Freeze()
	tbl.Freeze()
	if !tbl.Frozen() {
		t.Fatal("Frozen() = false after Freeze")
	}
	if _, err := tbl.Add("/refs/New.dll"); !errors.Is(err, ErrTableFrozen) {
		t.Errorf("Add(frozen) error = %v, want ErrTableFrozen", err)
	}

	want := []Entry{{Path: "/refs/Foo.dll"}, {Path: "/sibling/Foo.dll"}}
	if diff := cmp.Diff(want, tbl.Entries()); diff != "" {
		t.Errorf("Entries mismatch (-want +got):\n%s", diff)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}
}

func TestTable_IsProjectOutput(t *testing.T) {
	t.Parallel()

	tbl := NewTable(`C:\src\App\bin\Debug\App.dll`, WithModuleExtension(".exe"))
	tests := map[string]bool{
		`C:\src\App\bin\Debug\Lib.dll`:     true,
		`C:\src\App\bin\Debug\sub\Lib.dll`: false,
		`C:\nuget\lib\Lib.dll`:             false,
	}
	for p, want := range tests {
		if got := tbl.IsProjectOutput(p); got != want {
			t.Errorf("IsProjectOutput(%q) = %v, want %v", p, got, want)
		}
	}

	if _, err := tbl.Add(`C:\src\App\bin\Debug\Tool.exe`); err != nil {
		t.Fatal(err)
	}
	if e, ok := tbl.Lookup("tool"); !ok || !e.ProjectOutput {
		t.Errorf("Lookup(tool) = (%+v, %v), want project output entry", e, ok)
	}
}

func TestParseDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want DisplayName
	}{
		{"Foo", DisplayName{Name: "Foo"}},
		{
			"Foo.Core, Version=1.2.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089",
			DisplayName{Name: "Foo.Core", Version: "1.2.0.0", Culture: "neutral", PublicKeyToken: "b77a5c561934e089"},
		},
		{" Bar ,version=2.0.0.0,Custom=x, junk", DisplayName{Name: "Bar", Version: "2.0.0.0"}},
		{"", DisplayName{}},
	}
	for _, tt := range tests {
		if got := ParseDisplayName(tt.in); got != tt.want {
			t.Errorf("ParseDisplayName(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
