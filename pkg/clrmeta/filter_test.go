// SPDX-License-Identifier: MPL-2.0

package clrmeta_test

import (
	"testing"

	"github.com/refbridge/refbridge/pkg/clrmeta"
	"github.com/refbridge/refbridge/pkg/clrmeta/clrmetatest"

	"github.com/spf13/afero"
)

func TestFilter_ShouldIgnore(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	images := map[string]clrmetatest.Image{
		"/lib/Modern.dll":         {AssemblyName: "Modern", TargetFramework: ".NETCoreApp,Version=v8.0"},
		"/lib/LowerCase.dll":      {AssemblyName: "LowerCase", TargetFramework: ".netcoreapp,Version=v6.0"},
		"/lib/Untagged.dll":       {AssemblyName: "Untagged"},
		"/lib/Desktop.dll":        {AssemblyName: "Desktop", TargetFramework: ".NETFramework,Version=v4.8"},
		"/lib/Standard.dll":       {AssemblyName: "Standard", TargetFramework: ".NETStandard,Version=v2.0"},
		"/ref/System.Runtime.dll": {AssemblyName: "System.Runtime", ReferenceAssembly: true, TargetFramework: ".NETCoreApp,Version=v8.0"},
		"/lib/native.dll":         {NoMetadata: true},
		"/lib/part.netmodule":     {AssemblyName: "Part", NoAssembly: true},
	}
	for path, img := range images {
		if err := img.Write(fs, path); err != nil {
			t.Fatalf("Write(%s) error = %v", path, err)
		}
	}
	if err := afero.WriteFile(fs, "/lib/readme.dll", []byte("not a module"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path       string
		wantIgnore bool
		wantReason clrmeta.Reason
	}{
		{"/lib/Modern.dll", false, clrmeta.ReasonNone},
		{"/lib/LowerCase.dll", false, clrmeta.ReasonNone},
		{"/lib/Untagged.dll", false, clrmeta.ReasonNone},
		{"/lib/Desktop.dll", true, clrmeta.ReasonFrameworkMismatch},
		{"/lib/Standard.dll", true, clrmeta.ReasonFrameworkMismatch},
		{"/ref/System.Runtime.dll", true, clrmeta.ReasonReferenceAssembly},
		{"/lib/native.dll", true, clrmeta.ReasonNoCLIHeader},
		{"/lib/part.netmodule", true, clrmeta.ReasonNoAssembly},
		{"/lib/readme.dll", true, clrmeta.ReasonNotPE},
		{"/lib/Missing.dll", true, clrmeta.ReasonUnreadable},
	}

	f := clrmeta.Filter{Fs: fs}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			ignore, reason := f.ShouldIgnore(tt.path)
			if ignore != tt.wantIgnore || reason != tt.wantReason {
				t.Errorf("ShouldIgnore(%s) = (%v, %q), want (%v, %q)", tt.path, ignore, reason, tt.wantIgnore, tt.wantReason)
			}
		})
	}
}

func TestFilter_AcceptedFrameworks(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	img := clrmetatest.Image{AssemblyName: "Desktop", TargetFramework: ".NETFramework,Version=v4.8"}
	if err := img.Write(fs, "/lib/Desktop.dll"); err != nil {
		t.Fatal(err)
	}

	f := clrmeta.Filter{Fs: fs, AcceptedFrameworks: []string{".NETFramework"}}
	v := f.Evaluate("/lib/Desktop.dll")
	if v.Ignore {
		t.Errorf("Evaluate() ignored module with accepted framework, reason %q", v.Reason)
	}
	if v.Module == nil || v.Module.Name != "Desktop" {
		t.Errorf("Evaluate() Module = %+v, want Desktop", v.Module)
	}
}

func TestFilter_EvaluateKeepsReadError(t *testing.T) {
	t.Parallel()

	v := clrmeta.Filter{Fs: afero.NewMemMapFs()}.Evaluate("/nowhere.dll")
	if !v.Ignore || v.Err == nil || v.Module != nil {
		t.Errorf("Evaluate() = %+v, want ignored verdict with error", v)
	}
}

func TestFilter_KeepsModuleWithUndecodableTypeName(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	img := clrmetatest.Image{
		AssemblyName:    "Obfuscated",
		TargetFramework: ".NETCoreApp,Version=v8.0",
		References:      []clrmeta.AssemblyRef{{Name: "System.Runtime"}},
		Types:           []clrmeta.TypeName{{Namespace: "App", Name: "\xff\xfe"}, {Namespace: "App", Name: "Plain"}},
	}
	if err := img.Write(fs, "/lib/Obfuscated.dll"); err != nil {
		t.Fatal(err)
	}

	f := clrmeta.Filter{Fs: fs}
	if ignore, reason := f.ShouldIgnore("/lib/Obfuscated.dll"); ignore {
		t.Fatalf("ShouldIgnore() = (true, %q), want the module kept", reason)
	}

	v := f.Evaluate("/lib/Obfuscated.dll")
	if v.Module == nil || v.Module.DetailErr != nil {
		t.Fatalf("Evaluate() module = %+v", v.Module)
	}
	if len(v.Module.Types) != 2 || v.Module.Types[0].Name != "\uFFFD" || v.Module.Types[1].Name != "Plain" {
		t.Errorf("Types = %q, want the invalid name replaced and the rest intact", v.Module.Types)
	}
	if len(v.Module.References) != 1 || v.Module.References[0].Name != "System.Runtime" {
		t.Errorf("References = %+v", v.Module.References)
	}
}
