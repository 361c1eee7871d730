// SPDX-License-Identifier: MPL-2.0

package pathrewrite

import (
	"testing"

	"github.com/spf13/afero"
)

func mustTouch(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := afero.WriteFile(fs, p, []byte("MZ"), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", p, err)
		}
	}
}

func TestIsVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"1.2", true},
		{"1.2.3", true},
		{"24.2.3.0", true},
		{"6.0.0", true},
		{"1", false},
		{"1.2.3.4.5", false},
		{"1.2.3-preview.1", false},
		{"v1.2", false},
		{"1..2", false},
		{"-1.2", false},
		{"net8.0", false},
		{"99999999999.0", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := IsVersion(tt.in); got != tt.want {
				t.Errorf("IsVersion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRewriter_RefToLib(t *testing.T) {
	t.Parallel()

	const (
		refPath = "/nuget/packages/foo/1.2.3/ref/net8.0/Foo.dll"
		libPath = "/nuget/packages/foo/1.2.3/lib/net8.0/Foo.dll"
	)

	t.Run("lib present", func(t *testing.T) {
		t.Parallel()
		fs := afero.NewMemMapFs()
		mustTouch(t, fs, libPath)
		if got := New(fs).RefToLib(refPath); got != libPath {
			t.Errorf("RefToLib() = %q, want %q", got, libPath)
		}
	})

	t.Run("lib absent", func(t *testing.T) {
		t.Parallel()
		fs := afero.NewMemMapFs()
		if got := New(fs).RefToLib(refPath); got != refPath {
			t.Errorf("RefToLib() = %q, want unchanged %q", got, refPath)
		}
	})

	t.Run("preceding segment is not a version", func(t *testing.T) {
		t.Parallel()
		fs := afero.NewMemMapFs()
		mustTouch(t, fs, "/nuget/packages/foo/latest/lib/net8.0/Foo.dll")
		in := "/nuget/packages/foo/latest/ref/net8.0/Foo.dll"
		if got := New(fs).RefToLib(in); got != in {
			t.Errorf("RefToLib() = %q, want unchanged", got)
		}
	})

	t.Run("ref too close to the root", func(t *testing.T) {
		t.Parallel()
		fs := afero.NewMemMapFs()
		mustTouch(t, fs, "1.0/lib/Foo.dll")
		in := "1.0/ref/Foo.dll"
		if got := New(fs).RefToLib(in); got != in {
			t.Errorf("RefToLib() = %q, want unchanged", got)
		}
	})

	t.Run("windows separators are preserved", func(t *testing.T) {
		t.Parallel()
		fs := afero.NewMemMapFs()
		in := `C:\nuget\foo\1.2.3\ref\net8.0\Foo.dll`
		if got := New(fs).RefToLib(in); got != in {
			t.Errorf("RefToLib() = %q, want unchanged", got)
		}
	})
}

func TestRewriter_PacksToShared(t *testing.T) {
	t.Parallel()

	r := New(afero.NewMemMapFs())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "reference pack",
			in:   "/usr/share/dotnet/packs/Foo.Ref/6.0.0/ref/net6.0/Foo.dll",
			want: "/usr/share/dotnet/shared/Foo/6.0.0/Foo.dll",
		},
		{
			name: "windows desktop pack",
			in:   `C:\Program Files\dotnet\packs\Microsoft.WindowsDesktop.App.Ref\8.0.4\ref\net8.0\System.Windows.Forms.dll`,
			want: `C:\Program Files\dotnet\shared\Microsoft.WindowsDesktop.App\8.0.4\System.Windows.Forms.dll`,
		},
		{
			name: "pack without Ref suffix",
			in:   "/usr/share/dotnet/packs/Foo.Host/6.0.0/runtimes/Foo.dll",
			want: "/usr/share/dotnet/packs/Foo.Host/6.0.0/runtimes/Foo.dll",
		},
		{
			name: "too few segments after packs",
			in:   "/dotnet/packs/Foo.Ref/6.0.0",
			want: "/dotnet/packs/Foo.Ref/6.0.0",
		},
		{
			name: "no packs segment",
			in:   "/nuget/foo/1.0.0/lib/net8.0/Foo.dll",
			want: "/nuget/foo/1.0.0/lib/net8.0/Foo.dll",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := r.PacksToShared(tt.in); got != tt.want {
				t.Errorf("PacksToShared(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRewriter_ToRuntime(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	mustTouch(t, fs, "/nuget/bar/2.0.0/lib/net8.0/Bar.dll")
	r := New(fs)

	if got := r.ToRuntime("/nuget/bar/2.0.0/ref/net8.0/Bar.dll"); got != "/nuget/bar/2.0.0/lib/net8.0/Bar.dll" {
		t.Errorf("ToRuntime(ref) = %q", got)
	}
	// Reference packs have no lib sibling; only the packs rewrite applies.
	if got := r.ToRuntime("/dotnet/packs/Foo.Ref/6.0.0/ref/net6.0/Foo.dll"); got != "/dotnet/shared/Foo/6.0.0/Foo.dll" {
		t.Errorf("ToRuntime(packs) = %q", got)
	}
}
