// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// Stopper is a server or store with a Stop method.
type Stopper interface {
	Stop() error
}

// MustWriteFile writes data to path on fs, creating parent directories.
func MustWriteFile(t testing.TB, fs afero.Fs, path string, data []byte) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MustTouch sets the access and modification times of path to mtime.
// The trace cache compares a project output's mtime with the trace end time.
func MustTouch(t testing.TB, fs afero.Fs, path string, mtime time.Time) {
	t.Helper()
	if err := fs.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set times on %s: %v", path, err)
	}
}

// StopOnCleanup stops s when the test finishes. A Stop error is logged, not
// failed: the test under cleanup may already have stopped s.
func StopOnCleanup(t testing.TB, s Stopper) {
	t.Helper()
	t.Cleanup(func() {
		if err := s.Stop(); err != nil {
			t.Logf("warning: stop returned error: %v", err)
		}
	})
}
