// SPDX-License-Identifier: MPL-2.0

package resolution

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/refbridge/refbridge/pkg/pathrewrite"
)

// DefaultModuleExtension is the extension a path must carry to be found by
// Lookup.
const DefaultModuleExtension = ".dll"

// ErrTableFrozen is returned by Add once the table is frozen.
var ErrTableFrozen = errors.New("resolution table is frozen")

type (
	// Entry is one candidate module path.
	Entry struct {
		Path string `json:"path" yaml:"path" toml:"path"`
		// ProjectOutput reports that the entry lives in the project output
		// directory and may be overwritten by a later build.
		ProjectOutput bool `json:"project_output" yaml:"project_output" toml:"project_output"`
	}

	// Table is the ordered candidate list of a session. Lookups return the
	// first matching entry, so later additions never shadow earlier ones.
	Table struct {
		mu        sync.RWMutex
		outputDir string
		ext       string
		entries   []Entry
		paths     map[string]struct{}
		frozen    bool
	}

	// TableOption configures a Table.
	TableOption func(*Table)
)

// WithModuleExtension sets the module extension Lookup requires.
func WithModuleExtension(ext string) TableOption {
	return func(t *Table) { t.ext = ext }
}

// NewTable creates an empty table for a project whose own module is written
// to projectOutput.
func NewTable(projectOutput string, opts ...TableOption) *Table {
	t := &Table{
		outputDir: pathrewrite.ModuleDir(projectOutput),
		ext:       DefaultModuleExtension,
		paths:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add appends a candidate path. It reports false when the exact path is
// already present.
func (t *Table) Add(p string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return false, fmt.Errorf("add %s: %w", p, ErrTableFrozen)
	}
	if _, dup := t.paths[p]; dup {
		return false, nil
	}
	t.paths[p] = struct{}{}
	t.entries = append(t.entries, Entry{Path: p, ProjectOutput: t.isProjectOutput(p)})
	return true, nil
}

// Lookup returns the first entry whose file name without extension equals
// name, ignoring case. Entries without the module extension never match.
func (t *Table) Lookup(name string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, e := range t.entries {
		file := path.Base(strings.ReplaceAll(e.Path, `\`, "/"))
		if !strings.EqualFold(path.Ext(file), t.ext) {
			continue
		}
		if strings.EqualFold(pathrewrite.ModuleName(e.Path), name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Freeze makes the table read-only. It is safe to call more than once.
func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Frozen reports whether the table is read-only.
func (t *Table) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen
}

// Entries returns a copy of the entries in order.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.entries)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// IsProjectOutput reports whether p lies in the project output directory.
func (t *Table) IsProjectOutput(p string) bool {
	return t.isProjectOutput(p)
}

func (t *Table) isProjectOutput(p string) bool {
	return t.outputDir != "" && pathrewrite.ModuleDir(p) == t.outputDir
}
