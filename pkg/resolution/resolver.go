// SPDX-License-Identifier: MPL-2.0

package resolution

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/afero"
)

// ErrResolutionMiss is returned when no table entry serves a requested name.
var ErrResolutionMiss = errors.New("module not resolvable")

type (
	// Module is a module loaded by the host.
	Module interface {
		// Name returns the module's simple name.
		Name() string
		// Types returns the full names of the types the module declares.
		Types() []string
	}

	// Loader is the loading capability the host provides.
	Loader interface {
		// LoadFromPath loads a module from a file the host may keep open.
		LoadFromPath(path string) (Module, error)
		// LoadFromBytes loads a module from an in-memory copy.
		LoadFromBytes(data []byte) (Module, error)
	}

	// Resolution is a successful lookup.
	Resolution struct {
		// Name is the simple name that was looked up.
		Name string
		Entry
	}

	// MissError reports a name without a usable table entry, or one whose
	// load has not finished yet.
	MissError struct {
		Name    string
		Loading bool
	}

	// Resolver serves module requests from a table. It is safe for
	// concurrent use and for calls made from inside its Loader.
	Resolver struct {
		table  *Table
		fs     afero.Fs
		loader Loader

		mu     sync.Mutex
		loaded map[string]loadResult
	}

	// ResolverOption configures a Resolver.
	ResolverOption func(*Resolver)

	loadResult struct {
		module  Module
		err     error
		loading bool
	}
)

// Error implements the error interface.
func (e *MissError) Error() string {
	if e.Loading {
		return fmt.Sprintf("%s: %s: load in progress", e.Name, ErrResolutionMiss)
	}
	return fmt.Sprintf("%s: %s", e.Name, ErrResolutionMiss)
}

// Unwrap returns ErrResolutionMiss for errors.Is() compatibility.
func (e *MissError) Unwrap() error { return ErrResolutionMiss }

// WithFs sets the filesystem used to check and read resolved files.
func WithFs(fs afero.Fs) ResolverOption {
	return func(r *Resolver) { r.fs = fs }
}

// NewResolver creates a resolver over table. A nil loader limits the
// resolver to Resolve.
func NewResolver(table *Table, loader Loader, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		table:  table,
		loader: loader,
		loaded: make(map[string]loadResult),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	return r
}

// Table returns the resolver's table.
func (r *Resolver) Table() *Table {
	return r.table
}

// Resolve returns the entry serving requested, which may be a display name.
// It reports false when no entry matches or the matching file no longer
// exists. The first call freezes the table.
func (r *Resolver) Resolve(requested string) (Resolution, bool) {
	r.table.Freeze()

	name := SimpleName(requested)
	if name == "" {
		return Resolution{}, false
	}
	e, ok := r.table.Lookup(name)
	if !ok {
		return Resolution{}, false
	}
	if _, err := r.fs.Stat(e.Path); err != nil {
		return Resolution{}, false
	}
	return Resolution{Name: name, Entry: e}, true
}

// Load resolves requested and loads the module. Project output modules are
// read into memory first so no handle on them stays open. The outcome is
// remembered per simple name. While a name is loading, further requests for
// it, whether nested inside the loader or from other goroutines, get a
// MissError with Loading set instead of a second loader call; the host then
// falls back to its default resolution.
func (r *Resolver) Load(requested string) (Module, error) {
	name := SimpleName(requested)
	k := key(name)

	r.mu.Lock()
	if res, ok := r.loaded[k]; ok {
		r.mu.Unlock()
		if res.loading {
			return nil, &MissError{Name: name, Loading: true}
		}
		return res.module, res.err
	}
	r.loaded[k] = loadResult{loading: true}
	r.mu.Unlock()

	stored := false
	defer func() {
		// A panicking loader leaves the name loadable again.
		if !stored {
			r.mu.Lock()
			delete(r.loaded, k)
			r.mu.Unlock()
		}
	}()

	m, err := r.load(requested)

	r.mu.Lock()
	r.loaded[k] = loadResult{module: m, err: err}
	r.mu.Unlock()
	stored = true
	return m, err
}

func (r *Resolver) load(requested string) (Module, error) {
	res, ok := r.Resolve(requested)
	if !ok {
		return nil, &MissError{Name: SimpleName(requested)}
	}
	if r.loader == nil {
		return nil, fmt.Errorf("load %s: no loader configured", res.Path)
	}

	if res.ProjectOutput {
		data, err := afero.ReadFile(r.fs, res.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", res.Path, err)
		}
		m, err := r.loader.LoadFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", res.Path, err)
		}
		return m, nil
	}

	m, err := r.loader.LoadFromPath(res.Path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", res.Path, err)
	}
	return m, nil
}
