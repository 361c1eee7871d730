// SPDX-License-Identifier: MPL-2.0

package resolution

import (
	"github.com/refbridge/refbridge/pkg/clrmeta"

	"github.com/spf13/afero"
)

type (
	// MetadataLoader is a Loader that reads module metadata without executing
	// anything. It backs inspection and the resolution server.
	MetadataLoader struct {
		Fs afero.Fs
	}

	// MetadataModule is a module read by MetadataLoader.
	MetadataModule struct {
		Meta *clrmeta.Module
		// Path is empty for modules loaded from bytes.
		Path string
	}
)

// LoadFromPath implements Loader.
func (l MetadataLoader) LoadFromPath(path string) (Module, error) {
	m, err := clrmeta.ReadFile(l.Fs, path)
	if err != nil {
		return nil, err
	}
	return &MetadataModule{Meta: m, Path: path}, nil
}

// LoadFromBytes implements Loader.
func (l MetadataLoader) LoadFromBytes(data []byte) (Module, error) {
	m, err := clrmeta.ReadBytes(data)
	if err != nil {
		return nil, err
	}
	return &MetadataModule{Meta: m}, nil
}

// Name implements Module.
func (m *MetadataModule) Name() string {
	return m.Meta.Name
}

// Types implements Module.
func (m *MetadataModule) Types() []string {
	names := make([]string, len(m.Meta.Types))
	for i, t := range m.Meta.Types {
		names[i] = t.String()
	}
	return names
}
