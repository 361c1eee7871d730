// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the config directory lookup when set.
	ConfigDirPath string
	// BaseDir is where ./config.cue is looked up. Empty means the working
	// directory.
	BaseDir string
}

// Provider loads configuration from explicit options.
type Provider interface {
	// Load merges defaults, the config file and the environment.
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
	// Locate returns the config file Load would read, or "" when none exists.
	Locate(opts LoadOptions) (string, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Locate resolves the config file without reading it.
func (p *fileProvider) Locate(opts LoadOptions) (string, error) {
	return findConfigFile(opts)
}
