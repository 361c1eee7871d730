// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/refbridge/refbridge/internal/issue"
	"github.com/refbridge/refbridge/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "refbridge"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes the environment variables that override settings.
	EnvPrefix = "REFBRIDGE"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the refbridge configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultFilePath returns the path of the config file in the config
// directory, or in dir when it is not empty.
func DefaultFilePath(dir string) (string, error) {
	cfgDir, err := configDirWithOverride(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions merges defaults, the first config file found and the
// environment. The returned path is empty when no file was read.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := findConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", loadError(resolvedPath, err,
				"Check that the file contains valid CUE syntax",
				"Verify the configuration values match the expected schema",
				"See 'refbridge config --help' for configuration options")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check the REFBRIDGE_ environment variables you have set").
			WithSuggestion("Run 'refbridge config dump' to see the merged settings").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// findConfigFile returns the explicit file, else the file in the config
// directory, else ./config.cue, else "".
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", loadError(opts.ConfigFilePath, fmt.Errorf("config file not found: %s", opts.ConfigFilePath),
				"Verify the file path is correct",
				"Check that the file exists and is readable",
				"Use 'refbridge config init' to write a default configuration")
		}
		return opts.ConfigFilePath, nil
	}

	cuePath, err := DefaultFilePath(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if fileExists(cuePath) {
		return cuePath, nil
	}

	localCuePath := ConfigFileName + "." + ConfigFileExt
	if opts.BaseDir != "" {
		localCuePath = filepath.Join(opts.BaseDir, localCuePath)
	}
	if fileExists(localCuePath) {
		return localCuePath, nil
	}
	return "", nil
}

func loadError(path string, err error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId).
		WithSuggestion(suggestions...).
		Wrap(err).
		BuildError()
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("build.command", d.Build.Command)
	v.SetDefault("build.configuration", d.Build.Configuration)
	v.SetDefault("build.trace_suffix", d.Build.TraceSuffix)
	v.SetDefault("build.trace_logger", d.Build.TraceLogger)
	v.SetDefault("project.patterns", d.Project.Patterns)
	v.SetDefault("runtime.family", d.Runtime.Family)
	v.SetDefault("runtime.module_extension", d.Runtime.ModuleExtension)
	v.SetDefault("filter.enabled", d.Filter.Enabled)
	v.SetDefault("filter.accepted_frameworks", d.Filter.AcceptedFrameworks)
	v.SetDefault("framework.family", d.Framework.Family)
	v.SetDefault("framework.component", d.Framework.Component)
	v.SetDefault("framework.base_package", d.Framework.BasePackage)
	v.SetDefault("framework.platform_suffix", d.Framework.PlatformSuffix)
	v.SetDefault("framework.siblings", d.Framework.Siblings)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.color_scheme", d.UI.ColorScheme)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper checks a CUE file against #Config and merges it into
// Viper between the defaults and the environment. Every field is optional,
// so the document is decoded into a map and need not be concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	parsed, err := cueutil.ParseAndDecode[map[string]any]([]byte(configSchema), data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false))
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*parsed.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to path unless a file
// is already there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := Save(DefaultConfig(), path); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes cfg to path as CUE, creating the directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// refbridge configuration file\n")
	sb.WriteString("// Every field is optional; remove a field to use its default.\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tcommand:       %s\n", cueString(cfg.Build.Command))
	fmt.Fprintf(&sb, "\tconfiguration: %s\n", cueString(cfg.Build.Configuration))
	fmt.Fprintf(&sb, "\ttrace_suffix:  %s\n", cueString(cfg.Build.TraceSuffix))
	fmt.Fprintf(&sb, "\ttrace_logger:  %s\n", cueString(cfg.Build.TraceLogger))
	sb.WriteString("}\n")

	sb.WriteString("\nproject: {\n")
	fmt.Fprintf(&sb, "\tpatterns: %s\n", cueList(cfg.Project.Patterns))
	sb.WriteString("}\n")

	sb.WriteString("\nruntime: {\n")
	fmt.Fprintf(&sb, "\tfamily:           %s\n", cueString(string(cfg.Runtime.Family)))
	fmt.Fprintf(&sb, "\tmodule_extension: %s\n", cueString(cfg.Runtime.ModuleExtension))
	sb.WriteString("}\n")

	sb.WriteString("\nfilter: {\n")
	fmt.Fprintf(&sb, "\tenabled:             %v\n", cfg.Filter.Enabled)
	fmt.Fprintf(&sb, "\taccepted_frameworks: %s\n", cueList(cfg.Filter.AcceptedFrameworks))
	sb.WriteString("}\n")

	sb.WriteString("\nframework: {\n")
	fmt.Fprintf(&sb, "\tfamily:          %s\n", cueString(cfg.Framework.Family))
	fmt.Fprintf(&sb, "\tcomponent:       %s\n", cueString(cfg.Framework.Component))
	fmt.Fprintf(&sb, "\tbase_package:    %s\n", cueString(cfg.Framework.BasePackage))
	fmt.Fprintf(&sb, "\tplatform_suffix: %s\n", cueString(cfg.Framework.PlatformSuffix))
	if len(cfg.Framework.Siblings) == 0 {
		sb.WriteString("\tsiblings: []\n")
	} else {
		sb.WriteString("\tsiblings: [\n")
		for _, s := range cfg.Framework.Siblings {
			fmt.Fprintf(&sb, "\t\t{module: %s, package: %s},\n", cueString(s.Module), cueString(s.Package))
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nserver: {\n")
	fmt.Fprintf(&sb, "\thost: %s\n", cueString(cfg.Server.Host))
	fmt.Fprintf(&sb, "\tport: %d\n", cfg.Server.Port)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %s\n", cueString(string(cfg.UI.ColorScheme)))
	sb.WriteString("}\n")

	return sb.String()
}

func cueString(s string) string {
	return strconv.Quote(s)
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = cueString(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
