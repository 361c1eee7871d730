// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/refbridge/refbridge/internal/buildrun"
	"github.com/refbridge/refbridge/internal/session"
	"github.com/refbridge/refbridge/internal/tracestore"
	"github.com/refbridge/refbridge/pkg/buildtrace"
	"github.com/refbridge/refbridge/pkg/clrmeta"
	"github.com/refbridge/refbridge/pkg/pathrewrite"
	"github.com/refbridge/refbridge/pkg/resolution"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultServerHost is the interface the resolution server binds to.
	DefaultServerHost = "127.0.0.1"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// the field-level errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the refbridge configuration.
	Config struct {
		Build     BuildConfig     `json:"build" mapstructure:"build"`
		Project   ProjectConfig   `json:"project" mapstructure:"project"`
		Runtime   RuntimeConfig   `json:"runtime" mapstructure:"runtime"`
		Filter    FilterConfig    `json:"filter" mapstructure:"filter"`
		Framework FrameworkConfig `json:"framework" mapstructure:"framework"`
		Server    ServerConfig    `json:"server" mapstructure:"server"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// BuildConfig controls how the trace is produced.
	BuildConfig struct {
		Command       string `json:"command" mapstructure:"command"`
		Configuration string `json:"configuration" mapstructure:"configuration"`
		TraceSuffix   string `json:"trace_suffix" mapstructure:"trace_suffix"`
		TraceLogger   string `json:"trace_logger" mapstructure:"trace_logger"`
	}

	// ProjectConfig controls project discovery next to the model file.
	ProjectConfig struct {
		Patterns []string `json:"patterns" mapstructure:"patterns"`
	}

	// RuntimeConfig selects the runtime the modules are loaded into.
	RuntimeConfig struct {
		Family          buildtrace.RuntimeFamily `json:"family" mapstructure:"family"`
		ModuleExtension string                   `json:"module_extension" mapstructure:"module_extension"`
	}

	// FilterConfig controls the module validity filter.
	FilterConfig struct {
		Enabled            bool     `json:"enabled" mapstructure:"enabled"`
		AcceptedFrameworks []string `json:"accepted_frameworks" mapstructure:"accepted_frameworks"`
	}

	// FrameworkConfig describes the application framework whose platform
	// siblings are added to the table.
	FrameworkConfig struct {
		Family         string            `json:"family" mapstructure:"family"`
		Component      string            `json:"component" mapstructure:"component"`
		BasePackage    string            `json:"base_package" mapstructure:"base_package"`
		PlatformSuffix string            `json:"platform_suffix" mapstructure:"platform_suffix"`
		Siblings       []session.Sibling `json:"siblings" mapstructure:"siblings"`
	}

	// ServerConfig is the listen address of the resolution server.
	ServerConfig struct {
		Host string `json:"host" mapstructure:"host"`
		Port int    `json:"port" mapstructure:"port"`
	}

	// UIConfig holds terminal preferences.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	sibling := pathrewrite.DefaultSiblingPattern()
	return &Config{
		Build: BuildConfig{
			Command:       buildrun.DefaultCommand,
			Configuration: buildrun.DefaultConfiguration,
			TraceSuffix:   tracestore.DefaultSuffix,
			TraceLogger:   buildrun.DefaultTraceLogger,
		},
		Project: ProjectConfig{
			Patterns: slices.Clone(session.DefaultProjectPatterns),
		},
		Runtime: RuntimeConfig{
			Family:          buildtrace.FamilyModern,
			ModuleExtension: resolution.DefaultModuleExtension,
		},
		Filter: FilterConfig{
			Enabled:            true,
			AcceptedFrameworks: []string{clrmeta.DefaultAcceptedFramework},
		},
		Framework: FrameworkConfig{
			Family:         sibling.Family,
			Component:      sibling.Component,
			BasePackage:    sibling.BasePackage,
			PlatformSuffix: sibling.PlatformSuffix,
			Siblings:       session.DefaultSiblings(),
		},
		Server: ServerConfig{
			Host: DefaultServerHost,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// SiblingPattern returns the path heuristic of the configured framework.
func (c *Config) SiblingPattern() pathrewrite.SiblingPattern {
	return pathrewrite.SiblingPattern{
		Family:          c.Framework.Family,
		Component:       c.Framework.Component,
		BasePackage:     c.Framework.BasePackage,
		PlatformSuffix:  c.Framework.PlatformSuffix,
		ModuleExtension: c.Runtime.ModuleExtension,
	}
}

// SessionOptions returns the pipeline options of the configuration.
func (c *Config) SessionOptions() session.Options {
	siblings := c.Framework.Siblings
	if siblings == nil {
		siblings = []session.Sibling{}
	}
	return session.Options{
		ProjectPatterns: c.Project.Patterns,
		Family:          c.Runtime.Family,
		ModuleExtension: c.Runtime.ModuleExtension,
		Sibling:         c.SiblingPattern(),
		Siblings:        siblings,
	}
}

// ServerAddr returns the host:port the resolution server listens on.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsValid checks the constraints the schema cannot express once defaults,
// file and environment have been merged.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Build.Command) == "" {
		errs = append(errs, errors.New("build.command must not be empty"))
	}
	if !strings.HasPrefix(c.Build.TraceSuffix, ".") {
		errs = append(errs, fmt.Errorf("build.trace_suffix %q must start with a dot", c.Build.TraceSuffix))
	}
	if len(c.Project.Patterns) == 0 {
		errs = append(errs, errors.New("project.patterns must not be empty"))
	}
	switch c.Runtime.Family {
	case buildtrace.FamilyModern, buildtrace.FamilyLegacy:
	default:
		errs = append(errs, fmt.Errorf("runtime.family %q must be modern or legacy", c.Runtime.Family))
	}
	if !strings.HasPrefix(c.Runtime.ModuleExtension, ".") {
		errs = append(errs, fmt.Errorf("runtime.module_extension %q must start with a dot", c.Runtime.ModuleExtension))
	}
	if c.Framework.Family == "" {
		errs = append(errs, errors.New("framework.family must not be empty"))
	}
	for i, s := range c.Framework.Siblings {
		if !strings.Contains(s.Module, session.VersionPlaceholder) {
			errs = append(errs, fmt.Errorf("framework.siblings[%d].module %q lacks %s", i, s.Module, session.VersionPlaceholder))
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if ok, colorErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, colorErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("%s: %q (valid: auto, dark, light)", ErrInvalidColorScheme, string(e.Value))
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}
