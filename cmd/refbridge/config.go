// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/refbridge/refbridge/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `refbridge config` command tree.
// Subcommands that read configuration use the App's config provider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage refbridge configuration",
		Long: `Manage refbridge configuration.

Configuration is stored in:
  - Linux: ~/.config/refbridge/config.cue
  - macOS: ~/Library/Application Support/refbridge/config.cue
  - Windows: %APPDATA%\refbridge\config.cue

A config.cue in the working directory is used when the user file is absent.
REFBRIDGE_ environment variables override both, e.g. REFBRIDGE_BUILD_CONFIGURATION.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, app.showConfig(cmd.Context()))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, app.initConfig())
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, app.showConfigPath())
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the merged configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig(ctx context.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)

	path, err := a.Config.Locate(config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil || path == "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", labelStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", labelStyle.Render("Config file"), PathStyle.Render(path))
	}

	a.section("build")
	a.value("command", cfg.Build.Command)
	a.value("configuration", cfg.Build.Configuration)
	a.value("trace_suffix", cfg.Build.TraceSuffix)
	a.value("trace_logger", cfg.Build.TraceLogger)

	a.section("project")
	a.value("patterns", strings.Join(cfg.Project.Patterns, ", "))

	a.section("runtime")
	a.value("family", string(cfg.Runtime.Family))
	a.value("module_extension", cfg.Runtime.ModuleExtension)

	a.section("filter")
	a.value("enabled", fmt.Sprintf("%v", cfg.Filter.Enabled))
	a.value("accepted_frameworks", strings.Join(cfg.Filter.AcceptedFrameworks, ", "))

	a.section("framework")
	a.value("family", cfg.Framework.Family)
	a.value("component", cfg.Framework.Component)
	a.value("base_package", cfg.Framework.BasePackage)
	a.value("platform_suffix", cfg.Framework.PlatformSuffix)
	if len(cfg.Framework.Siblings) == 0 {
		fmt.Fprintf(a.stdout, "  siblings: %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		fmt.Fprintln(a.stdout, "  siblings:")
		for _, sib := range cfg.Framework.Siblings {
			fmt.Fprintf(a.stdout, "    - %s %s\n", SuccessStyle.Render(sib.Module), SubtitleStyle.Render("("+sib.Package+")"))
		}
	}

	a.section("server")
	a.value("host", cfg.Server.Host)
	a.value("port", fmt.Sprintf("%d", cfg.Server.Port))

	a.section("ui")
	a.value("verbose", fmt.Sprintf("%v", cfg.UI.Verbose))
	a.value("color_scheme", cfg.UI.ColorScheme.String())

	return nil
}

func (a *App) section(name string) {
	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", labelStyle.Render(name))
}

func (a *App) value(key, v string) {
	fmt.Fprintf(a.stdout, "  %s: %s\n", key, SuccessStyle.Render(v))
}

func (a *App) initConfig() error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultFilePath(""); err != nil {
			return err
		}
	}

	created, err := config.CreateDefaultConfig(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(a.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), PathStyle.Render(path))
		return nil
	}
	fmt.Fprintf(a.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), PathStyle.Render(path))
	return nil
}

func (a *App) showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	defaultPath, err := config.DefaultFilePath("")
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(a.stdout, "Config file: %s\n", defaultPath)

	active, err := a.Config.Locate(config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return err
	}
	if active == "" {
		active = "(none, using defaults)"
	}
	fmt.Fprintf(a.stdout, "Active file: %s\n", active)
	return nil
}
