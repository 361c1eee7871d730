// SPDX-License-Identifier: MPL-2.0

// Package config handles refbridge configuration using Viper with CUE as the
// file format.
//
// Configuration is loaded from ~/.config/refbridge/config.cue (or the
// XDG_CONFIG_HOME equivalent on Linux, ~/Library/Application
// Support/refbridge/config.cue on macOS, %APPDATA%\refbridge\config.cue on
// Windows), then ./config.cue, or from an explicit path. Files are validated
// against the embedded CUE schema (config_schema.cue) before they are merged
// over the defaults. REFBRIDGE_ environment variables override both, e.g.
// REFBRIDGE_BUILD_CONFIGURATION=Release.
package config
