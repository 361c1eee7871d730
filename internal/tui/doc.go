// SPDX-License-Identifier: MPL-2.0

// Package tui provides the terminal progress surface of refbridge: a Bubble Tea
// spinner shown while a blocking step such as the project build runs.
//
// The spinner only animates when its output is a terminal and accessible mode
// is off. Otherwise the step runs without any rendering.
package tui
