// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown guidance
// for the failures a user can fix: a missing project, a failed build, an
// unreadable trace, an undetectable framework release and resolution misses.
package issue
