// SPDX-License-Identifier: MPL-2.0

// Package tracestore obtains the build trace of a project, reusing the trace
// log cached next to the project file while it is at least as recent as the
// project's output module and running a fresh build otherwise.
package tracestore
