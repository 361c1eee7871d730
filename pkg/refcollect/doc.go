// SPDX-License-Identifier: MPL-2.0

// Package refcollect mines a build trace for the compiled modules a project
// references and for the path of the module the project itself produces.
//
// Four sources contribute candidates, in strict priority order: the outputs of
// the direct reference resolution target, the items added by lock-file
// reference resolution, the compile-time package assets, and every module in
// the project's output directory. Candidates are deduplicated by module name
// (case-insensitive, ignoring directory and extension) so that the first
// source to name a module wins, then rewritten to runtime-loadable paths.
package refcollect
