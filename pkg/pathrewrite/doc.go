// SPDX-License-Identifier: MPL-2.0

// Package pathrewrite turns compile-time reference paths into paths a runtime
// can load.
//
// Package managers ship metadata-only "reference" modules next to the real
// implementation modules, and SDK reference packs mirror the shared runtime
// directory. The Rewriter applies three path-segment heuristics:
//
//   - RefToLib swaps a "ref" segment that follows a version segment for "lib".
//   - PacksToShared maps ".../packs/<Name>.Ref/<version>/..." to
//     ".../shared/<Name>/<version>/<file>".
//   - GuessSibling derives the path of another package of the same framework
//     release from a known-good candidate.
//
// Paths are split on both separators and rejoined with the separator they were
// written with, so a trace recorded on Windows rewrites the same way anywhere.
package pathrewrite
