// SPDX-License-Identifier: MPL-2.0

// Package buildtrace models a structured build log as an immutable tree.
//
// A Trace stores its nodes in a single arena. Nodes reference their parent,
// first child and next sibling by index, so traversal never follows pointers
// and a decoded trace holds no reference cycles. Node kinds form a closed set
// (see Kind); elements of the log that do not map to a known kind are kept as
// Folder containers so their descendants stay reachable.
//
// Traces are produced by Decode (the XML structured log written by the build)
// or by a Builder, and written back with Encode. Query locates nodes that
// belong to a given project and whose target framework is compatible with a
// runtime family.
package buildtrace
