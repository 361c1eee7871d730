// SPDX-License-Identifier: MPL-2.0

// Package resolution answers "where is module X on disk?" for a dynamic
// loader.
//
// A Table holds the candidate module paths of one session in priority order.
// It grows through Add while the session is being assembled and becomes
// read-only once frozen. A Resolver serves lookups against a frozen table
// and loads the matching modules through a host-provided Loader, keeping one
// result per module name so repeated and recursive requests agree.
package resolution
