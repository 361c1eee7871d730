// SPDX-License-Identifier: MPL-2.0

// Package session assembles the resolution table of a project: it obtains
// the build trace, collects and filters the reference candidates, detects
// the framework release the project builds against, adds the platform
// sibling modules of that release and hands out a resolver over the result.
package session
