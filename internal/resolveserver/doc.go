// SPDX-License-Identifier: MPL-2.0

// Package resolveserver serves a session's resolver over HTTP on localhost so
// that a host process running outside refbridge can ask where a module lives.
// Requests carry a bearer token handed to the host out of band, typically
// through the environment variables named by EnvAddr and EnvToken.
package resolveserver
