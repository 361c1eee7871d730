// SPDX-License-Identifier: MPL-2.0

// Package buildrun invokes the external build tool that produces a project's
// trace log.
package buildrun
