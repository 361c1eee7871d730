// SPDX-License-Identifier: MPL-2.0

// Package testutil holds fixtures shared by refbridge tests: files on an
// afero.Fs, server cleanup, and the slot limit for container-backed
// integration tests.
package testutil
