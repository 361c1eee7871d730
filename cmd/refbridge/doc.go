// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the refbridge command tree.
//
// Every command handler receives the App composition root, which loads the
// configuration once per invocation and wires the trace store, the module
// filter and the session pipeline from it.
package cmd
