// SPDX-License-Identifier: MPL-2.0

// Package clrmeta reads the managed metadata of portable executable modules:
// the assembly definition, referenced assemblies, declared types and the
// assembly-level attributes that mark reference assemblies and target
// frameworks. It also decides which modules are usable at runtime (see Filter).
//
// Only the tables needed for those answers are decoded, but the size of every
// table is computed so that any module produced by a conforming compiler can
// be navigated.
package clrmeta
