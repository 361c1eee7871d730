// SPDX-License-Identifier: MPL-2.0

// Package report describes an assembled session for people and tools.
//
// A Report is a flat snapshot of a session: the project and its output, the
// trace that was used, what every reference source offered, which
// candidates the filter dropped, the platform siblings and the final
// resolution table. It is rendered as text or encoded as JSON, YAML, TOML
// or CUE, and the structured encodings can be read back with Decode.
package report
