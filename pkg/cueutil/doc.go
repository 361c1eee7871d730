// SPDX-License-Identifier: MPL-2.0

// Package cueutil reads and writes CUE documents checked against an embedded
// schema.
//
// Decoding follows three steps:
//
//  1. Compile the embedded schema
//  2. Compile the document and unify it with the schema definition
//  3. Validate and decode into a Go value
//
// # Usage
//
//	//go:embed report_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[Report](
//	    schemaBytes,
//	    data,
//	    "#Report",
//	    cueutil.WithFilename("report.cue"),
//	)
//	if err != nil {
//	    return nil, err // carries the CUE path of the offending field
//	}
//	return result.Value, nil
//
// Encode goes the other way and renders a Go value as formatted CUE, using
// the json struct tags for field names.
package cueutil
