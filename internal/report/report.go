// SPDX-License-Identifier: MPL-2.0

package report

import (
	"errors"
	"fmt"

	"github.com/refbridge/refbridge/internal/session"
	"github.com/refbridge/refbridge/pkg/refcollect"
	"github.com/refbridge/refbridge/pkg/resolution"
)

// Report formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCUE  Format = "cue"
)

// ErrInvalidFormat is returned for an unknown report format.
var ErrInvalidFormat = errors.New("invalid report format")

type (
	// Format selects a report encoding.
	Format string

	// InvalidFormatError names the rejected format.
	InvalidFormatError struct {
		Value Format
	}

	// SourceCount summarizes one reference source.
	SourceCount struct {
		Source string `json:"source" yaml:"source" toml:"source"`
		// Offered counts the paths the source listed.
		Offered int `json:"offered" yaml:"offered" toml:"offered"`
		// Candidates counts the paths that survived deduplication.
		Candidates int `json:"candidates" yaml:"candidates" toml:"candidates"`
		// Kept counts the candidates the filter let through.
		Kept int `json:"kept" yaml:"kept" toml:"kept"`
	}

	// Candidate is a collected reference.
	Candidate struct {
		Path     string `json:"path" yaml:"path" toml:"path"`
		Original string `json:"original" yaml:"original" toml:"original"`
		Source   string `json:"source" yaml:"source" toml:"source"`
	}

	// Ignored is a candidate the filter dropped.
	Ignored struct {
		Path   string `json:"path" yaml:"path" toml:"path"`
		Source string `json:"source" yaml:"source" toml:"source"`
		Reason string `json:"reason" yaml:"reason" toml:"reason"`
		Error  string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	}

	// Report is the snapshot of a session.
	Report struct {
		Project       string                  `json:"project" yaml:"project" toml:"project"`
		ProjectOutput string                  `json:"project_output" yaml:"project_output" toml:"project_output"`
		TraceLog      string                  `json:"trace_log" yaml:"trace_log" toml:"trace_log"`
		TraceCached   bool                    `json:"trace_cached" yaml:"trace_cached" toml:"trace_cached"`
		Version       string                  `json:"version" yaml:"version" toml:"version"`
		Sources       []SourceCount           `json:"sources" yaml:"sources" toml:"sources"`
		Candidates    []Candidate             `json:"candidates" yaml:"candidates" toml:"candidates"`
		Ignored       []Ignored               `json:"ignored,omitempty" yaml:"ignored,omitempty" toml:"ignored,omitempty"`
		Siblings      []session.SiblingResult `json:"siblings,omitempty" yaml:"siblings,omitempty" toml:"siblings,omitempty"`
		Table         []resolution.Entry      `json:"table" yaml:"table" toml:"table"`
	}
)

// Formats returns the supported formats, text first.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatTOML, FormatCUE}
}

// String returns the format name.
func (f Format) String() string { return string(f) }

// Validate returns an error wrapping ErrInvalidFormat for unknown formats.
func (f Format) Validate() error {
	switch f {
	case FormatText, FormatJSON, FormatYAML, FormatTOML, FormatCUE:
		return nil
	default:
		return &InvalidFormatError{Value: f}
	}
}

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("%s %q (valid: text, json, yaml, toml, cue)", ErrInvalidFormat, string(e.Value))
}

// Unwrap returns ErrInvalidFormat for errors.Is() compatibility.
func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// New builds the report of an assembled session.
func New(s *session.Session) *Report {
	r := &Report{
		Project:    s.ProjectPath,
		Version:    s.Version,
		Sources:    make([]SourceCount, refcollect.SourceCount),
		Candidates: make([]Candidate, 0),
		Siblings:   s.Siblings,
		Table:      s.Table.Entries(),
	}
	if s.Trace != nil {
		r.TraceLog = s.Trace.LogPath
		r.TraceCached = s.Trace.Cached
	}

	for i := range r.Sources {
		r.Sources[i].Source = refcollect.Source(i).String()
	}
	if s.Collection != nil {
		r.ProjectOutput = s.Collection.ProjectOutput
		for i, n := range s.Collection.Contributed {
			r.Sources[i].Offered = n
		}
		for _, c := range s.Collection.Candidates {
			r.Sources[c.Source].Candidates++
			r.Candidates = append(r.Candidates, Candidate{
				Path:     c.Path,
				Original: c.Original,
				Source:   c.Source.String(),
			})
		}
	}
	for _, c := range s.Kept {
		r.Sources[c.Source].Kept++
	}

	for _, ig := range s.Ignored {
		entry := Ignored{
			Path:   ig.Candidate.Path,
			Source: ig.Candidate.Source.String(),
			Reason: ig.Reason.String(),
		}
		if ig.Err != nil {
			entry.Error = ig.Err.Error()
		}
		r.Ignored = append(r.Ignored, entry)
	}
	return r
}

// Added returns the sibling modules that were added to the table.
func (r *Report) Added() []session.SiblingResult {
	var added []session.SiblingResult
	for _, s := range r.Siblings {
		if s.Added {
			added = append(added, s)
		}
	}
	return added
}
