// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/refbridge/refbridge/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed report_schema.cue
var reportSchema []byte

// Encode writes r to w in the structured format f. Text goes through
// WriteText.
func Encode(w io.Writer, r *Report, f Format) error {
	if err := f.Validate(); err != nil {
		return err
	}

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(r); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	case FormatCUE:
		data, err := cueutil.Encode(r)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return WriteText(w, r, PlainTextStyles())
	}
}

// Marshal returns r encoded in format f.
func Marshal(r *Report, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, r, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a report encoded in a structured format. CUE documents are
// checked against the report schema.
func Decode(data []byte, f Format) (*Report, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var r Report
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode json report: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode yaml report: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode toml report: %w", err)
		}
	case FormatCUE:
		res, err := cueutil.ParseAndDecode[Report](reportSchema, data, "#Report", cueutil.WithFilename("report.cue"))
		if err != nil {
			return nil, err
		}
		r = *res.Value
	default:
		return nil, fmt.Errorf("%w: %s reports cannot be decoded", ErrInvalidFormat, f)
	}
	return &r, nil
}
