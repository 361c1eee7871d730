// SPDX-License-Identifier: MPL-2.0

package buildtrace

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	attrName        = "Name"
	attrText        = "Text"
	attrInclude     = "Include"
	attrValue       = "Value"
	attrProjectFile = "ProjectFile"
	attrSucceeded   = "Succeeded"
	attrStartTime   = "StartTime"
	attrEndTime     = "EndTime"
)

var (
	// ErrUnsupportedTraceFormat is returned when the log is not an XML structured log.
	ErrUnsupportedTraceFormat = errors.New("unsupported trace format")
	// ErrMalformedTrace is returned when the XML structured log cannot be decoded.
	ErrMalformedTrace = errors.New("malformed trace")
)

type decodeFrame struct {
	id       NodeID
	kind     Kind
	hasValue bool
	hasName  bool
	text     strings.Builder
}

// Decode reads an XML structured build log.
//
// The root element must be Build. Child elements are named after node kinds;
// elements with unknown names become folders named after the element. Node
// names come from the Name attribute. Item text comes from the Text or
// Include attribute, property and metadata values from the Value attribute,
// project paths from the ProjectFile attribute, and in every case the
// element's character data is used when the attribute is absent.
func Decode(r io.Reader) (*Trace, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(2); err == nil && head[0] == 0x1f && head[1] == 0x8b {
		return nil, fmt.Errorf("%w: compressed binary log, expected an XML structured log", ErrUnsupportedTraceFormat)
	}

	dec := xml.NewDecoder(br)
	var (
		b     *Builder
		stack []*decodeFrame
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedTrace, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if b == nil {
				if t.Name.Local != KindBuild.String() {
					return nil, fmt.Errorf("%w: root element is %q, expected %q", ErrMalformedTrace, t.Name.Local, KindBuild)
				}
				b, err = newRootBuilder(t)
				if err != nil {
					return nil, err
				}
				stack = append(stack, &decodeFrame{id: b.Root(), kind: KindBuild, hasName: true, hasValue: true})
				continue
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: content after the root element", ErrMalformedTrace)
			}
			stack = append(stack, addElement(b, stack[len(stack)-1].id, t))
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if !top.hasValue || !top.hasName {
					top.text.Write(t)
				}
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unbalanced element %q", ErrMalformedTrace, t.Name.Local)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			finishElement(b, top)
		}
	}

	if b == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedTrace)
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: unexpected end of log", ErrMalformedTrace)
	}
	return b.Build(), nil
}

func newRootBuilder(start xml.StartElement) (*Builder, error) {
	b := NewBuilder()
	if v, ok := attr(start, attrSucceeded); ok {
		succeeded, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %s attribute: %w", ErrMalformedTrace, attrSucceeded, err)
		}
		b.SetSucceeded(succeeded)
	}
	var start0, end time.Time
	for _, ts := range []struct {
		name string
		dst  *time.Time
	}{{attrStartTime, &start0}, {attrEndTime, &end}} {
		v, ok := attr(start, ts.name)
		if !ok {
			continue
		}
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s attribute: %w", ErrMalformedTrace, ts.name, err)
		}
		*ts.dst = parsed
	}
	b.SetTimes(start0, end)
	return b, nil
}

func addElement(b *Builder, parent NodeID, start xml.StartElement) *decodeFrame {
	kind, known := ParseKind(start.Name.Local)
	name, hasName := attr(start, attrName)
	if !hasName && (!known || start.Name.Local != kind.String()) {
		name, hasName = start.Name.Local, true
	}

	var (
		value    string
		hasValue bool
	)
	switch kind {
	case KindItem:
		if value, hasValue = attr(start, attrText); !hasValue {
			value, hasValue = attr(start, attrInclude)
		}
		if !hasName && hasValue {
			name, hasName = value, true
		}
	case KindProperty, KindMetadata:
		value, hasValue = attr(start, attrValue)
	case KindProject, KindProjectEvaluation:
		value, hasValue = attr(start, attrProjectFile)
		if !hasName && hasValue {
			name, hasName = fileName(value), true
		}
	case KindMessage, KindWarning, KindError:
		value, hasValue = attr(start, attrText)
	default:
		hasValue = true
	}

	id := b.Add(parent, kind, name, value)
	return &decodeFrame{id: id, kind: kind, hasValue: hasValue, hasName: hasName}
}

// finishElement fills in a value or name that was carried as character data.
func finishElement(b *Builder, f *decodeFrame) {
	if f.hasValue && f.hasName {
		return
	}
	text := strings.TrimSpace(f.text.String())
	n := &b.t.nodes[f.id]
	if !f.hasValue && f.kind.hasValue() {
		n.value = text
	}
	if !f.hasName && (f.kind == KindItem || f.kind == KindProject || f.kind == KindProjectEvaluation) {
		n.name = n.value
		if f.kind != KindItem {
			n.name = fileName(n.value)
		}
	}
}

func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// fileName returns the last segment of a path written with either separator.
func fileName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Encode writes t as an XML structured build log that Decode reads back.
func Encode(w io.Writer, t *Trace) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: KindBuild.String()},
		Attr: []xml.Attr{{Name: xml.Name{Local: attrSucceeded}, Value: strconv.FormatBool(t.succeeded)}},
	}
	if !t.startTime.IsZero() {
		root.Attr = append(root.Attr, xml.Attr{Name: xml.Name{Local: attrStartTime}, Value: t.startTime.Format(time.RFC3339Nano)})
	}
	if !t.endTime.IsZero() {
		root.Attr = append(root.Attr, xml.Attr{Name: xml.Name{Local: attrEndTime}, Value: t.endTime.Format(time.RFC3339Nano)})
	}

	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for c := range t.Root().Children() {
		if err := encodeNode(enc, c); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	return enc.Flush()
}

func encodeNode(enc *xml.Encoder, n Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Kind().String()}}
	if n.Kind() != KindItem {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attrName}, Value: n.Name()})
	}
	switch n.Kind() {
	case KindItem, KindMessage, KindWarning, KindError:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attrText}, Value: n.Value()})
	case KindProperty, KindMetadata:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attrValue}, Value: n.Value()})
	case KindProject, KindProjectEvaluation:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attrProjectFile}, Value: n.Value()})
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for c := range n.Children() {
		if err := encodeNode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
