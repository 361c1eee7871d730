// SPDX-License-Identifier: MPL-2.0

package buildtrace

import "strings"

type (
	// Property is a name/value pair recorded in a trace.
	Property struct {
		Name  string
		Value string
	}

	// PropertySet is a read-only view over the property children of a node.
	// The zero PropertySet is empty.
	PropertySet struct {
		folder Node
	}
)

// PropertiesOf wraps the property children of folder.
func PropertiesOf(folder Node) PropertySet {
	return PropertySet{folder: folder}
}

// IsEmpty reports whether the set has no backing folder.
func (s PropertySet) IsEmpty() bool { return s.folder.IsZero() }

// Get returns the value of the first property with the given name.
func (s PropertySet) Get(name string) (string, bool) {
	if s.folder.IsZero() {
		return "", false
	}
	for c := range s.folder.Children() {
		if c.Kind() == KindProperty && c.Name() == name {
			return c.Value(), true
		}
	}
	return "", false
}

// Value returns the value of the named property, or "" when absent.
func (s PropertySet) Value(name string) string {
	v, _ := s.Get(name)
	return v
}

// NonBlank returns the trimmed value of the named property if it has
// non-whitespace content.
func (s PropertySet) NonBlank(name string) (string, bool) {
	v, ok := s.Get(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// All returns every property in the set, in document order.
func (s PropertySet) All() []Property {
	if s.folder.IsZero() {
		return nil
	}
	var props []Property
	for c := range s.folder.Children() {
		if c.Kind() == KindProperty {
			props = append(props, Property{Name: c.Name(), Value: c.Value()})
		}
	}
	return props
}
