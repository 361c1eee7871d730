// SPDX-License-Identifier: MPL-2.0

package resolution

import "strings"

// DisplayName is a parsed module display name such as
// "Foo.Core, Version=1.2.0.0, Culture=neutral, PublicKeyToken=null".
type DisplayName struct {
	Name           string
	Version        string
	Culture        string
	PublicKeyToken string
}

// ParseDisplayName splits a display name into its simple name and the
// well-known attributes. Unknown attributes are ignored.
func ParseDisplayName(s string) DisplayName {
	parts := strings.Split(s, ",")
	d := DisplayName{Name: strings.TrimSpace(parts[0])}
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "version":
			d.Version = value
		case "culture":
			d.Culture = value
		case "publickeytoken":
			d.PublicKeyToken = value
		}
	}
	return d
}

// SimpleName returns the simple name of a display name.
func SimpleName(s string) string {
	return ParseDisplayName(s).Name
}

// key is the case-insensitive lookup key of a module name.
func key(name string) string {
	return strings.ToLower(name)
}
