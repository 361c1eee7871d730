// SPDX-License-Identifier: MPL-2.0

package pathrewrite

import (
	"strconv"
	"strings"
)

// segments is a path split into its directory and file name parts.
type segments struct {
	parts []string
	sep   string
}

// split breaks p on '/' and '\'. Empty segments are kept so that joining
// restores leading separators and UNC prefixes.
func split(p string) segments {
	sep := "/"
	if strings.ContainsRune(p, '\\') {
		sep = `\`
	}
	return segments{parts: strings.Split(strings.ReplaceAll(p, `\`, "/"), "/"), sep: sep}
}

func (s segments) join() string {
	return strings.Join(s.parts, s.sep)
}

func (s segments) clone() segments {
	return segments{parts: append([]string(nil), s.parts...), sep: s.sep}
}

// index returns the first segment equal to name, or -1.
func (s segments) index(name string, fold bool) int {
	for i, part := range s.parts {
		if part == name || (fold && strings.EqualFold(part, name)) {
			return i
		}
	}
	return -1
}

// fromEnd returns the segment n positions before the end (1 is the file name).
func (s segments) fromEnd(n int) string {
	return s.parts[len(s.parts)-n]
}

func (s segments) setFromEnd(n int, v string) {
	s.parts[len(s.parts)-n] = v
}

// IsVersion reports whether s is a numeric version of two to four
// dot-separated components, each a non-negative 32-bit integer ("1.2",
// "6.0.0", "24.2.3.0").
func IsVersion(s string) bool {
	fields := strings.Split(s, ".")
	if len(fields) < 2 || len(fields) > 4 {
		return false
	}
	for _, f := range fields {
		if f == "" || strings.TrimLeft(f, "0123456789") != "" {
			return false
		}
		if _, err := strconv.ParseInt(f, 10, 32); err != nil {
			return false
		}
	}
	return true
}
