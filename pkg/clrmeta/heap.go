// SPDX-License-Identifier: MPL-2.0

package clrmeta

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// heaps holds the string, blob and GUID heaps of a metadata root.
type heaps struct {
	strings []byte
	blob    []byte
	guid    []byte
}

// str returns the null-terminated string at off in the "#Strings" heap.
func (h *heaps) str(off uint32) (string, error) {
	if off == 0 {
		return "", nil
	}
	if uint64(off) >= uint64(len(h.strings)) {
		return "", malformed("#Strings", "offset %d out of range", off)
	}
	rest := h.strings[off:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", malformed("#Strings", "unterminated string at %d", off)
	}
	// Obfuscators emit names that are not UTF-8.
	return strings.ToValidUTF8(string(rest[:end]), string(utf8.RuneError)), nil
}

// blobAt returns the length-prefixed blob at off in the "#Blob" heap.
func (h *heaps) blobAt(off uint32) ([]byte, error) {
	if off == 0 {
		return nil, nil
	}
	if uint64(off) >= uint64(len(h.blob)) {
		return nil, malformed("#Blob", "offset %d out of range", off)
	}
	rest := h.blob[off:]
	n, size, ok := compressedUint(rest)
	if !ok || uint64(size)+uint64(n) > uint64(len(rest)) {
		return nil, malformed("#Blob", "bad length at %d", off)
	}
	return rest[size : size+int(n)], nil
}

// compressedUint decodes an ECMA-335 compressed unsigned integer and returns
// the value and the number of bytes consumed.
func compressedUint(b []byte) (value uint32, size int, ok bool) {
	if len(b) == 0 {
		return 0, 0, false
	}
	switch {
	case b[0]&0x80 == 0:
		return uint32(b[0]), 1, true
	case b[0]&0xC0 == 0x80:
		if len(b) < 2 {
			return 0, 0, false
		}
		return uint32(b[0]&0x3F)<<8 | uint32(b[1]), 2, true
	case b[0]&0xE0 == 0xC0:
		if len(b) < 4 {
			return 0, 0, false
		}
		return uint32(b[0]&0x1F)<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), 4, true
	default:
		return 0, 0, false
	}
}

// attributeString decodes the first fixed argument of a custom attribute value
// as a string. A null string yields "".
func attributeString(value []byte) (string, bool) {
	const prolog = 0x0001
	if len(value) < 3 || uint16(value[0])|uint16(value[1])<<8 != prolog {
		return "", false
	}
	rest := value[2:]
	if rest[0] == 0xFF {
		return "", true
	}
	n, size, ok := compressedUint(rest)
	if !ok || uint64(size)+uint64(n) > uint64(len(rest)) {
		return "", false
	}
	return string(rest[size : size+int(n)]), true
}

// guidAt returns the 1-based GUID at index i of the "#GUID" heap.
func (h *heaps) guidAt(i uint32) ([]byte, error) {
	if i == 0 {
		return nil, nil
	}
	end := uint64(i) * 16
	if end > uint64(len(h.guid)) {
		return nil, malformed("#GUID", "index %d out of range", i)
	}
	return h.guid[end-16 : end], nil
}
