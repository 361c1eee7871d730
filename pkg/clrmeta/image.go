// SPDX-License-Identifier: MPL-2.0

package clrmeta

import (
	"debug/pe"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

const (
	// dirCLIHeader is the data directory entry of the CLI header.
	dirCLIHeader = 14
	// cliHeaderSize is the size of IMAGE_COR20_HEADER.
	cliHeaderSize = 72
	// metadataSignature is "BSJB" read as a little-endian integer.
	metadataSignature = 0x424A5342
)

// image is the managed part of a PE file.
type image struct {
	runtimeVersion string
	tables         *tableStream
	heaps          heaps
}

// openImage locates and parses the metadata root of a managed PE image.
func openImage(r io.ReaderAt) (*image, error) {
	var magic [2]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil || magic != [2]byte{'M', 'Z'} {
		return nil, ErrNotPE
	}
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPE, err)
	}
	defer f.Close()

	var dir pe.DataDirectory
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes > dirCLIHeader {
			dir = oh.DataDirectory[dirCLIHeader]
		}
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes > dirCLIHeader {
			dir = oh.DataDirectory[dirCLIHeader]
		}
	}
	if dir.VirtualAddress == 0 || dir.Size < cliHeaderSize {
		return nil, ErrNoCLIHeader
	}

	header, err := readRVA(f, dir.VirtualAddress, cliHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCLIHeader, err)
	}
	mdRVA := binary.LittleEndian.Uint32(header[8:])
	mdSize := binary.LittleEndian.Uint32(header[12:])
	if mdRVA == 0 || mdSize == 0 {
		return nil, malformed("CLI header", "no metadata directory")
	}
	md, err := readRVA(f, mdRVA, mdSize)
	if err != nil {
		return nil, malformed("CLI header", "%v", err)
	}
	return parseMetadataRoot(md)
}

// readRVA reads size bytes at a relative virtual address.
func readRVA(f *pe.File, rva, size uint32) ([]byte, error) {
	for _, s := range f.Sections {
		extent := max(s.VirtualSize, s.Size)
		if rva < s.VirtualAddress || rva-s.VirtualAddress >= extent {
			continue
		}
		off := rva - s.VirtualAddress
		if uint64(off)+uint64(size) > uint64(s.Size) {
			return nil, fmt.Errorf("rva %#x+%d exceeds section %s", rva, size, s.Name)
		}
		buf := make([]byte, size)
		if _, err := s.ReadAt(buf, int64(off)); err != nil {
			return nil, fmt.Errorf("reading rva %#x: %w", rva, err)
		}
		return buf, nil
	}
	return nil, fmt.Errorf("rva %#x is not mapped by any section", rva)
}

// parseMetadataRoot decodes the metadata root and its stream headers.
func parseMetadataRoot(b []byte) (*image, error) {
	const fixed = 16
	if len(b) < fixed || binary.LittleEndian.Uint32(b) != metadataSignature {
		return nil, malformed("metadata root", "bad signature")
	}
	length := int(binary.LittleEndian.Uint32(b[12:]))
	if length < 0 || fixed+length+4 > len(b) {
		return nil, malformed("metadata root", "version length %d out of range", length)
	}
	img := &image{runtimeVersion: strings.TrimRight(string(b[fixed:fixed+length]), "\x00")}

	p := fixed + length
	streams := int(binary.LittleEndian.Uint16(b[p+2:]))
	p += 4

	var tables []byte
	for range streams {
		if p+8 > len(b) {
			return nil, malformed("metadata root", "stream headers truncated")
		}
		off := binary.LittleEndian.Uint32(b[p:])
		size := binary.LittleEndian.Uint32(b[p+4:])
		p += 8
		end := p
		for end < len(b) && b[end] != 0 {
			end++
		}
		if end >= len(b) {
			return nil, malformed("metadata root", "unterminated stream name")
		}
		name := string(b[p:end])
		p = align4(end + 1)
		if uint64(off)+uint64(size) > uint64(len(b)) {
			return nil, malformed("metadata root", "stream %s out of range", name)
		}
		data := b[off : off+size]

		switch name {
		case "#~", "#-":
			tables = data
		case "#Strings":
			img.heaps.strings = data
		case "#Blob":
			img.heaps.blob = data
		case "#GUID":
			img.heaps.guid = data
		}
	}
	if tables == nil {
		return nil, malformed("metadata root", "no table stream")
	}
	ts, err := parseTables(tables)
	if err != nil {
		return nil, err
	}
	img.tables = ts
	return img, nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}
