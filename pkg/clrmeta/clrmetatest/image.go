// SPDX-License-Identifier: MPL-2.0

// Package clrmetatest synthesizes minimal managed PE images for tests.
package clrmetatest

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"path/filepath"

	"github.com/refbridge/refbridge/pkg/clrmeta"

	"github.com/spf13/afero"
)

const (
	peOffset      = 0x80
	fileAlignment = 0x200
	sectAlignment = 0x2000
	textRVA       = 0x2000
	cliHeaderSize = 72

	runtimeVersion = "v4.0.30319"

	tableModule          = 0x00
	tableTypeRef         = 0x01
	tableTypeDef         = 0x02
	tableMemberRef       = 0x0A
	tableCustomAttribute = 0x0C
	tableAssembly        = 0x20
	tableAssemblyRef     = 0x23
)

// Image describes a module to synthesize. The zero value yields an assembly
// named "Empty" with version 0.0.0.0.
type Image struct {
	AssemblyName      string
	Version           clrmeta.Version
	References        []clrmeta.AssemblyRef
	Types             []clrmeta.TypeName
	TargetFramework   string
	ReferenceAssembly bool
	// PE64 emits a PE32+ optional header.
	PE64 bool
	// NoMetadata emits a native image without a CLI header.
	NoMetadata bool
	// NoAssembly omits the Assembly table, as in a netmodule.
	NoAssembly bool
}

// Write stores the image at path on fs, creating parent directories.
func (img Image) Write(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, img.Bytes(), 0o644)
}

// Bytes renders the image.
func (img Image) Bytes() []byte {
	var text []byte
	dir := pe.DataDirectory{}
	if img.NoMetadata {
		text = make([]byte, 16)
	} else {
		md := img.metadata()
		text = binary.LittleEndian.AppendUint32(nil, cliHeaderSize)
		text = binary.LittleEndian.AppendUint16(text, 2)
		text = binary.LittleEndian.AppendUint16(text, 5)
		text = binary.LittleEndian.AppendUint32(text, textRVA+cliHeaderSize)
		text = binary.LittleEndian.AppendUint32(text, uint32(len(md)))
		text = binary.LittleEndian.AppendUint32(text, 1) // IL only
		text = append(text, make([]byte, cliHeaderSize-len(text))...)
		text = append(text, md...)
		dir = pe.DataDirectory{VirtualAddress: textRVA, Size: cliHeaderSize}
	}
	rawSize := alignTo(len(text), fileAlignment)
	imageSize := uint32(textRVA + alignTo(len(text), sectAlignment))

	var buf bytes.Buffer
	dos := make([]byte, peOffset)
	copy(dos, "MZ")
	binary.LittleEndian.PutUint32(dos[0x3C:], peOffset)
	buf.Write(dos)
	buf.WriteString("PE\x00\x00")

	fh := pe.FileHeader{
		Machine:          pe.IMAGE_FILE_MACHINE_I386,
		NumberOfSections: 1,
		Characteristics:  pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_32BIT_MACHINE | pe.IMAGE_FILE_DLL,
	}
	var oh any
	if img.PE64 {
		fh.Machine = pe.IMAGE_FILE_MACHINE_AMD64
		fh.Characteristics = pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_LARGE_ADDRESS_AWARE | pe.IMAGE_FILE_DLL
		fh.SizeOfOptionalHeader = uint16(binary.Size(pe.OptionalHeader64{}))
		o := &pe.OptionalHeader64{
			Magic:                       0x20b,
			SizeOfCode:                  uint32(rawSize),
			BaseOfCode:                  textRVA,
			ImageBase:                   0x180000000,
			SectionAlignment:            sectAlignment,
			FileAlignment:               fileAlignment,
			MajorOperatingSystemVersion: 4,
			MajorSubsystemVersion:       4,
			SizeOfImage:                 imageSize,
			SizeOfHeaders:               fileAlignment,
			Subsystem:                   pe.IMAGE_SUBSYSTEM_WINDOWS_CUI,
			SizeOfStackReserve:          0x400000,
			SizeOfStackCommit:           0x4000,
			SizeOfHeapReserve:           0x100000,
			SizeOfHeapCommit:            0x2000,
			NumberOfRvaAndSizes:         16,
		}
		o.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR] = dir
		oh = o
	} else {
		fh.SizeOfOptionalHeader = uint16(binary.Size(pe.OptionalHeader32{}))
		o := &pe.OptionalHeader32{
			Magic:                       0x10b,
			SizeOfCode:                  uint32(rawSize),
			BaseOfCode:                  textRVA,
			ImageBase:                   0x400000,
			SectionAlignment:            sectAlignment,
			FileAlignment:               fileAlignment,
			MajorOperatingSystemVersion: 4,
			MajorSubsystemVersion:       4,
			SizeOfImage:                 imageSize,
			SizeOfHeaders:               fileAlignment,
			Subsystem:                   pe.IMAGE_SUBSYSTEM_WINDOWS_CUI,
			SizeOfStackReserve:          0x100000,
			SizeOfStackCommit:           0x1000,
			SizeOfHeapReserve:           0x100000,
			SizeOfHeapCommit:            0x1000,
			NumberOfRvaAndSizes:         16,
		}
		o.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR] = dir
		oh = o
	}
	mustWrite(&buf, fh)
	mustWrite(&buf, oh)

	sh := pe.SectionHeader32{
		VirtualSize:      uint32(len(text)),
		VirtualAddress:   textRVA,
		SizeOfRawData:    uint32(rawSize),
		PointerToRawData: fileAlignment,
		Characteristics:  pe.IMAGE_SCN_CNT_CODE | pe.IMAGE_SCN_MEM_EXECUTE | pe.IMAGE_SCN_MEM_READ,
	}
	copy(sh.Name[:], ".text")
	mustWrite(&buf, sh)

	buf.Write(make([]byte, fileAlignment-buf.Len()))
	buf.Write(text)
	buf.Write(make([]byte, rawSize-len(text)))
	return buf.Bytes()
}

type attribute struct {
	namespace, name string
	signature       []byte
	value           []byte
}

// metadata renders the metadata root with its four streams.
func (img Image) metadata() []byte {
	h := newHeaps()
	name := img.AssemblyName
	if name == "" {
		name = "Empty"
	}

	var attrs []attribute
	if img.ReferenceAssembly {
		attrs = append(attrs, attribute{
			namespace: "System.Runtime.CompilerServices",
			name:      "ReferenceAssemblyAttribute",
			signature: []byte{0x20, 0x00, 0x01},
			value:     []byte{0x01, 0x00, 0x00, 0x00},
		})
	}
	if img.TargetFramework != "" {
		value := []byte{0x01, 0x00}
		value = appendCompressed(value, len(img.TargetFramework))
		value = append(value, img.TargetFramework...)
		value = append(value, 0x00, 0x00)
		attrs = append(attrs, attribute{
			namespace: "System.Runtime.Versioning",
			name:      "TargetFrameworkAttribute",
			signature: []byte{0x20, 0x01, 0x01, 0x0E},
			value:     value,
		})
	}

	var rows [0x2D][]byte
	rows[tableModule] = row(nil, u16(0), u16(h.str(name+".dll")), u16(1), u16(0), u16(0))

	for _, a := range attrs {
		rows[tableTypeRef] = row(rows[tableTypeRef], u16(1<<2), u16(h.str(a.name)), u16(h.str(a.namespace)))
	}
	for i, a := range attrs {
		class := uint32(i+1)<<3 | 1
		rows[tableMemberRef] = row(rows[tableMemberRef], u16(class), u16(h.str(".ctor")), u16(h.blob(a.signature)))
	}

	rows[tableTypeDef] = row(nil, u32(0), u16(h.str("<Module>")), u16(0), u16(0), u16(1), u16(1))
	for _, t := range img.Types {
		rows[tableTypeDef] = row(rows[tableTypeDef], u32(0x00100001), u16(h.str(t.Name)), u16(h.str(t.Namespace)), u16(0), u16(1), u16(1))
	}

	if !img.NoAssembly {
		for i, a := range attrs {
			parent := uint32(1)<<5 | 14
			ctor := uint32(i+1)<<3 | 3
			rows[tableCustomAttribute] = row(rows[tableCustomAttribute], u16(parent), u16(ctor), u16(h.blob(a.value)))
		}
		v := img.Version
		rows[tableAssembly] = row(nil, u32(0x8004), u16(uint32(v.Major)), u16(uint32(v.Minor)), u16(uint32(v.Build)), u16(uint32(v.Revision)),
			u32(0), u16(0), u16(h.str(name)), u16(0))
	}

	token := []byte{0xb0, 0x3f, 0x5f, 0x7f, 0x11, 0xd5, 0x0a, 0x3a}
	for _, ref := range img.References {
		v := ref.Version
		rows[tableAssemblyRef] = row(rows[tableAssemblyRef], u16(uint32(v.Major)), u16(uint32(v.Minor)), u16(uint32(v.Build)), u16(uint32(v.Revision)),
			u32(0), u16(h.blob(token)), u16(h.str(ref.Name)), u16(h.str(ref.Culture)), u16(0))
	}

	rowSizes := map[int]int{
		tableModule:          10,
		tableTypeRef:         6,
		tableTypeDef:         14,
		tableMemberRef:       6,
		tableCustomAttribute: 6,
		tableAssembly:        22,
		tableAssemblyRef:     20,
	}

	var valid uint64
	var counts, data []byte
	for id := range rows {
		if len(rows[id]) == 0 {
			continue
		}
		valid |= 1 << id
		counts = binary.LittleEndian.AppendUint32(counts, uint32(len(rows[id])/rowSizes[id]))
		data = append(data, rows[id]...)
	}
	tables := binary.LittleEndian.AppendUint32(nil, 0)
	tables = append(tables, 2, 0, 0, 1)
	tables = binary.LittleEndian.AppendUint64(tables, valid)
	tables = binary.LittleEndian.AppendUint64(tables, valid&0x000016003301FA00)
	tables = append(tables, counts...)
	tables = append(tables, data...)

	mvid := []byte{0x6b, 0x1e, 0x5a, 0x0c, 0x8f, 0x33, 0x4d, 0x1b, 0x9a, 0x70, 0x21, 0x5e, 0xc4, 0x42, 0x07, 0xd9}
	return metadataRoot([]stream{
		{"#~", tables},
		{"#Strings", h.strings.Bytes()},
		{"#GUID", mvid},
		{"#Blob", h.blobs.Bytes()},
	})
}

type stream struct {
	name string
	data []byte
}

func metadataRoot(streams []stream) []byte {
	version := make([]byte, alignTo(len(runtimeVersion)+1, 4))
	copy(version, runtimeVersion)

	headerLen := 16 + len(version) + 4
	for _, s := range streams {
		headerLen += 8 + alignTo(len(s.name)+1, 4)
	}

	out := binary.LittleEndian.AppendUint32(nil, 0x424A5342)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint32(out, 0)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(version)))
	out = append(out, version...)
	out = binary.LittleEndian.AppendUint16(out, 0)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(streams)))

	off := headerLen
	for _, s := range streams {
		size := alignTo(len(s.data), 4)
		out = binary.LittleEndian.AppendUint32(out, uint32(off))
		out = binary.LittleEndian.AppendUint32(out, uint32(size))
		name := make([]byte, alignTo(len(s.name)+1, 4))
		copy(name, s.name)
		out = append(out, name...)
		off += size
	}
	for _, s := range streams {
		out = append(out, s.data...)
		out = append(out, make([]byte, alignTo(len(s.data), 4)-len(s.data))...)
	}
	return out
}

type heaps struct {
	strings bytes.Buffer
	blobs   bytes.Buffer
	index   map[string]uint32
}

func newHeaps() *heaps {
	h := &heaps{index: map[string]uint32{}}
	h.strings.WriteByte(0)
	h.blobs.WriteByte(0)
	return h
}

func (h *heaps) str(s string) uint32 {
	if s == "" {
		return 0
	}
	if off, ok := h.index[s]; ok {
		return off
	}
	off := uint32(h.strings.Len())
	h.strings.WriteString(s)
	h.strings.WriteByte(0)
	h.index[s] = off
	checkNarrow(h.strings.Len())
	return off
}

func (h *heaps) blob(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	off := uint32(h.blobs.Len())
	h.blobs.Write(appendCompressed(nil, len(b)))
	h.blobs.Write(b)
	checkNarrow(h.blobs.Len())
	return off
}

// checkNarrow keeps heaps addressable with 2-byte indexes, which is the only
// layout the table rows above are written for.
func checkNarrow(n int) {
	if n > 0xFFFF {
		panic("clrmetatest: heap exceeds 64 KiB")
	}
}

type cell []byte

func u16(v uint32) cell { return binary.LittleEndian.AppendUint16(nil, uint16(v)) }
func u32(v uint32) cell { return binary.LittleEndian.AppendUint32(nil, v) }

func row(dst []byte, cells ...cell) []byte {
	for _, c := range cells {
		dst = append(dst, c...)
	}
	return dst
}

func appendCompressed(dst []byte, n int) []byte {
	switch {
	case n < 0x80:
		return append(dst, byte(n))
	case n < 0x4000:
		return append(dst, byte(n>>8)|0x80, byte(n))
	default:
		return append(dst, byte(n>>24)|0xC0, byte(n>>16), byte(n>>8), byte(n))
	}
}

func alignTo(n, a int) int {
	return (n + a - 1) / a * a
}

func mustWrite(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}
