// SPDX-License-Identifier: MPL-2.0

package clrmeta

import (
	"encoding/binary"
)

// Metadata table numbers (ECMA-335 II.22).
const (
	tblModule                 tableID = 0x00
	tblTypeRef                tableID = 0x01
	tblTypeDef                tableID = 0x02
	tblFieldPtr               tableID = 0x03
	tblField                  tableID = 0x04
	tblMethodPtr              tableID = 0x05
	tblMethodDef              tableID = 0x06
	tblParamPtr               tableID = 0x07
	tblParam                  tableID = 0x08
	tblInterfaceImpl          tableID = 0x09
	tblMemberRef              tableID = 0x0A
	tblConstant               tableID = 0x0B
	tblCustomAttribute        tableID = 0x0C
	tblFieldMarshal           tableID = 0x0D
	tblDeclSecurity           tableID = 0x0E
	tblClassLayout            tableID = 0x0F
	tblFieldLayout            tableID = 0x10
	tblStandAloneSig          tableID = 0x11
	tblEventMap               tableID = 0x12
	tblEventPtr               tableID = 0x13
	tblEvent                  tableID = 0x14
	tblPropertyMap            tableID = 0x15
	tblPropertyPtr            tableID = 0x16
	tblProperty               tableID = 0x17
	tblMethodSemantics        tableID = 0x18
	tblMethodImpl             tableID = 0x19
	tblModuleRef              tableID = 0x1A
	tblTypeSpec               tableID = 0x1B
	tblImplMap                tableID = 0x1C
	tblFieldRVA               tableID = 0x1D
	tblEncLog                 tableID = 0x1E
	tblEncMap                 tableID = 0x1F
	tblAssembly               tableID = 0x20
	tblAssemblyProcessor      tableID = 0x21
	tblAssemblyOS             tableID = 0x22
	tblAssemblyRef            tableID = 0x23
	tblAssemblyRefProcessor   tableID = 0x24
	tblAssemblyRefOS          tableID = 0x25
	tblFile                   tableID = 0x26
	tblExportedType           tableID = 0x27
	tblManifestResource       tableID = 0x28
	tblNestedClass            tableID = 0x29
	tblGenericParam           tableID = 0x2A
	tblMethodSpec             tableID = 0x2B
	tblGenericParamConstraint tableID = 0x2C

	tableCount = 0x2D
	noTable    = tableID(0xFF)
)

// Coded index kinds (ECMA-335 II.24.2.6).
const (
	ciTypeDefOrRef codedKind = iota
	ciHasConstant
	ciHasCustomAttribute
	ciHasFieldMarshal
	ciHasDeclSecurity
	ciMemberRefParent
	ciHasSemantics
	ciMethodDefOrRef
	ciMemberForwarded
	ciImplementation
	ciCustomAttributeType
	ciResolutionScope
	ciTypeOrMethodDef
	codedKindCount
)

// Tags used when following coded indexes.
const (
	hasCustomAttributeAssembly = 14
	customAttributeMethodDef   = 2
	customAttributeMemberRef   = 3
	memberRefParentTypeDef     = 0
	memberRefParentTypeRef     = 1
)

// Heap size flags of the table stream header.
const (
	heapStringsWide = 0x01
	heapGUIDWide    = 0x02
	heapBlobWide    = 0x04
	heapExtraData   = 0x40
)

type (
	tableID   uint8
	codedKind uint8
	colKind   uint8

	column struct {
		kind colKind
		ref  uint8
	}

	codedIndex struct {
		tagBits uint
		tables  []tableID
	}

	// tableLayout locates one table inside the table stream.
	tableLayout struct {
		rows    uint32
		offset  int
		rowSize int
		colOff  []int
		colSize []int
	}

	// tableStream is the decoded "#~" (or "#-") stream.
	tableStream struct {
		data   []byte
		layout [tableCount]tableLayout
	}
)

const (
	colU16 colKind = iota
	colU32
	colString
	colGUID
	colBlob
	colTable
	colCoded
)

var codedIndexes = [codedKindCount]codedIndex{
	ciTypeDefOrRef:        {2, []tableID{tblTypeDef, tblTypeRef, tblTypeSpec}},
	ciHasConstant:         {2, []tableID{tblField, tblParam, tblProperty}},
	ciHasCustomAttribute:  {5, []tableID{tblMethodDef, tblField, tblTypeRef, tblTypeDef, tblParam, tblInterfaceImpl, tblMemberRef, tblModule, tblDeclSecurity, tblProperty, tblEvent, tblStandAloneSig, tblModuleRef, tblTypeSpec, tblAssembly, tblAssemblyRef, tblFile, tblExportedType, tblManifestResource, tblGenericParam, tblGenericParamConstraint, tblMethodSpec}},
	ciHasFieldMarshal:     {1, []tableID{tblField, tblParam}},
	ciHasDeclSecurity:     {2, []tableID{tblTypeDef, tblMethodDef, tblAssembly}},
	ciMemberRefParent:     {3, []tableID{tblTypeDef, tblTypeRef, tblModuleRef, tblMethodDef, tblTypeSpec}},
	ciHasSemantics:        {1, []tableID{tblEvent, tblProperty}},
	ciMethodDefOrRef:      {1, []tableID{tblMethodDef, tblMemberRef}},
	ciMemberForwarded:     {1, []tableID{tblField, tblMethodDef}},
	ciImplementation:      {2, []tableID{tblFile, tblAssemblyRef, tblExportedType}},
	ciCustomAttributeType: {3, []tableID{noTable, noTable, tblMethodDef, tblMemberRef, noTable}},
	ciResolutionScope:     {2, []tableID{tblModule, tblModuleRef, tblAssemblyRef, tblTypeRef}},
	ciTypeOrMethodDef:     {1, []tableID{tblTypeDef, tblMethodDef}},
}

func u16() column { return column{kind: colU16} }
func u32() column { return column{kind: colU32} }
func str() column { return column{kind: colString} }
func guid() column { return column{kind: colGUID} }
func blob() column { return column{kind: colBlob} }
func idx(t tableID) column { return column{kind: colTable, ref: uint8(t)} }
func coded(c codedKind) column { return column{kind: colCoded, ref: uint8(c)} }

// schema lists the columns of every table in declaration order.
var schema = [tableCount][]column{
	tblModule:                 {u16(), str(), guid(), guid(), guid()},
	tblTypeRef:                {coded(ciResolutionScope), str(), str()},
	tblTypeDef:                {u32(), str(), str(), coded(ciTypeDefOrRef), idx(tblField), idx(tblMethodDef)},
	tblFieldPtr:               {idx(tblField)},
	tblField:                  {u16(), str(), blob()},
	tblMethodPtr:              {idx(tblMethodDef)},
	tblMethodDef:              {u32(), u16(), u16(), str(), blob(), idx(tblParam)},
	tblParamPtr:               {idx(tblParam)},
	tblParam:                  {u16(), u16(), str()},
	tblInterfaceImpl:          {idx(tblTypeDef), coded(ciTypeDefOrRef)},
	tblMemberRef:              {coded(ciMemberRefParent), str(), blob()},
	tblConstant:               {u16(), coded(ciHasConstant), blob()},
	tblCustomAttribute:        {coded(ciHasCustomAttribute), coded(ciCustomAttributeType), blob()},
	tblFieldMarshal:           {coded(ciHasFieldMarshal), blob()},
	tblDeclSecurity:           {u16(), coded(ciHasDeclSecurity), blob()},
	tblClassLayout:            {u16(), u32(), idx(tblTypeDef)},
	tblFieldLayout:            {u32(), idx(tblField)},
	tblStandAloneSig:          {blob()},
	tblEventMap:               {idx(tblTypeDef), idx(tblEvent)},
	tblEventPtr:               {idx(tblEvent)},
	tblEvent:                  {u16(), str(), coded(ciTypeDefOrRef)},
	tblPropertyMap:            {idx(tblTypeDef), idx(tblProperty)},
	tblPropertyPtr:            {idx(tblProperty)},
	tblProperty:               {u16(), str(), blob()},
	tblMethodSemantics:        {u16(), idx(tblMethodDef), coded(ciHasSemantics)},
	tblMethodImpl:             {idx(tblTypeDef), coded(ciMethodDefOrRef), coded(ciMethodDefOrRef)},
	tblModuleRef:              {str()},
	tblTypeSpec:               {blob()},
	tblImplMap:                {u16(), coded(ciMemberForwarded), str(), idx(tblModuleRef)},
	tblFieldRVA:               {u32(), idx(tblField)},
	tblEncLog:                 {u32(), u32()},
	tblEncMap:                 {u32()},
	tblAssembly:               {u32(), u16(), u16(), u16(), u16(), u32(), blob(), str(), str()},
	tblAssemblyProcessor:      {u32()},
	tblAssemblyOS:             {u32(), u32(), u32()},
	tblAssemblyRef:            {u16(), u16(), u16(), u16(), u32(), blob(), str(), str(), blob()},
	tblAssemblyRefProcessor:   {u32(), idx(tblAssemblyRef)},
	tblAssemblyRefOS:          {u32(), u32(), u32(), idx(tblAssemblyRef)},
	tblFile:                   {u32(), str(), blob()},
	tblExportedType:           {u32(), u32(), str(), str(), coded(ciImplementation)},
	tblManifestResource:       {u32(), u32(), str(), coded(ciImplementation)},
	tblNestedClass:            {idx(tblTypeDef), idx(tblTypeDef)},
	tblGenericParam:           {u16(), u16(), coded(ciTypeOrMethodDef), str()},
	tblMethodSpec:             {coded(ciMethodDefOrRef), blob()},
	tblGenericParamConstraint: {idx(tblGenericParam), coded(ciTypeDefOrRef)},
}

// parseTables decodes the table stream header and computes the position of
// every table.
func parseTables(b []byte) (*tableStream, error) {
	const headerSize = 24
	if len(b) < headerSize {
		return nil, malformed("#~", "stream too short (%d bytes)", len(b))
	}
	heapSizes := b[6]
	valid := binary.LittleEndian.Uint64(b[8:])
	if valid>>tableCount != 0 {
		return nil, malformed("#~", "unknown tables present (valid mask %#x)", valid)
	}

	ts := &tableStream{data: b}
	p := headerSize
	for id := range tableCount {
		if valid&(1<<id) == 0 {
			continue
		}
		if p+4 > len(b) {
			return nil, malformed("#~", "row counts truncated")
		}
		ts.layout[id].rows = binary.LittleEndian.Uint32(b[p:])
		p += 4
	}
	if heapSizes&heapExtraData != 0 {
		p += 4
	}

	widths := heapWidths{
		str:  heapWidth(heapSizes&heapStringsWide != 0),
		guid: heapWidth(heapSizes&heapGUIDWide != 0),
		blob: heapWidth(heapSizes&heapBlobWide != 0),
	}
	for id := range tableCount {
		l := &ts.layout[id]
		cols := schema[id]
		l.colOff = make([]int, len(cols))
		l.colSize = make([]int, len(cols))
		for i, c := range cols {
			l.colOff[i] = l.rowSize
			l.colSize[i] = ts.columnSize(c, widths)
			l.rowSize += l.colSize[i]
		}
		l.offset = p
		size := uint64(l.rows) * uint64(l.rowSize)
		if uint64(p)+size > uint64(len(b)) {
			return nil, malformed("#~", "table %#02x exceeds stream (%d rows of %d bytes)", id, l.rows, l.rowSize)
		}
		p += int(size)
	}
	return ts, nil
}

type heapWidths struct {
	str, guid, blob int
}

func heapWidth(wide bool) int {
	if wide {
		return 4
	}
	return 2
}

func (ts *tableStream) columnSize(c column, w heapWidths) int {
	switch c.kind {
	case colU16:
		return 2
	case colU32:
		return 4
	case colString:
		return w.str
	case colGUID:
		return w.guid
	case colBlob:
		return w.blob
	case colTable:
		if ts.layout[c.ref].rows < 1<<16 {
			return 2
		}
		return 4
	default:
		ci := codedIndexes[c.ref]
		var most uint32
		for _, t := range ci.tables {
			if t != noTable {
				most = max(most, ts.layout[t].rows)
			}
		}
		if most < 1<<(16-ci.tagBits) {
			return 2
		}
		return 4
	}
}

// rows returns the row count of a table.
func (ts *tableStream) rows(id tableID) uint32 {
	return ts.layout[id].rows
}

// cell returns the value of a column of a 1-based row.
func (ts *tableStream) cell(id tableID, row uint32, col int) (uint32, error) {
	l := &ts.layout[id]
	if row == 0 || row > l.rows || col >= len(l.colOff) {
		return 0, malformed("#~", "row %d of table %#02x out of range", row, id)
	}
	p := l.offset + int(row-1)*l.rowSize + l.colOff[col]
	if l.colSize[col] == 2 {
		return uint32(binary.LittleEndian.Uint16(ts.data[p:])), nil
	}
	return binary.LittleEndian.Uint32(ts.data[p:]), nil
}

// decodeCoded splits a coded index value into its table and 1-based row.
func decodeCoded(kind codedKind, v uint32) (tableID, uint32) {
	ci := codedIndexes[kind]
	tag := v & (1<<ci.tagBits - 1)
	if int(tag) >= len(ci.tables) {
		return noTable, 0
	}
	return ci.tables[tag], v >> ci.tagBits
}
