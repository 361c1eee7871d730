// SPDX-License-Identifier: MPL-2.0

package clrmeta

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

const (
	// ReferenceAssemblyAttribute marks metadata-only reference assemblies.
	ReferenceAssemblyAttribute = "System.Runtime.CompilerServices.ReferenceAssemblyAttribute"
	// TargetFrameworkAttribute records the framework a module was built for.
	TargetFrameworkAttribute = "System.Runtime.Versioning.TargetFrameworkAttribute"

	moduleTypeName = "<Module>"
)

type (
	// Version is a four-part assembly version.
	Version struct {
		Major, Minor, Build, Revision uint16
	}

	// AssemblyRef is an assembly referenced by a module.
	AssemblyRef struct {
		Name    string
		Version Version
		Culture string
	}

	// TypeName is the namespace-qualified name of a declared type.
	TypeName struct {
		Namespace string
		Name      string
	}

	// Module is the metadata of one managed module.
	Module struct {
		// Name is the assembly name.
		Name string
		// Version is the assembly version.
		Version Version
		// Culture is empty for neutral assemblies.
		Culture string
		// ModuleName is the file name recorded in the Module table.
		ModuleName string
		// MVID is the module version identifier.
		MVID [16]byte
		// RuntimeVersion is the metadata version string, e.g. "v4.0.30319".
		RuntimeVersion string
		// References lists the referenced assemblies in table order.
		References []AssemblyRef
		// Types lists the declared types, without the "<Module>" pseudo type.
		Types []TypeName
		// TargetFramework is the argument of TargetFrameworkAttribute, if any.
		TargetFramework string
		// IsReferenceAssembly is true when ReferenceAssemblyAttribute is applied.
		IsReferenceAssembly bool
		// DetailErr is set when the module row, references or types could
		// not be fully decoded. The identity fields above are still valid.
		DetailErr error
	}
)

// String returns the version in dotted form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
}

// String returns the full type name.
func (t TypeName) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Read decodes the metadata of the module read from r.
func Read(r io.ReaderAt) (*Module, error) {
	img, err := openImage(r)
	if err != nil {
		return nil, err
	}
	return img.module()
}

// ReadBytes decodes the metadata of an in-memory module image.
func ReadBytes(b []byte) (*Module, error) {
	return Read(bytes.NewReader(b))
}

// ReadFile decodes the metadata of the module at path on fs. A nil fs means
// the host filesystem.
func ReadFile(fs afero.Fs, path string) (*Module, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (img *image) module() (*Module, error) {
	if img.tables.rows(tblAssembly) == 0 {
		return nil, ErrNoAssembly
	}
	m := &Module{RuntimeVersion: img.runtimeVersion}
	if err := img.identity(m); err != nil {
		return nil, err
	}
	m.DetailErr = img.details(m)
	return m, nil
}

// identity reads the assembly row and the assembly-level attributes, the
// only metadata a load decision depends on.
func (img *image) identity(m *Module) error {
	var err error
	if m.Version, err = img.version(tblAssembly, 1, 1); err != nil {
		return err
	}
	if m.Name, err = img.stringCell(tblAssembly, 1, 7); err != nil {
		return err
	}
	if m.Culture, err = img.stringCell(tblAssembly, 1, 8); err != nil {
		return err
	}
	return img.assemblyAttributes(m)
}

// details reads the module row, the references and the declared types. It
// keeps what it decoded before the first failure.
func (img *image) details(m *Module) error {
	ts := img.tables
	if ts.rows(tblModule) > 0 {
		name, err := img.stringCell(tblModule, 1, 1)
		if err != nil {
			return err
		}
		m.ModuleName = name
		gi, err := ts.cell(tblModule, 1, 2)
		if err != nil {
			return err
		}
		g, err := img.heaps.guidAt(gi)
		if err != nil {
			return err
		}
		copy(m.MVID[:], g)
	}

	for row := uint32(1); row <= ts.rows(tblAssemblyRef); row++ {
		var ref AssemblyRef
		var err error
		if ref.Version, err = img.version(tblAssemblyRef, row, 0); err != nil {
			return err
		}
		if ref.Name, err = img.stringCell(tblAssemblyRef, row, 6); err != nil {
			return err
		}
		if ref.Culture, err = img.stringCell(tblAssemblyRef, row, 7); err != nil {
			return err
		}
		m.References = append(m.References, ref)
	}

	for row := uint32(1); row <= ts.rows(tblTypeDef); row++ {
		t, err := img.typeName(tblTypeDef, row)
		if err != nil {
			return err
		}
		if t.Name == moduleTypeName && t.Namespace == "" {
			continue
		}
		m.Types = append(m.Types, t)
	}
	return nil
}

// assemblyAttributes scans the custom attributes applied to the assembly.
func (img *image) assemblyAttributes(m *Module) error {
	ts := img.tables
	for row := uint32(1); row <= ts.rows(tblCustomAttribute); row++ {
		parent, err := ts.cell(tblCustomAttribute, row, 0)
		if err != nil {
			return err
		}
		if table, _ := decodeCoded(ciHasCustomAttribute, parent); table != tblAssembly {
			continue
		}
		ctor, err := ts.cell(tblCustomAttribute, row, 1)
		if err != nil {
			return err
		}
		attr, err := img.attributeType(ctor)
		if err != nil {
			// Attributes whose type cannot be decoded are skipped.
			continue
		}

		switch attr.String() {
		case ReferenceAssemblyAttribute:
			m.IsReferenceAssembly = true
		case TargetFrameworkAttribute:
			vi, err := ts.cell(tblCustomAttribute, row, 2)
			if err != nil {
				return err
			}
			value, err := img.heaps.blobAt(vi)
			if err != nil {
				return err
			}
			if s, ok := attributeString(value); ok {
				m.TargetFramework = s
			}
		}
	}
	return nil
}

// attributeType resolves the type declaring an attribute constructor.
func (img *image) attributeType(ctor uint32) (TypeName, error) {
	table, row := decodeCoded(ciCustomAttributeType, ctor)
	switch table {
	case tblMemberRef:
		class, err := img.tables.cell(tblMemberRef, row, 0)
		if err != nil {
			return TypeName{}, err
		}
		switch parent, prow := decodeCoded(ciMemberRefParent, class); parent {
		case tblTypeRef, tblTypeDef:
			return img.typeName(parent, prow)
		default:
			return TypeName{}, nil
		}
	case tblMethodDef:
		return img.methodOwner(row)
	default:
		return TypeName{}, malformed("#~", "attribute constructor %#x has no valid table", ctor)
	}
}

// methodOwner finds the type whose method list contains a method row.
func (img *image) methodOwner(method uint32) (TypeName, error) {
	ts := img.tables
	var owner uint32
	for row := uint32(1); row <= ts.rows(tblTypeDef); row++ {
		first, err := ts.cell(tblTypeDef, row, 5)
		if err != nil {
			return TypeName{}, err
		}
		if first > method {
			break
		}
		owner = row
	}
	if owner == 0 {
		return TypeName{}, malformed("#~", "method %d has no owner", method)
	}
	return img.typeName(tblTypeDef, owner)
}

// typeName reads the name and namespace of a TypeDef or TypeRef row.
func (img *image) typeName(table tableID, row uint32) (TypeName, error) {
	nameCol, nsCol := 1, 2
	var t TypeName
	var err error
	if t.Name, err = img.stringCell(table, row, nameCol); err != nil {
		return TypeName{}, err
	}
	if t.Namespace, err = img.stringCell(table, row, nsCol); err != nil {
		return TypeName{}, err
	}
	return t, nil
}

func (img *image) stringCell(table tableID, row uint32, col int) (string, error) {
	off, err := img.tables.cell(table, row, col)
	if err != nil {
		return "", err
	}
	return img.heaps.str(off)
}

// version reads four consecutive 16-bit version columns starting at col.
func (img *image) version(table tableID, row uint32, col int) (Version, error) {
	var parts [4]uint16
	for i := range parts {
		v, err := img.tables.cell(table, row, col+i)
		if err != nil {
			return Version{}, err
		}
		parts[i] = uint16(v)
	}
	return Version{Major: parts[0], Minor: parts[1], Build: parts[2], Revision: parts[3]}, nil
}
