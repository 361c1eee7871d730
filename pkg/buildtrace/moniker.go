// SPDX-License-Identifier: MPL-2.0

package buildtrace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// FamilyModern is the cross-platform runtime (framework major version above 4).
	FamilyModern RuntimeFamily = "modern"
	// FamilyLegacy is the desktop-only framework (major version 4).
	FamilyLegacy RuntimeFamily = "legacy"

	// PropTargetFramework is the explicit target framework moniker property.
	PropTargetFramework = "TargetFramework"
	// PropTargetFrameworkIdentifier is the framework identifier property used
	// when no explicit moniker is set.
	PropTargetFrameworkIdentifier = "TargetFrameworkIdentifier"

	legacyIdentifier = ".NETFramework"
	legacyMoniker    = Moniker("net48")
	legacyMajor      = 4
)

// ErrInvalidRuntimeFamily is the sentinel error wrapped by InvalidRuntimeFamilyError.
var ErrInvalidRuntimeFamily = errors.New("invalid runtime family")

type (
	// Moniker is a target framework moniker such as "net8.0" or "net48".
	Moniker string

	// RuntimeFamily selects which framework monikers a query accepts.
	RuntimeFamily string

	// InvalidRuntimeFamilyError is returned when a RuntimeFamily value is not recognized.
	// It wraps ErrInvalidRuntimeFamily for errors.Is() compatibility.
	InvalidRuntimeFamilyError struct {
		Value RuntimeFamily
	}
)

// String returns the moniker text.
func (m Moniker) String() string { return string(m) }

// Major returns the framework major version encoded in the moniker.
//
// "net8.0", "net10.0-windows" and similar dotted forms are parsed as versions.
// The dotless legacy forms ("net48", "net472") carry the major version in
// their first digit. Any other moniker, including "netcoreapp3.1" and
// "netstandard2.0", has major version 0.
func (m Moniker) Major() int {
	s := strings.ToLower(strings.TrimSpace(string(m)))
	rest, ok := strings.CutPrefix(s, "net")
	if !ok {
		return 0
	}
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" || rest[0] < '0' || rest[0] > '9' {
		return 0
	}
	if !strings.Contains(rest, ".") {
		return int(rest[0] - '0')
	}
	v, err := semver.NewVersion(rest)
	if err != nil {
		return 0
	}
	return int(v.Major())
}

// IsModern reports whether the moniker names a framework of the modern family.
func (m Moniker) IsModern() bool {
	return m.Major() > legacyMajor
}

// ResolveMoniker derives the target framework of a property set: the explicit
// TargetFramework when it is not blank, otherwise "net48" when the framework
// identifier is the legacy desktop framework, otherwise "".
func ResolveMoniker(props PropertySet) Moniker {
	if tf, ok := props.NonBlank(PropTargetFramework); ok {
		return Moniker(tf)
	}
	if id, ok := props.Get(PropTargetFrameworkIdentifier); ok && id == legacyIdentifier {
		return legacyMoniker
	}
	return ""
}

// String returns the family name.
func (f RuntimeFamily) String() string { return string(f) }

// Validate returns nil if the family is one of the defined runtime families.
func (f RuntimeFamily) Validate() error {
	switch f {
	case FamilyModern, FamilyLegacy:
		return nil
	default:
		return &InvalidRuntimeFamilyError{Value: f}
	}
}

// Accepts reports whether a project targeting m can be loaded by this runtime
// family. An empty or unparsable moniker is never accepted.
func (f RuntimeFamily) Accepts(m Moniker) bool {
	major := m.Major()
	switch f {
	case FamilyLegacy:
		return major == legacyMajor
	case FamilyModern:
		return major > legacyMajor
	default:
		return false
	}
}

// Error implements the error interface.
func (e *InvalidRuntimeFamilyError) Error() string {
	return fmt.Sprintf("invalid runtime family %q (valid: modern, legacy)", e.Value)
}

// Unwrap returns ErrInvalidRuntimeFamily for errors.Is() compatibility.
func (e *InvalidRuntimeFamilyError) Unwrap() error { return ErrInvalidRuntimeFamily }
