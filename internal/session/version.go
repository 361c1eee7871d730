// SPDX-License-Identifier: MPL-2.0

package session

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/refbridge/refbridge/pkg/clrmeta"

	"github.com/spf13/afero"
)

// ErrVersionUndetectable is returned when no module referenced by the
// project output names a framework release.
var ErrVersionUndetectable = errors.New("framework version cannot be detected")

// VersionError names the module whose references were searched.
type VersionError struct {
	Module string
	Family string
	Err    error
}

// Error implements the error interface.
func (e *VersionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s from %s: %v", ErrVersionUndetectable, e.Family, e.Module, e.Err)
	}
	return fmt.Sprintf("%s: %s: no referenced %s module carries a release number", ErrVersionUndetectable, e.Module, e.Family)
}

// Unwrap returns ErrVersionUndetectable for errors.Is() compatibility.
func (e *VersionError) Unwrap() error { return ErrVersionUndetectable }

// VersionPattern matches the release number in the module names of a
// framework family, e.g. "24.2" in "DevExpress.Data.v24.2".
func VersionPattern(family string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(family) + `.*v(\d\d\.\d)`)
}

// DetectVersion returns the framework release of the first module reference
// of the given module whose name matches VersionPattern.
func DetectVersion(fs afero.Fs, modulePath, family string) (string, error) {
	m, err := clrmeta.ReadFile(fs, modulePath)
	if err != nil {
		return "", &VersionError{Module: modulePath, Family: family, Err: err}
	}
	return VersionFromReferences(m.References, family, modulePath)
}

// VersionFromReferences applies VersionPattern to reference names in order.
func VersionFromReferences(refs []clrmeta.AssemblyRef, family, module string) (string, error) {
	re := VersionPattern(family)
	for _, ref := range refs {
		if match := re.FindStringSubmatch(ref.Name); match != nil {
			return match[1], nil
		}
	}
	return "", &VersionError{Module: module, Family: family}
}
