// SPDX-License-Identifier: MPL-2.0

package clrmeta

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPE is returned when the file is not a portable executable image.
	ErrNotPE = errors.New("not a PE image")
	// ErrNoCLIHeader is returned when a PE image carries no managed code header.
	ErrNoCLIHeader = errors.New("no CLI header")
	// ErrMalformedMetadata is the sentinel wrapped by MalformedMetadataError.
	ErrMalformedMetadata = errors.New("malformed metadata")
	// ErrNoAssembly is returned for modules without an assembly definition
	// (netmodules).
	ErrNoAssembly = errors.New("no assembly definition")
)

// MalformedMetadataError describes where metadata decoding failed.
type MalformedMetadataError struct {
	Section string
	Reason  string
}

// Error implements the error interface.
func (e *MalformedMetadataError) Error() string {
	return fmt.Sprintf("malformed metadata in %s: %s", e.Section, e.Reason)
}

// Unwrap returns ErrMalformedMetadata for errors.Is() compatibility.
func (e *MalformedMetadataError) Unwrap() error { return ErrMalformedMetadata }

func malformed(section, format string, args ...any) error {
	return &MalformedMetadataError{Section: section, Reason: fmt.Sprintf(format, args...)}
}
