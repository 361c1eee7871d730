// SPDX-License-Identifier: MPL-2.0

package clrmeta

import (
	"errors"
	"strings"

	"github.com/spf13/afero"
)

// DefaultAcceptedFramework is the framework family accepted when a Filter
// names none.
const DefaultAcceptedFramework = ".NETCoreApp"

// Reasons a module is not usable at runtime.
const (
	ReasonNone              Reason = ""
	ReasonUnreadable        Reason = "unreadable"
	ReasonNotPE             Reason = "not a PE image"
	ReasonNoCLIHeader       Reason = "no CLI header"
	ReasonMalformedMetadata Reason = "malformed metadata"
	ReasonNoAssembly        Reason = "no assembly definition"
	ReasonReferenceAssembly Reason = "reference assembly"
	ReasonFrameworkMismatch Reason = "target framework mismatch"
)

type (
	// Reason explains why a module was ignored.
	Reason string

	// Filter decides whether a module file can be loaded into the runtime
	// family the host runs on.
	Filter struct {
		// Fs is the filesystem modules are read from. Nil means the host
		// filesystem.
		Fs afero.Fs
		// AcceptedFrameworks are the TargetFrameworkAttribute prefixes that
		// are loadable, compared case-insensitively. Empty means
		// DefaultAcceptedFramework.
		AcceptedFrameworks []string
	}

	// Verdict is the outcome of evaluating one module.
	Verdict struct {
		Path   string
		Ignore bool
		Reason Reason
		// Module is nil when the metadata could not be read.
		Module *Module
		// Err is the read error behind the unreadable reasons.
		Err error
	}
)

// String returns the reason text.
func (r Reason) String() string { return string(r) }

// ShouldIgnore reports whether the module at path must be left out of the
// resolution table, and why.
func (f Filter) ShouldIgnore(path string) (bool, Reason) {
	v := f.Evaluate(path)
	return v.Ignore, v.Reason
}

// Evaluate reads the module at path and classifies it. Modules that cannot be
// read, that carry no assembly definition, that are reference assemblies or
// that target a framework outside the accepted families are ignored. A module
// without a TargetFrameworkAttribute is kept.
func (f Filter) Evaluate(path string) Verdict {
	v := Verdict{Path: path}
	m, err := ReadFile(f.Fs, path)
	if err != nil {
		v.Ignore, v.Reason, v.Err = true, reasonFor(err), err
		return v
	}
	v.Module = m

	switch {
	case m.IsReferenceAssembly:
		v.Ignore, v.Reason = true, ReasonReferenceAssembly
	case m.TargetFramework != "" && !f.accepts(m.TargetFramework):
		v.Ignore, v.Reason = true, ReasonFrameworkMismatch
	}
	return v
}

func (f Filter) accepts(targetFramework string) bool {
	accepted := f.AcceptedFrameworks
	if len(accepted) == 0 {
		accepted = []string{DefaultAcceptedFramework}
	}
	tf := strings.ToLower(targetFramework)
	for _, a := range accepted {
		if strings.HasPrefix(tf, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrNotPE):
		return ReasonNotPE
	case errors.Is(err, ErrNoCLIHeader):
		return ReasonNoCLIHeader
	case errors.Is(err, ErrMalformedMetadata):
		return ReasonMalformedMetadata
	case errors.Is(err, ErrNoAssembly):
		return ReasonNoAssembly
	default:
		return ReasonUnreadable
	}
}
