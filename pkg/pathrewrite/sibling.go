// SPDX-License-Identifier: MPL-2.0

package pathrewrite

import (
	"path"
	"strings"
)

// minSiblingSegments is the shortest candidate path that has a package,
// version, lib, framework and file segment below some root.
const minSiblingSegments = 7

type (
	// SiblingPattern describes how a framework names its modules and packages.
	// An anchor module is named "<Family>.<Component>.v<version>.dll" and lives
	// in ".../<BasePackage>/<package version>/lib/<tfm>/".
	SiblingPattern struct {
		// Family is the vendor prefix of module names, e.g. "DevExpress".
		Family string
		// Component is the anchor component, e.g. "ExpressApp".
		Component string
		// BasePackage is the package directory of the anchor module.
		BasePackage string
		// PlatformSuffix is appended to modern framework monikers, since the
		// sibling packages are platform specific.
		PlatformSuffix string
		// ModuleExtension is the module file extension, including the dot.
		ModuleExtension string
	}

	// SiblingRequest asks for the path of one sibling module.
	SiblingRequest struct {
		// Candidates are the known reference paths, searched in order.
		Candidates []string
		// Version is the framework release, e.g. "24.2".
		Version string
		// ModuleFile is the file name of the wanted sibling module.
		ModuleFile string
		// PackageSegment is the package directory of the wanted sibling.
		PackageSegment string
	}
)

// DefaultSiblingPattern returns the naming of the DevExpress application framework.
func DefaultSiblingPattern() SiblingPattern {
	return SiblingPattern{
		Family:          "DevExpress",
		Component:       "ExpressApp",
		BasePackage:     "devexpress.expressapp",
		PlatformSuffix:  "-windows",
		ModuleExtension: ".dll",
	}
}

// AnchorFile returns the file name of the anchor module for a release.
func (p SiblingPattern) AnchorFile(version string) string {
	return p.Family + "." + p.Component + ".v" + version + p.ModuleExtension
}

// GuessSibling derives the path of a sibling package module from the anchor
// module of the same release found among the candidates. The anchor path must
// have more than six segments, the package segment five positions before the
// end must equal the base package and the segment after it must be a version.
// The file and package segments are replaced; a modern framework segment gets
// the platform suffix. The guess is returned only if the file exists.
func (r *Rewriter) GuessSibling(req SiblingRequest) (string, bool) {
	anchor := r.sibling.AnchorFile(req.Version)
	for _, c := range req.Candidates {
		s := split(c)
		if !strings.EqualFold(s.fromEnd(1), anchor) {
			continue
		}
		if len(s.parts) < minSiblingSegments {
			return "", false
		}
		if !IsVersion(s.fromEnd(4)) || !strings.EqualFold(s.fromEnd(5), r.sibling.BasePackage) {
			return "", false
		}

		out := s.clone()
		out.setFromEnd(1, req.ModuleFile)
		out.setFromEnd(5, req.PackageSegment)
		if tfm := out.fromEnd(2); isModernTFM(tfm) && !strings.HasSuffix(tfm, r.sibling.PlatformSuffix) {
			out.setFromEnd(2, tfm+r.sibling.PlatformSuffix)
		}

		guess := out.join()
		if !r.exists(guess) {
			return "", false
		}
		return guess, true
	}
	return "", false
}

// isModernTFM reports whether a framework segment names a framework other
// than the legacy 4.x desktop framework.
func isModernTFM(tfm string) bool {
	tfm = strings.ToLower(tfm)
	return strings.HasPrefix(tfm, "net") && !strings.HasPrefix(tfm, "net4")
}

// ModuleName returns the file name of p without its extension.
func ModuleName(p string) string {
	name := split(p).fromEnd(1)
	return strings.TrimSuffix(name, path.Ext(name))
}

// ModuleDir returns p without its file name, keeping the separator p uses.
func ModuleDir(p string) string {
	s := split(p)
	if len(s.parts) < 2 {
		return ""
	}
	s.parts = s.parts[:len(s.parts)-1]
	return s.join()
}
