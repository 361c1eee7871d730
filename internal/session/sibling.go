// SPDX-License-Identifier: MPL-2.0

package session

import (
	"slices"
	"strings"
)

// VersionPlaceholder is replaced by the framework release in sibling module
// names.
const VersionPlaceholder = "{version}"

type (
	// Sibling is a platform module that is not referenced by the project but
	// is needed at runtime, found next to the anchor module of the release.
	Sibling struct {
		// Module is the file name template, e.g. "DevExpress.Utils.v{version}.dll".
		Module string `json:"module" yaml:"module" toml:"module" mapstructure:"module"`
		// Package is the package directory holding the module.
		Package string `json:"package" yaml:"package" toml:"package" mapstructure:"package"`
	}

	// SiblingResult records one sibling lookup.
	SiblingResult struct {
		Module string `json:"module" yaml:"module" toml:"module"`
		Path   string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
		// Added is false when the module was not found or its path was
		// already in the table.
		Added bool `json:"added" yaml:"added" toml:"added"`
	}
)

var defaultSiblings = []Sibling{
	{"DevExpress.ExpressApp.Win.v{version}.dll", "devexpress.expressapp.win"},
	{"DevExpress.XtraBars.v{version}.dll", "devexpress.win.navigation"},
	{"DevExpress.XtraEditors.v{version}.dll", "devexpress.win.navigation"},
	{"DevExpress.Utils.v{version}.dll", "devexpress.utils"},
	{"DevExpress.Data.Desktop.v{version}.dll", "devexpress.data.desktop"},
	{"DevExpress.XtraTreeList.v{version}.dll", "devexpress.win.treelist"},
	{"DevExpress.XtraRichEdit.v{version}.dll", "devexpress.win.richedit"},
	{"DevExpress.XtraVerticalGrid.v{version}.dll", "devexpress.win.verticalgrid"},
	{"DevExpress.XtraLayout.v{version}.dll", "devexpress.win.navigation"},
	{"DevExpress.XtraNavBar.v{version}.dll", "devexpress.win"},
	{"DevExpress.XtraGrid.v{version}.dll", "devexpress.win.grid"},
	{"DevExpress.DataAccess.v{version}.UI.dll", "devexpress.dataaccess.ui"},
}

// DefaultSiblings returns the desktop platform modules of the DevExpress
// application framework.
func DefaultSiblings() []Sibling {
	return slices.Clone(defaultSiblings)
}

// ModuleFile returns the module file name for a release.
func (s Sibling) ModuleFile(version string) string {
	return strings.ReplaceAll(s.Module, VersionPlaceholder, version)
}
