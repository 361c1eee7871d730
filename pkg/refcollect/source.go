// SPDX-License-Identifier: MPL-2.0

package refcollect

// Reference sources, highest priority first.
const (
	SourceDirectReference Source = iota
	SourceLockFile
	SourcePackageAsset
	SourceOutputScan

	// SourceCount is the number of sources.
	SourceCount = 4
)

// Source identifies where a candidate was found.
type Source uint8

var sourceNames = [SourceCount]string{
	SourceDirectReference: "direct-reference",
	SourceLockFile:        "lock-file",
	SourcePackageAsset:    "package-asset",
	SourceOutputScan:      "output-scan",
}

// String returns the source name.
func (s Source) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
