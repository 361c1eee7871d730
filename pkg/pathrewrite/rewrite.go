// SPDX-License-Identifier: MPL-2.0

package pathrewrite

import (
	"strings"

	"github.com/spf13/afero"
)

const (
	segRef    = "ref"
	segLib    = "lib"
	segPacks  = "packs"
	segShared = "shared"
	refSuffix = ".Ref"
)

type (
	// Rewriter applies the path heuristics. Existence guards consult its
	// filesystem.
	Rewriter struct {
		fs      afero.Fs
		sibling SiblingPattern
	}

	// Option configures a Rewriter.
	Option func(*Rewriter)
)

// New creates a Rewriter that checks candidate paths against fs. A nil fs
// means the host filesystem.
func New(fs afero.Fs, opts ...Option) *Rewriter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	r := &Rewriter{fs: fs, sibling: DefaultSiblingPattern()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithSiblingPattern sets the framework naming used by GuessSibling.
func WithSiblingPattern(p SiblingPattern) Option {
	return func(r *Rewriter) {
		r.sibling = p
	}
}

// RefToLib rewrites ".../<version>/ref/..." to ".../<version>/lib/..." when the
// rewritten file exists. The first "ref" segment is considered; it must sit at
// index 2 or later and follow a version segment. In every other case p is
// returned unchanged.
func (r *Rewriter) RefToLib(p string) string {
	s := split(p)
	i := s.index(segRef, false)
	if i < 2 || !IsVersion(s.parts[i-1]) {
		return p
	}
	out := s.clone()
	out.parts[i] = segLib
	candidate := out.join()
	if !r.exists(candidate) {
		return p
	}
	return candidate
}

// PacksToShared rewrites a path inside an SDK reference pack,
// ".../packs/<Name>.Ref/<version>/ref/<tfm>/<file>", to the matching shared
// runtime path ".../shared/<Name>/<version>/<file>". The result is not checked
// for existence. Paths that do not follow the layout are returned unchanged.
func (r *Rewriter) PacksToShared(p string) string {
	s := split(p)
	i := s.index(segPacks, true)
	if i < 0 || i+3 >= len(s.parts) {
		return p
	}
	pack := s.parts[i+1]
	if len(pack) <= len(refSuffix) || !strings.EqualFold(pack[len(pack)-len(refSuffix):], refSuffix) {
		return p
	}

	parts := make([]string, 0, i+4)
	parts = append(parts, s.parts[:i]...)
	parts = append(parts, segShared, pack[:len(pack)-len(refSuffix)], s.parts[i+2], s.fromEnd(1))
	return segments{parts: parts, sep: s.sep}.join()
}

// ToRuntime applies RefToLib and then PacksToShared.
func (r *Rewriter) ToRuntime(p string) string {
	return r.PacksToShared(r.RefToLib(p))
}

func (r *Rewriter) exists(p string) bool {
	info, err := r.fs.Stat(p)
	return err == nil && !info.IsDir()
}
