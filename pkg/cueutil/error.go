// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrFileTooLarge is wrapped by FileTooLargeError.
var ErrFileTooLarge = errors.New("document too large")

type (
	// Problem is one schema or syntax violation.
	Problem struct {
		// Path is the field path, e.g. "framework.siblings[3].module". Empty
		// for syntax errors.
		Path    string
		Message string
	}

	// DocumentError reports every problem CUE found in one document.
	DocumentError struct {
		File     string
		Problems []Problem
		cause    error
	}

	// FileTooLargeError reports a document above the accepted size.
	FileTooLargeError struct {
		File  string
		Size  int64
		Limit int64
	}
)

// FormatError turns a CUE error into a DocumentError for filePath. Errors
// that carry no CUE detail become a single pathless problem. A nil err
// returns nil.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	de := &DocumentError{File: filePath, cause: err}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		de.Problems = []Problem{{Message: err.Error()}}
		return de
	}
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		// Some messages repeat the path.
		if path != "" {
			if rest, ok := strings.CutPrefix(msg, path+":"); ok {
				msg = strings.TrimSpace(rest)
			}
		}
		de.Problems = append(de.Problems, Problem{Path: path, Message: msg})
	}
	return de
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

func (e *DocumentError) Error() string {
	if len(e.Problems) == 1 {
		return e.File + ": " + e.Problems[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problems:", e.File, len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  ")
		b.WriteString(p.String())
	}
	return b.String()
}

// Unwrap returns the CUE error.
func (e *DocumentError) Unwrap() error { return e.cause }

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file size %d bytes exceeds maximum %d bytes", e.File, e.Size, e.Limit)
}

func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// CheckFileSize returns a FileTooLargeError when data exceeds maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if size := int64(len(data)); size > maxSize {
		return &FileTooLargeError{File: filename, Size: size, Limit: maxSize}
	}
	return nil
}

// formatPath joins CUE path selectors, rendering list indices in brackets:
// ["table", "2", "path"] becomes "table[2].path".
func formatPath(path []string) string {
	var b strings.Builder
	for i, sel := range path {
		if _, err := strconv.Atoi(sel); err == nil && i > 0 {
			b.WriteString("[" + sel + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(sel)
	}
	return b.String()
}
