// SPDX-License-Identifier: MPL-2.0

package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultProjectPatterns match the project files looked for next to a model
// file.
var DefaultProjectPatterns = []string{"*.csproj"}

// ErrProjectNotFound is returned when no project file matches.
var ErrProjectNotFound = errors.New("project file not found")

// ProjectNotFoundError names the directory that was searched.
type ProjectNotFoundError struct {
	Dir      string
	Patterns []string
}

// Error implements the error interface.
func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("%s in %s (patterns: %s)", ErrProjectNotFound, e.Dir, strings.Join(e.Patterns, ", "))
}

// Unwrap returns ErrProjectNotFound for errors.Is() compatibility.
func (e *ProjectNotFoundError) Unwrap() error { return ErrProjectNotFound }

// FindProject returns the project file in the directory of modelFile: the
// first file, in name order, matching the first pattern that matches
// anything.
func FindProject(fs afero.Fs, modelFile string, patterns []string) (string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if len(patterns) == 0 {
		patterns = DefaultProjectPatterns
	}

	dir := filepath.Dir(modelFile)
	for _, pattern := range patterns {
		matches, err := afero.Glob(fs, filepath.Join(dir, pattern))
		if err != nil {
			return "", fmt.Errorf("invalid project pattern %q: %w", pattern, err)
		}
		// afero.Glob returns matches in name order.
		for _, m := range matches {
			if info, err := fs.Stat(m); err == nil && !info.IsDir() {
				return m, nil
			}
		}
	}
	return "", &ProjectNotFoundError{Dir: dir, Patterns: patterns}
}
