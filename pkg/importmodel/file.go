// Package importmodel defines the data model for source file import analysis.
package importmodel

import (
	"path/filepath"
	"slices"
)

// FileRole tells whether a discovered file takes part in validation.
type FileRole string

const (
	// RoleSource marks files that are validated.
	RoleSource FileRole = "source"
	// RoleTest marks files under test or mock directories. They are discovered but never validated.
	RoleTest FileRole = "test"
)

// testDirNames are directory segments that mark a file as test support code.
var testDirNames = []string{"__tests__", "__mocks__"}

// SourceFile is a discovered file and its role.
type SourceFile struct {
	Path string   `json:"path" yaml:"path"`
	Role FileRole `json:"role" yaml:"role"`
}

// RoleOf returns the role implied by the directory segments of path.
func RoleOf(path string) FileRole {
	for _, segment := range splitSegments(filepath.Dir(path)) {
		if slices.Contains(testDirNames, segment) {
			return RoleTest
		}
	}

	return RoleSource
}

// IsSource reports whether the file is validated.
func (f SourceFile) IsSource() bool {
	return f.Role == RoleSource
}

func splitSegments(dir string) []string {
	var segments []string

	for dir != "" && dir != "." && dir != string(filepath.Separator) {
		base := filepath.Base(dir)
		segments = append(segments, base)

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return segments
}

// Reference is a single module reference as written in source, before classification.
type Reference struct {
	// Specifier is the raw specifier text, quotes included when taken straight from the tree.
	Specifier string `json:"specifier" yaml:"specifier"`
	// TypeOnly is set when the whole declaration is marked type-only.
	TypeOnly bool `json:"type_only,omitempty" yaml:"type_only,omitempty"`
	// Dynamic is set for require(...) and import(...) calls.
	Dynamic bool `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
	// Line is the 1-based line of the specifier.
	Line int `json:"line" yaml:"line"`
}

// File represents a source file with its detected references and language.
type File struct {
	Path       string      `json:"path"       yaml:"path"`
	Lang       string      `json:"lang"       yaml:"lang"`
	References []Reference `json:"references" yaml:"references"`
}

// Classified returns the classification of every reference in document order.
func (f File) Classified() []Import {
	out := make([]Import, 0, len(f.References))

	for _, ref := range f.References {
		out = append(out, Classify(ref.Specifier, ref.TypeOnly))
	}

	return out
}

// External returns only the external imports of the file.
func (f File) External() []Import {
	var out []Import

	for _, imp := range f.Classified() {
		if imp.Kind == KindExternal {
			out = append(out, imp)
		}
	}

	return out
}
