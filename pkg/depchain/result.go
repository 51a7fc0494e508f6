package depchain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
)

// ErrInvalidDependencyChain marks a package that imports undeclared packages
// outside type positions.
var ErrInvalidDependencyChain = errors.New("invalid dependency chains")

// ErrNotExternal is returned when an InvalidImport is built from a built-in
// or internal import.
var ErrNotExternal = errors.New("only external imports can be invalid")

// State is a stage of a package check.
type State uint8

const (
	// StateIdle is the state before a check starts.
	StateIdle State = iota
	// StateDiscovering lists the source files of the area.
	StateDiscovering
	// StateExtracting parses files and collects external imports.
	StateExtracting
	// StateValidating tests imports against the allow set.
	StateValidating
	// StateClean is terminal: nothing invalid was found.
	StateClean
	// StateReported is terminal: invalid imports were reported.
	StateReported
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateExtracting:
		return "extracting"
	case StateValidating:
		return "validating"
	case StateClean:
		return "clean"
	case StateReported:
		return "reported"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// InvalidImport is an external import whose package is not allowed.
// Build it with NewInvalidImport.
type InvalidImport struct {
	// File.Path is relative to the package root, slash separated.
	File   importmodel.SourceFile `json:"file"   yaml:"file"`
	Import importmodel.Import     `json:"import" yaml:"import"`
	Line   int                    `json:"line"   yaml:"line"`
}

// NewInvalidImport pairs a file with one of its imports. Only external
// imports are accepted.
func NewInvalidImport(file importmodel.SourceFile, imp importmodel.Import, line int) (InvalidImport, error) {
	if imp.Kind != importmodel.KindExternal {
		return InvalidImport{}, fmt.Errorf("%w: %s is %s", ErrNotExternal, imp.FullSpecifier(), imp.Kind)
	}

	return InvalidImport{File: file, Import: imp, Line: line}, nil
}

// Package returns the imported package name.
func (inv InvalidImport) Package() string {
	return inv.Import.PackageName
}

// TypeOnly reports whether the import only brings in types.
func (inv InvalidImport) TypeOnly() bool {
	return inv.Import.TypeOnly
}

// DetailLine renders the per-import report line.
func (inv InvalidImport) DetailLine() string {
	line := "     > " + inv.File.Path + " - " + inv.Import.FullSpecifier()
	if inv.TypeOnly() {
		line += typesOnlySuffix
	}

	return line
}

const typesOnlySuffix = " (types only)"

// Result is the outcome of checking one package area.
type Result struct {
	Package   string          `json:"package"            yaml:"package"`
	Area      Area            `json:"area"               yaml:"area"`
	State     State           `json:"state"              yaml:"state"`
	Skipped   bool            `json:"skipped,omitempty"  yaml:"skipped,omitempty"`
	Files     int             `json:"files"              yaml:"files"`
	TestFiles int             `json:"test_files"         yaml:"test_files"`
	Invalid   []InvalidImport `json:"invalid,omitempty"  yaml:"invalid,omitempty"`
	Duration  time.Duration   `json:"duration"           yaml:"duration"`
}

// TypesOnly reports whether invalid imports exist and all of them are type-only.
func (r *Result) TypesOnly() bool {
	if len(r.Invalid) == 0 {
		return false
	}

	for _, inv := range r.Invalid {
		if !inv.TypeOnly() {
			return false
		}
	}

	return true
}

// InvalidPackages returns the distinct invalid package names in first-seen order.
func (r *Result) InvalidPackages() []string {
	var names []string

	for _, inv := range r.Invalid {
		if !slices.Contains(names, inv.Package()) {
			names = append(names, inv.Package())
		}
	}

	return names
}

// SummaryLine renders the one-line report of the invalid packages.
func (r *Result) SummaryLine() string {
	names := r.InvalidPackages()

	noun := "dependency"
	if len(names) != 1 {
		noun = "dependencies"
	}

	suffix := ""
	if r.TypesOnly() {
		suffix = typesOnlySuffix
	}

	return fmt.Sprintf("📦 Invalid %s%s: %s", noun, suffix, strings.Join(names, ", "))
}

// ValidationError is returned when a package imports undeclared packages
// outside type positions.
type ValidationError struct {
	Package string
	Invalid []InvalidImport
}

func (e *ValidationError) Error() string {
	return e.Package + " has invalid dependency chains."
}

// Is matches ErrInvalidDependencyChain.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDependencyChain
}
