// Package workspace reads package manifests, enumerates the packages of a
// multi-package workspace, and discovers their source files.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ManifestFile is the name of a package manifest.
const ManifestFile = "package.json"

// Sentinel errors for manifest loading.
var (
	ErrInvalidManifest = errors.New("invalid package manifest")
	ErrNoManifest      = errors.New("package manifest not found")
)

// manifestSchema constrains the fields the validator reads. The %s verb
// takes the list of required fields: a workspace root may be nameless.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": %s,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "dependencies": {"$ref": "#/definitions/depMap"},
    "devDependencies": {"$ref": "#/definitions/depMap"},
    "peerDependencies": {"$ref": "#/definitions/depMap"},
    "workspaces": {
      "oneOf": [
        {"type": "array", "items": {"type": "string"}},
        {
          "type": "object",
          "properties": {"packages": {"type": "array", "items": {"type": "string"}}}
        }
      ]
    }
  },
  "definitions": {
    "depMap": {"type": ["object", "null"], "additionalProperties": {"type": "string"}}
  }
}`

var (
	packageSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(fmt.Sprintf(manifestSchema, `["name"]`)))
	})
	rootSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(fmt.Sprintf(manifestSchema, `[]`)))
	})
)

// DependencyKind is the manifest section a dependency is declared in.
type DependencyKind string

const (
	// Normal is a "dependencies" entry.
	Normal DependencyKind = "dependencies"
	// Dev is a "devDependencies" entry.
	Dev DependencyKind = "devDependencies"
	// Peer is a "peerDependencies" entry.
	Peer DependencyKind = "peerDependencies"
)

// AllKinds lists every dependency kind in declaration precedence order.
var AllKinds = []DependencyKind{Normal, Dev, Peer}

// Dependency is one declared dependency.
type Dependency struct {
	Name  string         `json:"name"  yaml:"name"`
	Range string         `json:"range" yaml:"range"`
	Kind  DependencyKind `json:"kind"  yaml:"kind"`
}

// Manifest holds the package.json fields used here.
type Manifest struct {
	Name             string            `json:"name"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
	Workspaces       WorkspaceGlobs    `json:"workspaces"`
}

// WorkspaceGlobs accepts both the array and the {"packages": [...]} forms of "workspaces".
type WorkspaceGlobs []string

// UnmarshalJSON implements json.Unmarshaler.
func (w *WorkspaceGlobs) UnmarshalJSON(data []byte) error {
	var list []string

	if err := json.Unmarshal(data, &list); err == nil { //nolint:noinlineerr // try both shapes.
		*w = list

		return nil
	}

	var object struct {
		Packages []string `json:"packages"`
	}

	err := json.Unmarshal(data, &object)
	if err != nil {
		return fmt.Errorf("workspaces: %w", err)
	}

	*w = object.Packages

	return nil
}

func (m *Manifest) section(kind DependencyKind) map[string]string {
	switch kind {
	case Normal:
		return m.Dependencies
	case Dev:
		return m.DevDependencies
	case Peer:
		return m.PeerDependencies
	default:
		return nil
	}
}

// ParseManifest validates data against the package manifest schema and
// decodes it. Null dependency sections decode as empty.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	return parseManifest(path, data, packageSchema)
}

// ParseRootManifest is ParseManifest for a workspace root, where "name" is
// optional.
func ParseRootManifest(path string, data []byte) (*Manifest, error) {
	return parseManifest(path, data, rootSchema)
}

func parseManifest(path string, data []byte, compiled func() (*gojsonschema.Schema, error)) (*Manifest, error) {
	schema, err := compiled()
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, path, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			details = append(details, verr.String())
		}

		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidManifest, path, strings.Join(details, "; "))
	}

	var manifest Manifest

	err = json.Unmarshal(data, &manifest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, path, err)
	}

	return &manifest, nil
}

// Package is a workspace package rooted at Path.
type Package struct {
	Name     string
	Path     string
	Manifest *Manifest
}

// LoadPackage reads and validates dir/package.json.
func LoadPackage(dir string) (*Package, error) {
	return loadPackage(dir, ParseManifest)
}

// LoadRoot reads dir/package.json as a workspace root, which may be nameless.
func LoadRoot(dir string) (*Package, error) {
	return loadPackage(dir, ParseRootManifest)
}

func loadPackage(dir string, parse func(path string, data []byte) (*Manifest, error)) (*Package, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	manifestPath := filepath.Join(abs, ManifestFile)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, manifestPath)
		}

		return nil, fmt.Errorf("read %s: %w", manifestPath, err)
	}

	manifest, err := parse(manifestPath, data)
	if err != nil {
		return nil, err
	}

	return &Package{Name: manifest.Name, Path: abs, Manifest: manifest}, nil
}

// PackageName returns the published package name.
func (p *Package) PackageName() string {
	return p.Name
}

// Root returns the package root directory.
func (p *Package) Root() string {
	return p.Path
}

// Dependencies returns the declarations of the requested kinds, kinds in the
// order given and names sorted within a kind. No kinds means all kinds.
func (p *Package) Dependencies(kinds ...DependencyKind) []Dependency {
	if len(kinds) == 0 {
		kinds = AllKinds
	}

	var deps []Dependency

	for _, kind := range kinds {
		section := p.Manifest.section(kind)

		names := make([]string, 0, len(section))
		for name := range section {
			names = append(names, name)
		}

		slices.Sort(names)

		for _, name := range names {
			deps = append(deps, Dependency{Name: name, Range: section[name], Kind: kind})
		}
	}

	return deps
}
