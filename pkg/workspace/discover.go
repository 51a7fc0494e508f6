package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
)

// SourceDir is the directory under a package root that holds its sources.
const SourceDir = "src"

// DefaultSourceExtensions are the file extensions checked by default.
var DefaultSourceExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

var (
	// ErrNoPackages is returned when a workspace root lists no loadable packages.
	ErrNoPackages = errors.New("no packages found")
	// ErrUnknownPackage is returned by Select for a name outside the workspace.
	ErrUnknownPackage = errors.New("package not found in workspace")
)

// Discover loads the packages of the workspace rooted at root. A root without
// a "workspaces" field is treated as a single package.
func Discover(root string) ([]*Package, error) {
	rootPkg, err := LoadRoot(root)
	if err != nil {
		return nil, err
	}

	globs := rootPkg.Manifest.Workspaces
	if len(globs) == 0 {
		single, loadErr := LoadPackage(root)
		if loadErr != nil {
			return nil, loadErr
		}

		return []*Package{single}, nil
	}

	dirs, err := expandWorkspaceGlobs(rootPkg.Path, globs)
	if err != nil {
		return nil, err
	}

	pkgs := make([]*Package, 0, len(dirs))

	for _, dir := range dirs {
		pkg, loadErr := LoadPackage(dir)
		if errors.Is(loadErr, ErrNoManifest) {
			continue
		}

		if loadErr != nil {
			return nil, loadErr
		}

		pkgs = append(pkgs, pkg)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoPackages, rootPkg.Path)
	}

	slices.SortFunc(pkgs, func(a, b *Package) int { return strings.Compare(a.Name, b.Name) })

	return pkgs, nil
}

// Find returns the package with the given name.
func Find(pkgs []*Package, name string) (*Package, bool) {
	for _, pkg := range pkgs {
		if pkg.Name == name {
			return pkg, true
		}
	}

	return nil, false
}

// Select returns the named packages in the order given. No names selects
// every package.
func Select(pkgs []*Package, names []string) ([]*Package, error) {
	if len(names) == 0 {
		return pkgs, nil
	}

	selected := make([]*Package, 0, len(names))

	for _, name := range names {
		pkg, ok := Find(pkgs, name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, name)
		}

		selected = append(selected, pkg)
	}

	return selected, nil
}

// expandWorkspaceGlobs resolves patterns like "packages/*", "apps/**" and
// "!packages/internal" into candidate directories.
func expandWorkspaceGlobs(root string, globs []string) ([]string, error) {
	seen := make(map[string]bool)
	excluded := make(map[string]bool)

	var dirs []string

	for _, glob := range globs {
		negate := strings.HasPrefix(glob, "!")
		pattern := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(glob, "!")))

		matches, err := matchDirs(pattern)
		if err != nil {
			return nil, fmt.Errorf("workspace glob %q: %w", glob, err)
		}

		for _, match := range matches {
			if negate {
				excluded[match] = true

				continue
			}

			if !seen[match] {
				seen[match] = true
				dirs = append(dirs, match)
			}
		}
	}

	return slices.DeleteFunc(dirs, func(dir string) bool { return excluded[dir] }), nil
}

func matchDirs(pattern string) ([]string, error) {
	if base, ok := strings.CutSuffix(pattern, string(filepath.Separator)+"**"); ok {
		return manifestDirsBelow(base)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(matches, func(match string) bool {
		info, statErr := os.Stat(match)

		return statErr != nil || !info.IsDir()
	}), nil
}

func manifestDirsBelow(base string) ([]string, error) {
	var dirs []string

	err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}

			return err
		}

		if !entry.IsDir() {
			return nil
		}

		if path != base && (skipDir(entry.Name()) || vendored(base, path)) {
			return fs.SkipDir
		}

		if _, statErr := os.Stat(filepath.Join(path, ManifestFile)); statErr == nil && path != base {
			dirs = append(dirs, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return dirs, nil
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}

// vendored reports whether path below base matches a vendored-code pattern
// (dist/, vendor/, third_party/ and the like). Only workspace expansion uses it.
func vendored(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}

	return enry.IsVendor(filepath.ToSlash(rel) + "/")
}

// SourceFiles lists the files under dir/src with one of the given extensions,
// in lexical order. Dot-directories and node_modules are skipped; every other
// directory under src is part of the package.
// A missing src directory yields no files.
func SourceFiles(ctx context.Context, dir string, extensions []string) ([]importmodel.SourceFile, error) {
	if len(extensions) == 0 {
		extensions = DefaultSourceExtensions
	}

	root, err := filepath.Abs(filepath.Join(dir, SourceDir))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	var files []importmodel.SourceFile

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root && errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipAll
			}

			return walkErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if path != root && skipDir(entry.Name()) {
				return fs.SkipDir
			}

			return nil
		}

		if strings.HasPrefix(entry.Name(), ".") || !slices.Contains(extensions, filepath.Ext(path)) {
			return nil
		}

		files = append(files, importmodel.SourceFile{Path: path, Role: importmodel.RoleOf(rel)})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover sources in %s: %w", root, err)
	}

	return files, nil
}
