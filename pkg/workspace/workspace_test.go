package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadPackage_Dependencies(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{
  "name": "@acme/widget",
  "dependencies": {"zeta": "^1.0.0", "alpha": "2.x"},
  "devDependencies": {"jest": "*"},
  "peerDependencies": {"react": ">=18"}
}`)

	pkg, err := workspace.LoadPackage(dir)
	require.NoError(t, err)

	assert.Equal(t, "@acme/widget", pkg.PackageName())
	assert.True(t, filepath.IsAbs(pkg.Root()))

	assert.Equal(t, []workspace.Dependency{
		{Name: "alpha", Range: "2.x", Kind: workspace.Normal},
		{Name: "zeta", Range: "^1.0.0", Kind: workspace.Normal},
		{Name: "jest", Range: "*", Kind: workspace.Dev},
		{Name: "react", Range: ">=18", Kind: workspace.Peer},
	}, pkg.Dependencies())

	peers := pkg.Dependencies(workspace.Peer)
	require.Len(t, peers, 1)
	assert.Equal(t, "react", peers[0].Name)
}

func TestLoadPackage_Errors(t *testing.T) {
	t.Parallel()

	_, err := workspace.LoadPackage(t.TempDir())
	require.ErrorIs(t, err, workspace.ErrNoManifest)

	tests := map[string]string{
		"missing name":   `{"dependencies": {}}`,
		"numeric range":  `{"name": "x", "dependencies": {"a": 1}}`,
		"not an object":  `[1, 2]`,
		"bad workspaces": `{"name": "x", "workspaces": 3}`,
		"empty name":     `{"name": ""}`,
	}

	for name, manifest := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "package.json"), manifest)

			_, loadErr := workspace.LoadPackage(dir)
			require.ErrorIs(t, loadErr, workspace.ErrInvalidManifest)
		})
	}
}

func TestDiscover_SinglePackage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name": "solo"}`)

	pkgs, err := workspace.Discover(dir)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "solo", pkgs[0].Name)
}

func TestDiscover_NamelessPrivateRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"private": true, "workspaces": ["packages/*"]}`)
	writeFile(t, filepath.Join(root, "packages", "a", "package.json"),
		`{"name": "a", "dependencies": null, "devDependencies": {"jest": "*"}}`)

	pkgs, err := workspace.Discover(root)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "a", pkgs[0].Name)
	assert.Equal(t, []workspace.Dependency{{Name: "jest", Range: "*", Kind: workspace.Dev}}, pkgs[0].Dependencies())
}

func TestDiscover_NamelessRootWithoutWorkspaces(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"private": true}`)

	_, err := workspace.Discover(root)
	require.ErrorIs(t, err, workspace.ErrInvalidManifest)
}

func TestDiscover_WorkspaceGlobs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"),
		`{"name": "root", "workspaces": {"packages": ["packages/*", "apps/**", "!packages/skip"]}}`)
	writeFile(t, filepath.Join(root, "packages", "b", "package.json"), `{"name": "b"}`)
	writeFile(t, filepath.Join(root, "packages", "a", "package.json"), `{"name": "a"}`)
	writeFile(t, filepath.Join(root, "packages", "skip", "package.json"), `{"name": "skip"}`)
	writeFile(t, filepath.Join(root, "packages", "empty", "README.md"), "no manifest")
	writeFile(t, filepath.Join(root, "apps", "web", "site", "package.json"), `{"name": "site"}`)
	writeFile(t, filepath.Join(root, "apps", "web", "site", "node_modules", "dep", "package.json"), `{"name": "dep"}`)
	writeFile(t, filepath.Join(root, "apps", "web", "vendor", "copied", "package.json"), `{"name": "copied"}`)

	pkgs, err := workspace.Discover(root)
	require.NoError(t, err)

	names := make([]string, 0, len(pkgs))
	for _, pkg := range pkgs {
		names = append(names, pkg.Name)
	}

	assert.Equal(t, []string{"a", "b", "site"}, names)

	found, ok := workspace.Find(pkgs, "b")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "packages", "b"), found.Path)

	_, ok = workspace.Find(pkgs, "skip")
	assert.False(t, ok)
}

func TestSelect(t *testing.T) {
	t.Parallel()

	pkgs := []*workspace.Package{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	all, err := workspace.Select(pkgs, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	picked, err := workspace.Select(pkgs, []string{"c", "a"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "c", picked[0].Name)
	assert.Equal(t, "a", picked[1].Name)

	_, err = workspace.Select(pkgs, []string{"a", "ghost"})
	require.ErrorIs(t, err, workspace.ErrUnknownPackage)
	assert.Contains(t, err.Error(), "ghost")
}

func TestDiscover_ArrayWorkspacesWithoutMatches(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name": "root", "workspaces": ["packages/*"]}`)

	_, err := workspace.Discover(root)
	require.ErrorIs(t, err, workspace.ErrNoPackages)
}

func TestSourceFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")

	for _, rel := range []string{
		"index.ts",
		"App.tsx",
		"legacy.js",
		"view.jsx",
		"styles.css",
		"types.d.ts",
		"utils/format.ts",
		"__tests__/index-test.ts",
		"utils/__mocks__/format.ts",
		"cache/store.ts",
		"external/api.ts",
		"vendor/shim.js",
		"dist/bundle.js",
		".hidden/secret.ts",
		"node_modules/dep/index.js",
		".eslintrc.js",
	} {
		writeFile(t, filepath.Join(src, filepath.FromSlash(rel)), "export {};\n")
	}

	writeFile(t, filepath.Join(dir, "build", "index.js"), "outside src\n")

	files, err := workspace.SourceFiles(context.Background(), dir, nil)
	require.NoError(t, err)

	got := make(map[string]importmodel.FileRole, len(files))

	for _, file := range files {
		rel, relErr := filepath.Rel(src, file.Path)
		require.NoError(t, relErr)

		got[filepath.ToSlash(rel)] = file.Role
	}

	assert.Equal(t, map[string]importmodel.FileRole{
		"App.tsx":                   importmodel.RoleSource,
		"index.ts":                  importmodel.RoleSource,
		"legacy.js":                 importmodel.RoleSource,
		"view.jsx":                  importmodel.RoleSource,
		"types.d.ts":                importmodel.RoleSource,
		"utils/format.ts":           importmodel.RoleSource,
		"__tests__/index-test.ts":   importmodel.RoleTest,
		"utils/__mocks__/format.ts": importmodel.RoleTest,
		"cache/store.ts":            importmodel.RoleSource,
		"external/api.ts":           importmodel.RoleSource,
		"vendor/shim.js":            importmodel.RoleSource,
		"dist/bundle.js":            importmodel.RoleSource,
	}, got)
}

func TestSourceFiles_CustomExtensionsAndMissingSrc(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	files, err := workspace.SourceFiles(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Empty(t, files)

	writeFile(t, filepath.Join(dir, "src", "a.mjs"), "")
	writeFile(t, filepath.Join(dir, "src", "b.ts"), "")

	files, err = workspace.SourceFiles(context.Background(), dir, []string{".mjs"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.mjs", filepath.Base(files[0].Path))
}

func TestSourceFiles_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.ts"), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := workspace.SourceFiles(ctx, dir, nil)
	require.ErrorIs(t, err, context.Canceled)
}
