package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depchain/pkg/report"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

// recordingChecker forwards the package names of every check.
type recordingChecker struct {
	batches chan []string
}

func (c *recordingChecker) check(_ context.Context, pkgs []*workspace.Package) *report.Summary {
	names := make([]string, 0, len(pkgs))
	for _, pkg := range pkgs {
		names = append(names, pkg.PackageName())
	}

	c.batches <- names

	return &report.Summary{}
}

func writePackage(t *testing.T, dir, manifest string) *workspace.Package {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o600))

	pkg, err := workspace.LoadPackage(dir)
	require.NoError(t, err)

	return pkg
}

func nextBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()

	select {
	case batch := <-batches:
		return batch
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no check ran")

		return nil
	}
}

func TestWatchPackages_RechecksChangedPackage(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	app := writePackage(t, filepath.Join(root, "app"), `{"name": "app"}`)
	lib := writePackage(t, filepath.Join(root, "lib"), `{"name": "lib"}`)

	checker := &recordingChecker{batches: make(chan []string, 4)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	console := report.NewConsole(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- watchPackages(ctx, []*workspace.Package{app, lib}, nil, checker, console, logger)
	}()

	assert.Equal(t, []string{"app", "lib"}, nextBatch(t, checker.batches))

	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "src", "index.ts"), []byte("import 'x';\n"), 0o600))
	assert.Equal(t, []string{"lib"}, nextBatch(t, checker.batches))

	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "package.json"), []byte(`{"name": "app-renamed"}`), 0o600))
	assert.Equal(t, []string{"app-renamed"}, nextBatch(t, checker.batches))

	cancel()
	require.NoError(t, <-done)
}

func TestOwningPackage_PrefersInnermost(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outer := writePackage(t, root, `{"name": "outer"}`)
	inner := writePackage(t, filepath.Join(root, "packages", "inner"), `{"name": "inner"}`)

	pkgs := []*workspace.Package{outer, inner}

	assert.Equal(t, 1, owningPackage(pkgs, filepath.Join(root, "packages", "inner", "src", "a.ts")))
	assert.Equal(t, 0, owningPackage(pkgs, filepath.Join(root, "src", "a.ts")))
	assert.Equal(t, -1, owningPackage(pkgs, filepath.Join(filepath.Dir(root), "elsewhere.ts")))
}

func TestRelevantChange(t *testing.T) {
	t.Parallel()

	assert.True(t, relevantChange("/w/app/package.json", nil))
	assert.True(t, relevantChange("/w/app/src/a.tsx", nil))
	assert.False(t, relevantChange("/w/app/src/a.mjs", nil))
	assert.True(t, relevantChange("/w/app/src/a.mjs", []string{".mjs"}))
	assert.False(t, relevantChange("/w/app/README.md", nil))
}
