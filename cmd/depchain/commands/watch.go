package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Sumatoshi-tech/depchain/pkg/report"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 250 * time.Millisecond

const nodeModulesDir = "node_modules"

// checker re-checks a set of packages.
type checker interface {
	check(ctx context.Context, pkgs []*workspace.Package) *report.Summary
}

// watchPackages checks pkgs once, then re-checks the packages whose sources
// or manifest change until ctx is done.
func watchPackages(
	ctx context.Context, pkgs []*workspace.Package, extensions []string,
	run checker, console *report.Console, logger *slog.Logger,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, pkg := range pkgs {
		err = watchTree(watcher, pkg.Root())
		if err != nil {
			return err
		}
	}

	pkgs = slices.Clone(pkgs)
	run.check(ctx, pkgs)
	console.Success(fmt.Sprintf("watching %d packages for changes", len(pkgs)))

	dirty := make(map[int]bool)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				info, statErr := os.Stat(event.Name)
				if statErr == nil && info.IsDir() {
					addErr := watchTree(watcher, event.Name)
					if addErr != nil {
						logger.WarnContext(ctx, "watch new directory", "dir", event.Name, "error", addErr)
					}
				}
			}

			if !relevantChange(event.Name, extensions) {
				continue
			}

			idx := owningPackage(pkgs, event.Name)
			if idx < 0 {
				continue
			}

			logger.DebugContext(ctx, "source changed", "file", event.Name, "op", event.Op.String())

			dirty[idx] = true

			timer.Reset(watchDebounce)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.WarnContext(ctx, "watch error", "error", watchErr)
		case <-timer.C:
			batch := reloadPackages(ctx, pkgs, dirty, logger)
			clear(dirty)

			run.check(ctx, batch)
		}
	}
}

// reloadPackages re-reads the manifests of the dirty packages so dependency
// edits are picked up. A manifest that fails to load keeps its last version.
func reloadPackages(ctx context.Context, pkgs []*workspace.Package, dirty map[int]bool, logger *slog.Logger) []*workspace.Package {
	indexes := make([]int, 0, len(dirty))
	for idx := range dirty {
		indexes = append(indexes, idx)
	}

	slices.Sort(indexes)

	batch := make([]*workspace.Package, 0, len(indexes))

	for _, idx := range indexes {
		fresh, err := workspace.LoadPackage(pkgs[idx].Root())
		if err != nil {
			logger.WarnContext(ctx, "reload manifest", "package", pkgs[idx].PackageName(), "error", err)
		} else {
			pkgs[idx] = fresh
		}

		batch = append(batch, pkgs[idx])
	}

	return batch
}

// owningPackage returns the index of the innermost package containing path,
// or -1.
func owningPackage(pkgs []*workspace.Package, path string) int {
	best, bestLen := -1, -1

	for idx, pkg := range pkgs {
		rel, err := filepath.Rel(pkg.Root(), path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}

		if len(pkg.Root()) > bestLen {
			best, bestLen = idx, len(pkg.Root())
		}
	}

	return best
}

func relevantChange(path string, extensions []string) bool {
	if filepath.Base(path) == workspace.ManifestFile {
		return true
	}

	if len(extensions) == 0 {
		extensions = workspace.DefaultSourceExtensions
	}

	return slices.Contains(extensions, filepath.Ext(path))
}

// watchTree adds root and its directories to the watcher, skipping
// node_modules and hidden directories.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !entry.IsDir() {
			return nil
		}

		name := entry.Name()
		if path != root && (name == nodeModulesDir || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	return nil
}
