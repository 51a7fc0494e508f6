// Package syntax provides the shared tree-sitter parser host used to turn
// JavaScript and TypeScript sources into syntax trees.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for host operations.
var (
	ErrLanguageNotAvailable = errors.New("tree-sitter language not available")
	ErrNoParser             = errors.New("no parser found for extension")
	ErrNoRootNode           = errors.New("parser returned no root node")
	errPoolType             = errors.New("parser pool returned unexpected type")
)

// Host owns one parser pool per grammar. It is created once, holds no
// per-file state, and is safe for concurrent use by any number of validations.
type Host struct {
	extensions map[string]string
	pools      map[string]*sync.Pool
}

// NewHost creates a host for the given extension to grammar mapping.
// A nil mapping uses DefaultExtensions.
func NewHost(extensions map[string]string) (*Host, error) {
	if extensions == nil {
		extensions = DefaultExtensions
	}

	host := &Host{
		extensions: make(map[string]string, len(extensions)),
		pools:      make(map[string]*sync.Pool),
	}

	for ext, name := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		host.extensions[ext] = name

		if _, exists := host.pools[name]; exists {
			continue
		}

		lang := GetLanguage(name)
		if lang == nil {
			return nil, fmt.Errorf("%w: %s", ErrLanguageNotAvailable, name)
		}

		host.pools[name] = &sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		}
	}

	return host, nil
}

// Extensions returns the sorted list of extensions the host can parse.
func (host *Host) Extensions() []string {
	return slices.Sorted(maps.Keys(host.extensions))
}

// Language returns the grammar name for path, or an empty string.
func (host *Host) Language(path string) string {
	return host.extensions[strings.ToLower(filepath.Ext(path))]
}

// IsSupported returns true if the host has a grammar for path.
func (host *Host) IsSupported(path string) bool {
	return host.Language(path) != ""
}

// Parse parses content and returns its tree. Sources containing syntax
// errors yield a *ParseError. The caller must Close the tree.
func (host *Host) Parse(ctx context.Context, path string, content []byte) (*Tree, error) {
	name := host.Language(path)
	if name == "" {
		return nil, fmt.Errorf("%w %q", ErrNoParser, filepath.Ext(path))
	}

	pool := host.pools[name]

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	tree := &Tree{Path: path, Lang: name, Source: content, tree: tsTree}

	root := tsTree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, fmt.Errorf("parse %s: %w", path, ErrNoRootNode)
	}

	if root.HasError() {
		parseErr := tree.firstError(root)
		tree.Close()

		return nil, parseErr
	}

	return tree, nil
}
