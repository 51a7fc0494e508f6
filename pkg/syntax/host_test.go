package syntax_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depchain/pkg/syntax"
)

func newHost(t *testing.T) *syntax.Host {
	t.Helper()

	host, err := syntax.NewHost(nil)
	require.NoError(t, err)

	return host
}

func TestHost_Language(t *testing.T) {
	t.Parallel()

	host := newHost(t)

	assert.Equal(t, syntax.LangTypeScript, host.Language("src/index.ts"))
	assert.Equal(t, syntax.LangTSX, host.Language("src/App.TSX"))
	assert.Equal(t, syntax.LangJavaScript, host.Language("src/App.jsx"))
	assert.Empty(t, host.Language("README.md"))
	assert.False(t, host.IsSupported("styles.css"))
	assert.Contains(t, host.Extensions(), ".mjs")
}

func TestHost_ParseValidSource(t *testing.T) {
	t.Parallel()

	host := newHost(t)

	tree, err := host.Parse(context.Background(), "index.ts", []byte("import type { T } from 'baz';\nexport const x: T = 1;\n"))
	require.NoError(t, err)

	defer tree.Close()

	root := tree.Root()
	assert.Equal(t, "program", root.Type())
	assert.Equal(t, syntax.LangTypeScript, tree.Lang)
}

func TestHost_ParseErrorNamesFile(t *testing.T) {
	t.Parallel()

	host := newHost(t)

	_, err := host.Parse(context.Background(), "/pkg/src/broken.ts", []byte("const = ;\nfunction (\n"))
	require.Error(t, err)

	var parseErr *syntax.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "/pkg/src/broken.ts", parseErr.Path)
	assert.Positive(t, parseErr.Line)
	assert.Contains(t, err.Error(), "failed to parse /pkg/src/broken.ts")
}

func TestHost_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	host := newHost(t)

	_, err := host.Parse(context.Background(), "main.go", []byte("package main"))
	require.ErrorIs(t, err, syntax.ErrNoParser)
}

func TestNewHost_UnknownGrammar(t *testing.T) {
	t.Parallel()

	_, err := syntax.NewHost(map[string]string{".zz": "no-such-grammar"})
	require.ErrorIs(t, err, syntax.ErrLanguageNotAvailable)
}

func TestNewHost_ForestRegistryGrammar(t *testing.T) {
	t.Parallel()

	host, err := syntax.NewHost(syntax.MergeExtensions(map[string]string{".json": "json"}))
	require.NoError(t, err)

	assert.Equal(t, "json", host.Language("package.json"))
	assert.Equal(t, syntax.LangTypeScript, host.Language("index.ts"), "defaults are kept")

	tree, err := host.Parse(context.Background(), "package.json", []byte(`{"name": "a"}`))
	require.NoError(t, err)

	defer tree.Close()

	assert.Equal(t, "document", tree.Root().Type())
	assert.NotContains(t, syntax.DefaultExtensions, ".json")
}

func TestHost_ConcurrentParse(t *testing.T) {
	t.Parallel()

	host := newHost(t)

	var wg sync.WaitGroup

	errs := make([]error, 16)

	for i := range errs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			tree, err := host.Parse(context.Background(), "a.tsx", []byte("import React from 'react';\nexport const A = () => <div />;\n"))
			if err != nil {
				errs[i] = err

				return
			}

			tree.Close()
		}()
	}

	wg.Wait()

	assert.NoError(t, errors.Join(errs...))
}
