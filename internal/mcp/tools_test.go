package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
	"github.com/Sumatoshi-tech/depchain/pkg/report"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	srv, err := NewServer(ServerDeps{})
	require.NoError(t, err)

	return srv
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// writeWorkspace lays out a two-package workspace where "app" imports an
// undeclared package and "lib" is clean.
func writeWorkspace(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	writeFile(t, filepath.Join(root, "package.json"), `{"name": "root", "private": true, "workspaces": ["packages/*"]}`)
	writeFile(t, filepath.Join(root, "packages", "app", "package.json"),
		`{"name": "app", "dependencies": {"react": "^18.0.0"}}`)
	writeFile(t, filepath.Join(root, "packages", "app", "src", "index.ts"),
		"import React from 'react';\nimport _ from 'lodash';\n")
	writeFile(t, filepath.Join(root, "packages", "lib", "package.json"), `{"name": "lib"}`)
	writeFile(t, filepath.Join(root, "packages", "lib", "src", "index.ts"),
		"import { join } from 'node:path';\nexport const x = join('a');\n")

	return root
}

func textOf(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestHandleCheck_ReportsInvalidPackage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	root := writeWorkspace(t)

	result, output, err := srv.handlers.handleCheck(context.Background(), nil, CheckInput{Root: root})
	require.NoError(t, err)
	require.False(t, result.IsError, textOf(t, result))

	summary, ok := output.Data.(*report.Summary)
	require.True(t, ok)
	require.Len(t, summary.Packages, 2)

	assert.Equal(t, "app", summary.Packages[0].Package)
	assert.Equal(t, depchain.StatusInvalid, summary.Packages[0].Status)
	assert.Equal(t, "lib", summary.Packages[1].Package)
	assert.Equal(t, depchain.StatusClean, summary.Packages[1].Status)

	var decoded map[string]any

	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &decoded))
	assert.Contains(t, decoded, "packages")
}

func TestHandleCheck_SelectsPackages(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	root := writeWorkspace(t)

	_, output, err := srv.handlers.handleCheck(context.Background(), nil, CheckInput{Root: root, Packages: []string{"lib"}})
	require.NoError(t, err)

	summary, ok := output.Data.(*report.Summary)
	require.True(t, ok)
	require.Len(t, summary.Packages, 1)
	assert.False(t, summary.Failed())
}

func TestHandleCheck_InputErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	root := writeWorkspace(t)

	tests := []struct {
		name  string
		input CheckInput
		want  error
	}{
		{name: "empty root", input: CheckInput{}, want: ErrEmptyRoot},
		{name: "relative root", input: CheckInput{Root: "some/dir"}, want: ErrPathNotAbsolute},
		{name: "missing root", input: CheckInput{Root: filepath.Join(root, "nope")}, want: ErrPathNotFound},
		{name: "unknown package", input: CheckInput{Root: root, Packages: []string{"ghost"}}, want: workspace.ErrUnknownPackage},
		{name: "unknown area", input: CheckInput{Root: root, Areas: []string{"docs"}}, want: depchain.ErrUnknownArea},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, _, err := srv.handlers.handleCheck(context.Background(), nil, tt.input)
			require.NoError(t, err)
			assert.True(t, result.IsError)

			want := tt.want.Error()
			assert.Contains(t, textOf(t, result), want)
		})
	}
}

func TestHandleImports_InlineCode(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	code := "import fs from 'fs';\nimport type { A } from '@scope/pkg/sub';\nconst b = require('./b');\n"

	result, output, err := srv.handlers.handleImports(context.Background(), nil,
		ImportsInput{Code: code, Filename: "index.ts"})
	require.NoError(t, err)
	require.False(t, result.IsError, textOf(t, result))

	out, ok := output.Data.(*report.FileImports)
	require.True(t, ok)
	require.Len(t, out.Imports, 3)

	assert.Equal(t, importmodel.KindBuiltIn, out.Imports[0].Kind)
	assert.Equal(t, importmodel.External("@scope/pkg", "sub", true), out.Imports[1].Import)
	assert.Equal(t, 2, out.Imports[1].Line)
	assert.Equal(t, importmodel.Internal("./b"), out.Imports[2].Import)
	assert.True(t, out.Imports[2].Dynamic)
}

func TestHandleImports_FilePath(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	path := filepath.Join(t.TempDir(), "index.js")
	writeFile(t, path, "export * from 'left-pad';\n")

	_, output, err := srv.handlers.handleImports(context.Background(), nil, ImportsInput{Path: path})
	require.NoError(t, err)

	out, ok := output.Data.(*report.FileImports)
	require.True(t, ok)
	require.Len(t, out.Imports, 1)
	assert.Equal(t, "left-pad", out.Imports[0].PackageName)
}

func TestHandleImports_InputErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	tests := []struct {
		name  string
		input ImportsInput
		want  string
	}{
		{name: "nothing", input: ImportsInput{}, want: ErrEmptySource.Error()},
		{name: "no filename", input: ImportsInput{Code: "x"}, want: ErrEmptyFilename.Error()},
		{name: "unsupported", input: ImportsInput{Code: "x", Filename: "main.go"}, want: ErrUnsupportedLanguage.Error()},
		{name: "relative path", input: ImportsInput{Path: "src/a.ts"}, want: ErrPathNotAbsolute.Error()},
		{name: "parse error", input: ImportsInput{Code: "import {", Filename: "a.ts"}, want: "a.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, _, err := srv.handlers.handleImports(context.Background(), nil, tt.input)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, textOf(t, result), tt.want)
		})
	}
}

func TestValidateCodeInput_TooLarge(t *testing.T) {
	t.Parallel()

	err := validateCodeInput(string(make([]byte, MaxCodeInputBytes+1)), "a.ts")
	require.ErrorIs(t, err, ErrCodeTooLarge)
}
