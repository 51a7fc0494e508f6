package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
	"github.com/Sumatoshi-tech/depchain/pkg/imports"
	"github.com/Sumatoshi-tech/depchain/pkg/report"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

// Tool name constants.
const (
	ToolNameCheck   = "depchain_check"
	ToolNameImports = "depchain_imports"
)

// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
const MaxCodeInputBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptyRoot indicates the root parameter is empty.
	ErrEmptyRoot = errors.New("root parameter is required and must not be empty")
	// ErrPathNotAbsolute indicates a path parameter is relative.
	ErrPathNotAbsolute = errors.New("path must be absolute")
	// ErrPathNotFound indicates a path parameter does not exist.
	ErrPathNotFound = errors.New("path does not exist")
	// ErrEmptySource indicates neither a path nor inline code was given.
	ErrEmptySource = errors.New("either path or code is required")
	// ErrEmptyFilename indicates inline code came without a filename.
	ErrEmptyFilename = errors.New("filename is required with inline code")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrUnsupportedLanguage indicates no grammar handles the file extension.
	ErrUnsupportedLanguage = errors.New("unsupported file extension")
)

// Input types (auto-generate JSON schemas via struct tags).

// CheckInput is the input schema for the depchain_check tool.
type CheckInput struct {
	Areas    []string `json:"areas,omitempty"    jsonschema:"optional package areas to check: package plugin cli utils (default: package)"`
	Packages []string `json:"packages,omitempty" jsonschema:"optional package names to check (default: every workspace package)"`
	Root     string   `json:"root"               jsonschema:"absolute path to the workspace root holding package.json"`
}

// ImportsInput is the input schema for the depchain_imports tool.
type ImportsInput struct {
	Code     string `json:"code,omitempty"     jsonschema:"inline source code; takes precedence over path"`
	Filename string `json:"filename,omitempty" jsonschema:"file name for inline code (e.g. index.ts) used to pick the grammar"`
	Path     string `json:"path,omitempty"     jsonschema:"absolute path to a source file"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// toolset holds what the tool handlers share.
type toolset struct {
	extractor   *imports.Extractor
	validator   *depchain.Validator
	areas       []depchain.Area
	concurrency int
}

func (ts *toolset) handleCheck(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input CheckInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateAbsPath(input.Root, ErrEmptyRoot)
	if err != nil {
		return errorResult(err)
	}

	areas, err := ts.parseAreas(input.Areas)
	if err != nil {
		return errorResult(err)
	}

	pkgs, err := workspace.Discover(input.Root)
	if err != nil {
		return errorResult(err)
	}

	pkgs, err = workspace.Select(pkgs, input.Packages)
	if err != nil {
		return errorResult(err)
	}

	start := time.Now()
	outcomes := depchain.RunWorkspace(ctx, ts.validator, depchain.Packages(pkgs), areas, ts.concurrency)

	summary := report.NewSummary(outcomes, time.Since(start))

	stats := ts.extractor.CacheStats()
	if stats.Hits+stats.Misses > 0 {
		summary.Cache = &stats
	}

	return jsonResult(summary)
}

func (ts *toolset) handleImports(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ImportsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	file, err := ts.extract(ctx, input)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(report.NewFileImports(file))
}

func (ts *toolset) extract(ctx context.Context, input ImportsInput) (importmodel.File, error) {
	if input.Code != "" {
		err := validateCodeInput(input.Code, input.Filename)
		if err != nil {
			return importmodel.File{}, err
		}

		if !ts.extractor.Host().IsSupported(input.Filename) {
			return importmodel.File{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filepath.Ext(input.Filename))
		}

		return ts.extractor.Extract(ctx, input.Filename, []byte(input.Code))
	}

	err := validateAbsPath(input.Path, ErrEmptySource)
	if err != nil {
		return importmodel.File{}, err
	}

	if !ts.extractor.Host().IsSupported(input.Path) {
		return importmodel.File{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filepath.Ext(input.Path))
	}

	return ts.extractor.ExtractFile(ctx, input.Path)
}

func (ts *toolset) parseAreas(names []string) ([]depchain.Area, error) {
	if len(names) == 0 {
		return ts.areas, nil
	}

	return depchain.ParseAreas(names)
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateCodeInput(code, filename string) error {
	if filename == "" {
		return ErrEmptyFilename
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}

func validateAbsPath(path string, errEmpty error) error {
	if path == "" {
		return errEmpty
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s", ErrPathNotAbsolute, path)
	}

	_, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}

	return nil
}
