// Package mcp implements a Model Context Protocol server exposing dependency
// chain checks as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/depchain/internal/observability"
	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
	"github.com/Sumatoshi-tech/depchain/pkg/imports"
	"github.com/Sumatoshi-tech/depchain/pkg/report"
	"github.com/Sumatoshi-tech/depchain/pkg/syntax"
	"github.com/Sumatoshi-tech/depchain/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "depchain"

	// toolCount is the expected number of registered tools.
	toolCount = 2
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Extractor parses files for the imports tool. Nil builds one over the default host.
	Extractor *imports.Extractor

	// Validator runs package checks. Nil builds one over Extractor.
	Validator *depchain.Validator

	// Areas are checked when a call names none. Empty means the package area.
	Areas []depchain.Area

	// Concurrency bounds the packages checked at once. Zero means unbounded.
	Concurrency int
}

// Server wraps the MCP SDK server with depchain tool registrations.
type Server struct {
	inner    *mcpsdk.Server
	mu       sync.RWMutex
	tools    []string
	metrics  *observability.REDMetrics
	tracer   trace.Tracer
	handlers *toolset
}

// NewServer creates a new MCP server with all depchain tools registered.
func NewServer(deps ServerDeps) (*Server, error) {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	extractor := deps.Extractor
	if extractor == nil {
		host, err := syntax.NewHost(syntax.DefaultExtensions)
		if err != nil {
			return nil, fmt.Errorf("create parser host: %w", err)
		}

		extractor = imports.NewExtractor(host)
	}

	validator := deps.Validator
	if validator == nil {
		validator = depchain.NewValidator(extractor, depchain.WithLogger(report.Nop{}))
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		handlers: &toolset{
			extractor:   extractor,
			validator:   validator,
			areas:       deps.Areas,
			concurrency: deps.Concurrency,
		},
	}

	srv.registerTools()

	return srv, nil
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameCheck,
		Description: checkToolDescription,
	}, withMetrics(s.metrics, ToolNameCheck, withTracing(s.tracer, ToolNameCheck, s.handlers.handleCheck)))

	s.trackTool(ToolNameCheck)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameImports,
		Description: importsToolDescription,
	}, withMetrics(s.metrics, ToolNameImports, withTracing(s.tracer, ToolNameImports, s.handlers.handleImports)))

	s.trackTool(ToolNameImports)
}

// mcpSpanPrefix is the prefix for MCP tool span and metric names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing opens a span per invocation and appends the trace_id to the
// response content when the span is sampled.
func withTracing[Input any](
	tracer trace.Tracer, toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics records RED metrics per invocation. Tool results flagged as
// errors count as failed requests.
func withMetrics[Input any](
	metrics *observability.REDMetrics, toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, op)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	checkToolDescription = "Check that every package in a JavaScript/TypeScript workspace only imports " +
		"packages it declares in package.json. Accepts an absolute workspace root, " +
		"optional package names and optional areas (package, plugin, cli, utils)."

	importsToolDescription = "List the classified imports (builtin, internal, external) of one source file. " +
		"Accepts an absolute file path, or inline code with a filename to pick the grammar."
)
