package depchain

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
	"github.com/Sumatoshi-tech/depchain/pkg/imports"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

const tracerName = "depchain"

// Package is a checked package as seen by the validator.
type Package interface {
	PackageName() string
	Root() string
	Dependencies(kinds ...workspace.DependencyKind) []workspace.Dependency
}

// Logger receives the report of a package with invalid imports. Error
// carries the failure of a package whose invalid imports are not all
// type-only.
type Logger interface {
	Warn(msg string)
	Verbose(msg string)
	Error(msg string)
}

// Recorder receives per-check telemetry.
type Recorder interface {
	RecordCheck(ctx context.Context, status string, files int, duration time.Duration)
	RecordInvalid(ctx context.Context, typeOnly bool, count int)
}

type nopLogger struct{}

func (nopLogger) Warn(string)    {}
func (nopLogger) Verbose(string) {}
func (nopLogger) Error(string)   {}

// Validator checks packages against their declared dependencies. It is safe
// for concurrent use; all per-check state lives in the call.
type Validator struct {
	extractor       *imports.Extractor
	logger          Logger
	recorder        Recorder
	tracer          trace.Tracer
	ignoredImports  []string
	ignoredPackages map[string]bool
	extensions      []string
	fileConcurrency int
	kinds           []workspace.DependencyKind
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the report sink.
func WithLogger(logger Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithRecorder sets the telemetry sink.
func WithRecorder(recorder Recorder) Option {
	return func(v *Validator) {
		v.recorder = recorder
	}
}

// WithTracer sets the tracer used for per-package spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(v *Validator) {
		v.tracer = tracer
	}
}

// WithIgnoredImports replaces the names tolerated without a declaration.
func WithIgnoredImports(names []string) Option {
	return func(v *Validator) {
		v.ignoredImports = names
	}
}

// WithIgnoredPackages replaces the packages that are not checked.
func WithIgnoredPackages(names []string) Option {
	return func(v *Validator) {
		v.ignoredPackages = toSet(names)
	}
}

// WithExtensions sets the source file extensions to discover. An empty list
// keeps the defaults.
func WithExtensions(extensions []string) Option {
	return func(v *Validator) {
		if len(extensions) > 0 {
			v.extensions = extensions
		}
	}
}

// WithFileConcurrency bounds parallel file extraction within one package.
func WithFileConcurrency(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.fileConcurrency = n
		}
	}
}

// NewValidator creates a Validator sharing extractor across all checks.
func NewValidator(extractor *imports.Extractor, opts ...Option) *Validator {
	v := &Validator{
		extractor:       extractor,
		logger:          nopLogger{},
		tracer:          otel.Tracer(tracerName),
		ignoredImports:  DefaultIgnoredImports,
		ignoredPackages: toSet(DefaultIgnoredPackages),
		extensions:      workspace.DefaultSourceExtensions,
		fileConcurrency: runtime.GOMAXPROCS(0),
		kinds:           workspace.AllKinds,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Ignored reports whether the package is excluded from checking.
func (v *Validator) Ignored(name string) bool {
	return v.ignoredPackages[name]
}

// Check validates one area of pkg. Invalid imports are reported through the
// Logger; a *ValidationError is returned unless every invalid import is
// type-only. A parse error aborts the check before any report.
func (v *Validator) Check(ctx context.Context, pkg Package, area Area) (*Result, error) {
	name := pkg.PackageName()
	start := time.Now()

	ctx, span := v.tracer.Start(ctx, "depchain.check", trace.WithAttributes(
		attribute.String("depchain.package", name),
		attribute.String("depchain.area", string(area)),
	))
	defer span.End()

	result := &Result{Package: name, Area: area, State: StateIdle}

	err := v.run(ctx, pkg, area, result)

	result.Duration = time.Since(start)
	span.SetAttributes(
		attribute.String("depchain.state", result.State.String()),
		attribute.Int("depchain.files", result.Files),
		attribute.Int("depchain.invalid", len(result.Invalid)),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	v.record(ctx, result, err)

	return result, err
}

func (v *Validator) run(ctx context.Context, pkg Package, area Area, result *Result) error {
	name := pkg.PackageName()

	if v.Ignored(name) {
		result.Skipped = true
		result.State = StateClean

		return nil
	}

	dir, err := area.Dir(pkg.Root())
	if err != nil {
		return err
	}

	result.State = StateDiscovering

	discovered, err := workspace.SourceFiles(ctx, dir, v.extensions)
	if err != nil {
		return err
	}

	sources := make([]importmodel.SourceFile, 0, len(discovered))

	for _, file := range discovered {
		if file.IsSource() {
			sources = append(sources, file)
		}
	}

	result.Files = len(sources)
	result.TestFiles = len(discovered) - len(sources)

	if len(sources) == 0 {
		result.State = StateClean

		return nil
	}

	result.State = StateExtracting

	extracted, err := v.extract(ctx, sources)
	if err != nil {
		return err
	}

	result.State = StateValidating

	allowed := BuildAllowSet(name, pkg.Dependencies(v.kinds...), v.ignoredImports)

	for _, file := range extracted {
		source := importmodel.SourceFile{Path: relativePath(pkg.Root(), file.Path), Role: importmodel.RoleSource}

		for _, ref := range file.References {
			imp := importmodel.Classify(ref.Specifier, ref.TypeOnly)
			if imp.Kind != importmodel.KindExternal || allowed.Allows(imp.PackageName) {
				continue
			}

			inv, invErr := NewInvalidImport(source, imp, ref.Line)
			if invErr != nil {
				return invErr
			}

			result.Invalid = append(result.Invalid, inv)
		}
	}

	if len(result.Invalid) == 0 {
		result.State = StateClean

		return nil
	}

	result.State = StateReported

	v.logger.Warn(result.SummaryLine())

	for _, inv := range result.Invalid {
		v.logger.Verbose(inv.DetailLine())
	}

	if !result.TypesOnly() {
		validationErr := &ValidationError{Package: name, Invalid: result.Invalid}
		v.logger.Error(validationErr.Error())

		return validationErr
	}

	return nil
}

// extract parses every file concurrently. Each goroutine writes only its own
// slot, so the returned slice keeps discovery order.
func (v *Validator) extract(ctx context.Context, sources []importmodel.SourceFile) ([]importmodel.File, error) {
	files := make([]importmodel.File, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(v.fileConcurrency)

	for i, source := range sources {
		group.Go(func() error {
			file, err := v.extractor.ExtractFile(groupCtx, source.Path)
			if err != nil {
				return err
			}

			files[i] = file

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("extract imports: %w", err)
	}

	return files, nil
}

func (v *Validator) record(ctx context.Context, result *Result, err error) {
	if v.recorder == nil {
		return
	}

	v.recorder.RecordCheck(ctx, Status(result, err), result.Files, result.Duration)

	if len(result.Invalid) > 0 {
		typeOnly := 0

		for _, inv := range result.Invalid {
			if inv.TypeOnly() {
				typeOnly++
			}
		}

		if typeOnly > 0 {
			v.recorder.RecordInvalid(ctx, true, typeOnly)
		}

		if rest := len(result.Invalid) - typeOnly; rest > 0 {
			v.recorder.RecordInvalid(ctx, false, rest)
		}
	}
}

func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}

	return filepath.ToSlash(rel)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}

	return set
}
