package depchain

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/depchain/pkg/syntax"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

// Check statuses.
const (
	StatusClean   = "clean"
	StatusWarning = "warning"
	StatusInvalid = "invalid"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// ErrorClass separates a failed check from a tool failure.
type ErrorClass string

const (
	// ClassNone is the class of a nil error.
	ClassNone ErrorClass = ""
	// ClassConfig is an unknown area or an unusable manifest.
	ClassConfig ErrorClass = "config"
	// ClassParse is a malformed source file.
	ClassParse ErrorClass = "parse"
	// ClassValidation is an invalid dependency chain.
	ClassValidation ErrorClass = "validation"
	// ClassInternal is anything else.
	ClassInternal ErrorClass = "internal"
)

// ClassifyError maps an error returned by Check to its class.
func ClassifyError(err error) ErrorClass {
	var parseErr *syntax.ParseError

	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrInvalidDependencyChain):
		return ClassValidation
	case errors.As(err, &parseErr):
		return ClassParse
	case errors.Is(err, ErrUnknownArea), errors.Is(err, workspace.ErrInvalidManifest),
		errors.Is(err, workspace.ErrNoManifest):
		return ClassConfig
	default:
		return ClassInternal
	}
}

// Status summarizes a single check.
func Status(result *Result, err error) string {
	switch {
	case err != nil && ClassifyError(err) == ClassValidation:
		return StatusInvalid
	case err != nil:
		return StatusError
	case result == nil:
		return StatusError
	case result.Skipped:
		return StatusSkipped
	case result.State == StateReported:
		return StatusWarning
	default:
		return StatusClean
	}
}

// PackageOutcome collects the checks of one package.
type PackageOutcome struct {
	Package  string        `json:"package"          yaml:"package"`
	Path     string        `json:"path"             yaml:"path"`
	Status   string        `json:"status"           yaml:"status"`
	Results  []*Result     `json:"results"          yaml:"results"`
	Class    ErrorClass    `json:"class,omitempty"  yaml:"class,omitempty"`
	Message  string        `json:"error,omitempty"  yaml:"error,omitempty"`
	Duration time.Duration `json:"duration"         yaml:"duration"`
	Err      error         `json:"-"                yaml:"-"`
}

// Failed reports whether the package did not pass.
func (o *PackageOutcome) Failed() bool {
	return o.Err != nil
}

// Files returns the number of source files checked across areas.
func (o *PackageOutcome) Files() int {
	total := 0
	for _, result := range o.Results {
		total += result.Files
	}

	return total
}

// Invalid returns every invalid import found across areas.
func (o *PackageOutcome) Invalid() []InvalidImport {
	var out []InvalidImport
	for _, result := range o.Results {
		out = append(out, result.Invalid...)
	}

	return out
}

// RunWorkspace checks every area of every package, at most concurrency
// packages at a time. Packages share nothing, so one failing package never
// stops its siblings; within a package the first failing area ends its
// checks. Outcomes are returned in input order.
func RunWorkspace(ctx context.Context, validator *Validator, pkgs []Package, areas []Area, concurrency int) []PackageOutcome {
	if len(areas) == 0 {
		areas = []Area{AreaPackage}
	}

	outcomes := make([]PackageOutcome, len(pkgs))

	var group errgroup.Group
	if concurrency > 0 {
		group.SetLimit(concurrency)
	}

	for i, pkg := range pkgs {
		group.Go(func() error {
			outcomes[i] = checkPackage(ctx, validator, pkg, areas)

			return nil
		})
	}

	_ = group.Wait()

	return outcomes
}

// Packages converts a typed slice for RunWorkspace.
func Packages[P Package](pkgs []P) []Package {
	out := make([]Package, len(pkgs))
	for i, pkg := range pkgs {
		out[i] = pkg
	}

	return out
}

// Failures counts the outcomes of each error class.
func Failures(outcomes []PackageOutcome) map[ErrorClass]int {
	counts := make(map[ErrorClass]int)

	for i := range outcomes {
		if outcomes[i].Err != nil {
			counts[outcomes[i].Class]++
		}
	}

	return counts
}

func checkPackage(ctx context.Context, validator *Validator, pkg Package, areas []Area) PackageOutcome {
	start := time.Now()
	outcome := PackageOutcome{Package: pkg.PackageName(), Path: pkg.Root(), Status: StatusClean}

	allSkipped := true

	for _, area := range areas {
		result, err := validator.Check(ctx, pkg, area)
		if result != nil {
			outcome.Results = append(outcome.Results, result)
		}

		status := Status(result, err)
		if status != StatusSkipped {
			allSkipped = false
		}

		if status == StatusWarning {
			outcome.Status = StatusWarning
		}

		if err != nil {
			outcome.Err = err
			outcome.Class = ClassifyError(err)
			outcome.Message = err.Error()
			outcome.Status = status

			break
		}

		if result != nil && result.Skipped {
			break
		}
	}

	if allSkipped && outcome.Err == nil {
		outcome.Status = StatusSkipped
	}

	outcome.Duration = time.Since(start)

	return outcome
}
