package commands

import (
	"errors"

	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
	"github.com/Sumatoshi-tech/depchain/pkg/report"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitValidation = 1
	ExitFailure    = 2
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a command error to the process exit code. Invalid dependency
// chains exit 1; configuration, parse and internal failures exit 2.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if depchain.ClassifyError(err) == depchain.ClassValidation {
		return ExitValidation
	}

	return ExitFailure
}

// summaryError turns the failed packages of a run into one error. Any
// non-validation failure makes the whole run exit 2.
func summaryError(summary *report.Summary) error {
	if !summary.Failed() {
		return nil
	}

	code := ExitValidation

	for class := range summary.Failures {
		if class != depchain.ClassValidation {
			code = ExitFailure
		}
	}

	var errs []error

	for i := range summary.Packages {
		outcome := &summary.Packages[i]
		if outcome.Err == nil {
			continue
		}

		errs = append(errs, outcome.Err)
	}

	return &ExitError{
		Code: code,
		Err:  errors.Join(errs...),
	}
}
