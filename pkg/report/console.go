// Package report renders check findings for people and machines.
package report

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// Logger is the sink for check findings.
type Logger interface {
	// Warn prints a finding that is always shown.
	Warn(msg string)
	// Verbose prints supplementary detail, shown only in verbose mode.
	Verbose(msg string)
	// Error prints a failure.
	Error(msg string)
}

// Nop discards everything.
type Nop struct{}

// Warn implements Logger.
func (Nop) Warn(string) {}

// Verbose implements Logger.
func (Nop) Verbose(string) {}

// Error implements Logger.
func (Nop) Error(string) {}

// Console writes colored lines to a terminal. Lines from concurrent checks
// never interleave.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool

	warn    *color.Color
	detail  *color.Color
	failure *color.Color
	success *color.Color
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithVerbose enables Verbose lines.
func WithVerbose(verbose bool) ConsoleOption {
	return func(c *Console) {
		c.verbose = verbose
	}
}

// WithoutColor disables escape sequences regardless of the terminal.
func WithoutColor() ConsoleOption {
	return func(c *Console) {
		for _, col := range []*color.Color{c.warn, c.detail, c.failure, c.success} {
			col.DisableColor()
		}
	}
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		out:     out,
		warn:    color.New(color.FgYellow),
		detail:  color.New(color.Faint),
		failure: color.New(color.FgRed, color.Bold),
		success: color.New(color.FgGreen),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Warn implements Logger.
func (c *Console) Warn(msg string) {
	c.println(c.warn, msg)
}

// Verbose implements Logger.
func (c *Console) Verbose(msg string) {
	if !c.verbose {
		return
	}

	c.println(c.detail, msg)
}

// Error implements Logger.
func (c *Console) Error(msg string) {
	c.println(c.failure, msg)
}

// Success prints a passing line.
func (c *Console) Success(msg string) {
	c.println(c.success, msg)
}

func (c *Console) println(col *color.Color, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = col.Fprintln(c.out, msg)
}
