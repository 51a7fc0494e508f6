package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/depchain/pkg/cache"
	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects how a summary is rendered.
type Format string

const (
	// FormatText is a table for terminals.
	FormatText Format = "text"
	// FormatJSON is an indented JSON document.
	FormatJSON Format = "json"
	// FormatYAML is a YAML document.
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch format := Format(strings.ToLower(s)); format {
	case FormatText, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Summary is the outcome of a workspace run.
type Summary struct {
	Packages []depchain.PackageOutcome   `json:"packages"           yaml:"packages"`
	Failures map[depchain.ErrorClass]int `json:"failures,omitempty" yaml:"failures,omitempty"`
	Elapsed  time.Duration               `json:"elapsed"            yaml:"elapsed"`
	Cache    *cache.Stats                `json:"cache,omitempty"    yaml:"cache,omitempty"`
}

// NewSummary builds a Summary from runner outcomes.
func NewSummary(outcomes []depchain.PackageOutcome, elapsed time.Duration) *Summary {
	return &Summary{
		Packages: outcomes,
		Failures: depchain.Failures(outcomes),
		Elapsed:  elapsed,
	}
}

// Failed reports whether any package failed.
func (s *Summary) Failed() bool {
	return len(s.Failures) > 0
}

// Write renders the summary in the given format.
func (s *Summary) Write(w io.Writer, format Format) error {
	return writeAs(w, format, s, s.table)
}

// writeAs encodes value as JSON or YAML, or writes the text rendering.
func writeAs(w io.Writer, format Format, value any, render func() string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(value)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(value)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	case FormatText:
		_, err := io.WriteString(w, render()+"\n")

		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func (s *Summary) table() string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.AppendHeader(table.Row{"Package", "Status", "Files", "Invalid", "Duration"})

	files := 0

	for i := range s.Packages {
		outcome := &s.Packages[i]
		files += outcome.Files()

		tbl.AppendRow(table.Row{
			outcome.Package,
			outcome.Status,
			humanize.Comma(int64(outcome.Files())),
			len(outcome.Invalid()),
			outcome.Duration.Round(time.Millisecond),
		})
	}

	failed := 0
	for _, count := range s.Failures {
		failed += count
	}

	footer := fmt.Sprintf("%d packages, %s files, %d failed in %s",
		len(s.Packages), humanize.Comma(int64(files)), failed, s.Elapsed.Round(time.Millisecond))

	if s.Cache != nil && s.Cache.Hits+s.Cache.Misses > 0 {
		footer += fmt.Sprintf(", cache hit rate %.0f%%", s.Cache.HitRate()*100) //nolint:mnd // percent.
	}

	tbl.AppendFooter(table.Row{footer})

	return tbl.Render()
}
