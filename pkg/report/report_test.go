package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/depchain/pkg/cache"
	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
	"github.com/Sumatoshi-tech/depchain/pkg/report"
)

func TestConsole_VerboseToggle(t *testing.T) {
	t.Parallel()

	var quiet, loud bytes.Buffer

	report.NewConsole(&quiet, report.WithoutColor()).Verbose("detail")
	report.NewConsole(&loud, report.WithoutColor(), report.WithVerbose(true)).Verbose("detail")

	assert.Empty(t, quiet.String())
	assert.Equal(t, "detail\n", loud.String())
}

func TestConsole_Lines(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	console := report.NewConsole(&out, report.WithoutColor())
	console.Warn("📦 Invalid dependency: baz")
	console.Error("foo has invalid dependency chains.")
	console.Success("ok")

	assert.Equal(t, "📦 Invalid dependency: baz\nfoo has invalid dependency chains.\nok\n", out.String())
}

func TestConsole_ConcurrentLinesDoNotInterleave(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	console := report.NewConsole(&out, report.WithoutColor())

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			console.Warn("line")
		}()
	}

	wg.Wait()

	assert.Equal(t, strings.Repeat("line\n", 20), out.String())
}

func TestNop_SatisfiesValidatorLogger(t *testing.T) {
	t.Parallel()

	var logger depchain.Logger = report.Nop{}

	logger.Warn("x")
	logger.Verbose("y")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"text", "JSON", "yaml"} {
		_, err := report.ParseFormat(name)
		require.NoError(t, err)
	}

	_, err := report.ParseFormat("xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func sampleOutcomes() []depchain.PackageOutcome {
	return []depchain.PackageOutcome{
		{
			Package: "clean",
			Status:  depchain.StatusClean,
			Results: []*depchain.Result{{Package: "clean", Area: depchain.AreaPackage, State: depchain.StateClean, Files: 1200}},
		},
		{
			Package: "broken",
			Status:  depchain.StatusInvalid,
			Class:   depchain.ClassValidation,
			Message: "broken has invalid dependency chains.",
			Err:     errors.New("broken has invalid dependency chains."),
			Results: []*depchain.Result{{
				Package: "broken",
				Area:    depchain.AreaPackage,
				State:   depchain.StateReported,
				Files:   3,
				Invalid: []depchain.InvalidImport{{
					File:   importmodel.SourceFile{Path: "src/index.ts", Role: importmodel.RoleSource},
					Import: importmodel.External("lodash", "fp", false),
					Line:   1,
				}},
			}},
		},
	}
}

func TestSummary_Text(t *testing.T) {
	t.Parallel()

	summary := report.NewSummary(sampleOutcomes(), 1500*time.Millisecond)
	summary.Cache = &cache.Stats{Hits: 3, Misses: 1}

	assert.True(t, summary.Failed())

	var out bytes.Buffer
	require.NoError(t, summary.Write(&out, report.FormatText))

	text := out.String()
	assert.Contains(t, text, "PACKAGE")
	assert.Contains(t, text, "broken")
	assert.Contains(t, text, "1,200")
	assert.Contains(t, text, "2 packages, 1,203 files, 1 failed in 1.5s")
	assert.Contains(t, text, "cache hit rate 75%")
}

func TestSummary_JSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, report.NewSummary(sampleOutcomes(), time.Second).Write(&out, report.FormatJSON))

	var decoded struct {
		Packages []struct {
			Package string `json:"package"`
			Status  string `json:"status"`
			Error   string `json:"error"`
			Results []struct {
				State   string `json:"state"`
				Invalid []struct {
					File struct {
						Path string `json:"path"`
					} `json:"file"`
					Import struct {
						Package string `json:"package"`
						SubPath string `json:"sub_path"`
					} `json:"import"`
				} `json:"invalid"`
			} `json:"results"`
		} `json:"packages"`
		Failures map[string]int `json:"failures"`
	}

	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded.Packages, 2)
	assert.Equal(t, "invalid", decoded.Packages[1].Status)
	assert.Equal(t, "reported", decoded.Packages[1].Results[0].State)
	invalid := decoded.Packages[1].Results[0].Invalid[0]
	assert.Equal(t, "src/index.ts", invalid.File.Path)
	assert.Equal(t, "lodash", invalid.Import.Package)
	assert.Equal(t, "fp", invalid.Import.SubPath)
	assert.Equal(t, map[string]int{"validation": 1}, decoded.Failures)
}

func TestSummary_YAML(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, report.NewSummary(sampleOutcomes(), time.Second).Write(&out, report.FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Contains(t, decoded, "packages")
	assert.Contains(t, out.String(), "status: invalid")
}

func TestSummary_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := report.NewSummary(nil, 0).Write(&bytes.Buffer{}, report.Format("xml"))
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}
