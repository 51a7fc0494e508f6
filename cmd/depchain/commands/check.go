package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/depchain/internal/observability"
	"github.com/Sumatoshi-tech/depchain/pkg/config"
	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
	"github.com/Sumatoshi-tech/depchain/pkg/report"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

// CheckOptions holds the flags of the check command.
type CheckOptions struct {
	Packages   []string
	Areas      []string
	Format     string
	ConfigPath string
	Verbose    bool
	NoColor    bool
	Watch      bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check [root]",
		Short: "Validate that packages only import declared dependencies",
		Long: `Check every package of a JavaScript/TypeScript workspace for phantom
dependencies: external imports of packages not declared in the package's
dependencies, devDependencies or peerDependencies.

The workspace root defaults to the current directory. Packages are found
through the "workspaces" field of the root package.json; without it the
root itself is the only package.

Exit status is 1 when a package has invalid dependency chains and 2 on
configuration, parse or internal errors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			return RunCheck(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.Packages, "package", "p", nil, "check only the named packages (repeatable)")
	flags.StringSliceVar(&opts.Areas, "area", nil, "package areas to check: package, plugin, cli, utils (default from config)")
	flags.StringVar(&opts.Format, "format", string(report.FormatText), "summary format: text, json, yaml")
	flags.StringVar(&opts.ConfigPath, "config", "", "path to depchain.yaml")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "list every invalid import")
	flags.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	flags.BoolVar(&opts.Watch, "watch", false, "re-check packages when their sources change")

	return cmd
}

// RunCheck validates the workspace at root and writes the summary to out.
// Report lines and logs go to errOut.
func RunCheck(ctx context.Context, out, errOut io.Writer, root string, opts *CheckOptions) error {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	areas, err := selectAreas(cfg, opts.Areas)
	if err != nil {
		return err
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	pkgs, err := workspace.Discover(root)
	if err != nil {
		return err
	}

	pkgs, err = workspace.Select(pkgs, opts.Packages)
	if err != nil {
		return err
	}

	mode := observability.ModeCLI
	if opts.Watch {
		mode = observability.ModeWatch
	}

	env, err := newEnvironment(cfg, mode, errOut)
	if err != nil {
		return err
	}
	defer env.Close(context.WithoutCancel(ctx))

	console := newConsole(errOut, opts)

	validator, err := newValidator(env, depchain.WithLogger(console))
	if err != nil {
		return err
	}

	run := &checkRun{
		validator:   validator,
		env:         env,
		areas:       areas,
		concurrency: cfg.Check.Concurrency,
		format:      format,
		out:         out,
	}

	if opts.Watch {
		return watchPackages(ctx, pkgs, cfg.Source.Extensions, run, console, env.providers.Logger)
	}

	return summaryError(run.check(ctx, pkgs))
}

func newConsole(errOut io.Writer, opts *CheckOptions) *report.Console {
	consoleOpts := []report.ConsoleOption{report.WithVerbose(opts.Verbose)}
	if opts.NoColor {
		consoleOpts = append(consoleOpts, report.WithoutColor())
	}

	return report.NewConsole(errOut, consoleOpts...)
}

// newValidator builds a validator from the loaded settings. Extra options
// are applied last.
func newValidator(env *environment, extra ...depchain.Option) (*depchain.Validator, error) {
	checks, err := observability.NewCheckMetrics(env.providers.Meter)
	if err != nil {
		return nil, err
	}

	opts := []depchain.Option{
		depchain.WithRecorder(checks),
		depchain.WithTracer(env.providers.Tracer),
		depchain.WithIgnoredImports(env.cfg.Ignore.Imports),
		depchain.WithIgnoredPackages(env.cfg.Ignore.Packages),
		depchain.WithExtensions(env.cfg.Source.Extensions),
		depchain.WithFileConcurrency(env.cfg.Check.FileConcurrency),
	}

	return depchain.NewValidator(env.extractor, append(opts, extra...)...), nil
}

// checkRun checks a set of packages and prints the summary.
type checkRun struct {
	validator   *depchain.Validator
	env         *environment
	areas       []depchain.Area
	concurrency int
	format      report.Format
	out         io.Writer
}

func (r *checkRun) check(ctx context.Context, pkgs []*workspace.Package) *report.Summary {
	start := time.Now()
	outcomes := depchain.RunWorkspace(ctx, r.validator, depchain.Packages(pkgs), r.areas, r.concurrency)

	summary := report.NewSummary(outcomes, time.Since(start))

	stats := r.env.extractor.CacheStats()
	if stats.Hits+stats.Misses > 0 {
		summary.Cache = &stats
	}

	err := summary.Write(r.out, r.format)
	if err != nil {
		r.env.providers.Logger.ErrorContext(ctx, "write summary", "error", err)
	}

	return summary
}

func selectAreas(cfg *config.Config, names []string) ([]depchain.Area, error) {
	if len(names) == 0 {
		return cfg.Areas()
	}

	return depchain.ParseAreas(names)
}
