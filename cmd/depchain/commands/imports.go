package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/depchain/pkg/config"
	"github.com/Sumatoshi-tech/depchain/pkg/imports"
	"github.com/Sumatoshi-tech/depchain/pkg/report"
	"github.com/Sumatoshi-tech/depchain/pkg/syntax"
)

// NewImportsCommand creates the imports command.
func NewImportsCommand() *cobra.Command {
	var format, configPath string

	cmd := &cobra.Command{
		Use:   "imports <file>",
		Short: "List the classified imports of a source file",
		Long: `Parse one JavaScript or TypeScript file and list every module it references
in document order: static imports, re-exports, require() and import() calls.
Each reference is classified as builtin, internal (relative) or external.
Extensions bound in source.grammars of the config are parsed too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunImports(cmd.Context(), cmd.OutOrStdout(), args[0], format, configPath)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(report.FormatText), "output format: text, json, yaml")
	cmd.Flags().StringVar(&configPath, "config", "", "path to depchain.yaml")

	return cmd
}

// RunImports extracts the imports of path and writes them to out.
func RunImports(ctx context.Context, out io.Writer, path, formatName, configPath string) error {
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	host, err := syntax.NewHost(cfg.Grammars())
	if err != nil {
		return fmt.Errorf("create parser host: %w", err)
	}

	file, err := imports.NewExtractor(host).ExtractFile(ctx, path)
	if err != nil {
		return err
	}

	return report.NewFileImports(file).Write(out, format)
}
