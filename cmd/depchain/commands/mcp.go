package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/depchain/internal/mcp"
	"github.com/Sumatoshi-tech/depchain/internal/observability"
	"github.com/Sumatoshi-tech/depchain/pkg/config"
	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
	"github.com/Sumatoshi-tech/depchain/pkg/report"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		debug      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes depchain as tools that AI agents can discover and invoke:
  - depchain_check: validate workspace packages against their declared dependencies
  - depchain_imports: list the classified imports of one source file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if debug {
				cfg.Logging.Level = "debug"
			}

			env, err := newEnvironment(cfg, observability.ModeMCP, os.Stderr)
			if err != nil {
				return err
			}
			defer env.Close(context.Background())

			srv, err := newMCPServer(env)
			if err != nil {
				return err
			}

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&configPath, "config", "", "path to depchain.yaml")

	return cmd
}

func newMCPServer(env *environment) (*mcp.Server, error) {
	red, err := observability.NewREDMetrics(env.providers.Meter)
	if err != nil {
		return nil, err
	}

	areas, err := env.cfg.Areas()
	if err != nil {
		return nil, err
	}

	// Stdout carries the MCP protocol; findings travel in tool results only.
	validator, err := newValidator(env, depchain.WithLogger(report.Nop{}))
	if err != nil {
		return nil, err
	}

	return mcp.NewServer(mcp.ServerDeps{
		Logger:      env.providers.Logger,
		Metrics:     red,
		Tracer:      env.providers.Tracer,
		Extractor:   env.extractor,
		Validator:   validator,
		Areas:       areas,
		Concurrency: env.cfg.Check.Concurrency,
	})
}
