package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/depchain/pkg/version"
)

// NewRootCommand assembles the depchain command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "depchain",
		Short: "depchain - phantom dependency checker for JavaScript/TypeScript workspaces",
		Long: `depchain verifies that every package of a workspace only imports packages
it declares in its package.json.

Commands:
  check     Validate workspace packages
  imports   List the classified imports of a file
  mcp       Serve the checks to AI agents over MCP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewImportsCommand())
	rootCmd.AddCommand(NewMCPCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
