package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newExportCmd(client *api.Client) *cobra.Command {
	var flags struct {
		configDir string
		overwrite bool
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export registered templates and lookup tables as declarative YAML",
		Long:  "Reads the current registry state from the server and writes it as template YAML files, one per template plus a lookups file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !jsonOutput(cmd) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Fetching state from server...")
			}

			state, err := newStateClient(client, nil).ReadState()
			if err != nil {
				return fmt.Errorf("read server state: %w", err)
			}

			if err := declarative.ExportDirectory(flags.configDir, state, flags.overwrite); err != nil {
				return fmt.Errorf("export: %w", err)
			}

			return printResult(cmd,
				map[string]string{"status": "ok", "path": flags.configDir},
				fmt.Sprintf("Exported %d template(s) and %d lookup table(s) to %s",
					len(state.Templates), len(state.Lookups), flags.configDir))
		},
	}

	cmd.Flags().StringVar(&flags.configDir, "config-dir", "./templates", "Path to the output directory")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Overwrite existing files in the output directory")

	return cmd
}
