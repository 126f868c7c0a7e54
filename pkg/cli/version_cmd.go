package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload := map[string]string{"version": version, "commit": commit}
			text := fmt.Sprintf("synth version %s (commit: %s)", version, commit)
			return printResult(cmd, payload, text)
		},
	}
}
