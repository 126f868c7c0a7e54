package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newPlanCmd(client *api.Client) *cobra.Command {
	var flags struct {
		configDir string
		output    string
		noColor   bool
	}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show changes required to match the declarative configuration",
		Long:  "Reads template YAML files, compares them with the registry on the server, and shows a plan of changes without applying anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.output != "text" && flags.output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'text' or 'json'", flags.output)
			}

			desired, err := declarative.LoadDirectory(flags.configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Server state comes first so lookup tables that only exist
			// remotely count as resolvable during validation. Templates may
			// reference builtin tables the YAML never declares.
			sc := newStateClient(client, desired)
			actual, err := sc.ReadState()
			if err != nil {
				return fmt.Errorf("read server state: %w", err)
			}

			if errs := declarative.Validate(desired, lookupNames(actual)...); len(errs) > 0 {
				reportValidationErrors(cmd, errs)
				os.Exit(1)
			}

			plan := declarative.Diff(desired, actual)
			if flags.output == "json" {
				if err := declarative.FormatJSON(os.Stdout, plan); err != nil {
					return fmt.Errorf("format plan: %w", err)
				}
			} else {
				declarative.FormatText(os.Stdout, plan, flags.noColor)
			}

			// Exit code 2 when drift exists, so CI can gate on it.
			if plan.HasChanges() {
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.configDir, "config-dir", "./templates", "Path to the templates directory")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func lookupNames(actual *declarative.ActualState) []string {
	names := make([]string, 0, len(actual.Lookups))
	for name := range actual.Lookups {
		names = append(names, name)
	}
	return names
}
