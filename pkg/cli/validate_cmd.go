package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newValidateCmd(_ *api.Client) *cobra.Command {
	var flags struct {
		configDir          string
		allowUnknownFields bool
		externalLookups    []string
	}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate declarative template files offline",
		Long:  "Reads template YAML files and checks them for errors without contacting the server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			desired, err := declarative.LoadDirectoryWithOptions(flags.configDir, declarative.LoadOptions{
				AllowUnknownFields: flags.allowUnknownFields,
			})
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if errs := declarative.Validate(desired, flags.externalLookups...); len(errs) > 0 {
				reportValidationErrors(cmd, errs)
				os.Exit(1)
			}

			return printResult(cmd, map[string]interface{}{"valid": true}, "Configuration is valid.")
		},
	}

	cmd.Flags().StringVar(&flags.configDir, "config-dir", "./templates", "Path to the templates directory")
	cmd.Flags().BoolVar(&flags.allowUnknownFields, "allow-unknown-fields", false, "Allow unknown YAML fields in template files")
	cmd.Flags().StringSliceVar(&flags.externalLookups, "external-lookup", nil, "Lookup table that exists on the server; may be repeated")

	return cmd
}

func reportValidationErrors(cmd *cobra.Command, errs []declarative.ValidationError) {
	if jsonOutput(cmd) {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		_ = api.PrintJSON(os.Stdout, map[string]interface{}{
			"valid":  false,
			"errors": msgs,
		})
		return
	}

	fmt.Fprintf(os.Stderr, "Configuration has %d validation error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  - %s\n", e.Error())
	}
}
