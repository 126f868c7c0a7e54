package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newLoginCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key in the active profile",
		Long:  "Prompts for an API key without echoing it and saves it to the active profile. Pass --host to record the server address at the same time.",
		Example: `  # Log in against the default host
  synth login

  # Log in against a specific server
  synth login --host https://synthgen.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("host") {
				if err := validateHostURL(host); err != nil {
					return err
				}
			}
			if !api.IsStdinTTY() {
				return fmt.Errorf("login prompts for a key and needs a terminal; use 'synth config set-profile --api-key' in scripts")
			}

			_, _ = fmt.Fprint(os.Stdout, "API key: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			_, _ = fmt.Fprintln(os.Stdout)
			if err != nil {
				return fmt.Errorf("read api key: %w", err)
			}
			key := strings.TrimSpace(string(raw))
			if key == "" {
				return fmt.Errorf("api key cannot be empty")
			}

			profileName, err := saveToActiveProfile(func(p *Profile) {
				p.APIKey = key
				if cmd.Flags().Changed("host") {
					p.Host = host
				}
			})
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return api.PrintJSON(os.Stdout, map[string]string{
					"status":  "ok",
					"profile": profileName,
					"path":    ConfigPath(),
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "API key saved to profile %q (%s)\n", profileName, ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "API host URL to store alongside the key")

	return cmd
}
