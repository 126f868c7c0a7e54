package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetProfileCmd(), newConfigUseProfileCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "No configuration found at %s\n", ConfigPath())
				return err
			}
			if !reveal {
				cfg = maskConfig(cfg)
			}
			if jsonOutput(cmd) {
				return api.PrintJSON(os.Stdout, cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, _ = os.Stdout.Write(data)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show sensitive values unmasked")
	return cmd
}

// maskConfig returns a copy of the config with credentials masked.
func maskConfig(cfg *UserConfig) *UserConfig {
	out := &UserConfig{
		CurrentProfile: cfg.CurrentProfile,
		Profiles:       make(map[string]Profile, len(cfg.Profiles)),
	}
	for name, p := range cfg.Profiles {
		p.APIKey = maskSecret(p.APIKey)
		p.Token = maskSecret(p.Token)
		out.Profiles[name] = p
	}
	return out
}

// maskSecret keeps the first and last 4 characters of long secrets.
func maskSecret(s string) string {
	const keep = 4
	if s == "" {
		return ""
	}
	if len(s) <= 2*keep+2 {
		return "****"
	}
	return s[:keep] + "****" + s[len(s)-keep:]
}

// loadOrInitConfig returns the stored config, or a fresh default when no
// config file exists yet.
func loadOrInitConfig() *UserConfig {
	cfg, err := LoadUserConfig()
	if err != nil {
		return &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
	}
	return cfg
}

func newConfigSetProfileCmd() *cobra.Command {
	var flags struct {
		name, host, apiKey, token, output string
	}

	cmd := &cobra.Command{
		Use:   "set-profile",
		Short: "Create or update a configuration profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			changed := cmd.Flags().Changed
			if changed("output-format") {
				if err := validateOutputFormat(flags.output); err != nil {
					return err
				}
			}
			if changed("host") {
				if err := validateHostURL(flags.host); err != nil {
					return err
				}
			}

			cfg := loadOrInitConfig()
			p := cfg.Profiles[flags.name]
			if changed("host") {
				p.Host = flags.host
			}
			if changed("api-key") {
				p.APIKey = flags.apiKey
			}
			if changed("token") {
				p.Token = flags.token
			}
			if changed("output-format") {
				p.Output = flags.output
			}
			cfg.Profiles[flags.name] = p

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			return printResult(cmd,
				map[string]string{"status": "ok", "profile": flags.name, "path": ConfigPath()},
				fmt.Sprintf("Profile %q saved to %s", flags.name, ConfigPath()))
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&flags.host, "host", "", "API host URL")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&flags.token, "token", "", "JWT token")
	cmd.Flags().StringVar(&flags.output, "output-format", "", "Default output format")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the active configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			return printResult(cmd,
				map[string]string{"status": "ok", "active_profile": name},
				fmt.Sprintf("Active profile set to %q", name))
		},
	}
}
