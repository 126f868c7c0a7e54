// Package cli implements the synth command line interface: local record
// generation, declarative template workflows against a running server, run
// inspection, and auth/profile management.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and maps failures to exit code 1.
func Execute() int {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if output, _ := rootCmd.PersistentFlags().GetString("output"); output == "json" {
		_ = api.PrintJSON(os.Stdout, errorPayload(err))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}

// errorPayload shapes a CLI failure for json output, surfacing API error
// details when present.
func errorPayload(err error) map[string]any {
	payload := map[string]any{"error": err.Error()}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		payload["http_status"] = apiErr.HTTPStatus
		payload["code"] = apiErr.Code
	}
	return payload
}

// rootFlags holds the persistent connection flags shared by every
// subcommand.
type rootFlags struct {
	host    string
	apiKey  string
	token   string
	output  string
	profile string
	quiet   bool
}

func (f *rootFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.host, "host", "http://localhost:8080", "API host URL")
	fs.StringVar(&f.apiKey, "api-key", "", "API key for authentication")
	fs.StringVar(&f.token, "token", "", "JWT token for authentication")
	fs.StringVarP(&f.output, "output", "o", "table", "Output format (table, json)")
	fs.StringVarP(&f.profile, "profile", "p", "", "Config profile to use")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "Only output resource identifiers")
}

// resolve applies the value precedence for connection settings: command
// line flag, then environment, then the active profile, then defaults.
func (f *rootFlags) resolve(cmd *cobra.Command) {
	p := loadOrInitConfig().ActiveProfile(f.profile)

	fs := cmd.Flags()
	resolveFlag(fs, "host", "SYNTH_HOST", p.Host, &f.host)
	resolveFlag(fs, "api-key", "SYNTH_API_KEY", p.APIKey, &f.apiKey)
	resolveFlag(fs, "token", "SYNTH_TOKEN", p.Token, &f.token)
	resolveFlag(fs, "output", "SYNTH_OUTPUT", p.Output, &f.output)
}

// resolveFlag fills dst for one string flag that was not set on the command
// line, preferring the environment variable over the profile value.
func resolveFlag(fs *pflag.FlagSet, name, envKey, profileValue string, dst *string) {
	if fs.Changed(name) {
		return
	}
	if v := os.Getenv(envKey); v != "" {
		*dst = v
		return
	}
	if profileValue != "" {
		*dst = profileValue
	}
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	// One shared client for every subcommand. Its fields are filled in
	// by PersistentPreRunE once the flag precedence is resolved.
	client := api.NewClient("", "", "")

	rootCmd := &cobra.Command{
		Use:           "synth",
		Short:         "Synthetic record generator CLI",
		Long:          "Command-line interface for the synthetic record generator: local generation, declarative template management, and run inspection.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			f.resolve(cmd)
			if err := validateOutputFormat(f.output); err != nil {
				return err
			}
			client.BaseURL = f.host
			client.APIKey = f.apiKey
			client.Token = f.token
			return nil
		},
	}

	f.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newGenerateCmd(client),
		newTemplatesCmd(client),
		newRunsCmd(client),
		newAPIKeysCmd(client),
	)

	// Declarative configuration workflow.
	rootCmd.AddCommand(
		newPlanCmd(client),
		newApplyCmd(client),
		newValidateCmd(client),
		newExportCmd(client),
	)

	rootCmd.AddCommand(
		newLoginCmd(),
		newAuthCmd(),
		newConfigCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(os.Stdout)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return fmt.Errorf("unsupported shell: %s", args[0])
		},
	}
}
