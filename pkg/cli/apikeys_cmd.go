package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newAPIKeysCmd(client *api.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apikeys",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
	}

	cmd.AddCommand(newAPIKeysCreateCmd(client))

	return cmd
}

func newAPIKeysCreateCmd(client *api.Client) *cobra.Command {
	var (
		principal   string
		name        string
		expiresDays int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new API key",
		Long:  "Issues an API key for a principal. The raw key is printed once; only its hash is stored on the server.",
		Example: `  synth apikeys create --principal ci-backfill --name "nightly backfill"
  synth apikeys create --principal dev@example.com --name laptop --expires-days 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := map[string]interface{}{
				"principal": principal,
				"name":      name,
			}
			if expiresDays > 0 {
				req["expires_in_days"] = expiresDays
			}

			resp, err := client.Do(http.MethodPost, "/apikeys", nil, req)
			if err != nil {
				return err
			}
			if err := api.CheckError(resp); err != nil {
				return err
			}
			body, err := api.ReadBody(resp)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				_, err := os.Stdout.Write(append(body, '\n'))
				return err
			}

			fields, err := decodeObject(body)
			if err != nil {
				return err
			}
			api.PrintDetail(os.Stdout, fields)
			_, _ = fmt.Fprintln(os.Stdout, "\nStore the key now; it is not shown again.")
			return nil
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "", "Identity the key authenticates as (required)")
	cmd.Flags().StringVar(&name, "name", "", "Human-readable key name (required)")
	cmd.Flags().IntVar(&expiresDays, "expires-days", 0, "Key lifetime in days; 0 means no expiry")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
