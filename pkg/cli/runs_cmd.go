package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newRunsCmd(client *api.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "runs",
		Aliases: []string{"run"},
		Short:   "Inspect generation run history",
	}

	cmd.AddCommand(newRunsListCmd(client))
	cmd.AddCommand(newRunsGetCmd(client))

	return cmd
}

func newRunsListCmd(client *api.Client) *cobra.Command {
	var templateID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generation runs, newest first",
		Example: `  synth runs list
  synth runs list --template campaign_performance`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			if templateID != "" {
				query.Set("template_id", templateID)
			}

			items, err := api.FetchAllPages(client, http.MethodGet, "/runs", query)
			if err != nil {
				return err
			}

			if getQuiet(cmd) {
				for _, item := range items {
					if obj, ok := item.(map[string]interface{}); ok {
						_, _ = fmt.Fprintln(os.Stdout, api.ExtractField(obj, "id"))
					}
				}
				return nil
			}
			if getOutputFormat(cmd) == "json" {
				return api.PrintJSON(os.Stdout, items)
			}

			columns := []string{"id", "template_id", "status", "trigger_type", "accepted", "rejected", "duration_ms", "created_at"}
			rows := api.ExtractRows(map[string]interface{}{"data": items}, columns)
			api.PrintTable(os.Stdout, columns, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "Only runs for this template")

	return cmd
}

func newRunsGetCmd(client *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show one generation run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Do(http.MethodGet, "/runs/"+args[0], nil, nil)
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
			return nil
		},
	}
}
