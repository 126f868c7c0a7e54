package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

// getOutputFormat returns the effective output format from the root command's
// persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

// jsonOutput reports whether the json output format is active.
func jsonOutput(cmd *cobra.Command) bool {
	return getOutputFormat(cmd) == "json"
}

func getQuiet(cmd *cobra.Command) bool {
	v, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

// printResult writes a one-line confirmation to stdout, or the payload as
// JSON when the json format is active.
func printResult(cmd *cobra.Command, payload any, text string) error {
	if jsonOutput(cmd) {
		return api.PrintJSON(os.Stdout, payload)
	}
	_, _ = fmt.Fprintln(os.Stdout, text)
	return nil
}

// decodeObject parses a JSON object body for detail rendering.
func decodeObject(body []byte) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return fields, nil
}
