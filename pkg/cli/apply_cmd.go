package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newApplyCmd(client *api.Client) *cobra.Command {
	var flags struct {
		configDir   string
		autoApprove bool
		prune       bool
		noColor     bool
	}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply declarative configuration changes to the server",
		Long: `Reads template YAML files, compares them with the registry on the server,
and applies the changes. Templates registered on the server but not declared
in any YAML file are only deleted with --prune; without it they are reported
and left alone, which keeps the builtin templates safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			desired, err := declarative.LoadDirectory(flags.configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Server state comes first so lookup tables that only exist
			// remotely count as resolvable during validation.
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
			declarative.FormatText(os.Stdout, plan, flags.noColor)
			if !plan.HasChanges() {
				return nil
			}

			if !flags.autoApprove {
				ok, err := confirmApply()
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(os.Stdout, "Apply cancelled.")
					return nil
				}
			}

			succeeded, failed, skipped := executePlan(sc, plan, flags.prune)

			_, _ = fmt.Fprintf(os.Stdout, "\nApply complete: %d succeeded, %d failed.\n", succeeded, failed)
			if skipped > 0 {
				_, _ = fmt.Fprintf(os.Stdout, "Skipped %d delete(s); re-run with --prune to remove undeclared templates.\n", skipped)
			}
			if failed > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.configDir, "config-dir", "./templates", "Path to the templates directory")
	cmd.Flags().BoolVar(&flags.autoApprove, "auto-approve", false, "Skip interactive confirmation prompt")
	cmd.Flags().BoolVar(&flags.prune, "prune", false, "Delete templates on the server that no YAML file declares")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// confirmApply prompts on stdout and reads a yes/no answer from stdin.
func confirmApply() (bool, error) {
	if !api.IsStdinTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal; use --auto-approve")
	}
	_, _ = fmt.Fprint(os.Stdout, "\nApply these changes? [y/N] ")
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}

// executePlan runs every action in order, reporting progress per action.
// Deletes are skipped unless prune is set.
func executePlan(sc *stateClient, plan *declarative.Plan, prune bool) (succeeded, failed, skipped int) {
	for _, action := range plan.Actions {
		if action.Operation == declarative.OpDelete && !prune {
			skipped++
			continue
		}

		_, _ = fmt.Fprintf(os.Stdout, "  %s %s %q ... ",
			action.Operation, action.ResourceKind, action.ResourceName)

		if err := sc.Execute(action); err != nil {
			_, _ = fmt.Fprintf(os.Stdout, "failed: %v\n", err)
			failed++
		} else {
			_, _ = fmt.Fprintln(os.Stdout, "succeeded")
			succeeded++
		}
	}
	return succeeded, failed, skipped
}
