package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newTemplatesCmd(client *api.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Manage generation templates on the server",
	}

	cmd.AddCommand(newTemplatesListCmd(client))
	cmd.AddCommand(newTemplatesGetCmd(client))
	cmd.AddCommand(newTemplatesRegisterCmd(client))
	cmd.AddCommand(newTemplatesDeleteCmd(client))
	cmd.AddCommand(newTemplatesImportCmd(client))

	return cmd
}

func newTemplatesListCmd(client *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered templates",
		Example: `  synth templates list
  synth templates list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := api.FetchAllPages(client, http.MethodGet, "/templates", nil)
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

			columns := []string{"id", "data_type", "rules", "backfill_cron", "created_by"}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				obj, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				ruleCount := ""
				if rules, ok := obj["rules"].([]interface{}); ok {
					ruleCount = fmt.Sprintf("%d", len(rules))
				}
				rows = append(rows, []string{
					api.ExtractField(obj, "id"),
					api.ExtractField(obj, "data_type"),
					ruleCount,
					api.ExtractField(obj, "backfill_cron"),
					api.ExtractField(obj, "created_by"),
				})
			}
			api.PrintTable(os.Stdout, columns, rows)
			return nil
		},
	}
}

func newTemplatesGetCmd(client *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <template-id>",
		Short: "Show one template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Do(http.MethodGet, "/templates/"+args[0], nil, nil)
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

func newTemplatesRegisterCmd(client *api.Client) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a template from a declarative YAML file",
		Long:  "Loads one template document, converts it to the API shape, and registers it. The file name must match the template name, the same rule the server applies to its templates directory.",
		Example: `  synth templates register --file templates/ads_basic.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := declarative.LoadTemplateFile(file)
			if err != nil {
				return fmt.Errorf("load template: %w", err)
			}
			tmpl, err := tr.ToDomain()
			if err != nil {
				return fmt.Errorf("convert template: %w", err)
			}

			resp, err := client.Do(http.MethodPost, "/templates", nil, tmpl)
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
			_, _ = fmt.Fprintf(os.Stdout, "Template %q registered.\n", tmpl.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the template YAML file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newTemplatesDeleteCmd(client *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Do(http.MethodDelete, "/templates/"+args[0], nil, nil)
			if err != nil {
				return err
			}
			if err := api.CheckError(resp); err != nil {
				return err
			}
			_, _ = api.ReadBody(resp)

			if getOutputFormat(cmd) == "json" {
				return api.PrintJSON(os.Stdout, map[string]string{
					"status": "deleted",
					"id":     args[0],
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Template %q deleted.\n", args[0])
			return nil
		},
	}
}

func newTemplatesImportCmd(client *api.Client) *cobra.Command {
	var (
		file       string
		schema     string
		templateID string
		register   bool
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Derive a template skeleton from an OpenAPI document",
		Long: `Sends an OpenAPI document to the server, which infers generation rules from
one component schema: numbers become statistical rules bounded by the schema,
enums become lookup tables, date-time strings become temporal patterns.
Without --register the skeleton is returned for review; --out writes it as a
declarative YAML file ready for the templates directory.`,
		Example: `  # Review the inferred skeleton
  synth templates import --file openapi.json --schema CampaignReport

  # Register it under a chosen ID
  synth templates import --file openapi.json --schema CampaignReport --id ads_v2 --register`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read openapi document: %w", err)
			}

			req := map[string]interface{}{
				"document": string(doc),
			}
			if schema != "" {
				req["schema"] = schema
			}
			if templateID != "" {
				req["template_id"] = templateID
			}
			if register {
				req["register"] = true
			}

			resp, err := client.Do(http.MethodPost, "/templates/import/openapi", nil, req)
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

			if outFile != "" {
				if err := writeImportedTemplate(body, outFile); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(os.Stdout, "Template written to %s\n", outFile)
				if !register {
					return nil
				}
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

	cmd.Flags().StringVar(&file, "file", "", "Path to the OpenAPI document, JSON or YAML (required)")
	cmd.Flags().StringVar(&schema, "schema", "", "Component schema to import; required when the document has several")
	cmd.Flags().StringVar(&templateID, "id", "", "Template ID override")
	cmd.Flags().BoolVar(&register, "register", false, "Register the derived template and its lookup tables")
	cmd.Flags().StringVar(&outFile, "out", "", "Write the derived template as declarative YAML to this path")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// writeImportedTemplate renders the import response's template as a
// declarative document so the skeleton can go straight into a templates
// directory. The file base name must match the template ID for the loader.
func writeImportedTemplate(body []byte, path string) error {
	var payload struct {
		Template *domain.Template `json:"template"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("parse import response: %w", err)
	}
	if payload.Template == nil || payload.Template.ID == "" {
		return fmt.Errorf("import response carries no template")
	}
	id := payload.Template.ID
	if base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)); base != id {
		return fmt.Errorf("output file %q must be named %s.yaml so the declarative loader accepts it", path, id)
	}

	doc := declarative.TemplateDoc{
		APIVersion: declarative.SupportedAPIVersion,
		Kind:       declarative.KindNameTemplate,
		Metadata:   declarative.ObjectMeta{Name: id},
		Spec:       declarative.SpecFromDomain(payload.Template),
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal template yaml: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
