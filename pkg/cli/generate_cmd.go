package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/app"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/engine"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/formula"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/lookup"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/generation"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/template"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/validation"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

func newGenerateCmd(client *api.Client) *cobra.Command {
	var (
		templateID string
		count      int
		seed       int64
		outPath    string
		configDir  string
		remote     bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic records from a template",
		Long: `Runs one generation call and writes the records as JSON Lines, one record
per line. Records go to stdout unless --out names a file; the run summary
goes to stderr so piped output stays clean.

By default the records are produced locally from the builtin templates and
lookup tables, with no server involved; --config-dir adds declarative
templates from a directory first. With --remote the call goes to the server
instead.`,
		Example: `  # 500 deterministic ad-performance records to a file
  synth generate --template campaign_performance --count 500 --seed 42 --out ads.jsonl

  # Use a locally declared template
  synth generate --config-dir ./templates --template my_events --count 100

  # Same call against the server
  synth generate --remote --template campaign_performance --count 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := domain.GenerateOptions{}
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}

			if remote {
				if configDir != "" {
					return fmt.Errorf("--config-dir only applies to local generation; use 'synth apply' to push templates to the server")
				}
				return generateRemote(cmd, client, templateID, count, opts, outPath)
			}
			return generateLocal(cmd, templateID, count, opts, outPath, configDir, workers)
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "Template ID to generate from (required)")
	cmd.Flags().IntVar(&count, "count", 100, "Number of records to generate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for deterministic output; omit for a random seed")
	cmd.Flags().StringVar(&outPath, "out", "", "Write output to this file instead of stdout")
	cmd.Flags().StringVar(&configDir, "config-dir", "", "Also load declarative templates from this directory")
	cmd.Flags().BoolVar(&remote, "remote", false, "Generate on the server instead of locally")
	cmd.Flags().IntVar(&workers, "workers", 0, "Local generation workers; 0 picks a default")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func generateLocal(cmd *cobra.Command, templateID string, count int, opts domain.GenerateOptions, outPath, configDir string, workers int) error {
	ctx := cmd.Context()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	lookups := lookup.NewRegistry()
	if err := app.SeedLookupTables(lookups); err != nil {
		return fmt.Errorf("seed lookup tables: %w", err)
	}
	policies := validation.NewPolicyRegistry()
	app.RegisterBuiltinPolicies(policies)

	eng := engine.New(lookups, formula.NewRuntime(), logger)
	templates := template.NewService(eng, policies, nil, logger)
	for _, t := range app.BuiltinTemplates() {
		if err := templates.Register(ctx, t); err != nil {
			return fmt.Errorf("register builtin template %q: %w", t.ID, err)
		}
	}

	if configDir != "" {
		if err := loadLocalTemplates(ctx, configDir, lookups, templates); err != nil {
			return err
		}
	}

	svc := generation.NewService(templates, eng, nil, nil, logger, workers)
	result, err := svc.Generate(ctx, templateID, count, opts)
	if err != nil {
		return err
	}
	return emitResult(cmd, result, outPath)
}

// loadLocalTemplates registers a declarative directory on the in-process
// stack, the same load-validate-register sequence the server runs against
// its own templates directory at startup.
func loadLocalTemplates(ctx context.Context, dir string, lookups *lookup.Registry, templates *template.Service) error {
	desired, err := declarative.LoadDirectory(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if validationErrs := declarative.Validate(desired, lookups.Names()...); len(validationErrs) > 0 {
		for _, ve := range validationErrs {
			fmt.Fprintf(os.Stderr, "  - %s\n", ve.Error())
		}
		return fmt.Errorf("configuration has %d validation error(s)", len(validationErrs))
	}
	for _, lt := range desired.LookupTables {
		if err := lookups.Register(lt.Spec.Name, lt.Spec.Values); err != nil {
			return fmt.Errorf("register lookup table %q: %w", lt.Spec.Name, err)
		}
	}
	for _, tr := range desired.Templates {
		tmpl, err := tr.ToDomain()
		if err != nil {
			return fmt.Errorf("convert template %q: %w", tr.Name, err)
		}
		if err := templates.Register(ctx, tmpl); err != nil {
			return fmt.Errorf("register template %q: %w", tmpl.ID, err)
		}
	}
	return nil
}

func generateRemote(cmd *cobra.Command, client *api.Client, templateID string, count int, opts domain.GenerateOptions, outPath string) error {
	req := map[string]interface{}{
		"template_id": templateID,
		"count":       count,
		"options":     opts,
	}
	resp, err := client.Do(http.MethodPost, "/generate", nil, req)
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
		return writeDoc(outPath, func(w io.Writer) error {
			_, err := w.Write(append(body, '\n'))
			return err
		})
	}

	var result domain.GenerationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if err := writeDoc(outPath, func(w io.Writer) error {
		return writeRecords(w, result.Data)
	}); err != nil {
		return err
	}
	printGenerateSummary(&result)
	return nil
}

func emitResult(cmd *cobra.Command, result *domain.GenerationResult, outPath string) error {
	if getOutputFormat(cmd) == "json" {
		return writeDoc(outPath, func(w io.Writer) error {
			return api.PrintJSON(w, result)
		})
	}
	if err := writeDoc(outPath, func(w io.Writer) error {
		return writeRecords(w, result.Data)
	}); err != nil {
		return err
	}
	printGenerateSummary(result)
	return nil
}

func writeDoc(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func writeRecords(w io.Writer, records []domain.Record) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return nil
}

func printGenerateSummary(result *domain.GenerationResult) {
	fmt.Fprintf(os.Stderr, "Generated %d record(s) from template %q (run %s).\n",
		result.RecordsGenerated, result.TemplateID, result.ID)
	fmt.Fprintf(os.Stderr, "Quality: realism %.2f, diversity %.2f, validity %.2f.\n",
		result.QualityMetrics.RealismScore, result.QualityMetrics.DiversityIndex,
		result.Validation.ValidityRatio)
}
