// Command synthgen-demo runs the generator end to end without a server or a
// database: it seeds the builtin catalog, generates a handful of records from
// every builtin template, and prints them as JSON lines.
//
// Usage:
//
//	go run . [count] [template...]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/app"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/engine"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/formula"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/lookup"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/generation"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/template"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/validation"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	lookups := lookup.NewRegistry()
	if err := app.SeedLookupTables(lookups); err != nil {
		log.Fatalf("seed lookup tables: %v", err)
	}
	policies := validation.NewPolicyRegistry()
	app.RegisterBuiltinPolicies(policies)

	eng := engine.New(lookups, formula.NewRuntime(), logger)
	templates := template.NewService(eng, policies, nil, logger)

	ids := make([]string, 0, 3)
	for _, tmpl := range app.BuiltinTemplates() {
		if err := templates.Register(ctx, tmpl); err != nil {
			log.Fatalf("register template %q: %v", tmpl.ID, err)
		}
		ids = append(ids, tmpl.ID)
	}

	generator := generation.NewService(templates, eng, nil, nil, logger, 4)

	count := 5
	args := os.Args[1:]
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			count = n
			args = args[1:]
		}
	}
	if len(args) > 0 {
		ids = args
	}

	seed := int64(42)
	for _, id := range ids {
		fmt.Printf("\n=== Template: %s ===\n", id)

		result, err := generator.Generate(ctx, id, count, domain.GenerateOptions{Seed: &seed})
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			continue
		}

		for _, rec := range result.Data {
			line, err := json.Marshal(rec)
			if err != nil {
				fmt.Printf("ERROR encoding record: %v\n", err)
				break
			}
			fmt.Println(string(line))
		}
		fmt.Printf("\n(%d records, realism %.2f, diversity %.2f, validity %.2f)\n",
			result.RecordsGenerated,
			result.QualityMetrics.RealismScore,
			result.QualityMetrics.DiversityIndex,
			result.Validation.ValidityRatio)
	}
}
