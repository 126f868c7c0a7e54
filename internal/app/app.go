// Package app provides application-level wiring for the generator: it
// assembles repositories, the lookup registry, the rule engine, and the
// services, then runs the startup sequence that seeds builtins, loads
// persisted templates, and applies the declarative templates directory.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/config"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/db/repository"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/engine"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/formula"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/lookup"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/export"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/generation"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/template"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/sink"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/validation"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// config and the open database handles.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	SinkDB  *sql.DB // nil disables the record sink
	Logger  *slog.Logger
}

// Services groups the service pointers the API handler and router need.
type Services struct {
	Templates  *template.Service
	Generation *generation.Service
	Export     *export.Service
	Scheduler  *generation.Scheduler
}

// App holds the fully-wired application plus the pieces the router needs
// directly: the lookup registry for template imports, the run repo for
// history reads, and the API key repos for auth and key issuance.
type App struct {
	Services Services
	Lookups  *lookup.Registry
	Runs     *repository.RunRepo

	// APIKeyReader serves auth middleware lookups from the read pool;
	// APIKeyWriter serves key issuance on the write pool.
	APIKeyReader *repository.APIKeyRepo
	APIKeyWriter *repository.APIKeyRepo
}

// New wires all repositories, the engine, and services from the provided
// deps, then runs startup: load persisted templates, seed the builtin
// catalog, apply the declarative templates directory, and prepare sink
// tables for every registered template.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg

	// === Repositories ===
	templateRepo := repository.NewTemplateRepo(deps.WriteDB)
	runWriteRepo := repository.NewRunRepo(deps.WriteDB)
	runReadRepo := repository.NewRunRepo(deps.ReadDB)
	apiKeyReader := repository.NewAPIKeyRepo(deps.ReadDB)
	apiKeyWriter := repository.NewAPIKeyRepo(deps.WriteDB)

	// === Lookup registry + validation policies ===
	lookups := lookup.NewRegistry()
	if err := SeedLookupTables(lookups); err != nil {
		return nil, fmt.Errorf("seed lookup tables: %w", err)
	}
	policies := validation.NewPolicyRegistry()
	RegisterBuiltinPolicies(policies)

	// === Engine + template service ===
	eng := engine.New(lookups, formula.NewRuntime(), deps.Logger)
	templates := template.NewService(eng, policies, templateRepo, deps.Logger)

	// === Record sink (optional) ===
	var recordSink domain.RecordSink
	if deps.SinkDB != nil {
		recordSink = sink.NewDuckDBSink(deps.SinkDB, deps.Logger)
	}

	// === Generation ===
	generator := generation.NewService(templates, eng, runWriteRepo, recordSink, deps.Logger, cfg.GenerationWorkers)

	// === Corpus export ===
	var objects domain.ObjectStore
	if cfg.HasS3Config() {
		s3Store, err := export.NewS3Store(cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 export store: %w", err)
		}
		objects = s3Store
		deps.Logger.Info("corpus export to s3", "bucket", *cfg.S3Bucket)
	} else {
		localStore, err := export.NewLocalStore(cfg.ExportDir)
		if err != nil {
			return nil, fmt.Errorf("local export store: %w", err)
		}
		objects = localStore
		deps.Logger.Info("corpus export to local directory", "dir", cfg.ExportDir)
	}
	exporter := export.NewService(objects, deps.Logger)

	// === Backfill scheduler ===
	// Wired before registration so seeded templates pick up their cron
	// entries; the cron itself stays stopped until main() calls Start.
	scheduler := generation.NewScheduler(generator, templates, deps.Logger)
	templates.SetScheduleReloader(scheduler)

	// === Startup sequence ===
	if err := templates.LoadFromStore(ctx); err != nil {
		return nil, fmt.Errorf("load persisted templates: %w", err)
	}
	if err := seedTemplates(ctx, templates); err != nil {
		return nil, fmt.Errorf("seed builtin templates: %w", err)
	}
	if cfg.TemplatesDir != "" {
		if err := applyTemplatesDir(ctx, cfg.TemplatesDir, lookups, templates, deps.Logger); err != nil {
			deps.Logger.Warn("declarative templates load failed", "dir", cfg.TemplatesDir, "error", err)
		}
	}
	if recordSink != nil {
		if err := prepareSinkTables(ctx, templates, recordSink, deps.Logger); err != nil {
			deps.Logger.Warn("sink table preparation failed", "error", err)
		}
	}

	return &App{
		Services: Services{
			Templates:  templates,
			Generation: generator,
			Export:     exporter,
			Scheduler:  scheduler,
		},
		Lookups:      lookups,
		Runs:         runReadRepo,
		APIKeyReader: apiKeyReader,
		APIKeyWriter: apiKeyWriter,
	}, nil
}
