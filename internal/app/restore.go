package app

import (
	"context"
	"log/slog"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/lookup"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/template"
)

// applyTemplatesDir loads the declarative documents from dir and registers
// them, lookup tables first so templates compile against them. Declarative
// templates overwrite same-ID registry entries; individual documents that
// fail to convert or register are logged and skipped rather than blocking
// boot.
func applyTemplatesDir(ctx context.Context, dir string, lookups *lookup.Registry, templates *template.Service, logger *slog.Logger) error {
	state, err := declarative.LoadDirectory(dir)
	if err != nil {
		return err
	}

	for _, lt := range state.LookupTables {
		if err := lookups.Register(lt.Spec.Name, lt.Spec.Values); err != nil {
			logger.Warn("skipping declarative lookup table",
				"name", lt.Spec.Name, "file", lt.FilePath, "error", err)
		}
	}

	applied, skipped := 0, 0
	for _, tr := range state.Templates {
		t, err := tr.ToDomain()
		if err == nil {
			err = templates.Register(ctx, t)
		}
		if err != nil {
			skipped++
			logger.Warn("skipping declarative template",
				"name", tr.Name, "file", tr.FilePath, "error", err)
			continue
		}
		applied++
	}
	logger.Info("declarative templates applied", "dir", dir, "applied", applied, "skipped", skipped)
	return nil
}

// prepareSinkTables creates the sink table for every registered template so
// the first backfill or persist call does not pay table creation. Best
// effort: a failing table is logged and skipped.
func prepareSinkTables(ctx context.Context, templates *template.Service, recordSink domain.RecordSink, logger *slog.Logger) error {
	prepared := 0
	page := domain.PageRequest{MaxResults: domain.MaxMaxResults}
	for {
		batch, next, err := templates.List(ctx, page)
		if err != nil {
			return err
		}
		for _, t := range batch {
			if err := recordSink.EnsureTable(ctx, t); err != nil {
				logger.Warn("sink table preparation skipped", "template_id", t.ID, "error", err)
				continue
			}
			prepared++
		}
		if next == "" {
			break
		}
		page.PageToken = next
	}
	if prepared > 0 {
		logger.Info("sink tables prepared", "count", prepared)
	}
	return nil
}
