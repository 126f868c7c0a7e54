// Package generation implements the orchestrator that drives template-based
// record synthesis.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/engine"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/quality"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/template"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/validation"
)

const defaultWorkers = 8

// Service orchestrates generation calls: resolve template, generate records
// in parallel, validate, score, assemble the result.
type Service struct {
	templates *template.Service
	engine    *engine.Engine
	runs      domain.RunStore   // may be nil
	sink      domain.RecordSink // may be nil
	logger    *slog.Logger
	workers   int
}

// NewService creates the generation service. workers <= 0 selects the
// default pool size.
func NewService(templates *template.Service, eng *engine.Engine, runs domain.RunStore, sink domain.RecordSink, logger *slog.Logger, workers int) *Service {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{
		templates: templates,
		engine:    eng,
		runs:      runs,
		sink:      sink,
		logger:    logger.With("component", "generation_service"),
		workers:   workers,
	}
}

// Generate produces count records from the named template. Only an unknown
// template (or an invalid count / cancelled context) aborts the call; every
// per-field and per-record failure is accumulated into the result.
func (s *Service) Generate(ctx context.Context, templateID string, count int, opts domain.GenerateOptions) (*domain.GenerationResult, error) {
	return s.generate(ctx, templateID, count, opts, domain.RunTriggerManual)
}

// GenerateScheduled is Generate for cron-triggered backfill runs; the run
// record carries the scheduled trigger type.
func (s *Service) GenerateScheduled(ctx context.Context, templateID string, count int, opts domain.GenerateOptions) (*domain.GenerationResult, error) {
	return s.generate(ctx, templateID, count, opts, domain.RunTriggerScheduled)
}

func (s *Service) generate(ctx context.Context, templateID string, count int, opts domain.GenerateOptions, trigger string) (*domain.GenerationResult, error) {
	if count < 0 {
		return nil, domain.ErrValidation("record count must be >= 0, got %d", count)
	}
	compiled, err := s.templates.Resolve(templateID)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	tmpl := compiled.Template

	eff := validation.Merge(tmpl.Constraints, opts.Constraints)
	params := tmpl.Quality
	if opts.Quality != nil {
		params = *opts.Quality
	}

	seed := int64(0)
	if opts.Seed != nil {
		seed = *opts.Seed
	} else {
		seed = rand.Int63()
	}

	batch, err := s.generateBatch(ctx, compiled, eff, params.NoiseLevel, seed, count)
	if err != nil {
		return nil, err
	}

	result := s.assemble(compiled, batch, eff, params, opts, count)
	s.logBatch(tmpl, result, count)

	for _, warning := range quality.CheckBatchConstraints(result.Data, tmpl, eff.Quality) {
		s.logger.Warn("batch quality constraint missed", "template_id", tmpl.ID, "warning", warning)
	}

	s.recordRun(ctx, result, trigger, count, opts.Seed, time.Since(started))
	return result, nil
}

// batchOutput holds per-index generation output so that worker scheduling
// never influences assembly order.
type batchOutput struct {
	records       []domain.Record
	accepted      []bool
	fieldFailures [][]domain.FieldFailure
	recordErrors  [][]domain.RecordValidationError
}

func (s *Service) generateBatch(ctx context.Context, compiled *template.Compiled, eff domain.DataConstraints, noise float64, seed int64, count int) (*batchOutput, error) {
	out := &batchOutput{
		records:       make([]domain.Record, count),
		accepted:      make([]bool, count),
		fieldFailures: make([][]domain.FieldFailure, count),
		recordErrors:  make([][]domain.RecordValidationError, count),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < count; i++ {
		index := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(subSeed(seed, index)))
			record, failures := s.engine.GenerateRecord(rng, compiled.Plan, eff, noise, index)
			errs := compiled.Checker.ValidateRecord(index, record)

			out.records[index] = record
			out.fieldFailures[index] = failures
			out.recordErrors[index] = errs
			out.accepted[index] = len(errs) == 0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) assemble(compiled *template.Compiled, batch *batchOutput, eff domain.DataConstraints, params domain.QualityParameters, opts domain.GenerateOptions, count int) *domain.GenerationResult {
	tmpl := compiled.Template

	data := make([]domain.Record, 0, count)
	var allErrors []domain.RecordValidationError
	var allFailures []domain.FieldFailure
	for i := 0; i < count; i++ {
		if batch.accepted[i] {
			data = append(data, batch.records[i])
		}
		allErrors = append(allErrors, batch.recordErrors[i]...)
		allFailures = append(allFailures, batch.fieldFailures[i]...)
	}

	accepted := len(data)
	rejected := count - accepted
	validity := 1.0
	if count > 0 {
		validity = float64(accepted) / float64(count)
	}

	result := &domain.GenerationResult{
		ID:               domain.NewID(),
		TemplateID:       tmpl.ID,
		RecordsGenerated: accepted,
		GeneratedAt:      time.Now().UTC(),
		QualityMetrics:   quality.Score(data, tmpl, params, eff),
		Data:             data,
		Validation: domain.ValidationResults{
			Accepted:      accepted,
			Rejected:      rejected,
			Errors:        allErrors,
			ValidityRatio: validity,
		},
		FieldFailures: allFailures,
	}
	if tmpl.IncludeMetadata {
		result.Metadata = buildMetadata(tmpl, result, eff, opts, count)
	}
	return result
}

func buildMetadata(tmpl *domain.Template, result *domain.GenerationResult, eff domain.DataConstraints, opts domain.GenerateOptions, attempted int) *domain.SyntheticDataMetadata {
	confidence := make(map[string]float64, len(tmpl.Rules))
	uncertainty := make(map[string]float64, len(tmpl.Rules))
	failuresByField := make(map[string]int)
	for _, f := range result.FieldFailures {
		failuresByField[f.Field]++
	}
	for i := range tmpl.Rules {
		field := tmpl.Rules[i].Field
		c := 1.0
		if attempted > 0 {
			c = 1 - float64(failuresByField[field])/float64(attempted)
		}
		confidence[field] = c
		uncertainty[field] = 1 - c
	}

	transformations := make([]string, 0, len(tmpl.Rules))
	seenMethod := make(map[string]bool)
	for i := range tmpl.Rules {
		m := tmpl.Rules[i].Method
		if !seenMethod[m] {
			seenMethod[m] = true
			transformations = append(transformations, m)
		}
	}

	return &domain.SyntheticDataMetadata{
		Provenance: domain.Provenance{
			Method:           "template_rules",
			TemplateID:       tmpl.ID,
			GeneratedAt:      result.GeneratedAt,
			GeneratorVersion: domain.GeneratorVersion,
			Seed:             opts.Seed,
		},
		QualityIndicators: domain.QualityIndicators{
			FieldConfidence:  confidence,
			FieldUncertainty: uncertainty,
		},
		Lineage: domain.Lineage{
			ParentDatasets:       []string{tmpl.DataType},
			Transformations:      transformations,
			EffectiveConstraints: eff,
		},
	}
}

func (s *Service) logBatch(tmpl *domain.Template, result *domain.GenerationResult, attempted int) {
	s.logger.Info("batch generated",
		"template_id", tmpl.ID,
		"attempted", attempted,
		"accepted", result.Validation.Accepted,
		"rejected", result.Validation.Rejected,
		"field_failures", len(result.FieldFailures),
		"realism", fmt.Sprintf("%.3f", result.QualityMetrics.RealismScore))
}

func (s *Service) recordRun(ctx context.Context, result *domain.GenerationResult, trigger string, attempted int, seed *int64, took time.Duration) {
	if s.runs == nil {
		return
	}
	status := domain.RunStatusSuccess
	switch {
	case attempted > 0 && result.Validation.Accepted == 0:
		status = domain.RunStatusFailed
	case result.Validation.Rejected > 0 || len(result.FieldFailures) > 0:
		status = domain.RunStatusPartial
	}

	createdBy := "anonymous"
	if principal, ok := domain.PrincipalFromContext(ctx); ok {
		createdBy = principal.Name
	}

	metricsJSON, err := json.Marshal(result.QualityMetrics)
	if err != nil {
		metricsJSON = []byte("{}")
	}

	run := &domain.GenerationRun{
		ID:             result.ID,
		TemplateID:     result.TemplateID,
		Status:         status,
		TriggerType:    trigger,
		RequestedCount: attempted,
		Accepted:       result.Validation.Accepted,
		Rejected:       result.Validation.Rejected,
		Seed:           seed,
		DurationMillis: took.Milliseconds(),
		MetricsJSON:    string(metricsJSON),
		CreatedBy:      createdBy,
		CreatedAt:      result.GeneratedAt,
	}
	// Run records are best effort; a metastore hiccup must not fail the call.
	if err := s.runs.Insert(ctx, run); err != nil {
		s.logger.Warn("failed to record generation run", "run_id", run.ID, "error", err)
	}
}

// Persist lands a result's accepted records in the analytics sink.
func (s *Service) Persist(ctx context.Context, result *domain.GenerationResult) error {
	if s.sink == nil {
		return domain.ErrValidation("no record sink configured")
	}
	compiled, err := s.templates.Resolve(result.TemplateID)
	if err != nil {
		return err
	}
	if len(result.Data) == 0 {
		return nil
	}
	if err := s.sink.EnsureTable(ctx, compiled.Template); err != nil {
		return err
	}
	if err := s.sink.InsertBatch(ctx, compiled.Template, result.Data); err != nil {
		return err
	}
	s.logger.Info("batch persisted to sink",
		"template_id", result.TemplateID, "records", len(result.Data))
	return nil
}

// subSeed derives a per-record seed from the call seed and the record index
// with a splitmix64-style mix, so parallel workers stay deterministic without
// sharing a PRNG.
func subSeed(seed int64, index int) int64 {
	z := uint64(seed) + uint64(index+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return int64(z)
}
