package engine

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/formula"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/lookup"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/sampling"
)

// Engine dispatches each ordered rule to its generation method. It holds only
// read-shared collaborators and is safe for concurrent use.
type Engine struct {
	lookups  *lookup.Registry
	formulas *formula.Runtime
	logger   *slog.Logger
}

// New creates an Engine.
func New(lookups *lookup.Registry, formulas *formula.Runtime, logger *slog.Logger) *Engine {
	return &Engine{
		lookups:  lookups,
		formulas: formulas,
		logger:   logger.With("component", "rule_engine"),
	}
}

// Plan is a template compiled for execution: rules in dependency order with
// every formula parsed and identifier-checked.
type Plan struct {
	Template *domain.Template
	Ordered  []*domain.GenerationRule
	Cyclic   bool
	Formulas map[string]*formula.Compiled
}

// Compile orders the template's rules and compiles its formulas. A cyclic
// dependency graph is not an error here (generation falls back to declaration
// order); callers surface Plan.Cyclic as a warning.
func (e *Engine) Compile(t *domain.Template) (*Plan, error) {
	ordering := OrderRules(t.Rules)
	plan := &Plan{
		Template: t,
		Ordered:  ordering.Rules,
		Cyclic:   ordering.Cyclic,
		Formulas: make(map[string]*formula.Compiled),
	}
	for i := range t.Rules {
		r := &t.Rules[i]
		if r.Method != domain.MethodFormula {
			continue
		}
		compiled, err := e.formulas.Compile(r.Params.Formula, r.Params.Dependencies)
		if err != nil {
			return nil, domain.ErrValidation("field %q: %v", r.Field, err)
		}
		plan.Formulas[r.Field] = compiled
	}
	return plan, nil
}

// GenerateRecord computes one record by walking the plan's ordered rules. A
// failing field is logged, recorded as a FieldFailure, and degraded to the
// rule's declared minimum (omitted when none); the record itself always comes
// back.
func (e *Engine) GenerateRecord(rng *rand.Rand, plan *Plan, eff domain.DataConstraints, noise float64, recordIndex int) (domain.Record, []domain.FieldFailure) {
	record := make(domain.Record, len(plan.Ordered))
	var failures []domain.FieldFailure

	for _, rule := range plan.Ordered {
		value, err := e.generateField(rng, plan, rule, record, eff, noise)
		if err != nil {
			kind := classifyFailure(err)
			e.logger.Warn("field generation degraded",
				"template_id", plan.Template.ID,
				"field", rule.Field,
				"kind", kind,
				"error", err)
			failures = append(failures, domain.FieldFailure{
				RecordIndex: recordIndex,
				Field:       rule.Field,
				Kind:        kind,
				Message:     err.Error(),
			})
			if rule.Params.Min != nil {
				record[rule.Field] = *rule.Params.Min
			}
			continue
		}
		record[rule.Field] = value
	}
	return record, failures
}

func (e *Engine) generateField(rng *rand.Rand, plan *Plan, rule *domain.GenerationRule, record domain.Record, eff domain.DataConstraints, noise float64) (any, error) {
	p := &rule.Params
	switch rule.Method {
	case domain.MethodStatistical:
		return e.sampleStatistical(rng, p, noise)

	case domain.MethodRandom:
		dist := p.Distribution
		if dist == "" {
			dist = domain.DistributionUniform
		}
		return sampleDistribution(rng, dist, p)

	case domain.MethodLookupTable:
		values, err := e.lookups.Get(p.LookupTable)
		if err != nil {
			return nil, err
		}
		if len(p.Weights) > 0 {
			return sampling.WeightedChoice(rng, values, p.Weights), nil
		}
		return sampling.UniformChoice(rng, values), nil

	case domain.MethodFormula:
		compiled, ok := plan.Formulas[rule.Field]
		if !ok {
			return nil, domain.ErrFormula("field %q has no compiled formula", rule.Field)
		}
		return compiled.Eval(rng, record)

	case domain.MethodPatternBased:
		return e.generatePattern(rng, plan, rule, record, eff)

	case domain.MethodMLModel:
		// Named placeholder, not a real model: a bounded pseudo-random scalar.
		lo, hi := 0.0, 1.0
		if p.Min != nil {
			lo = *p.Min
		}
		if p.Max != nil {
			hi = *p.Max
		}
		return sampling.Uniform(rng, lo, hi), nil

	default:
		return nil, domain.ErrValidation("unknown generation method %q", rule.Method)
	}
}

func (e *Engine) sampleStatistical(rng *rand.Rand, p *domain.RuleParams, noise float64) (any, error) {
	dist := p.Distribution
	if dist == "" {
		dist = domain.DistributionNormal
	}
	v, err := sampleDistribution(rng, dist, p)
	if err != nil {
		return nil, err
	}
	if noise > 0 {
		v = sampling.Jitter(rng, v, noise, noiseScale(p), p.Min, p.Max)
	}
	return v, nil
}

func sampleDistribution(rng *rand.Rand, dist string, p *domain.RuleParams) (float64, error) {
	switch dist {
	case domain.DistributionNormal:
		return sampling.Normal(rng, p.Mean, p.StdDev, p.Min, p.Max)
	case domain.DistributionUniform:
		lo, hi := 0.0, 1.0
		if p.Min != nil {
			lo = *p.Min
		}
		if p.Max != nil {
			hi = *p.Max
		}
		return sampling.Uniform(rng, lo, hi), nil
	case domain.DistributionExponential:
		return sampling.Exponential(rng, p.Mean, p.Min, p.Max), nil
	case domain.DistributionPoisson:
		lambda := p.Mean
		return sampling.Poisson(rng, lambda, p.Min, p.Max), nil
	default:
		return 0, domain.ErrValidation("unknown distribution %q", dist)
	}
}

// noiseScale picks the jitter scale: the declared spread when available,
// otherwise a tenth of the declared interval.
func noiseScale(p *domain.RuleParams) float64 {
	if p.StdDev > 0 {
		return p.StdDev
	}
	if p.Min != nil && p.Max != nil && *p.Max > *p.Min {
		return (*p.Max - *p.Min) / 10
	}
	return 0
}

func classifyFailure(err error) string {
	var infeasible *domain.DistributionInfeasibleError
	if errors.As(err, &infeasible) {
		return domain.FailureDistributionInfeasible
	}
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return domain.FailureLookupNotFound
	}
	var ferr *domain.FormulaError
	if errors.As(err, &ferr) {
		return domain.FailureFormula
	}
	return domain.FailureInternal
}
