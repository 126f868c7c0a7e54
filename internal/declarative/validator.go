package declarative

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// ValidationError represents a single validation problem.
type ValidationError struct {
	Path    string // e.g. "templates/campaign.yaml" or "template[campaign]"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Valid generation methods.
var validMethods = map[string]bool{
	domain.MethodStatistical:  true,
	domain.MethodPatternBased: true,
	domain.MethodLookupTable:  true,
	domain.MethodFormula:      true,
	domain.MethodMLModel:      true,
	domain.MethodRandom:       true,
}

// Valid statistical distributions.
var validDistributions = map[string]bool{
	domain.DistributionNormal:      true,
	domain.DistributionUniform:     true,
	domain.DistributionExponential: true,
	domain.DistributionPoisson:     true,
}

// Valid named pattern generators.
var validPatterns = map[string]bool{
	domain.PatternBusinessHours:         true,
	domain.PatternSeasonalMultiplier:    true,
	domain.PatternCategoricalMultiplier: true,
}

// Valid validation rule types.
var validRuleTypes = map[string]bool{
	domain.ValidationRange:         true,
	domain.ValidationPattern:       true,
	domain.ValidationCorrelation:   true,
	domain.ValidationBusinessLogic: true,
}

// Valid validation severities.
var validSeverities = map[string]bool{
	domain.SeverityLow:      true,
	domain.SeverityMedium:   true,
	domain.SeverityHigh:     true,
	domain.SeverityCritical: true,
}

// Valid temporal frequencies.
var validFrequencies = map[string]bool{
	domain.FrequencyHourly: true,
	domain.FrequencyDaily:  true,
	domain.FrequencyWeekly: true,
}

// Valid trend directions.
var validTrends = map[string]bool{
	domain.TrendIncreasing: true,
	domain.TrendDecreasing: true,
	domain.TrendStable:     true,
}

// Valid relationship policies.
var validPolicies = map[string]bool{
	domain.PolicyNotExceeds: true,
	domain.PolicyAtLeast:    true,
}

// Validate checks the DesiredState for structural correctness and referential
// integrity. externalLookups names lookup tables that already exist outside
// the loaded state (builtins, registry contents). All errors are collected;
// validation does not stop at the first problem.
func Validate(state *DesiredState, externalLookups ...string) []ValidationError {
	var errs []ValidationError

	knownLookups := make(map[string]bool, len(state.LookupTables)+len(externalLookups))
	for _, name := range externalLookups {
		knownLookups[name] = true
	}

	seenTables := make(map[string]bool, len(state.LookupTables))
	for _, table := range state.LookupTables {
		path := table.FilePath
		if path == "" {
			path = fmt.Sprintf("lookup-table[%s]", table.Spec.Name)
		}
		if table.Spec.Name == "" {
			errs = append(errs, ValidationError{Path: path, Message: "lookup table name is required"})
			continue
		}
		if seenTables[table.Spec.Name] {
			errs = append(errs, ValidationError{Path: path,
				Message: fmt.Sprintf("duplicate lookup table %q", table.Spec.Name)})
		}
		seenTables[table.Spec.Name] = true
		knownLookups[table.Spec.Name] = true

		if len(table.Spec.Values) == 0 {
			errs = append(errs, ValidationError{Path: path,
				Message: fmt.Sprintf("lookup table %q has no values", table.Spec.Name)})
		}
		seenValues := make(map[string]bool, len(table.Spec.Values))
		for _, v := range table.Spec.Values {
			if seenValues[v] {
				errs = append(errs, ValidationError{Path: path,
					Message: fmt.Sprintf("lookup table %q repeats value %q", table.Spec.Name, v)})
			}
			seenValues[v] = true
		}
	}

	seenTemplates := make(map[string]bool, len(state.Templates))
	for i := range state.Templates {
		tmpl := &state.Templates[i]
		path := tmpl.FilePath
		if path == "" {
			path = fmt.Sprintf("template[%s]", tmpl.Name)
		}
		if tmpl.Name == "" {
			errs = append(errs, ValidationError{Path: path, Message: "template name is required"})
			continue
		}
		if seenTemplates[tmpl.Name] {
			errs = append(errs, ValidationError{Path: path,
				Message: fmt.Sprintf("duplicate template %q", tmpl.Name)})
		}
		seenTemplates[tmpl.Name] = true

		errs = append(errs, validateTemplateSpec(path, &tmpl.Spec, knownLookups)...)
	}

	return errs
}

func validateTemplateSpec(path string, spec *TemplateSpec, knownLookups map[string]bool) []ValidationError {
	var errs []ValidationError
	fail := func(format string, args ...any) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if spec.DataType == "" {
		fail("data_type is required")
	}
	if len(spec.Rules) == 0 {
		fail("at least one generation rule is required")
	}

	fields := make(map[string]bool, len(spec.Rules))
	for _, rule := range spec.Rules {
		if rule.Field == "" {
			fail("rule field name is required")
			continue
		}
		if fields[rule.Field] {
			fail("duplicate rule for field %q", rule.Field)
		}
		fields[rule.Field] = true
	}

	for _, rule := range spec.Rules {
		if rule.Field == "" {
			continue
		}
		errs = append(errs, validateRuleSpec(path, rule, fields, knownLookups)...)
	}

	if c := spec.Constraints; c != nil {
		errs = append(errs, validateConstraintsSpec(path, c, fields)...)
	}

	if q := spec.Quality; q != nil {
		for name, v := range map[string]float64{
			"target_realism":     q.TargetRealism,
			"target_diversity":   q.TargetDiversity,
			"target_correlation": q.TargetCorrelation,
			"noise_level":        q.NoiseLevel,
		} {
			if v < 0 || v > 1 {
				fail("quality %s %v is outside [0,1]", name, v)
			}
		}
	}

	if b := spec.Backfill; b != nil {
		if b.Cron == "" {
			fail("backfill cron is required when a backfill block is declared")
		} else if _, err := cron.ParseStandard(b.Cron); err != nil {
			fail("backfill cron %q: %v", b.Cron, err)
		}
		if b.Count < 0 {
			fail("backfill count must not be negative")
		}
	}

	return errs
}

func validateRuleSpec(path string, rule RuleSpec, fields, knownLookups map[string]bool) []ValidationError {
	var errs []ValidationError
	fail := func(format string, args ...any) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if !validMethods[rule.Method] {
		fail("field %q: unknown generation method %q", rule.Field, rule.Method)
		return errs
	}

	p := rule.Params
	switch rule.Method {
	case domain.MethodStatistical, domain.MethodRandom:
		if p.Distribution != "" && !validDistributions[p.Distribution] {
			fail("field %q: unknown distribution %q", rule.Field, p.Distribution)
		}
		if p.StdDev < 0 {
			fail("field %q: std_dev must not be negative", rule.Field)
		}
		if p.Min != nil && p.Max != nil && *p.Max < *p.Min {
			fail("field %q: max %v is below min %v", rule.Field, *p.Max, *p.Min)
		}
	case domain.MethodPatternBased:
		if !validPatterns[p.Pattern] {
			fail("field %q: unknown pattern %q", rule.Field, p.Pattern)
		}
		if p.Pattern == domain.PatternCategoricalMultiplier {
			if p.KeyField == "" {
				fail("field %q: categorical_multiplier requires key_field", rule.Field)
			} else if !fields[p.KeyField] {
				fail("field %q: key_field %q is not generated by this template", rule.Field, p.KeyField)
			}
			if len(p.Multipliers) == 0 {
				fail("field %q: categorical_multiplier requires multipliers", rule.Field)
			}
		}
	case domain.MethodLookupTable:
		if p.LookupTable == "" {
			fail("field %q: lookup_table name is required", rule.Field)
		} else if !knownLookups[p.LookupTable] {
			fail("field %q: lookup table %q is not declared here or registered", rule.Field, p.LookupTable)
		}
		for value, weight := range p.Weights {
			if weight < 0 {
				fail("field %q: weight for %q must not be negative", rule.Field, value)
			}
		}
	case domain.MethodFormula:
		if p.Formula == "" {
			fail("field %q: formula is required", rule.Field)
		}
		for _, dep := range p.Dependencies {
			if dep == rule.Field {
				fail("field %q: formula depends on itself", rule.Field)
			} else if !fields[dep] {
				fail("field %q: dependency %q is not generated by this template", rule.Field, dep)
			}
		}
	}

	for _, vs := range rule.Validation {
		if !validRuleTypes[vs.Type] {
			fail("field %q: unknown validation type %q", rule.Field, vs.Type)
			continue
		}
		if vs.Severity != "" && !validSeverities[vs.Severity] {
			fail("field %q: unknown validation severity %q", rule.Field, vs.Severity)
		}
		switch vs.Type {
		case domain.ValidationRange:
			if vs.Min == nil && vs.Max == nil {
				fail("field %q: range validation needs min or max", rule.Field)
			}
			if vs.Min != nil && vs.Max != nil && *vs.Max < *vs.Min {
				fail("field %q: range validation max %v is below min %v", rule.Field, *vs.Max, *vs.Min)
			}
		case domain.ValidationPattern:
			if vs.Pattern == "" {
				fail("field %q: pattern validation needs a pattern", rule.Field)
			}
		case domain.ValidationCorrelation, domain.ValidationBusinessLogic:
			if vs.Policy == "" {
				fail("field %q: %s validation needs a policy name", rule.Field, vs.Type)
			}
		}
	}

	return errs
}

func validateConstraintsSpec(path string, c *ConstraintsSpec, fields map[string]bool) []ValidationError {
	var errs []ValidationError
	fail := func(format string, args ...any) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if tw := c.Temporal; tw != nil {
		start, err := parseDate(tw.StartDate)
		if err != nil {
			fail("temporal start_date %q: %v", tw.StartDate, err)
		}
		end, err := parseDate(tw.EndDate)
		if err != nil {
			fail("temporal end_date %q: %v", tw.EndDate, err)
		}
		if !start.IsZero() && !end.IsZero() && end.Before(start) {
			fail("temporal end_date precedes start_date")
		}
		if tw.Frequency != "" && !validFrequencies[tw.Frequency] {
			fail("unknown temporal frequency %q", tw.Frequency)
		}
		if tw.TrendDirection != "" && !validTrends[tw.TrendDirection] {
			fail("unknown trend direction %q", tw.TrendDirection)
		}
	}

	if b := c.Business; b != nil {
		for field, rg := range b.RealisticRanges {
			if rg.Max < rg.Min {
				fail("realistic range for %q: max %v is below min %v", field, rg.Max, rg.Min)
			}
		}
		for _, rel := range b.MandatoryRelationships {
			if !validPolicies[rel.Policy] {
				fail("relationship on %q: unknown policy %q", rel.Field, rel.Policy)
			}
			if rel.Field != "" && !fields[rel.Field] {
				fail("relationship field %q is not generated by this template", rel.Field)
			}
			if rel.Other != "" && !fields[rel.Other] {
				fail("relationship target %q is not generated by this template", rel.Other)
			}
		}
	}

	if q := c.Quality; q != nil {
		if q.CompletenessTarget < 0 || q.CompletenessTarget > 1 {
			fail("completeness_target %v is outside [0,1]", q.CompletenessTarget)
		}
		if q.MaxOutlierFraction < 0 || q.MaxOutlierFraction > 1 {
			fail("max_outlier_fraction %v is outside [0,1]", q.MaxOutlierFraction)
		}
	}

	return errs
}
