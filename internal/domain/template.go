package domain

import (
	"time"
	"unicode/utf8"
)

// Generation method constants.
const (
	MethodStatistical  = "statistical"
	MethodPatternBased = "pattern_based"
	MethodLookupTable  = "lookup_table"
	MethodFormula      = "formula"
	MethodMLModel      = "ml_model"
	MethodRandom       = "random_distribution"
	MaxTemplateIDLen   = 255
)

// Distribution kind constants for statistical rules.
const (
	DistributionNormal      = "normal"
	DistributionUniform     = "uniform"
	DistributionExponential = "exponential"
	DistributionPoisson     = "poisson"
)

// Named pattern generator constants.
const (
	PatternBusinessHours         = "business_hours"
	PatternSeasonalMultiplier    = "seasonal_multiplier"
	PatternCategoricalMultiplier = "categorical_multiplier"
)

// Temporal frequency constants.
const (
	FrequencyHourly = "hourly"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// Trend direction constants.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Validation rule type constants.
const (
	ValidationRange         = "range"
	ValidationPattern       = "pattern"
	ValidationCorrelation   = "correlation"
	ValidationBusinessLogic = "business_logic"
)

// Validation severity constants.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Relationship policy constants for mandatory cross-field relationships.
const (
	PolicyNotExceeds = "not_exceeds"
	PolicyAtLeast    = "at_least"
)

// Record is one generated row: field name to value.
type Record map[string]any

// Template is a reusable specification of how to synthesize one kind of
// record. Immutable once registered; re-registering the same ID overwrites.
type Template struct {
	ID              string           `json:"id"`
	DataType        string           `json:"data_type"` // e.g. "campaign_performance"
	TargetAudience  []string         `json:"target_audience,omitempty"`
	Rules           []GenerationRule `json:"rules"`
	Constraints     DataConstraints  `json:"constraints"`
	Quality         QualityParameters `json:"quality"`
	IncludeMetadata bool             `json:"include_metadata"`
	// BackfillCron schedules periodic generation runs into the sink
	// (standard 5-field cron expression; empty disables).
	BackfillCron  string    `json:"backfill_cron,omitempty"`
	BackfillCount int       `json:"backfill_count,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// GenerationRule is the recipe for computing one field of a record.
type GenerationRule struct {
	Field      string           `json:"field"`
	Method     string           `json:"method"`
	Params     RuleParams       `json:"params"`
	Validation []ValidationRule `json:"validation,omitempty"`
}

// RuleParams is the method-specific parameter bag of a rule. Only the members
// relevant to the rule's method are consulted.
type RuleParams struct {
	// Statistical / random distribution.
	Distribution string   `json:"distribution,omitempty"`
	Mean         float64  `json:"mean,omitempty"`
	StdDev       float64  `json:"std_dev,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`

	// Pattern based.
	Pattern string `json:"pattern,omitempty"`
	// Categorical multiplier: value of KeyField selects from Multipliers.
	KeyField          string             `json:"key_field,omitempty"`
	Multipliers       map[string]float64 `json:"multipliers,omitempty"`
	DefaultMultiplier float64            `json:"default_multiplier,omitempty"`

	// Lookup table.
	LookupTable string             `json:"lookup_table,omitempty"`
	Weights     map[string]float64 `json:"weights,omitempty"`

	// Formula.
	Formula string `json:"formula,omitempty"`

	// Fields that must be generated before this one.
	Dependencies []string `json:"dependencies,omitempty"`
}

// ValidationRule is one declared check applied to a generated record.
type ValidationRule struct {
	Type     string   `json:"type"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
	Policy   string   `json:"policy,omitempty"` // named hook for correlation/business_logic
	Severity string   `json:"severity,omitempty"`
}

// DataConstraints groups the template-level constraint blocks.
type DataConstraints struct {
	Temporal TemporalConstraints `json:"temporal"`
	Business BusinessConstraints `json:"business"`
	Quality  QualityConstraints  `json:"quality"`
}

// TemporalConstraints bound generated timestamps.
type TemporalConstraints struct {
	StartDate      time.Time `json:"start_date,omitempty"`
	EndDate        time.Time `json:"end_date,omitempty"`
	Frequency      string    `json:"frequency,omitempty"`
	Seasonality    bool      `json:"seasonality,omitempty"`
	TrendDirection string    `json:"trend_direction,omitempty"`
}

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Relationship is a mandatory cross-field policy, e.g. conversions must not
// exceed clicks.
type Relationship struct {
	Field  string `json:"field"`
	Policy string `json:"policy"`
	Other  string `json:"other"`
}

// BusinessConstraints express domain plausibility requirements.
type BusinessConstraints struct {
	RealisticRanges         map[string]Range    `json:"realistic_ranges,omitempty"`
	CorrelationRequirements map[string][]string `json:"correlation_requirements,omitempty"`
	MandatoryRelationships  []Relationship      `json:"mandatory_relationships,omitempty"`
}

// QualityConstraints express batch-level tolerances.
type QualityConstraints struct {
	CompletenessTarget      float64  `json:"completeness_target,omitempty"`
	ConsistencyRequirements []string `json:"consistency_requirements,omitempty"`
	MaxOutlierFraction      float64  `json:"max_outlier_fraction,omitempty"`
}

// ConstraintOverrides carries caller-supplied constraint blocks for one
// generation call. Nil blocks leave the template's block in place.
type ConstraintOverrides struct {
	Temporal *TemporalConstraints `json:"temporal,omitempty"`
	Business *BusinessConstraints `json:"business,omitempty"`
	Quality  *QualityConstraints  `json:"quality,omitempty"`
}

// QualityParameters declare the targets a generated batch is scored against.
type QualityParameters struct {
	TargetRealism       float64 `json:"target_realism,omitempty"`
	TargetDiversity     float64 `json:"target_diversity,omitempty"`
	TargetCorrelation   float64 `json:"target_correlation,omitempty"`
	NoiseLevel          float64 `json:"noise_level,omitempty"`
	PrivacyPreservation bool    `json:"privacy_preservation,omitempty"`
}

var validMethods = map[string]bool{
	MethodStatistical: true, MethodPatternBased: true, MethodLookupTable: true,
	MethodFormula: true, MethodMLModel: true, MethodRandom: true,
}

var validDistributions = map[string]bool{
	DistributionNormal: true, DistributionUniform: true,
	DistributionExponential: true, DistributionPoisson: true,
}

var validSeverities = map[string]bool{
	SeverityLow: true, SeverityMedium: true, SeverityHigh: true, SeverityCritical: true,
}

// Validate checks that the template is well-formed. It does not compile
// formulas or patterns; that is the template service's job.
func (t *Template) Validate() error {
	if t.ID == "" {
		return ErrValidation("template id is required")
	}
	if utf8.RuneCountInString(t.ID) > MaxTemplateIDLen {
		return ErrValidation("template id must be <= %d characters", MaxTemplateIDLen)
	}
	if t.DataType == "" {
		return ErrValidation("data_type is required")
	}
	if len(t.Rules) == 0 {
		return ErrValidation("template %q has no generation rules", t.ID)
	}
	seen := make(map[string]bool, len(t.Rules))
	for i := range t.Rules {
		r := &t.Rules[i]
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.Field] {
			return ErrValidation("duplicate rule for field %q", r.Field)
		}
		seen[r.Field] = true
	}
	tw := t.Constraints.Temporal
	if !tw.StartDate.IsZero() && !tw.EndDate.IsZero() && tw.EndDate.Before(tw.StartDate) {
		return ErrValidation("temporal window end_date precedes start_date")
	}
	return nil
}

// Validate checks that a single rule is well-formed.
func (r *GenerationRule) Validate() error {
	if r.Field == "" {
		return ErrValidation("rule field name is required")
	}
	if !validMethods[r.Method] {
		return ErrValidation("field %q: unknown generation method %q", r.Field, r.Method)
	}
	p := &r.Params
	switch r.Method {
	case MethodStatistical, MethodRandom:
		if p.Distribution != "" && !validDistributions[p.Distribution] {
			return ErrValidation("field %q: unknown distribution %q", r.Field, p.Distribution)
		}
		if p.Min != nil && p.Max != nil && *p.Max < *p.Min {
			return ErrValidation("field %q: max < min", r.Field)
		}
		if p.Distribution == DistributionNormal && p.StdDev < 0 {
			return ErrValidation("field %q: std_dev must be >= 0", r.Field)
		}
	case MethodLookupTable:
		if p.LookupTable == "" {
			return ErrValidation("field %q: lookup_table name is required", r.Field)
		}
	case MethodFormula:
		if p.Formula == "" {
			return ErrValidation("field %q: formula expression is required", r.Field)
		}
	case MethodPatternBased:
		switch p.Pattern {
		case PatternBusinessHours, PatternSeasonalMultiplier:
		case PatternCategoricalMultiplier:
			if p.KeyField == "" {
				return ErrValidation("field %q: categorical_multiplier requires key_field", r.Field)
			}
		default:
			return ErrValidation("field %q: unknown pattern %q", r.Field, p.Pattern)
		}
	}
	for _, v := range r.Validation {
		if err := v.Validate(r.Field); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single validation rule entry.
func (v *ValidationRule) Validate(field string) error {
	switch v.Type {
	case ValidationRange:
		if v.Min == nil && v.Max == nil {
			return ErrValidation("field %q: range validation needs min or max", field)
		}
	case ValidationPattern:
		if v.Pattern == "" {
			return ErrValidation("field %q: pattern validation needs a pattern", field)
		}
	case ValidationCorrelation, ValidationBusinessLogic:
		// Named policy hooks; unknown names are pass-through.
	default:
		return ErrValidation("field %q: unknown validation type %q", field, v.Type)
	}
	if v.Severity != "" && !validSeverities[v.Severity] {
		return ErrValidation("field %q: unknown severity %q", field, v.Severity)
	}
	return nil
}

// EffectiveSeverity returns the entry's severity, defaulting to medium.
func (v *ValidationRule) EffectiveSeverity() string {
	if v.Severity == "" {
		return SeverityMedium
	}
	return v.Severity
}

// Rule returns the rule producing the given field, or nil.
func (t *Template) Rule(field string) *GenerationRule {
	for i := range t.Rules {
		if t.Rules[i].Field == field {
			return &t.Rules[i]
		}
	}
	return nil
}

// FieldNames returns the rule field names in declaration order.
func (t *Template) FieldNames() []string {
	names := make([]string, len(t.Rules))
	for i := range t.Rules {
		names[i] = t.Rules[i].Field
	}
	return names
}
