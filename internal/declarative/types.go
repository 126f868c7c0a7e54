// Package declarative loads generation templates and lookup tables from YAML
// documents, validates them, and plans changes against the running registry.
package declarative

import (
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// Document is the generic envelope parsed first to determine Kind.
type Document struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
}

// ObjectMeta holds common metadata for named resources.
type ObjectMeta struct {
	Name string `yaml:"name"`
}

// TemplateDoc declares one generation template.
type TemplateDoc struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   ObjectMeta   `yaml:"metadata"`
	Spec       TemplateSpec `yaml:"spec"`
}

// TemplateSpec is the YAML shape of a template.
type TemplateSpec struct {
	DataType        string           `yaml:"data_type"`
	TargetAudience  []string         `yaml:"target_audience,omitempty"`
	Rules           []RuleSpec       `yaml:"rules"`
	Constraints     *ConstraintsSpec `yaml:"constraints,omitempty"`
	Quality         *QualitySpec     `yaml:"quality,omitempty"`
	IncludeMetadata bool             `yaml:"include_metadata,omitempty"`
	Backfill        *BackfillSpec    `yaml:"backfill,omitempty"`
}

// BackfillSpec schedules periodic generation into the sink.
type BackfillSpec struct {
	Cron  string `yaml:"cron"`
	Count int    `yaml:"count,omitempty"`
}

// RuleSpec describes how one field is generated.
type RuleSpec struct {
	Field      string           `yaml:"field"`
	Method     string           `yaml:"method"`
	Params     ParamsSpec       `yaml:"params,omitempty"`
	Validation []ValidationSpec `yaml:"validation,omitempty"`
}

// ParamsSpec is the method-specific parameter bag of a rule.
type ParamsSpec struct {
	Distribution string   `yaml:"distribution,omitempty"`
	Mean         float64  `yaml:"mean,omitempty"`
	StdDev       float64  `yaml:"std_dev,omitempty"`
	Min          *float64 `yaml:"min,omitempty"`
	Max          *float64 `yaml:"max,omitempty"`

	Pattern           string             `yaml:"pattern,omitempty"`
	KeyField          string             `yaml:"key_field,omitempty"`
	Multipliers       map[string]float64 `yaml:"multipliers,omitempty"`
	DefaultMultiplier float64            `yaml:"default_multiplier,omitempty"`

	LookupTable string             `yaml:"lookup_table,omitempty"`
	Weights     map[string]float64 `yaml:"weights,omitempty"`

	Formula      string   `yaml:"formula,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

// ValidationSpec is one declared check applied to generated records.
type ValidationSpec struct {
	Type     string   `yaml:"type"`
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
	Pattern  string   `yaml:"pattern,omitempty"`
	Policy   string   `yaml:"policy,omitempty"`
	Severity string   `yaml:"severity,omitempty"`
}

// ConstraintsSpec groups the template-level constraint blocks.
type ConstraintsSpec struct {
	Temporal *TemporalSpec           `yaml:"temporal,omitempty"`
	Business *BusinessSpec           `yaml:"business,omitempty"`
	Quality  *QualityConstraintsSpec `yaml:"quality,omitempty"`
}

// TemporalSpec bounds generated timestamps. Dates accept "2006-01-02" or
// RFC3339.
type TemporalSpec struct {
	StartDate      string `yaml:"start_date,omitempty"`
	EndDate        string `yaml:"end_date,omitempty"`
	Frequency      string `yaml:"frequency,omitempty"`
	Seasonality    bool   `yaml:"seasonality,omitempty"`
	TrendDirection string `yaml:"trend_direction,omitempty"`
}

// RangeSpec is a closed numeric interval.
type RangeSpec struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// RelationshipSpec is a mandatory cross-field policy.
type RelationshipSpec struct {
	Field  string `yaml:"field"`
	Policy string `yaml:"policy"`
	Other  string `yaml:"other"`
}

// BusinessSpec expresses domain plausibility requirements.
type BusinessSpec struct {
	RealisticRanges         map[string]RangeSpec `yaml:"realistic_ranges,omitempty"`
	CorrelationRequirements map[string][]string  `yaml:"correlation_requirements,omitempty"`
	MandatoryRelationships  []RelationshipSpec   `yaml:"mandatory_relationships,omitempty"`
}

// QualityConstraintsSpec expresses batch-level tolerances.
type QualityConstraintsSpec struct {
	CompletenessTarget      float64  `yaml:"completeness_target,omitempty"`
	ConsistencyRequirements []string `yaml:"consistency_requirements,omitempty"`
	MaxOutlierFraction      float64  `yaml:"max_outlier_fraction,omitempty"`
}

// QualitySpec declares the targets a generated batch is scored against.
type QualitySpec struct {
	TargetRealism       float64 `yaml:"target_realism,omitempty"`
	TargetDiversity     float64 `yaml:"target_diversity,omitempty"`
	TargetCorrelation   float64 `yaml:"target_correlation,omitempty"`
	NoiseLevel          float64 `yaml:"noise_level,omitempty"`
	PrivacyPreservation bool    `yaml:"privacy_preservation,omitempty"`
}

// LookupTableListDoc declares shared lookup tables.
type LookupTableListDoc struct {
	APIVersion string            `yaml:"apiVersion"`
	Kind       string            `yaml:"kind"`
	Tables     []LookupTableSpec `yaml:"tables"`
}

// LookupTableSpec is one named value list.
type LookupTableSpec struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// TemplateResource is a loaded template with its source location.
type TemplateResource struct {
	Name     string
	FilePath string
	Spec     TemplateSpec
}

// LookupTableResource is a loaded lookup table with its source location.
type LookupTableResource struct {
	FilePath string
	Spec     LookupTableSpec
}

// DesiredState is everything loaded from a templates directory.
type DesiredState struct {
	Templates    []TemplateResource
	LookupTables []LookupTableResource
}

// Accepted temporal date layouts, tried in order.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ToDomain converts the loaded resource into a registrable template.
func (r TemplateResource) ToDomain() (*domain.Template, error) {
	t := &domain.Template{
		ID:              r.Name,
		DataType:        r.Spec.DataType,
		TargetAudience:  append([]string(nil), r.Spec.TargetAudience...),
		IncludeMetadata: r.Spec.IncludeMetadata,
	}
	for _, rs := range r.Spec.Rules {
		t.Rules = append(t.Rules, rs.toDomain())
	}
	if c := r.Spec.Constraints; c != nil {
		dc, err := c.toDomain()
		if err != nil {
			return nil, err
		}
		t.Constraints = dc
	}
	if q := r.Spec.Quality; q != nil {
		t.Quality = domain.QualityParameters{
			TargetRealism:       q.TargetRealism,
			TargetDiversity:     q.TargetDiversity,
			TargetCorrelation:   q.TargetCorrelation,
			NoiseLevel:          q.NoiseLevel,
			PrivacyPreservation: q.PrivacyPreservation,
		}
	}
	if b := r.Spec.Backfill; b != nil {
		t.BackfillCron = b.Cron
		t.BackfillCount = b.Count
	}
	return t, nil
}

func (rs RuleSpec) toDomain() domain.GenerationRule {
	rule := domain.GenerationRule{
		Field:  rs.Field,
		Method: rs.Method,
		Params: domain.RuleParams{
			Distribution:      rs.Params.Distribution,
			Mean:              rs.Params.Mean,
			StdDev:            rs.Params.StdDev,
			Min:               rs.Params.Min,
			Max:               rs.Params.Max,
			Pattern:           rs.Params.Pattern,
			KeyField:          rs.Params.KeyField,
			Multipliers:       rs.Params.Multipliers,
			DefaultMultiplier: rs.Params.DefaultMultiplier,
			LookupTable:       rs.Params.LookupTable,
			Weights:           rs.Params.Weights,
			Formula:           rs.Params.Formula,
			Dependencies:      append([]string(nil), rs.Params.Dependencies...),
		},
	}
	for _, vs := range rs.Validation {
		rule.Validation = append(rule.Validation, domain.ValidationRule{
			Type:     vs.Type,
			Min:      vs.Min,
			Max:      vs.Max,
			Pattern:  vs.Pattern,
			Policy:   vs.Policy,
			Severity: vs.Severity,
		})
	}
	return rule
}

func (c ConstraintsSpec) toDomain() (domain.DataConstraints, error) {
	var dc domain.DataConstraints
	if tw := c.Temporal; tw != nil {
		start, err := parseDate(tw.StartDate)
		if err != nil {
			return dc, domain.ErrValidation("temporal start_date: %v", err)
		}
		end, err := parseDate(tw.EndDate)
		if err != nil {
			return dc, domain.ErrValidation("temporal end_date: %v", err)
		}
		dc.Temporal = domain.TemporalConstraints{
			StartDate:      start,
			EndDate:        end,
			Frequency:      tw.Frequency,
			Seasonality:    tw.Seasonality,
			TrendDirection: tw.TrendDirection,
		}
	}
	if b := c.Business; b != nil {
		bc := domain.BusinessConstraints{
			CorrelationRequirements: b.CorrelationRequirements,
		}
		if len(b.RealisticRanges) > 0 {
			bc.RealisticRanges = make(map[string]domain.Range, len(b.RealisticRanges))
			for field, rg := range b.RealisticRanges {
				bc.RealisticRanges[field] = domain.Range{Min: rg.Min, Max: rg.Max}
			}
		}
		for _, rel := range b.MandatoryRelationships {
			bc.MandatoryRelationships = append(bc.MandatoryRelationships, domain.Relationship{
				Field: rel.Field, Policy: rel.Policy, Other: rel.Other,
			})
		}
		dc.Business = bc
	}
	if q := c.Quality; q != nil {
		dc.Quality = domain.QualityConstraints{
			CompletenessTarget:      q.CompletenessTarget,
			ConsistencyRequirements: q.ConsistencyRequirements,
			MaxOutlierFraction:      q.MaxOutlierFraction,
		}
	}
	return dc, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
