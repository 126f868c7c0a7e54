package declarative

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// ExportDirectory writes the given state as declarative YAML: lookups.yaml
// for every lookup table plus one <id>.yaml per template. The output loads
// back through LoadDirectory and diffs clean against the exported state,
// so a fresh directory is immediately usable with plan and apply.
// Existing files are only replaced when overwrite is set.
func ExportDirectory(dir string, state *ActualState, overwrite bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	if len(state.Lookups) > 0 {
		doc := LookupTableListDoc{
			APIVersion: SupportedAPIVersion,
			Kind:       KindNameLookupTableList,
		}
		names := make([]string, 0, len(state.Lookups))
		for name := range state.Lookups {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			doc.Tables = append(doc.Tables, LookupTableSpec{
				Name:   name,
				Values: state.Lookups[name],
			})
		}
		if err := writeYAMLFile(filepath.Join(dir, LookupsFileName), doc, overwrite); err != nil {
			return err
		}
	}

	for _, t := range state.Templates {
		if t.ID+".yaml" == LookupsFileName {
			return fmt.Errorf("template %q collides with the reserved %s", t.ID, LookupsFileName)
		}
		doc := TemplateDoc{
			APIVersion: SupportedAPIVersion,
			Kind:       KindNameTemplate,
			Metadata:   ObjectMeta{Name: t.ID},
			Spec:       SpecFromDomain(t),
		}
		if err := writeYAMLFile(filepath.Join(dir, t.ID+".yaml"), doc, overwrite); err != nil {
			return err
		}
	}

	return nil
}

func writeYAMLFile(path string, doc interface{}, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; pass overwrite to replace it", path)
		}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SpecFromDomain converts a registered template back into its YAML spec, the
// inverse of TemplateResource.ToDomain. Server-managed fields (timestamps,
// creator) are not part of the spec and are dropped.
func SpecFromDomain(t *domain.Template) TemplateSpec {
	spec := TemplateSpec{
		DataType:        t.DataType,
		TargetAudience:  append([]string(nil), t.TargetAudience...),
		IncludeMetadata: t.IncludeMetadata,
	}
	for _, r := range t.Rules {
		spec.Rules = append(spec.Rules, ruleSpecFromDomain(r))
	}
	spec.Constraints = constraintsSpecFromDomain(t.Constraints)
	if q := t.Quality; q != (domain.QualityParameters{}) {
		spec.Quality = &QualitySpec{
			TargetRealism:       q.TargetRealism,
			TargetDiversity:     q.TargetDiversity,
			TargetCorrelation:   q.TargetCorrelation,
			NoiseLevel:          q.NoiseLevel,
			PrivacyPreservation: q.PrivacyPreservation,
		}
	}
	if t.BackfillCron != "" {
		spec.Backfill = &BackfillSpec{Cron: t.BackfillCron, Count: t.BackfillCount}
	}
	return spec
}

func ruleSpecFromDomain(r domain.GenerationRule) RuleSpec {
	rs := RuleSpec{
		Field:  r.Field,
		Method: r.Method,
		Params: ParamsSpec{
			Distribution:      r.Params.Distribution,
			Mean:              r.Params.Mean,
			StdDev:            r.Params.StdDev,
			Min:               r.Params.Min,
			Max:               r.Params.Max,
			Pattern:           r.Params.Pattern,
			KeyField:          r.Params.KeyField,
			Multipliers:       r.Params.Multipliers,
			DefaultMultiplier: r.Params.DefaultMultiplier,
			LookupTable:       r.Params.LookupTable,
			Weights:           r.Params.Weights,
			Formula:           r.Params.Formula,
			Dependencies:      append([]string(nil), r.Params.Dependencies...),
		},
	}
	for _, v := range r.Validation {
		rs.Validation = append(rs.Validation, ValidationSpec{
			Type:     v.Type,
			Min:      v.Min,
			Max:      v.Max,
			Pattern:  v.Pattern,
			Policy:   v.Policy,
			Severity: v.Severity,
		})
	}
	return rs
}

func constraintsSpecFromDomain(dc domain.DataConstraints) *ConstraintsSpec {
	var spec ConstraintsSpec

	if tw := dc.Temporal; !tw.StartDate.IsZero() || !tw.EndDate.IsZero() ||
		tw.Frequency != "" || tw.Seasonality || tw.TrendDirection != "" {
		spec.Temporal = &TemporalSpec{
			StartDate:      formatDate(tw.StartDate),
			EndDate:        formatDate(tw.EndDate),
			Frequency:      tw.Frequency,
			Seasonality:    tw.Seasonality,
			TrendDirection: tw.TrendDirection,
		}
	}

	if b := dc.Business; len(b.RealisticRanges) > 0 || len(b.CorrelationRequirements) > 0 ||
		len(b.MandatoryRelationships) > 0 {
		bs := &BusinessSpec{
			CorrelationRequirements: b.CorrelationRequirements,
		}
		if len(b.RealisticRanges) > 0 {
			bs.RealisticRanges = make(map[string]RangeSpec, len(b.RealisticRanges))
			for field, rg := range b.RealisticRanges {
				bs.RealisticRanges[field] = RangeSpec{Min: rg.Min, Max: rg.Max}
			}
		}
		for _, rel := range b.MandatoryRelationships {
			bs.MandatoryRelationships = append(bs.MandatoryRelationships, RelationshipSpec{
				Field: rel.Field, Policy: rel.Policy, Other: rel.Other,
			})
		}
		spec.Business = bs
	}

	if q := dc.Quality; q.CompletenessTarget != 0 || len(q.ConsistencyRequirements) > 0 ||
		q.MaxOutlierFraction != 0 {
		spec.Quality = &QualityConstraintsSpec{
			CompletenessTarget:      q.CompletenessTarget,
			ConsistencyRequirements: q.ConsistencyRequirements,
			MaxOutlierFraction:      q.MaxOutlierFraction,
		}
	}

	if spec.Temporal == nil && spec.Business == nil && spec.Quality == nil {
		return nil
	}
	return &spec
}

// formatDate renders a timestamp in the shortest layout parseDate accepts.
func formatDate(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	if h, m, s := ts.Clock(); h == 0 && m == 0 && s == 0 && ts.Nanosecond() == 0 && ts.Location() == time.UTC {
		return ts.Format("2006-01-02")
	}
	return ts.Format(time.RFC3339Nano)
}
