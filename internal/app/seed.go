package app

import (
	"context"
	"fmt"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/lookup"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/template"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/validation"
)

// SeedLookupTables registers the builtin category lists. Operator templates
// may reference these or register their own over the API.
func SeedLookupTables(reg *lookup.Registry) error {
	tables := map[string][]string{
		"channels":           {"search", "social", "email", "display", "video", "affiliate"},
		"platforms":          {"instagram", "tiktok", "linkedin", "facebook", "youtube"},
		"content_types":      {"post", "story", "reel", "carousel", "live"},
		"devices":            {"mobile", "desktop", "tablet"},
		"countries":          {"us", "gb", "de", "nl", "fr", "es", "br", "jp"},
		"customer_segments":  {"consumer", "smb", "mid_market", "enterprise"},
		"subscription_tiers": {"free", "starter", "pro", "enterprise"},
	}
	for name, values := range tables {
		if err := reg.Register(name, values); err != nil {
			return err
		}
	}
	return nil
}

// RegisterBuiltinPolicies installs the cross-field hooks the builtin
// templates declare. Operator templates may name policies that are not
// registered here; those entries pass until a hook is installed.
func RegisterBuiltinPolicies(policies *validation.PolicyRegistry) {
	policies.Register("clicks_within_impressions", notExceeds("impressions"))
	policies.Register("conversions_within_clicks", notExceeds("clicks"))
	policies.Register("engagement_within_impressions", func(_ string, record domain.Record) error {
		likes, okL := asNumber(record["likes"])
		comments, okC := asNumber(record["comments"])
		shares, okS := asNumber(record["shares"])
		impressions, okI := asNumber(record["impressions"])
		if !okL || !okC || !okS || !okI {
			return fmt.Errorf("engagement fields must be numeric")
		}
		if total := likes + comments + shares; total > impressions {
			return fmt.Errorf("engagement %g exceeds impressions %g", total, impressions)
		}
		return nil
	})
}

// notExceeds returns a policy requiring the checked field to stay at or
// below the named other field.
func notExceeds(other string) validation.PolicyFunc {
	return func(field string, record domain.Record) error {
		a, okA := asNumber(record[field])
		b, okB := asNumber(record[other])
		if !okA || !okB {
			return fmt.Errorf("%s and %s must both be numeric", field, other)
		}
		if a > b {
			return fmt.Errorf("%s %g exceeds %s %g", field, a, other, b)
		}
		return nil
	}
}

func asNumber(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}

// seedTemplates registers the builtin templates. IDs already present in the
// registry are skipped, so operator edits loaded from the store survive
// restarts.
func seedTemplates(ctx context.Context, templates *template.Service) error {
	for _, t := range BuiltinTemplates() {
		if _, err := templates.Get(ctx, t.ID); err == nil {
			continue
		}
		if err := templates.Register(ctx, t); err != nil {
			return fmt.Errorf("register builtin template %q: %w", t.ID, err)
		}
	}
	return nil
}

func BuiltinTemplates() []*domain.Template {
	return []*domain.Template{
		campaignPerformanceTemplate(),
		socialContentTemplate(),
		customerBehaviorTemplate(),
	}
}

func year2024() (time.Time, time.Time) {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// campaignPerformanceTemplate models paid-channel delivery: impressions,
// click-through, conversion, and spend, with channel and seasonal effects.
func campaignPerformanceTemplate() *domain.Template {
	start, end := year2024()
	return &domain.Template{
		ID:             "campaign_performance",
		DataType:       "campaign_performance",
		TargetAudience: []string{"marketing_analytics", "ml_training"},
		Rules: []domain.GenerationRule{
			{
				Field:  "channel",
				Method: domain.MethodLookupTable,
				Params: domain.RuleParams{
					LookupTable: "channels",
					Weights: map[string]float64{
						"search": 0.35, "social": 0.25, "email": 0.15,
						"display": 0.1, "video": 0.1, "affiliate": 0.05,
					},
				},
			},
			{
				Field:  "device",
				Method: domain.MethodLookupTable,
				Params: domain.RuleParams{
					LookupTable: "devices",
					Weights:     map[string]float64{"mobile": 0.6, "desktop": 0.3, "tablet": 0.1},
				},
			},
			{
				Field:  "country",
				Method: domain.MethodLookupTable,
				Params: domain.RuleParams{LookupTable: "countries"},
			},
			{
				Field:  "event_time",
				Method: domain.MethodPatternBased,
				Params: domain.RuleParams{Pattern: domain.PatternBusinessHours},
			},
			{
				Field:  "seasonal_factor",
				Method: domain.MethodPatternBased,
				Params: domain.RuleParams{
					Pattern:      domain.PatternSeasonalMultiplier,
					Dependencies: []string{"event_time"},
				},
			},
			{
				Field:  "channel_factor",
				Method: domain.MethodPatternBased,
				Params: domain.RuleParams{
					Pattern:  domain.PatternCategoricalMultiplier,
					KeyField: "channel",
					Multipliers: map[string]float64{
						"search": 1.3, "video": 1.2, "social": 1.1, "email": 0.9, "display": 0.7,
					},
					DefaultMultiplier: 1.0,
					Dependencies:      []string{"channel"},
				},
			},
			{
				Field:  "impressions",
				Method: domain.MethodStatistical,
				Params: domain.RuleParams{
					Distribution: domain.DistributionNormal,
					Mean:         42000, StdDev: 15000,
					Min: f64(500), Max: f64(200000),
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationRange, Min: f64(0), Max: f64(250000), Severity: domain.SeverityHigh},
				},
			},
			{
				Field:  "ad_position",
				Method: domain.MethodRandom,
				Params: domain.RuleParams{
					Distribution: domain.DistributionUniform,
					Min:          f64(1), Max: f64(8),
				},
			},
			{
				Field:  "clicks",
				Method: domain.MethodFormula,
				Params: domain.RuleParams{
					Formula:      "impressions * (0.02 + 0.015 * rand()) * channel_factor * seasonal_factor",
					Dependencies: []string{"impressions", "channel_factor", "seasonal_factor"},
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationCorrelation, Policy: "clicks_within_impressions", Severity: domain.SeverityCritical},
				},
			},
			{
				Field:  "conversions",
				Method: domain.MethodFormula,
				Params: domain.RuleParams{
					Formula:      "clicks * (0.01 + 0.04 * rand())",
					Dependencies: []string{"clicks"},
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationCorrelation, Policy: "conversions_within_clicks", Severity: domain.SeverityCritical},
				},
			},
			{
				Field:  "spend",
				Method: domain.MethodStatistical,
				Params: domain.RuleParams{
					Distribution: domain.DistributionNormal,
					Mean:         2600, StdDev: 900,
					Min: f64(50), Max: f64(20000),
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationRange, Min: f64(0), Max: f64(20000)},
				},
			},
			{
				Field:  "cpc",
				Method: domain.MethodFormula,
				Params: domain.RuleParams{
					Formula:      "spend / max(clicks, 1.0)",
					Dependencies: []string{"spend", "clicks"},
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationRange, Min: f64(0), Severity: domain.SeverityLow},
				},
			},
		},
		Constraints: domain.DataConstraints{
			Temporal: domain.TemporalConstraints{
				StartDate:      start,
				EndDate:        end,
				Frequency:      domain.FrequencyDaily,
				Seasonality:    true,
				TrendDirection: domain.TrendIncreasing,
			},
			Business: domain.BusinessConstraints{
				RealisticRanges: map[string]domain.Range{
					"impressions": {Min: 0, Max: 250000},
					"spend":       {Min: 0, Max: 20000},
				},
				CorrelationRequirements: map[string][]string{
					"clicks":      {"impressions"},
					"conversions": {"clicks"},
				},
				MandatoryRelationships: []domain.Relationship{
					{Field: "clicks", Policy: domain.PolicyNotExceeds, Other: "impressions"},
					{Field: "conversions", Policy: domain.PolicyNotExceeds, Other: "clicks"},
				},
			},
			Quality: domain.QualityConstraints{
				CompletenessTarget: 0.99,
				MaxOutlierFraction: 0.02,
			},
		},
		Quality: domain.QualityParameters{
			TargetRealism:     0.85,
			TargetDiversity:   0.7,
			TargetCorrelation: 0.6,
			NoiseLevel:        0.05,
		},
		IncludeMetadata: true,
		BackfillCron:    "0 2 * * *",
		BackfillCount:   250,
		CreatedBy:       "system",
	}
}

// socialContentTemplate models per-post engagement: impressions, likes,
// comments, shares, and a sentiment score, biased by platform.
func socialContentTemplate() *domain.Template {
	start, end := year2024()
	return &domain.Template{
		ID:             "social_content",
		DataType:       "social_content",
		TargetAudience: []string{"content_analytics", "ml_training"},
		Rules: []domain.GenerationRule{
			{
				Field:  "platform",
				Method: domain.MethodLookupTable,
				Params: domain.RuleParams{
					LookupTable: "platforms",
					Weights: map[string]float64{
						"instagram": 0.35, "tiktok": 0.3, "linkedin": 0.15,
						"facebook": 0.12, "youtube": 0.08,
					},
				},
			},
			{
				Field:  "content_type",
				Method: domain.MethodLookupTable,
				Params: domain.RuleParams{LookupTable: "content_types"},
			},
			{
				Field:  "published_at",
				Method: domain.MethodPatternBased,
				Params: domain.RuleParams{Pattern: domain.PatternBusinessHours},
			},
			{
				Field:  "platform_reach",
				Method: domain.MethodPatternBased,
				Params: domain.RuleParams{
					Pattern:  domain.PatternCategoricalMultiplier,
					KeyField: "platform",
					Multipliers: map[string]float64{
						"tiktok": 1.4, "instagram": 1.2, "facebook": 0.9, "linkedin": 0.8,
					},
					DefaultMultiplier: 1.0,
					Dependencies:      []string{"platform"},
				},
			},
			{
				Field:  "impressions",
				Method: domain.MethodStatistical,
				Params: domain.RuleParams{
					Distribution: domain.DistributionNormal,
					Mean:         24000, StdDev: 9000,
					Min: f64(1000), Max: f64(120000),
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationRange, Min: f64(0), Severity: domain.SeverityHigh},
				},
			},
			{
				Field:  "likes",
				Method: domain.MethodFormula,
				Params: domain.RuleParams{
					Formula:      "impressions * (0.01 + 0.05 * rand()) * platform_reach",
					Dependencies: []string{"impressions", "platform_reach"},
				},
			},
			{
				Field:  "comments",
				Method: domain.MethodFormula,
				Params: domain.RuleParams{
					Formula:      "likes * (0.02 + 0.08 * rand())",
					Dependencies: []string{"likes"},
				},
			},
			{
				Field:  "shares",
				Method: domain.MethodFormula,
				Params: domain.RuleParams{
					Formula:      "likes * (0.05 + 0.15 * rand())",
					Dependencies: []string{"likes"},
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationBusinessLogic, Policy: "engagement_within_impressions", Severity: domain.SeverityHigh},
				},
			},
			{
				Field:  "engagement_rate",
				Method: domain.MethodFormula,
				Params: domain.RuleParams{
					Formula:      "(likes + comments + shares) / max(impressions, 1.0)",
					Dependencies: []string{"likes", "comments", "shares", "impressions"},
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationRange, Min: f64(0), Max: f64(1)},
				},
			},
			{
				Field:  "sentiment_score",
				Method: domain.MethodMLModel,
				Params: domain.RuleParams{Min: f64(0), Max: f64(1)},
			},
			{
				Field:  "hashtag_count",
				Method: domain.MethodRandom,
				Params: domain.RuleParams{
					Distribution: domain.DistributionPoisson,
					Mean:         4,
					Min:          f64(0), Max: f64(30),
				},
			},
		},
		Constraints: domain.DataConstraints{
			Temporal: domain.TemporalConstraints{
				StartDate:      start,
				EndDate:        end,
				Frequency:      domain.FrequencyHourly,
				Seasonality:    true,
				TrendDirection: domain.TrendStable,
			},
			Business: domain.BusinessConstraints{
				RealisticRanges: map[string]domain.Range{
					"impressions":     {Min: 0, Max: 150000},
					"engagement_rate": {Min: 0, Max: 1},
				},
				CorrelationRequirements: map[string][]string{
					"likes": {"impressions"},
				},
				MandatoryRelationships: []domain.Relationship{
					{Field: "likes", Policy: domain.PolicyNotExceeds, Other: "impressions"},
				},
			},
			Quality: domain.QualityConstraints{
				CompletenessTarget: 0.98,
				MaxOutlierFraction: 0.03,
			},
		},
		Quality: domain.QualityParameters{
			TargetRealism:   0.8,
			TargetDiversity: 0.75,
			NoiseLevel:      0.03,
		},
		BackfillCron:  "30 2 * * *",
		BackfillCount: 150,
		CreatedBy:     "system",
	}
}

// customerBehaviorTemplate models per-customer usage: sessions, depth, and a
// lifetime value derived from subscription tier and churn risk.
func customerBehaviorTemplate() *domain.Template {
	start, end := year2024()
	return &domain.Template{
		ID:             "customer_behavior",
		DataType:       "customer_behavior",
		TargetAudience: []string{"growth_analytics", "ml_training"},
		Rules: []domain.GenerationRule{
			{
				Field:  "segment",
				Method: domain.MethodLookupTable,
				Params: domain.RuleParams{
					LookupTable: "customer_segments",
					Weights: map[string]float64{
						"consumer": 0.5, "smb": 0.25, "mid_market": 0.15, "enterprise": 0.1,
					},
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationPattern, Pattern: "^[a-z_]+$", Severity: domain.SeverityLow},
				},
			},
			{
				Field:  "tier",
				Method: domain.MethodLookupTable,
				Params: domain.RuleParams{LookupTable: "subscription_tiers"},
			},
			{
				Field:  "observed_at",
				Method: domain.MethodPatternBased,
				Params: domain.RuleParams{Pattern: domain.PatternBusinessHours},
			},
			{
				Field:  "tier_factor",
				Method: domain.MethodPatternBased,
				Params: domain.RuleParams{
					Pattern:  domain.PatternCategoricalMultiplier,
					KeyField: "tier",
					Multipliers: map[string]float64{
						"free": 0.3, "starter": 0.7, "pro": 1.2, "enterprise": 2.0,
					},
					DefaultMultiplier: 1.0,
					Dependencies:      []string{"tier"},
				},
			},
			{
				Field:  "sessions",
				Method: domain.MethodStatistical,
				Params: domain.RuleParams{
					Distribution: domain.DistributionPoisson,
					Mean:         6,
					Min:          f64(0), Max: f64(40),
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationRange, Min: f64(0), Max: f64(50)},
				},
			},
			{
				Field:  "pages_per_session",
				Method: domain.MethodRandom,
				Params: domain.RuleParams{
					Distribution: domain.DistributionExponential,
					Mean:         4,
					Min:          f64(1), Max: f64(40),
				},
			},
			{
				Field:  "session_minutes",
				Method: domain.MethodStatistical,
				Params: domain.RuleParams{
					Distribution: domain.DistributionNormal,
					Mean:         9, StdDev: 4,
					Min: f64(0.5), Max: f64(90),
				},
			},
			{
				Field:  "churn_risk",
				Method: domain.MethodMLModel,
				Params: domain.RuleParams{},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationRange, Min: f64(0), Max: f64(1)},
				},
			},
			{
				Field:  "ltv",
				Method: domain.MethodFormula,
				Params: domain.RuleParams{
					Formula:      "tier_factor * (40.0 + 12.0 * sessions + 1.5 * session_minutes) * (1.0 - 0.5 * churn_risk)",
					Dependencies: []string{"tier_factor", "sessions", "session_minutes", "churn_risk"},
				},
				Validation: []domain.ValidationRule{
					{Type: domain.ValidationRange, Min: f64(0), Severity: domain.SeverityMedium},
				},
			},
		},
		Constraints: domain.DataConstraints{
			Temporal: domain.TemporalConstraints{
				StartDate:   start,
				EndDate:     end,
				Frequency:   domain.FrequencyWeekly,
				Seasonality: false,
			},
			Business: domain.BusinessConstraints{
				RealisticRanges: map[string]domain.Range{
					"sessions": {Min: 0, Max: 50},
					"ltv":      {Min: 0, Max: 2500},
				},
			},
			Quality: domain.QualityConstraints{
				CompletenessTarget: 0.99,
			},
		},
		Quality: domain.QualityParameters{
			TargetRealism:   0.8,
			TargetDiversity: 0.65,
			NoiseLevel:      0.04,
		},
		CreatedBy: "system",
	}
}

func f64(v float64) *float64 { return &v }
