package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestMerge(t *testing.T) {
	t.Parallel()

	base := domain.DataConstraints{
		Temporal: domain.TemporalConstraints{Frequency: domain.FrequencyDaily},
		Business: domain.BusinessConstraints{
			RealisticRanges: map[string]domain.Range{"spend": {Min: 100, Max: 10000}},
		},
		Quality: domain.QualityConstraints{CompletenessTarget: 0.95},
	}

	t.Run("nil overrides keep base", func(t *testing.T) {
		assert.Equal(t, base, Merge(base, nil))
	})

	t.Run("overridden block replaces whole", func(t *testing.T) {
		got := Merge(base, &domain.ConstraintOverrides{
			Quality: &domain.QualityConstraints{CompletenessTarget: 0.5},
		})
		assert.Equal(t, 0.5, got.Quality.CompletenessTarget)
		assert.Empty(t, got.Quality.ConsistencyRequirements)
		// Untouched blocks survive.
		assert.Equal(t, base.Temporal, got.Temporal)
		assert.Equal(t, base.Business, got.Business)
	})
}

func checkerFor(t *testing.T, rules []domain.GenerationRule, policies *PolicyRegistry) *Checker {
	t.Helper()
	tmpl := &domain.Template{ID: "t", DataType: "t", Rules: rules}
	c, err := NewChecker(tmpl, policies)
	require.NoError(t, err)
	return c
}

func TestValidateRecordRange(t *testing.T) {
	t.Parallel()

	c := checkerFor(t, []domain.GenerationRule{
		{Field: "spend", Method: domain.MethodStatistical, Validation: []domain.ValidationRule{
			{Type: domain.ValidationRange, Min: f64(100), Max: f64(10000), Severity: domain.SeverityHigh},
		}},
	}, nil)

	assert.Empty(t, c.ValidateRecord(0, domain.Record{"spend": 2500.0}))

	errs := c.ValidateRecord(1, domain.Record{"spend": 50.0})
	require.Len(t, errs, 1)
	assert.Equal(t, "spend", errs[0].Field)
	assert.Equal(t, domain.ValidationRange, errs[0].RuleType)
	assert.Equal(t, domain.SeverityHigh, errs[0].Severity)
	assert.Equal(t, 1, errs[0].RecordIndex)

	errs = c.ValidateRecord(2, domain.Record{"spend": "free"})
	require.Len(t, errs, 1)

	errs = c.ValidateRecord(3, domain.Record{})
	require.Len(t, errs, 1)
}

func TestValidateRecordPattern(t *testing.T) {
	t.Parallel()

	c := checkerFor(t, []domain.GenerationRule{
		{Field: "campaign_code", Method: domain.MethodFormula, Validation: []domain.ValidationRule{
			{Type: domain.ValidationPattern, Pattern: `^CMP-\d{4}$`},
		}},
	}, nil)

	assert.Empty(t, c.ValidateRecord(0, domain.Record{"campaign_code": "CMP-0042"}))

	errs := c.ValidateRecord(0, domain.Record{"campaign_code": "cmp-42"})
	require.Len(t, errs, 1)
	assert.Equal(t, domain.SeverityMedium, errs[0].Severity)
}

func TestNewCheckerRejectsBadRegex(t *testing.T) {
	t.Parallel()

	tmpl := &domain.Template{ID: "t", DataType: "t", Rules: []domain.GenerationRule{
		{Field: "x", Method: domain.MethodFormula, Validation: []domain.ValidationRule{
			{Type: domain.ValidationPattern, Pattern: `([`},
		}},
	}}
	_, err := NewChecker(tmpl, nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestPolicyHooks(t *testing.T) {
	t.Parallel()

	rules := []domain.GenerationRule{
		{Field: "conversions", Method: domain.MethodStatistical, Validation: []domain.ValidationRule{
			{Type: domain.ValidationBusinessLogic, Policy: "conversions_not_exceed_clicks"},
			{Type: domain.ValidationCorrelation, Policy: "unimplemented_policy"},
		}},
	}

	policies := NewPolicyRegistry()
	policies.Register("conversions_not_exceed_clicks", func(field string, record domain.Record) error {
		conv, _ := record["conversions"].(float64)
		clicks, _ := record["clicks"].(float64)
		if conv > clicks {
			return fmt.Errorf("conversions %g exceed clicks %g", conv, clicks)
		}
		return nil
	})

	c := checkerFor(t, rules, policies)

	// Unimplemented policy names pass through.
	assert.Empty(t, c.ValidateRecord(0, domain.Record{"conversions": 5.0, "clicks": 10.0}))

	errs := c.ValidateRecord(0, domain.Record{"conversions": 50.0, "clicks": 10.0})
	require.Len(t, errs, 1)
	assert.Equal(t, domain.ValidationBusinessLogic, errs[0].RuleType)
}
