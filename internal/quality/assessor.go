// Package quality scores a generated batch against the template's declared
// targets. Every score is computed from the actual records; nothing here
// returns a fixed band.
package quality

import (
	"fmt"
	"math"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

const diversityBins = 10

// Score computes the batch-level quality metrics for the accepted records.
// An empty batch scores vacuously (1.0 everywhere except the privacy gate).
func Score(records []domain.Record, t *domain.Template, params domain.QualityParameters, eff domain.DataConstraints) domain.SyntheticQualityMetrics {
	metrics := domain.SyntheticQualityMetrics{
		RealismScore:           1,
		DiversityIndex:         1,
		CorrelationScore:       1,
		BusinessRuleCompliance: 1,
		StatisticalSimilarity:  1,
		PrivacyScore:           privacyScore(params),
	}
	if len(records) == 0 {
		return metrics
	}

	metrics.RealismScore = realismScore(records, t)
	metrics.DiversityIndex = diversityIndex(records, t)
	metrics.CorrelationScore = correlationScore(records, eff.Business.CorrelationRequirements)
	metrics.BusinessRuleCompliance = businessCompliance(records, eff.Business)
	metrics.StatisticalSimilarity = statisticalSimilarity(records, t)
	return metrics
}

func privacyScore(params domain.QualityParameters) float64 {
	if params.PrivacyPreservation {
		return 1
	}
	return 0
}

// realismScore measures how close each statistical field's sample mean lands
// to the mean its distribution declares.
func realismScore(records []domain.Record, t *domain.Template) float64 {
	total, count := 0.0, 0
	for i := range t.Rules {
		rule := &t.Rules[i]
		expected, ok := expectedMean(rule)
		if !ok {
			continue
		}
		values := numericColumn(records, rule.Field)
		if len(values) == 0 {
			continue
		}
		sample := mean(values)
		scale := math.Max(math.Abs(expected), 1e-9)
		closeness := 1 - math.Min(1, math.Abs(sample-expected)/scale)
		total += closeness
		count++
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

func expectedMean(rule *domain.GenerationRule) (float64, bool) {
	if rule.Method != domain.MethodStatistical && rule.Method != domain.MethodRandom {
		return 0, false
	}
	p := &rule.Params
	switch p.Distribution {
	case domain.DistributionNormal, domain.DistributionExponential, domain.DistributionPoisson:
		return p.Mean, true
	case domain.DistributionUniform:
		if p.Min != nil && p.Max != nil {
			return (*p.Min + *p.Max) / 2, true
		}
	case "":
		if rule.Method == domain.MethodStatistical {
			return p.Mean, true // defaults to normal
		}
	}
	return 0, false
}

// diversityIndex is the mean normalized Shannon entropy across rule fields.
// Categorical fields bin by value; numeric fields by ten equal-width bins
// over the observed range.
func diversityIndex(records []domain.Record, t *domain.Template) float64 {
	total, count := 0.0, 0
	for i := range t.Rules {
		field := t.Rules[i].Field
		if h, ok := fieldEntropy(records, field); ok {
			total += h
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

func fieldEntropy(records []domain.Record, field string) (float64, bool) {
	counts := make(map[string]int)
	numeric := numericColumn(records, field)

	if len(numeric) > 0 {
		lo, hi := minMax(numeric)
		if hi == lo {
			return 0, true
		}
		width := (hi - lo) / diversityBins
		for _, v := range numeric {
			bin := int((v - lo) / width)
			if bin >= diversityBins {
				bin = diversityBins - 1
			}
			counts[fmt.Sprintf("b%d", bin)]++
		}
		return normalizedEntropy(counts, len(numeric), diversityBins), true
	}

	n := 0
	for _, r := range records {
		v, ok := r[field]
		if !ok {
			continue
		}
		counts[fmt.Sprint(v)]++
		n++
	}
	if n == 0 {
		return 0, false
	}
	return normalizedEntropy(counts, n, len(counts)), true
}

func normalizedEntropy(counts map[string]int, n, categories int) float64 {
	if categories < 2 || n < 2 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(n)
		h -= p * math.Log(p)
	}
	return h / math.Log(float64(categories))
}

// correlationScore averages |Pearson r| over the declared correlation pairs.
// No declared requirements, or no measurable pair, scores vacuously.
func correlationScore(records []domain.Record, requirements map[string][]string) float64 {
	if len(requirements) == 0 {
		return 1
	}
	total, count := 0.0, 0
	for field, partners := range requirements {
		for _, partner := range partners {
			if r, ok := pearson(records, field, partner); ok {
				total += math.Abs(r)
				count++
			}
		}
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

func pearson(records []domain.Record, fieldX, fieldY string) (float64, bool) {
	var xs, ys []float64
	for _, r := range records {
		x, okX := asFloat(r[fieldX])
		y, okY := asFloat(r[fieldY])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	n := len(xs)
	if n < 2 {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}

// businessCompliance is the fraction of records satisfying the declared
// realistic ranges and mandatory relationship policies.
func businessCompliance(records []domain.Record, bus domain.BusinessConstraints) float64 {
	if len(bus.RealisticRanges) == 0 && len(bus.MandatoryRelationships) == 0 {
		return 1
	}
	passing := 0
	for _, r := range records {
		if recordComplies(r, bus) {
			passing++
		}
	}
	return float64(passing) / float64(len(records))
}

func recordComplies(r domain.Record, bus domain.BusinessConstraints) bool {
	for field, rng := range bus.RealisticRanges {
		v, ok := asFloat(r[field])
		if !ok {
			return false
		}
		if v < rng.Min || v > rng.Max {
			return false
		}
	}
	for _, rel := range bus.MandatoryRelationships {
		a, okA := asFloat(r[rel.Field])
		b, okB := asFloat(r[rel.Other])
		if !okA || !okB {
			return false
		}
		switch rel.Policy {
		case domain.PolicyNotExceeds:
			if a > b {
				return false
			}
		case domain.PolicyAtLeast:
			if a < b {
				return false
			}
		}
	}
	return true
}

// statisticalSimilarity measures how close each statistical field's sample
// dispersion lands to the dispersion its distribution implies.
func statisticalSimilarity(records []domain.Record, t *domain.Template) float64 {
	total, count := 0.0, 0
	for i := range t.Rules {
		rule := &t.Rules[i]
		expected, ok := expectedStdDev(rule)
		if !ok || expected <= 0 {
			continue
		}
		values := numericColumn(records, rule.Field)
		if len(values) < 2 {
			continue
		}
		sample := stdDev(values)
		closeness := 1 - math.Min(1, math.Abs(sample-expected)/expected)
		total += closeness
		count++
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

func expectedStdDev(rule *domain.GenerationRule) (float64, bool) {
	if rule.Method != domain.MethodStatistical && rule.Method != domain.MethodRandom {
		return 0, false
	}
	p := &rule.Params
	switch p.Distribution {
	case domain.DistributionNormal:
		return p.StdDev, true
	case domain.DistributionExponential:
		return p.Mean, true
	case domain.DistributionPoisson:
		if p.Mean >= 0 {
			return math.Sqrt(p.Mean), true
		}
	case domain.DistributionUniform:
		if p.Min != nil && p.Max != nil {
			return (*p.Max - *p.Min) / math.Sqrt(12), true
		}
	case "":
		if rule.Method == domain.MethodStatistical {
			return p.StdDev, true
		}
	}
	return 0, false
}

// CheckBatchConstraints compares the batch against the declared quality
// constraints and returns advisory warnings. Consistency requirement names
// are declarative only and are not evaluated here.
func CheckBatchConstraints(records []domain.Record, t *domain.Template, qc domain.QualityConstraints) []string {
	if len(records) == 0 {
		return nil
	}
	var warnings []string

	if qc.CompletenessTarget > 0 {
		cells, present := 0, 0
		for _, r := range records {
			for i := range t.Rules {
				cells++
				if _, ok := r[t.Rules[i].Field]; ok {
					present++
				}
			}
		}
		if cells > 0 {
			completeness := float64(present) / float64(cells)
			if completeness < qc.CompletenessTarget {
				warnings = append(warnings, fmt.Sprintf(
					"completeness %.3f below target %.3f", completeness, qc.CompletenessTarget))
			}
		}
	}

	if qc.MaxOutlierFraction > 0 {
		for i := range t.Rules {
			rule := &t.Rules[i]
			if rule.Method != domain.MethodStatistical || rule.Params.StdDev <= 0 {
				continue
			}
			values := numericColumn(records, rule.Field)
			if len(values) == 0 {
				continue
			}
			outliers := 0
			lo := rule.Params.Mean - 3*rule.Params.StdDev
			hi := rule.Params.Mean + 3*rule.Params.StdDev
			for _, v := range values {
				if v < lo || v > hi {
					outliers++
				}
			}
			frac := float64(outliers) / float64(len(values))
			if frac > qc.MaxOutlierFraction {
				warnings = append(warnings, fmt.Sprintf(
					"field %q outlier fraction %.3f exceeds limit %.3f", rule.Field, frac, qc.MaxOutlierFraction))
			}
		}
	}
	return warnings
}

func numericColumn(records []domain.Record, field string) []float64 {
	var out []float64
	for _, r := range records {
		if v, ok := asFloat(r[field]); ok {
			out = append(out, v)
		}
	}
	return out
}

func asFloat(v any) (float64, bool) {
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

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	m := mean(values)
	var acc float64
	for _, v := range values {
		d := v - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(values)-1))
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
