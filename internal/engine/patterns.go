package engine

import (
	"math"
	"math/rand"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/sampling"
)

// Default temporal window when a template declares none. Fixed dates keep
// seeded generation reproducible across processes and days.
var (
	defaultWindowStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	defaultWindowEnd   = time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
)

const (
	businessHoursBias  = 0.7
	businessHourStart  = 9
	businessHourCount  = 8 // 09:00 through 16:59
	seasonalAmplitude  = 0.3
	trendAdjustment    = 0.1
	daysPerYear        = 365.0
)

func (e *Engine) generatePattern(rng *rand.Rand, plan *Plan, rule *domain.GenerationRule, record domain.Record, eff domain.DataConstraints) (any, error) {
	switch rule.Params.Pattern {
	case domain.PatternBusinessHours:
		return businessHoursTimestamp(rng, eff.Temporal), nil
	case domain.PatternSeasonalMultiplier:
		return seasonalMultiplier(rng, plan, record, eff.Temporal), nil
	case domain.PatternCategoricalMultiplier:
		return categoricalMultiplier(rule, record), nil
	default:
		return nil, domain.ErrValidation("unknown pattern %q", rule.Params.Pattern)
	}
}

// businessHoursTimestamp draws uniformly from the temporal window, then with
// 70% probability re-biases the clock time into business hours, and finally
// truncates to the window's frequency granularity.
func businessHoursTimestamp(rng *rand.Rand, tw domain.TemporalConstraints) time.Time {
	start, end := effectiveWindow(tw)
	ts := uniformTime(rng, start, end)
	if rng.Float64() < businessHoursBias {
		ts = time.Date(ts.Year(), ts.Month(), ts.Day(),
			businessHourStart+rng.Intn(businessHourCount),
			rng.Intn(60), rng.Intn(60), 0, time.UTC)
	}
	return truncateToFrequency(ts, tw.Frequency)
}

// seasonalMultiplier computes sin(2*pi*dayOfYear/365)*0.3 + 1, adjusted by the
// declared trend direction. The day of year comes from the record's first
// timestamp field in execution order; without one, a uniform date is drawn
// from the window.
func seasonalMultiplier(rng *rand.Rand, plan *Plan, record domain.Record, tw domain.TemporalConstraints) float64 {
	var ts time.Time
	found := false
	for _, r := range plan.Ordered {
		if v, ok := record[r.Field].(time.Time); ok {
			ts = v
			found = true
			break
		}
	}
	if !found {
		start, end := effectiveWindow(tw)
		ts = uniformTime(rng, start, end)
	}

	progress := float64(ts.YearDay()) / daysPerYear
	multiplier := math.Sin(2*math.Pi*progress)*seasonalAmplitude + 1
	switch tw.TrendDirection {
	case domain.TrendIncreasing:
		multiplier += trendAdjustment * progress
	case domain.TrendDecreasing:
		multiplier -= trendAdjustment * progress
	}
	return multiplier
}

// categoricalMultiplier maps the value of a sibling categorical field through
// the declared multiplier table. Unknown keys use the default multiplier
// (1.0 when unset).
func categoricalMultiplier(rule *domain.GenerationRule, record domain.Record) float64 {
	p := &rule.Params
	key, _ := record[p.KeyField].(string)
	if m, ok := p.Multipliers[key]; ok {
		return m
	}
	if p.DefaultMultiplier != 0 {
		return p.DefaultMultiplier
	}
	return 1.0
}

func effectiveWindow(tw domain.TemporalConstraints) (time.Time, time.Time) {
	start, end := tw.StartDate, tw.EndDate
	switch {
	case start.IsZero() && end.IsZero():
		return defaultWindowStart, defaultWindowEnd
	case start.IsZero():
		return end.AddDate(-1, 0, 0), end
	case end.IsZero():
		return start, start.AddDate(1, 0, 0)
	}
	if end.Before(start) {
		return start, start
	}
	return start, end
}

func uniformTime(rng *rand.Rand, start, end time.Time) time.Time {
	span := end.Unix() - start.Unix()
	if span <= 0 {
		return start.UTC()
	}
	offset := int64(sampling.Uniform(rng, 0, float64(span)))
	return time.Unix(start.Unix()+offset, 0).UTC()
}

func truncateToFrequency(ts time.Time, frequency string) time.Time {
	switch frequency {
	case domain.FrequencyHourly:
		return ts.Truncate(time.Hour)
	case domain.FrequencyDaily:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	case domain.FrequencyWeekly:
		// Roll back to the ISO week's Monday.
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		weekday := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -weekday)
	default:
		return ts
	}
}
