// Package sampling implements the statistical draws used by generation rules.
// Every function takes the caller's *rand.Rand; the package owns no random
// state, which is what makes seeded generation reproducible.
package sampling

import (
	"math"
	"math/rand"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// maxRejectionAttempts bounds the normal rejection loop. Bounds that exclude
// all probability mass fail with DistributionInfeasibleError instead of
// spinning.
const maxRejectionAttempts = 100

// maxPoissonLambda keeps exp(-lambda) away from underflow.
const maxPoissonLambda = 500

// Normal draws from N(mean, stddev) via the Box-Muller transform, rejection
// sampled against the declared bounds.
func Normal(rng *rand.Rand, mean, stddev float64, min, max *float64) (float64, error) {
	if stddev <= 0 {
		return Clamp(mean, min, max), nil
	}
	for attempt := 0; attempt < maxRejectionAttempts; attempt++ {
		u1 := 1 - rng.Float64() // (0,1], keeps Log finite
		u2 := rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		v := mean + stddev*z
		if inBounds(v, min, max) {
			return v, nil
		}
	}
	return 0, domain.ErrDistributionInfeasible(
		"normal(mean=%g, std_dev=%g) produced no value within bounds after %d attempts",
		mean, stddev, maxRejectionAttempts)
}

// Uniform draws uniformly from [min, max].
func Uniform(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

// Exponential draws via the inverse CDF -ln(1-u)/lambda with lambda = 1/mean,
// then clips to the declared bounds.
func Exponential(rng *rand.Rand, mean float64, min, max *float64) float64 {
	lambda := 1.0
	if mean > 0 {
		lambda = 1 / mean
	}
	v := -math.Log(1-rng.Float64()) / lambda
	return Clamp(v, min, max)
}

// Poisson draws a count using the multiplicative algorithm: multiply uniforms
// until the product drops below e^-lambda. The count is clamped to the
// declared bounds when present.
func Poisson(rng *rand.Rand, lambda float64, min, max *float64) float64 {
	if lambda <= 0 {
		return Clamp(0, min, max)
	}
	if lambda > maxPoissonLambda {
		lambda = maxPoissonLambda
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for p > limit {
		k++
		p *= rng.Float64()
	}
	return Clamp(float64(k-1), min, max)
}

// UniformChoice draws uniformly from values. Empty input returns "".
func UniformChoice(rng *rand.Rand, values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[rng.Intn(len(values))]
}

// WeightedChoice draws from values proportionally to the supplied weights
// (cumulative sum plus a single uniform draw). Values missing from the weight
// map carry weight zero; a non-positive total mass falls back to a uniform
// draw over the full list.
func WeightedChoice(rng *rand.Rand, values []string, weights map[string]float64) string {
	if len(values) == 0 {
		return ""
	}
	total := 0.0
	for _, v := range values {
		if w := weights[v]; w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return UniformChoice(rng, values)
	}
	target := rng.Float64() * total
	cumulative := 0.0
	for _, v := range values {
		if w := weights[v]; w > 0 {
			cumulative += w
			if target < cumulative {
				return v
			}
		}
	}
	// Floating-point edge: target == total. Return the last weighted value.
	for i := len(values) - 1; i >= 0; i-- {
		if weights[values[i]] > 0 {
			return values[i]
		}
	}
	return values[len(values)-1]
}

// Jitter perturbs v by a uniform offset in [-noise*scale, +noise*scale] and
// re-clamps to the declared bounds. noise <= 0 returns v unchanged.
func Jitter(rng *rand.Rand, v, noise, scale float64, min, max *float64) float64 {
	if noise <= 0 || scale <= 0 {
		return v
	}
	offset := (2*rng.Float64() - 1) * noise * scale
	return Clamp(v+offset, min, max)
}

// Clamp limits v to the declared bounds; nil bounds are open.
func Clamp(v float64, min, max *float64) float64 {
	if min != nil && v < *min {
		return *min
	}
	if max != nil && v > *max {
		return *max
	}
	return v
}

func inBounds(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}
