package bench

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary contains descriptive statistics for one latency sample.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	P90    float64
	P99    float64
}

// Describe computes descriptive statistics for a sample.
func Describe(sample []float64) Summary {
	if len(sample) == 0 {
		return Summary{}
	}

	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	return Summary{
		N:      len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		StdDev: stat.StdDev(sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
}

// MannWhitney contains the result of a Mann-Whitney U test.
type MannWhitney struct {
	U           float64 // U statistic.
	Z           float64 // Z score (normal approximation).
	PValue      float64 // Two-tailed p-value.
	Significant bool    // True if p < 0.05.
}

// MannWhitneyU tests whether two samples come from different
// distributions without assuming normality.
func MannWhitneyU(a, b []float64) MannWhitney {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 == 0 || n2 == 0 {
		return MannWhitney{}
	}

	type ranked struct {
		value float64
		fromA bool
	}
	all := make([]ranked, 0, len(a)+len(b))
	for _, v := range a {
		all = append(all, ranked{v, true})
	}
	for _, v := range b {
		all = append(all, ranked{v, false})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].value < all[j].value })

	// Ties share their average rank.
	var rankSumA float64
	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].value == all[i].value {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if all[k].fromA {
				rankSumA += avg
			}
		}
		i = j
	}

	u1 := rankSumA - n1*(n1+1)/2
	u := math.Min(u1, n1*n2-u1)

	mu := n1 * n2 / 2
	sigma := math.Sqrt(n1 * n2 * (n1 + n2 + 1) / 12)
	var z float64
	if sigma > 0 {
		z = (u - mu) / sigma
	}
	p := 2 * normalCDF(-math.Abs(z))

	return MannWhitney{U: u, Z: z, PValue: p, Significant: p < 0.05}
}

func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// CohensD returns the standardized mean difference of a and b and a
// conventional label for its magnitude.
func CohensD(a, b []float64) (float64, string) {
	if len(a) < 2 || len(b) < 2 {
		return 0, "undefined"
	}
	n1, n2 := float64(len(a)), float64(len(b))
	v1, v2 := stat.Variance(a, nil), stat.Variance(b, nil)
	pooled := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))

	var d float64
	if pooled > 0 {
		d = (stat.Mean(a, nil) - stat.Mean(b, nil)) / pooled
	}

	switch ad := math.Abs(d); {
	case ad < 0.2:
		return d, "negligible"
	case ad < 0.5:
		return d, "small"
	case ad < 0.8:
		return d, "medium"
	default:
		return d, "large"
	}
}
