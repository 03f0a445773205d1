package features

import "math"

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDevSample computes the sample standard deviation (n-1 denominator).
// Returns 0 for fewer than two values.
func StdDevSample(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := Mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - mean
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(n-1))
}

// StdDevPop computes the population standard deviation (n denominator).
func StdDevPop(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	mean := Mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - mean
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(n))
}

// PctReturns computes day-over-day percent changes of closes.
// Returns len(closes)-1 values; a zero previous close yields a 0 return.
func PctReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (closes[i]-prev)/prev)
	}
	return out
}

// ZScores standardizes xs against their own mean and population std.
// A zero std yields all-zero scores.
func ZScores(xs []float64) []float64 {
	out := make([]float64, len(xs))
	std := StdDevPop(xs)
	if std == 0 {
		return out
	}
	mean := Mean(xs)
	for i, x := range xs {
		out[i] = (x - mean) / std
	}
	return out
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
