package recommend

import "math"

// Weights are the fixed linear coefficients combining the five factors into
// one relevance score. They sum to 1.0 by construction; changing any weight
// is a deliberate tuning decision. The template's profitability weight is
// intentionally absent: it is a tie-break nudge, never part of the
// matching-quality score, so "why this gift matched" stays explainable
// independent of monetization.
type Weights struct {
	Semantic float64
	Budget   float64
	Discount float64
	Rating   float64
	Shipping float64
}

// DefaultWeights returns the production tuning.
func DefaultWeights() Weights {
	return Weights{
		Semantic: 0.40,
		Budget:   0.20,
		Discount: 0.15,
		Rating:   0.15,
		Shipping: 0.10,
	}
}

// Sum returns the total of all coefficients (1.0 for DefaultWeights).
func (w Weights) Sum() float64 {
	return w.Semantic + w.Budget + w.Discount + w.Rating + w.Shipping
}

// Aggregate combines a factor vector into a single relevance score in [0,1],
// rounded to 4 decimal digits so repeated computation and serialization of
// the same inputs yield bit-identical stored values.
func Aggregate(w Weights, f Factors) float64 {
	s := w.Semantic*f.Semantic +
		w.Budget*f.Budget +
		w.Discount*f.Discount +
		w.Rating*f.Rating +
		w.Shipping*f.Shipping
	return round4(Clamp01(s))
}

// round4 rounds to 4 decimal digits, half away from zero.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
