// Package recommend implements the quiz-to-gift ranking engine: per-candidate
// factor extraction, weighted score aggregation, pool-aware badge resolution,
// and the deterministic ranking pipeline. It is intentionally small and
// dependency-free, with production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - No ambient state: tunables travel in an explicit Config value
//   - Deterministic scoring and sorting (stable order for ties)
//   - Every factor independently clamped to [0,1]
//   - Safe for concurrent use: ranking is a pure function of
//     (answer, candidate snapshot, config)
//
// Malformed candidate data never aborts a ranking pass; the affected signal
// falls back to its most conservative value (0).
package recommend

import (
	"strings"

	"github.com/giftella/go-gift-backend/internal/domain"
)

// maxRatingScale is the upper bound of the merchant rating scale.
const maxRatingScale = 5.0

// Factors holds the five independent [0,1] signals computed for one
// (answer, template) pair. They are ephemeral: computed per ranking request
// and never persisted standalone.
type Factors struct {
	Semantic float64 // weighted tag overlap with the answer context
	Budget   float64 // price-range fit against the stated budget
	Discount float64 // current promotion depth
	Rating   float64 // merchant rating, normalized
	Shipping float64 // delivery speed tier
}

// Clamp01 clamps x into [0,1]. It is idempotent and total: any real input,
// including NaN-free negatives and values above 1, maps into the interval.
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Extract derives the factor vector for one candidate. The answer is assumed
// to satisfy domain.QuizAnswer.Valid; the template may carry missing or
// malformed optional data, which degrades the affected factor to 0.
func Extract(answer domain.QuizAnswer, t domain.GiftTemplate) Factors {
	return Factors{
		Semantic: Clamp01(semanticSimilarity(answer, t)),
		Budget:   Clamp01(budgetFit(answer, t)),
		Discount: Clamp01(t.DiscountPercent / 100),
		Rating:   Clamp01(t.Rating / maxRatingScale),
		Shipping: Clamp01(shippingFit(t.ShippingDays)),
	}
}

// budgetFit is 1.0 when the template's price range intersects the budget and
// decays linearly toward 0 as the nearest gap between the ranges grows,
// normalized by the budget span. A template priced far outside the budget
// scores 0.
func budgetFit(answer domain.QuizAnswer, t domain.GiftTemplate) float64 {
	if t.PriceMax <= 0 && t.PriceMin <= 0 {
		// Missing price range: most conservative value.
		return 0
	}
	if t.PriceMin <= answer.BudgetMax && t.PriceMax >= answer.BudgetMin {
		return 1
	}
	gap := t.PriceMin - answer.BudgetMax // template above budget
	if t.PriceMax < answer.BudgetMin {
		gap = answer.BudgetMin - t.PriceMax // template below budget
	}
	span := answer.BudgetSpan()
	if span <= 0 {
		return 0
	}
	return 1 - gap/span
}

// shippingFit maps the fastest declared delivery tier to [0,1]: next-day is
// 1.0 and each additional day costs a quarter. Undeclared shipping (0 days)
// scores 0.
func shippingFit(days int) float64 {
	if days <= 0 {
		return 0
	}
	return 1 - 0.25*float64(days-1)
}

// semanticSimilarity measures how much of the answer's interest context the
// template covers. Every answer tag found in the union of the template's tag
// sets contributes weight 1; an occasion match and a relationship match
// contribute weight 2 each, so contextual matches always count at least
// double a generic tag match. The result is the matched share of the total
// attainable weight: 0 with no overlap, 1 when every answer tag matches and
// both occasion and relationship match.
func semanticSimilarity(answer domain.QuizAnswer, t domain.GiftTemplate) float64 {
	const contextWeight = 2.0

	union := make(map[string]struct{}, len(t.Tags)+len(t.OccasionTags)+len(t.RelationshipTags))
	for _, set := range []domain.StringList{t.Tags, t.OccasionTags, t.RelationshipTags} {
		for _, tag := range set {
			union[normTag(tag)] = struct{}{}
		}
	}

	total := float64(len(answer.Tags)) + 2*contextWeight
	if total == 0 {
		return 0
	}

	matched := 0.0
	for _, tag := range answer.Tags {
		if _, ok := union[normTag(tag)]; ok {
			matched++
		}
	}
	if containsTag(t.OccasionTags, answer.Occasion) {
		matched += contextWeight
	}
	if containsTag(t.RelationshipTags, answer.Relationship) {
		matched += contextWeight
	}
	return matched / total
}

// normTag canonicalizes a tag for comparison (case- and space-insensitive).
func normTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// containsTag reports whether the set contains tag under normTag equality.
func containsTag(set domain.StringList, tag string) bool {
	want := normTag(tag)
	for _, v := range set {
		if normTag(v) == want {
			return true
		}
	}
	return false
}
