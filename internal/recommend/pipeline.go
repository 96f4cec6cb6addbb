package recommend

import (
	"sort"
	"strings"
	"sync"

	"github.com/giftella/go-gift-backend/internal/domain"
)

// Ranked is one pipeline output row: the candidate, its factor vector, the
// aggregated relevance score, and the resolved badges, in final rank order.
type Ranked struct {
	Template domain.GiftTemplate
	Factors  Factors
	Score    float64
	Badges   []Badge
}

// ----------------------------------------------------------------------------
// Configuration

// Config carries every engine tunable. It is passed explicitly into Rank so
// alternate tunings can be exercised without process-wide side effects.
type Config struct {
	Weights Weights

	// TopN caps the result-set size. Non-positive means no truncation.
	TopN int

	// Badge thresholds.
	TopMatchScore    float64
	BestDealDiscount float64
	PremiumRating    float64
	HotDealDiscount  float64
	HotDealShipping  float64
	BestValueScore   float64

	ecoMarkers map[string]struct{}
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithTopN overrides the result-set cap.
func WithTopN(n int) Option {
	return func(c *Config) { c.TopN = n }
}

// WithWeights overrides the scoring weights.
func WithWeights(w Weights) Option {
	return func(c *Config) { c.Weights = w }
}

// WithEcoMarkers replaces the general-tag markers that qualify a template
// for the Eco Pick badge.
func WithEcoMarkers(tags []string) Option {
	return func(c *Config) {
		m := make(map[string]struct{}, len(tags))
		for _, t := range tags {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				m[t] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.ecoMarkers = m
		}
	}
}

// NewConfig returns the production configuration with any overrides applied.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		Weights:          DefaultWeights(),
		TopN:             6,
		TopMatchScore:    0.85,
		BestDealDiscount: 0.5,
		PremiumRating:    0.8,
		HotDealDiscount:  0.7,
		HotDealShipping:  0.75,
		BestValueScore:   0.7,
		ecoMarkers: map[string]struct{}{
			"eco":          {},
			"eco-friendly": {},
			"sustainable":  {},
			"organic":      {},
			"recycled":     {},
		},
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// ----------------------------------------------------------------------------
// Pipeline

// Rank runs the full pipeline over a candidate snapshot:
//
//  1. Gate: keep only active templates whose occasion or relationship tags
//     overlap the answer's context. Zero contextual overlap excludes a
//     candidate regardless of generic-tag similarity.
//  2. Score survivors (factor extraction is independent per candidate and
//     runs concurrently; results land at fixed indices, so concurrency
//     never affects the outcome).
//  3. Resolve badges against the full surviving pool.
//  4. Sort by score descending; ties break by profitability descending,
//     then template ID ascending, for fully reproducible output.
//  5. Truncate to cfg.TopN.
//
// An empty surviving pool is a normal outcome and yields an empty slice.
func Rank(answer domain.QuizAnswer, candidates []domain.GiftTemplate, cfg Config) []Ranked {
	pool := make([]domain.GiftTemplate, 0, len(candidates))
	for _, t := range candidates {
		if !t.IsActive {
			continue
		}
		if !matchesContext(answer, t) {
			continue
		}
		pool = append(pool, t)
	}
	if len(pool) == 0 {
		return []Ranked{}
	}

	out := make([]Ranked, len(pool))
	var wg sync.WaitGroup
	for i, t := range pool {
		wg.Add(1)
		go func(i int, t domain.GiftTemplate) {
			defer wg.Done()
			f := Extract(answer, t)
			out[i] = Ranked{
				Template: t,
				Factors:  f,
				Score:    Aggregate(cfg.Weights, f),
			}
		}(i, t)
	}
	wg.Wait()

	st := newPoolStats(pool)
	for i := range out {
		out[i].Badges = resolveBadges(cfg, out[i].Template, out[i].Factors, out[i].Score, st)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		if out[a].Template.Profitability != out[b].Template.Profitability {
			return out[a].Template.Profitability > out[b].Template.Profitability
		}
		return out[a].Template.ID < out[b].Template.ID
	})

	if cfg.TopN > 0 && len(out) > cfg.TopN {
		out = out[:cfg.TopN]
	}
	return out
}

// matchesContext is the hard relevance gate: the template must declare at
// least one occasion or relationship tag matching the answer's context.
func matchesContext(answer domain.QuizAnswer, t domain.GiftTemplate) bool {
	return containsTag(t.OccasionTags, answer.Occasion) ||
		containsTag(t.RelationshipTags, answer.Relationship)
}

// BadgeStrings converts resolved badges to plain strings for persistence.
func BadgeStrings(badges []Badge) []string {
	if len(badges) == 0 {
		return []string{}
	}
	out := make([]string, len(badges))
	for i, b := range badges {
		out[i] = string(b)
	}
	return out
}
