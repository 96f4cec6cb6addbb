package recommend

import "github.com/giftella/go-gift-backend/internal/domain"

// Badge is a discrete presentation label attached to a ranked result. The
// set is fixed; rules are evaluated independently, so one candidate may
// carry several badges.
type Badge string

const (
	BadgeTopMatch      Badge = "Top Match"
	BadgeBestDeal      Badge = "Best Deal"
	BadgePremiumChoice Badge = "Premium Choice"
	BadgeEcoPick       Badge = "Eco Pick"
	BadgeHotDeal       Badge = "Hot Deal"
	BadgeBestValue     Badge = "Best Value"
)

// poolStats carries the price distribution of one request's surviving
// candidate pool. Best Deal / Premium Choice / Best Value thresholds are
// relative to this pool, which is why badge resolution runs as a second
// pass after every candidate is scored.
type poolStats struct {
	minPrice float64
	maxPrice float64
}

// newPoolStats computes the midpoint-price range over the pool.
func newPoolStats(pool []domain.GiftTemplate) poolStats {
	if len(pool) == 0 {
		return poolStats{}
	}
	st := poolStats{minPrice: pool[0].MidPrice(), maxPrice: pool[0].MidPrice()}
	for _, t := range pool[1:] {
		p := t.MidPrice()
		if p < st.minPrice {
			st.minPrice = p
		}
		if p > st.maxPrice {
			st.maxPrice = p
		}
	}
	return st
}

// lowestThird reports whether price falls into the bottom third of the
// pool's price range. A degenerate single-price pool counts as both lowest
// and highest third.
func (st poolStats) lowestThird(price float64) bool {
	span := st.maxPrice - st.minPrice
	return price <= st.minPrice+span/3
}

// highestThird reports whether price falls into the top third of the pool's
// price range.
func (st poolStats) highestThird(price float64) bool {
	span := st.maxPrice - st.minPrice
	return price >= st.maxPrice-span/3
}

// resolveBadges evaluates every badge rule for one scored candidate against
// the pool statistics. Labels keep a fixed resolution order so stored badge
// lists are deterministic.
func resolveBadges(cfg Config, t domain.GiftTemplate, f Factors, score float64, st poolStats) []Badge {
	price := t.MidPrice()
	var out []Badge

	if score >= cfg.TopMatchScore {
		out = append(out, BadgeTopMatch)
	}
	if f.Discount >= cfg.BestDealDiscount || st.lowestThird(price) {
		out = append(out, BadgeBestDeal)
	}
	if st.highestThird(price) && f.Rating >= cfg.PremiumRating {
		out = append(out, BadgePremiumChoice)
	}
	if hasEcoMarker(cfg, t.Tags) {
		out = append(out, BadgeEcoPick)
	}
	if f.Discount >= cfg.HotDealDiscount && f.Shipping >= cfg.HotDealShipping {
		out = append(out, BadgeHotDeal)
	}
	if score >= cfg.BestValueScore && st.lowestThird(price) {
		out = append(out, BadgeBestValue)
	}
	return out
}

// hasEcoMarker reports whether any general tag is an eco/sustainability
// marker.
func hasEcoMarker(cfg Config, tags domain.StringList) bool {
	for _, tag := range tags {
		if _, ok := cfg.ecoMarkers[normTag(tag)]; ok {
			return true
		}
	}
	return false
}
