// Package domain defines the persistence models for the gift catalog and
// quiz sessions. These types are mapped with GORM and form the core data
// layer of the gift-recommendation backend.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StringList is a []string stored as a JSON array in a TEXT column. It is
// used for tag sets (order irrelevant) and badge labels (resolution order
// kept for display).
type StringList []string

// Value implements driver.Valuer by encoding the list as JSON.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. It accepts TEXT/BLOB columns and treats
// NULL or empty values as an empty list.
func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		if v == "" {
			*l = StringList{}
			return nil
		}
		return json.Unmarshal([]byte(v), (*[]string)(l))
	case []byte:
		if len(v) == 0 {
			*l = StringList{}
			return nil
		}
		return json.Unmarshal(v, (*[]string)(l))
	default:
		return errors.New("domain: unsupported source type for StringList")
	}
}

// Contains reports whether the list contains s.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// GiftTemplate represents one recommendable catalog entry. Templates are
// owned and mutated by catalog administration; the recommendation engine
// treats them as a read-only snapshot.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - TitleEN/TitleRU, DescriptionEN/DescriptionRU: localized copy; callers
//     resolve one variant via Localize before display.
//   - ImageURL / AffiliateURL: presentation and outbound purchase links.
//   - PriceMin/PriceMax: price range, PriceMin <= PriceMax, both >= 0
//     (enforced at catalog input, assumed here).
//   - Currency: ISO 4217 code for the price range.
//   - Merchant: merchant display name carried verbatim into results.
//   - Tags / OccasionTags / RelationshipTags: matching signals.
//   - DiscountPercent: current percent off in [0,100]; 0 when no promotion.
//   - Rating: average product rating on a 0..5 scale; 0 when unrated.
//   - ShippingDays: fastest declared delivery tier in days; 0 when the
//     merchant declares none.
//   - Profitability: non-negative house-side ranking nudge. Never part of
//     the relevance score, only a tie-break.
//   - IsActive: inactive templates never enter new sessions.
type GiftTemplate struct {
	ID               string         `json:"id"                gorm:"type:char(36);primaryKey"`
	TitleEN          string         `json:"title_en"          gorm:"type:varchar(255);not null"`
	TitleRU          string         `json:"title_ru"          gorm:"type:varchar(255)"`
	DescriptionEN    string         `json:"description_en"    gorm:"type:text"`
	DescriptionRU    string         `json:"description_ru"    gorm:"type:text"`
	ImageURL         string         `json:"image_url"         gorm:"type:varchar(512)"`
	AffiliateURL     string         `json:"affiliate_url"     gorm:"type:varchar(512)"`
	Merchant         string         `json:"merchant"          gorm:"type:varchar(128)"`
	PriceMin         float64        `json:"price_min"         gorm:"not null;default:0"`
	PriceMax         float64        `json:"price_max"         gorm:"not null;default:0"`
	Currency         string         `json:"currency"          gorm:"type:char(3);not null;default:'USD'"`
	Tags             StringList     `json:"tags"              gorm:"type:text"`
	OccasionTags     StringList     `json:"occasion_tags"     gorm:"type:text"`
	RelationshipTags StringList     `json:"relationship_tags" gorm:"type:text"`
	DiscountPercent  float64        `json:"discount_percent"  gorm:"not null;default:0"`
	Rating           float64        `json:"rating"            gorm:"not null;default:0"`
	ShippingDays     int            `json:"shipping_days"     gorm:"not null;default:0"`
	Profitability    float64        `json:"profitability"     gorm:"not null;default:0"`
	IsActive         bool           `json:"is_active"         gorm:"not null;default:true;index"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-"                 gorm:"index"`
}

// TableName returns the database table name for GiftTemplate.
func (GiftTemplate) TableName() string { return "gift_templates" }

// MidPrice returns the midpoint of the template's price range. It is the
// single price estimate carried into persisted results and the price used
// for pool-relative badge thresholds.
func (t GiftTemplate) MidPrice() float64 {
	return (t.PriceMin + t.PriceMax) / 2
}

// QuizSession is the immutable header of one quiz submission. It echoes the
// answer context and owns an ordered collection of GiftIdea rows. Sessions
// are created exactly once, read many times, and never updated; they are
// removed only together with their owning user.
type QuizSession struct {
	ID           string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID       string         `json:"user_id,omitempty" gorm:"type:varchar(64);index:idx_user_sessions"`
	Relationship string         `json:"relationship" gorm:"type:varchar(64);not null"`
	Occasion     string         `json:"occasion"     gorm:"type:varchar(64);not null"`
	Tags         StringList     `json:"tags"         gorm:"type:text"`
	BudgetMin    float64        `json:"budget_min"   gorm:"not null;default:0"`
	BudgetMax    float64        `json:"budget_max"   gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `json:"-"            gorm:"index"`

	// Ideas are the ranked results, ordered by Position ascending.
	Ideas []GiftIdea `json:"ideas,omitempty" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for QuizSession.
func (QuizSession) TableName() string { return "quiz_sessions" }

// GiftIdea is one ranked, persisted recommendation attached to exactly one
// QuizSession. All fields are denormalized from the template at
// materialization time; the score and tags are never recomputed afterwards.
// Only IsFavorite is mutable post-hoc.
//
// Score is stored at full (4-decimal) precision in [0,1]; clients receive
// round(score*100) as an integer percentage.
type GiftIdea struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	SessionID     string         `json:"session_id"     gorm:"type:char(36);not null;index:idx_session_ideas,priority:1"`
	Position      int            `json:"position"       gorm:"not null;index:idx_session_ideas,priority:2"`
	Title         string         `json:"title"          gorm:"type:varchar(255);not null"`
	Description   string         `json:"description"    gorm:"type:text"`
	ImageURL      string         `json:"image_url"      gorm:"type:varchar(512)"`
	ProductURL    string         `json:"product_url"    gorm:"type:varchar(512)"`
	Merchant      string         `json:"merchant"       gorm:"type:varchar(128)"`
	PriceEstimate float64        `json:"price_estimate" gorm:"not null;default:0"`
	Currency      string         `json:"currency"       gorm:"type:char(3);not null;default:'USD'"`
	Tags          StringList     `json:"tags"           gorm:"type:text"`
	Score         float64        `json:"score"          gorm:"not null;default:0"`
	Badges        StringList     `json:"badges"         gorm:"type:text"`
	IsFavorite    bool           `json:"is_favorite"    gorm:"not null;default:false"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`

	// Session is the owning quiz session. Ideas are cascade-deleted with it.
	Session QuizSession `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GiftIdea.
func (GiftIdea) TableName() string { return "gift_ideas" }

// ScorePercent renders the stored relevance score as the API-facing integer
// percentage: round(score * 100).
func (g GiftIdea) ScorePercent() int {
	return int(g.Score*100 + 0.5)
}
