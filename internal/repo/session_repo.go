// Package repo: quiz session persistence.
//
// Repository functions for QuizSession and GiftIdea rows. Sessions are
// immutable after creation; the only post-hoc mutation is the favorite flag
// on an individual idea. Writers are expected to run CreateSession and the
// CreateGiftIdea calls inside one gorm transaction so a partially
// materialized session is never observable.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giftella/go-gift-backend/internal/domain"
)

// CreateSession inserts a new session header. The session ID is a randomly
// generated UUID, and CreatedAt is set to UTC.
func CreateSession(ctx context.Context, db *gorm.DB, answer domain.QuizAnswer) (*domain.QuizSession, error) {
	s := &domain.QuizSession{
		ID:           uuid.NewString(),
		UserID:       answer.UserID,
		Relationship: answer.Relationship,
		Occasion:     answer.Occasion,
		Tags:         answer.Tags,
		BudgetMin:    answer.BudgetMin,
		BudgetMax:    answer.BudgetMax,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// CreateGiftIdea inserts one ranked result row for a session. The idea ID
// is a randomly generated UUID; position is the zero-based rank.
func CreateGiftIdea(db *gorm.DB, idea *domain.GiftIdea) error {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	if idea.CreatedAt.IsZero() {
		idea.CreatedAt = time.Now().UTC()
	}
	return db.Create(idea).Error
}

// GetSession fetches a session by ID with its ideas preloaded in rank
// order, or ErrNotFound if missing.
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.QuizSession, error) {
	var s domain.QuizSession
	err := db.WithContext(ctx).
		Preload("Ideas", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetGiftIdea fetches a single idea by ID, or ErrNotFound if missing.
func GetGiftIdea(ctx context.Context, db *gorm.DB, id string) (*domain.GiftIdea, error) {
	var g domain.GiftIdea
	if err := db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// SetIdeaFavorite updates the favorite flag on one idea. If no rows are
// affected (idea missing), it returns ErrNotFound. The ranked score, tags,
// and position are never touched.
func SetIdeaFavorite(ctx context.Context, db *gorm.DB, id string, fav bool) error {
	res := db.WithContext(ctx).
		Model(&domain.GiftIdea{}).
		Where("id = ?", id).
		Update("is_favorite", fav)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountSessions returns the total number of sessions owned by userID.
func CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.QuizSession{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListSessionsPage returns a paginated slice of session headers for userID,
// newest first. Ideas are not preloaded; use GetSession for a full read.
func ListSessionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.QuizSession, error) {
	var out []domain.QuizSession
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteUserSessions removes every session owned by userID together with
// the attached ideas. Called when the owning user account is deleted.
func DeleteUserSessions(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&domain.QuizSession{}).
			Where("user_id = ?", userID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("session_id IN ?", ids).Delete(&domain.GiftIdea{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&domain.QuizSession{}).Error
	})
}
