package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/giftella/go-gift-backend/internal/domain"
	"github.com/giftella/go-gift-backend/internal/recommend"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("quiz_service_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.GiftTemplate{}, &domain.QuizSession{}, &domain.GiftIdea{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedTemplate(t *testing.T, db *gorm.DB, tpl domain.GiftTemplate) {
	t.Helper()
	if tpl.Currency == "" {
		tpl.Currency = "USD"
	}
	if err := db.Create(&tpl).Error; err != nil {
		t.Fatalf("seed template %s: %v", tpl.ID, err)
	}
}

func birthdayAnswer(userID string) domain.QuizAnswer {
	return domain.QuizAnswer{
		UserID:       userID,
		Relationship: "friend",
		Occasion:     "birthday",
		Tags:         domain.StringList{"books"},
		BudgetMin:    20,
		BudgetMax:    60,
	}
}

func seedBirthdayCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	seedTemplate(t, db, domain.GiftTemplate{
		ID: "tpl-book", TitleEN: "Novel Set", TitleRU: "Набор романов",
		DescriptionEN: "Three bestselling novels.",
		PriceMin:      25, PriceMax: 35,
		Tags:             domain.StringList{"books"},
		OccasionTags:     domain.StringList{"birthday"},
		RelationshipTags: domain.StringList{"friend"},
		Rating:           4.5, IsActive: true,
	})
	seedTemplate(t, db, domain.GiftTemplate{
		ID: "tpl-mug", TitleEN: "Reader Mug",
		PriceMin: 10, PriceMax: 20,
		Tags:             domain.StringList{"home"},
		OccasionTags:     domain.StringList{"birthday"},
		RelationshipTags: domain.StringList{"friend"},
		DiscountPercent:  60, IsActive: true,
	})
	seedTemplate(t, db, domain.GiftTemplate{
		ID: "tpl-off", TitleEN: "Wedding Frame",
		PriceMin: 25, PriceMax: 35,
		OccasionTags:     domain.StringList{"wedding"},
		RelationshipTags: domain.StringList{"spouse"},
		IsActive:         true,
	})
	seedTemplate(t, db, domain.GiftTemplate{
		ID: "tpl-inactive", TitleEN: "Retired Gift",
		PriceMin: 25, PriceMax: 35,
		OccasionTags: domain.StringList{"birthday"},
		IsActive:     false,
	})
}

func TestSubmit_InvalidAnswer(t *testing.T) {
	svc := NewQuizService(newTestDB(t))

	bad := []domain.QuizAnswer{
		{Occasion: "birthday", BudgetMin: 1, BudgetMax: 2},   // missing relationship
		{Relationship: "friend", BudgetMin: 1, BudgetMax: 2}, // missing occasion
		birthdayAnswerWithBudget(-1, 10),                     // negative min
		birthdayAnswerWithBudget(50, 50),                     // empty range
		birthdayAnswerWithBudget(50, 20),                     // inverted range
	}
	for i, answer := range bad {
		if _, err := svc.Submit(context.Background(), answer); !errors.Is(err, ErrInvalidAnswer) {
			t.Fatalf("case %d: expected ErrInvalidAnswer, got %v", i, err)
		}
	}

	// No session row may be left behind by rejected submissions.
	var total int64
	if err := svc.DB.Model(&domain.QuizSession{}).Count(&total).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected 0 sessions, got %d", total)
	}
}

func birthdayAnswerWithBudget(min, max float64) domain.QuizAnswer {
	a := birthdayAnswer("u1")
	a.BudgetMin, a.BudgetMax = min, max
	return a
}

func TestSubmit_MaterializesRankedSession(t *testing.T) {
	db := newTestDB(t)
	seedBirthdayCatalog(t, db)
	svc := NewQuizService(db)

	id, err := svc.Submit(context.Background(), birthdayAnswer("u1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == "" {
		t.Fatalf("expected session ID")
	}

	res, err := svc.Results(context.Background(), "u1", id)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	// Only the two birthday/friend templates survive the gate.
	if len(res.Ideas) != 2 {
		t.Fatalf("expected 2 ideas, got %d", len(res.Ideas))
	}
	// tpl-book matches the generic "books" tag, so it outranks tpl-mug.
	if res.Ideas[0].Title != "Novel Set" {
		t.Fatalf("expected Novel Set first, got %q", res.Ideas[0].Title)
	}
	for i, idea := range res.Ideas {
		if idea.ScorePercent < 0 || idea.ScorePercent > 100 {
			t.Fatalf("idea %d: score percent %d out of range", i, idea.ScorePercent)
		}
		if idea.ID == "" || idea.Currency == "" {
			t.Fatalf("idea %d: missing denormalized fields: %+v", i, idea)
		}
	}
	// Price estimate is the template's midpoint.
	if res.Ideas[0].PriceEstimate != 30 {
		t.Fatalf("expected midpoint price 30, got %v", res.Ideas[0].PriceEstimate)
	}
	if res.Relationship != "friend" || res.Occasion != "birthday" {
		t.Fatalf("answer context not echoed: %+v", res)
	}
}

func TestSubmit_ResubmissionMintsNewSession(t *testing.T) {
	db := newTestDB(t)
	seedBirthdayCatalog(t, db)
	svc := NewQuizService(db)

	answer := birthdayAnswer("u1")
	first, err := svc.Submit(context.Background(), answer)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := svc.Submit(context.Background(), answer)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if first == second {
		t.Fatalf("identical answers must not share a session: %s", first)
	}

	var total int64
	if err := db.Model(&domain.QuizSession{}).Count(&total).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 sessions, got %d", total)
	}
}

func TestSubmit_EmptyPoolYieldsEmptySession(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuizService(db)

	id, err := svc.Submit(context.Background(), birthdayAnswer("u1"))
	if err != nil {
		t.Fatalf("Submit on empty catalog: %v", err)
	}
	res, err := svc.Results(context.Background(), "u1", id)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(res.Ideas) != 0 {
		t.Fatalf("expected 0 ideas, got %d", len(res.Ideas))
	}
}

func TestSubmit_RespectsTopN(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 10; i++ {
		seedTemplate(t, db, domain.GiftTemplate{
			ID:       fmt.Sprintf("tpl-%02d", i),
			TitleEN:  fmt.Sprintf("Gift %d", i),
			PriceMin: 25, PriceMax: 35,
			OccasionTags:     domain.StringList{"birthday"},
			RelationshipTags: domain.StringList{"friend"},
			IsActive:         true,
		})
	}
	svc := NewQuizService(db)
	svc.Engine = recommend.NewConfig(recommend.WithTopN(4))

	id, err := svc.Submit(context.Background(), birthdayAnswer("u1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res, err := svc.Results(context.Background(), "u1", id)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(res.Ideas) != 4 {
		t.Fatalf("expected 4 ideas, got %d", len(res.Ideas))
	}
}

func TestSubmit_RussianLocaleFallsBackToEnglish(t *testing.T) {
	db := newTestDB(t)
	seedBirthdayCatalog(t, db)
	svc := NewQuizService(db)
	svc.Locale = "ru"

	id, err := svc.Submit(context.Background(), birthdayAnswer("u1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res, err := svc.Results(context.Background(), "u1", id)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	var sawRU, sawFallback bool
	for _, idea := range res.Ideas {
		switch idea.Title {
		case "Набор романов":
			sawRU = true
		case "Reader Mug": // no RU copy declared, EN wins
			sawFallback = true
		}
	}
	if !sawRU || !sawFallback {
		t.Fatalf("expected RU title plus EN fallback, got %+v", res.Ideas)
	}
}

func TestResults_NotFoundAndOwnership(t *testing.T) {
	db := newTestDB(t)
	seedBirthdayCatalog(t, db)
	svc := NewQuizService(db)

	if _, err := svc.Results(context.Background(), "u1", "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	id, err := svc.Submit(context.Background(), birthdayAnswer("u1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// Another user's read is indistinguishable from a missing session.
	if _, err := svc.Results(context.Background(), "intruder", id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for foreign reader, got %v", err)
	}
	// Anonymous sessions are readable by anyone holding the ID.
	anonID, err := svc.Submit(context.Background(), birthdayAnswer(""))
	if err != nil {
		t.Fatalf("anonymous Submit: %v", err)
	}
	if _, err := svc.Results(context.Background(), "whoever", anonID); err != nil {
		t.Fatalf("anonymous session read: %v", err)
	}
}

func TestToggleFavorite_FlipsAndEnforcesOwnership(t *testing.T) {
	db := newTestDB(t)
	seedBirthdayCatalog(t, db)
	svc := NewQuizService(db)

	id, err := svc.Submit(context.Background(), birthdayAnswer("u1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res, err := svc.Results(context.Background(), "u1", id)
	if err != nil || len(res.Ideas) == 0 {
		t.Fatalf("Results: err=%v ideas=%d", err, len(res.Ideas))
	}
	ideaID := res.Ideas[0].ID

	fav, err := svc.ToggleFavorite(context.Background(), "u1", ideaID)
	if err != nil || !fav {
		t.Fatalf("first toggle: fav=%v err=%v", fav, err)
	}
	fav, err = svc.ToggleFavorite(context.Background(), "u1", ideaID)
	if err != nil || fav {
		t.Fatalf("second toggle: fav=%v err=%v", fav, err)
	}

	if _, err := svc.ToggleFavorite(context.Background(), "u1", "missing"); !errors.Is(err, ErrIdeaNotFound) {
		t.Fatalf("expected ErrIdeaNotFound, got %v", err)
	}
	if _, err := svc.ToggleFavorite(context.Background(), "intruder", ideaID); !errors.Is(err, ErrForbiddenFavorite) {
		t.Fatalf("expected ErrForbiddenFavorite, got %v", err)
	}
}

func TestToggleFavorite_DoesNotReorderSession(t *testing.T) {
	db := newTestDB(t)
	seedBirthdayCatalog(t, db)
	svc := NewQuizService(db)

	id, err := svc.Submit(context.Background(), birthdayAnswer("u1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	before, err := svc.Results(context.Background(), "u1", id)
	if err != nil {
		t.Fatalf("Results before: %v", err)
	}
	// Favorite the last-ranked idea; order and scores must be unchanged.
	last := before.Ideas[len(before.Ideas)-1]
	if _, err := svc.ToggleFavorite(context.Background(), "u1", last.ID); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	after, err := svc.Results(context.Background(), "u1", id)
	if err != nil {
		t.Fatalf("Results after: %v", err)
	}
	for i := range before.Ideas {
		if before.Ideas[i].ID != after.Ideas[i].ID || before.Ideas[i].ScorePercent != after.Ideas[i].ScorePercent {
			t.Fatalf("toggle reordered or rescored ideas at %d", i)
		}
	}
	if !after.Ideas[len(after.Ideas)-1].IsFavorite {
		t.Fatalf("favorite flag not visible in results")
	}
}

func TestListSessionsPage_DefaultsAndPaging(t *testing.T) {
	db := newTestDB(t)
	seedBirthdayCatalog(t, db)
	svc := NewQuizService(db)

	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(context.Background(), birthdayAnswer("u1")); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	items, total, err := svc.ListSessionsPage(context.Background(), "u1", 0, 0) // invalid -> defaults
	if err != nil {
		t.Fatalf("ListSessionsPage: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected 3/3, got total=%d items=%d", total, len(items))
	}

	items, total, err = svc.ListSessionsPage(context.Background(), "u1", 2, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if total != 3 || len(items) != 1 {
		t.Fatalf("expected total=3 items=1, got total=%d items=%d", total, len(items))
	}

	items, total, err = svc.ListSessionsPage(context.Background(), "nobody", 1, 10)
	if err != nil {
		t.Fatalf("empty user: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty page, got total=%d items=%d", total, len(items))
	}
}

func TestDeleteUserData_PurgesOwnSessionsOnly(t *testing.T) {
	db := newTestDB(t)
	seedBirthdayCatalog(t, db)
	svc := NewQuizService(db)

	if _, err := svc.Submit(context.Background(), birthdayAnswer("u1")); err != nil {
		t.Fatalf("Submit u1: %v", err)
	}
	otherID, err := svc.Submit(context.Background(), birthdayAnswer("u2"))
	if err != nil {
		t.Fatalf("Submit u2: %v", err)
	}
	anonID, err := svc.Submit(context.Background(), birthdayAnswer(""))
	if err != nil {
		t.Fatalf("Submit anonymous: %v", err)
	}

	if err := svc.DeleteUserData(context.Background(), ""); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
	if err := svc.DeleteUserData(context.Background(), "u1"); err != nil {
		t.Fatalf("DeleteUserData: %v", err)
	}

	_, _, err = svc.ListSessionsPage(context.Background(), "u1", 1, 10)
	if err != nil {
		t.Fatalf("list after purge: %v", err)
	}
	var sessions int64
	if err := db.Model(&domain.QuizSession{}).Where("user_id = ?", "u1").Count(&sessions).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessions != 0 {
		t.Fatalf("expected 0 sessions for u1, got %d", sessions)
	}

	// Ideas attached to the purged sessions go with them.
	var orphaned int64
	if err := db.Model(&domain.GiftIdea{}).
		Joins("LEFT JOIN quiz_sessions ON quiz_sessions.id = gift_ideas.session_id").
		Where("quiz_sessions.id IS NULL").
		Count(&orphaned).Error; err != nil {
		t.Fatalf("count orphaned ideas: %v", err)
	}
	if orphaned != 0 {
		t.Fatalf("expected no orphaned ideas, got %d", orphaned)
	}

	// Other users and anonymous sessions survive untouched.
	if _, err := svc.Results(context.Background(), "u2", otherID); err != nil {
		t.Fatalf("u2 session lost: %v", err)
	}
	if _, err := svc.Results(context.Background(), "", anonID); err != nil {
		t.Fatalf("anonymous session lost: %v", err)
	}
	var remaining int64
	if err := db.Model(&domain.QuizSession{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count remaining: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected 2 surviving sessions, got %d", remaining)
	}
}
