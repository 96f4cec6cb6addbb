// Package services: QuizService.
//
// This file implements QuizService, the application-level component that
// owns the quiz-submission lifecycle: contract-checking the answer, taking
// a snapshot of active catalog templates, running the ranking pipeline, and
// materializing the session with its ranked gift ideas atomically. It also
// serves session reads (with scores rendered as integer percentages),
// favorite toggling, and paginated session history.
//
// Observability: the submission path is OpenTelemetry-instrumented; spans
// include user identifiers and pool/result sizes.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/giftella/go-gift-backend/internal/domain"
	"github.com/giftella/go-gift-backend/internal/recommend"
	"github.com/giftella/go-gift-backend/internal/repo"
)

// QuizService coordinates ranking and session persistence.
type QuizService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Engine carries the ranking tunables (weights, badge thresholds, TopN).
	Engine recommend.Config
	// Locale selects the template copy variant denormalized into results.
	Locale string
}

// NewQuizService constructs a QuizService with the production engine
// configuration and English result copy.
func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{
		DB:     db,
		Engine: recommend.NewConfig(),
		Locale: "en",
	}
}

// SessionResult is the read-side projection of a session, with scores
// rendered as integer percentages for clients.
type SessionResult struct {
	ID           string       `json:"id"`
	CreatedAt    string       `json:"created_at"`
	Relationship string       `json:"relationship"`
	Occasion     string       `json:"occasion"`
	Tags         []string     `json:"tags"`
	Ideas        []IdeaResult `json:"ideas"`
}

// IdeaResult is one ranked gift idea as served to clients. Denormalized
// template fields are returned verbatim from the materialized row.
type IdeaResult struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"image_url"`
	ProductURL    string   `json:"product_url"`
	Merchant      string   `json:"merchant"`
	PriceEstimate float64  `json:"price_estimate"`
	Currency      string   `json:"currency"`
	Tags          []string `json:"tags"`
	ScorePercent  int      `json:"score_percent"`
	Badges        []string `json:"badges"`
	IsFavorite    bool     `json:"is_favorite"`
}

// Submit ranks the current active catalog against the answer and persists
// the outcome as a new session. Every call mints a new session: answers are
// not deduplicated, and resubmission is always safe.
//
// The session header and all idea rows are written in a single transaction;
// a persistence failure rolls back everything, so a partially materialized
// session is never observable. An empty post-filter pool is not an error
// and produces a valid session with zero ideas.
func (s *QuizService) Submit(ctx context.Context, answer domain.QuizAnswer) (string, error) {
	tr := otel.Tracer("services/QuizService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("user.id", answer.UserID)),
	)
	defer span.End()

	if !answer.Valid() {
		return "", ErrInvalidAnswer
	}

	candidates, err := repo.ListActiveTemplates(ctx, s.DB)
	if err != nil {
		return "", err
	}
	ranked := recommend.Rank(answer, candidates, s.Engine)
	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("results", len(ranked)),
	)

	var sessionID string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := repo.CreateSession(ctx, tx, answer)
		if err != nil {
			return err
		}
		sessionID = session.ID

		for i, r := range ranked {
			title, desc := r.Template.Localize(s.Locale)
			idea := &domain.GiftIdea{
				SessionID:     session.ID,
				Position:      i,
				Title:         title,
				Description:   desc,
				ImageURL:      r.Template.ImageURL,
				ProductURL:    r.Template.AffiliateURL,
				Merchant:      r.Template.Merchant,
				PriceEstimate: r.Template.MidPrice(),
				Currency:      r.Template.Currency,
				Tags:          r.Template.Tags,
				Score:         r.Score,
				Badges:        recommend.BadgeStrings(r.Badges),
			}
			if err := repo.CreateGiftIdea(tx, idea); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// Results returns a session's creation time and its gift ideas in rank
// order, with scores rendered as integer 0..100 percentages. A session owned
// by another user is reported as not found rather than forbidden, to avoid
// leaking session existence.
func (s *QuizService) Results(ctx context.Context, userID, sessionID string) (*SessionResult, error) {
	session, err := repo.GetSession(ctx, s.DB, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != "" && session.UserID != userID {
		return nil, ErrSessionNotFound
	}

	out := &SessionResult{
		ID:           session.ID,
		CreatedAt:    session.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Relationship: session.Relationship,
		Occasion:     session.Occasion,
		Tags:         session.Tags,
		Ideas:        make([]IdeaResult, 0, len(session.Ideas)),
	}
	for _, g := range session.Ideas {
		out.Ideas = append(out.Ideas, IdeaResult{
			ID:            g.ID,
			Title:         g.Title,
			Description:   g.Description,
			ImageURL:      g.ImageURL,
			ProductURL:    g.ProductURL,
			Merchant:      g.Merchant,
			PriceEstimate: g.PriceEstimate,
			Currency:      g.Currency,
			Tags:          g.Tags,
			ScorePercent:  g.ScorePercent(),
			Badges:        g.Badges,
			IsFavorite:    g.IsFavorite,
		})
	}
	return out, nil
}

// ToggleFavorite flips the favorite flag on one gift idea and returns the
// new value. The ranked score and ordering are never recomputed.
//
// Semantics and validation:
//   - ideaID must exist; otherwise ErrIdeaNotFound.
//   - The idea's session must be anonymous or owned by userID; otherwise
//     ErrForbiddenFavorite.
//   - The check and the update run inside one transaction.
func (s *QuizService) ToggleFavorite(ctx context.Context, userID, ideaID string) (bool, error) {
	var fav bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idea, err := repo.GetGiftIdea(ctx, tx, ideaID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrIdeaNotFound
			}
			return err
		}

		var session domain.QuizSession
		if err := tx.First(&session, "id = ?", idea.SessionID).Error; err != nil {
			return err
		}
		if session.UserID != "" && session.UserID != userID {
			return ErrForbiddenFavorite
		}

		fav = !idea.IsFavorite
		return repo.SetIdeaFavorite(ctx, tx, ideaID, fav)
	})
	return fav, err
}

// ListSessionsPage returns a page of the user's session headers, newest
// first, applying defaults for invalid page/pageSize, plus the total count.
func (s *QuizService) ListSessionsPage(ctx context.Context, userID string, page, pageSize int) ([]domain.QuizSession, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountSessions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.QuizSession{}, 0, nil
	}

	items, err := repo.ListSessionsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// DeleteUserData removes every session the user owns together with its
// ideas. An empty user id is rejected here: anonymous sessions have an
// empty owner, and a blanket delete over them must never be reachable
// through this path.
func (s *QuizService) DeleteUserData(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserRequired
	}
	return repo.DeleteUserSessions(ctx, s.DB, userID)
}
