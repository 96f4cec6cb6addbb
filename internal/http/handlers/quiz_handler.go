// Quiz HTTP handlers.
//
// This file exposes REST endpoints for quiz sessions and gift ideas:
//   - POST /quiz                  (submit answer, returns session id)
//   - GET  /quiz/{id}             (fetch ranked results)
//   - GET  /quiz                  (session history, paginated)
//   - DELETE /quiz                (purge a user's sessions)
//   - PUT  /ideas/{id}/favorite   (toggle favorite)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/giftella/go-gift-backend/internal/domain"
	"github.com/giftella/go-gift-backend/internal/services"
	"github.com/giftella/go-gift-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// QuizService defines the quiz-session operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type QuizService interface {
	// Submit ranks the active catalog against the answer and persists a new
	// session, returning its id.
	Submit(ctx context.Context, answer domain.QuizAnswer) (string, error)
	// Results returns a session's ranked ideas with integer percent scores.
	Results(ctx context.Context, userID, sessionID string) (*services.SessionResult, error)
	// ToggleFavorite flips the favorite flag on one idea.
	ToggleFavorite(ctx context.Context, userID, ideaID string) (bool, error)
	// ListSessionsPage returns a page of the user's sessions and the total.
	ListSessionsPage(ctx context.Context, userID string, page, pageSize int) ([]domain.QuizSession, int64, error)
	// DeleteUserData removes every session the user owns, ideas included.
	DeleteUserData(ctx context.Context, userID string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for quiz sessions. It depends on an
// abstract service interface to keep transport concerns separate from
// business logic.
type Handlers struct {
	quizSvc QuizService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(quizSvc QuizService) *Handlers {
	return &Handlers{quizSvc: quizSvc}
}

// userID extracts the authenticated user id from Gin context (set by
// upstream middleware). If absent, it falls back to "X-User-ID" header
// (tests use it), and finally to "". An empty id means an anonymous
// submission.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

//
// DTOs
//

// SubmitQuizRequest is the JSON payload for submitting a quiz answer.
type SubmitQuizRequest struct {
	// Relationship of the gift recipient to the user.
	Relationship string `json:"relationship" binding:"required,min=1,max=64" example:"mother"`
	// Occasion being shopped for.
	Occasion string `json:"occasion" binding:"required,min=1,max=64" example:"birthday"`
	// Tags are the recipient's interest tags.
	Tags []string `json:"tags" example:"tech,eco"`
	// BudgetMin is the lower budget bound, >= 0.
	BudgetMin float64 `json:"budget_min" binding:"gte=0" example:"50"`
	// BudgetMax is the upper budget bound, must exceed BudgetMin.
	BudgetMax float64 `json:"budget_max" binding:"gtfield=BudgetMin" example:"100"`
}

// SubmitQuizResponse carries the identifier of the newly created session.
type SubmitQuizResponse struct {
	SessionID string `json:"session_id" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// FavoriteResponse reports the new favorite state of a gift idea.
type FavoriteResponse struct {
	ID         string `json:"id"`
	IsFavorite bool   `json:"is_favorite"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListSessionsResponse wraps a page of session headers and pagination
// information.
type ListSessionsResponse struct {
	Sessions   []domain.QuizSession `json:"sessions"`
	Pagination Pagination           `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// SubmitQuiz godoc
// @ID          submitQuiz
// @Summary     Submit a quiz answer
// @Description Ranks the gift catalog against the answer and persists the result as a new session. Resubmitting an identical answer always creates a new session.
// @Tags        Quiz
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       body       body    handlers.SubmitQuizRequest  true  "Quiz answer payload"
//
// @Success     201  {object}  handlers.SubmitQuizResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /quiz [post]
func (h *Handlers) SubmitQuiz(c *gin.Context) {
	var req SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid quiz payload")
		return
	}

	answer := domain.QuizAnswer{
		Relationship: strings.TrimSpace(req.Relationship),
		Occasion:     strings.TrimSpace(req.Occasion),
		Tags:         req.Tags,
		BudgetMin:    req.BudgetMin,
		BudgetMax:    req.BudgetMax,
		UserID:       userID(c),
	}

	id, err := h.quizSvc.Submit(c.Request.Context(), answer)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAnswer) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, "could not create quiz session")
		return
	}
	ok(c, http.StatusCreated, SubmitQuizResponse{SessionID: id})
}

// GetResults godoc
// @ID          getQuizResults
// @Summary     Fetch ranked results for a session
// @Description Returns the session's creation time and its gift ideas in rank order, scores rendered as integer percentages.
// @Tags        Quiz
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       id         path    string  true  "Session ID"
//
// @Success     200  {object}  services.SessionResult
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /quiz/{id} [get]
func (h *Handlers) GetResults(c *gin.Context) {
	res, err := h.quizSvc.Results(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "quiz session not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load quiz session")
		return
	}
	ok(c, http.StatusOK, res)
}

// ListSessions godoc
// @ID          listQuizSessions
// @Summary     List quiz sessions (paginated)
// @Description Returns a page of the user's session headers, newest first.
// @Tags        Quiz
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       page       query   int     false "Page number"    minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListSessionsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /quiz [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.quizSvc.ListSessionsPage(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list quiz sessions")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListSessionsResponse{
		Sessions: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// ToggleFavorite godoc
// @ID          toggleFavorite
// @Summary     Toggle the favorite flag on a gift idea
// @Description Flips is_favorite on one persisted idea without re-ranking the session.
// @Tags        Quiz
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       id         path    string  true  "Gift idea ID"
//
// @Success     200  {object}  handlers.FavoriteResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ideas/{id}/favorite [put]
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	id := c.Param("id")
	fav, err := h.quizSvc.ToggleFavorite(c.Request.Context(), userID(c), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIdeaNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "gift idea not found")
		case errors.Is(err, services.ErrForbiddenFavorite):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "gift idea belongs to another user")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update favorite")
		}
		return
	}
	ok(c, http.StatusOK, FavoriteResponse{ID: id, IsFavorite: fav})
}

// DeleteSessions godoc
// @ID          deleteQuizSessions
// @Summary     Delete all quiz sessions for a user
// @Description Removes every session owned by the caller along with the persisted gift ideas. Anonymous sessions are never touched.
// @Tags        Quiz
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID (demo header)" example(user123)
//
// @Success     204  "No content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /quiz [delete]
func (h *Handlers) DeleteSessions(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "user identity required")
		return
	}
	if err := h.quizSvc.DeleteUserData(c.Request.Context(), uid); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete quiz sessions")
		return
	}
	c.Status(http.StatusNoContent)
}
