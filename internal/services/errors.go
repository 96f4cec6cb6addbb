// Package services defines the business logic for quiz submissions and
// their ranked results. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrInvalidAnswer indicates a quiz answer that violates the engine's
	// input contract (empty relationship/occasion, or budget max <= min).
	// It signals a programming/validation failure upstream, not a
	// recoverable user condition.
	ErrInvalidAnswer = errors.New("quiz answer violates input contract")

	// ErrSessionNotFound indicates that the requested quiz session does not
	// exist or is not accessible to the current user.
	ErrSessionNotFound = errors.New("quiz session not found")

	// ErrIdeaNotFound indicates that the requested gift idea does not exist.
	ErrIdeaNotFound = errors.New("gift idea not found")

	// ErrForbiddenFavorite is returned when a user attempts to toggle the
	// favorite flag on an idea belonging to another user's session.
	ErrForbiddenFavorite = errors.New("cannot modify this gift idea")

	// ErrUserRequired is returned by operations that only make sense for an
	// identified user, such as deleting session history.
	ErrUserRequired = errors.New("user identity required")
)
