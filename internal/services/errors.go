// Package services defines the business logic of the ranking engine: the
// play session state machine, the global rating aggregator, and the catalog
// view over cards and decks. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer. The taxonomy follows four families:
// validation (bad input), not-found (absent/inactive/expired), invalid-state
// (wrong phase), and conflict (lost races, stale retries).
package services

import "errors"

// Validation errors.
var (
	// ErrInvalidDirection is returned when a swipe direction is not "left" or "right".
	ErrInvalidDirection = errors.New("direction must be left or right")

	// ErrInvalidWinner is returned when a vote names a winner that is not one
	// of the two compared cards, or compares a card against itself.
	ErrInvalidWinner = errors.New("winner must be one of the compared cards")

	// ErrInvalidCard is returned when a card payload is malformed (empty name
	// or title).
	ErrInvalidCard = errors.New("card name and title are required")
)

// Not-found errors.
var (
	// ErrPlayNotFound indicates that the requested play does not exist within
	// the tenant or is otherwise inaccessible.
	ErrPlayNotFound = errors.New("play not found")

	// ErrPlayExpired indicates that the play's TTL elapsed before the
	// operation. Expiry is detected lazily at access time.
	ErrPlayExpired = errors.New("play expired")

	// ErrDeckNotFound indicates that no root card with the requested tag
	// exists for the tenant.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrCardNotFound indicates that the requested card does not exist within
	// the tenant.
	ErrCardNotFound = errors.New("card not found")

	// ErrResultsNotReady indicates that results were requested for a play
	// that has not completed.
	ErrResultsNotReady = errors.New("play has no results yet")
)

// Invalid-state errors.
var (
	// ErrVotePending is returned when a swipe arrives while a comparison is
	// still outstanding; the vote must be resolved first.
	ErrVotePending = errors.New("a comparison is outstanding")

	// ErrNoVotePending is returned when a vote arrives while the play is not
	// in the voting phase.
	ErrNoVotePending = errors.New("no comparison is outstanding")

	// ErrPlayCompleted is returned when a mutation targets a play that has
	// already completed.
	ErrPlayCompleted = errors.New("play already completed")
)

// Conflict errors.
var (
	// ErrCardNotCurrent is returned when a swipe targets a card other than
	// the first not-yet-swiped card of the deck snapshot.
	ErrCardNotCurrent = errors.New("card is not the current card")

	// ErrAlreadySwiped is returned when a swipe targets a card the play has
	// already processed.
	ErrAlreadySwiped = errors.New("card already swiped")

	// ErrStaleComparison is returned when a vote does not match the
	// outstanding comparison and is not an exact replay of the last applied
	// vote.
	ErrStaleComparison = errors.New("vote does not match the outstanding comparison")

	// ErrVersionMismatch is returned when the caller's expected version is
	// stale. The play is never mutated in this case; callers should re-fetch
	// and retry.
	ErrVersionMismatch = errors.New("play version mismatch")

	// ErrDeckTooSmall is returned when a deck has fewer active children than
	// the configured minimum and therefore cannot be played.
	ErrDeckTooSmall = errors.New("deck has too few cards to play")

	// ErrDuplicateCard is returned when a card with the same name already
	// exists for the tenant.
	ErrDuplicateCard = errors.New("card name already exists")
)
