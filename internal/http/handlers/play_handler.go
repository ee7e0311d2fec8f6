// Play HTTP handlers.
//
// This file exposes REST endpoints for ranking sessions:
//   - POST /decks/{tag}/plays        (start a session)
//   - POST /plays/{id}/swipe         (accept or reject the current card)
//   - POST /plays/{id}/vote          (resolve a pairwise comparison)
//   - GET  /plays/{id}/results       (final ranking of a completed session)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moldovancsaba/narimato-server/internal/domain"
	"github.com/moldovancsaba/narimato-server/internal/http/middleware"
	"github.com/moldovancsaba/narimato-server/internal/services"
)

//
// Service contracts (context-aware)
//

// PlayService defines ranking-session operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PlayService interface {
	// Start creates a new session over the deck identified by tag.
	Start(ctx context.Context, tenantID, deckTag string) (*domain.Play, error)
	// Swipe records an accept or reject for the current card.
	Swipe(ctx context.Context, tenantID, playID, cardID, direction string, expectedVersion int) (*services.SwipeOutcome, error)
	// Vote resolves the pending pairwise comparison.
	Vote(ctx context.Context, tenantID, playID, cardA, cardB, winner string, expectedVersion int) (*services.VoteOutcome, error)
	// Results returns the persisted outcome of a completed session.
	Results(ctx context.Context, tenantID, playID string) (*domain.PlayResult, error)
}

//
// DTOs
//

// StartPlayResponse describes a freshly created ranking session.
type StartPlayResponse struct {
	PlayID    string    `json:"play_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	DeckTag   string    `json:"deck_tag" example:"#movies"`
	Cards     []string  `json:"cards"`
	Total     int       `json:"total" example:"12"`
	Phase     string    `json:"phase" example:"swiping"`
	Version   int       `json:"version" example:"0"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SwipeRequest is the JSON payload for a swipe.
//
// Version is a pointer so that an explicit 0 (the initial session version)
// survives required-field validation.
type SwipeRequest struct {
	CardID    string `json:"card_id" binding:"required" example:"b2c9f3e1-0d84-4f6a-9a3e-6a5b2f1c0d84"`
	Direction string `json:"direction" binding:"required,oneof=left right" example:"right"`
	Version   *int   `json:"version" binding:"required" example:"0"`
}

// VoteRequest is the JSON payload resolving a pairwise comparison.
type VoteRequest struct {
	CardA   string `json:"card_a" binding:"required"`
	CardB   string `json:"card_b" binding:"required"`
	Winner  string `json:"winner" binding:"required"`
	Version *int   `json:"version" binding:"required" example:"3"`
}

// OutcomeResponse reports the session state after a swipe or vote.
type OutcomeResponse struct {
	Phase        string `json:"phase" example:"voting"`
	RequiresVote bool   `json:"requires_vote"`
	CardA        string `json:"card_a,omitempty"`
	CardB        string `json:"card_b,omitempty"`
	Completed    bool   `json:"completed"`
	Version      int    `json:"version" example:"4"`
}

// ResultsResponse is the final outcome of a completed session.
type ResultsResponse struct {
	PlayID      string    `json:"play_id"`
	Ranking     []string  `json:"ranking"`
	SwipeCount  int       `json:"swipe_count"`
	VoteCount   int       `json:"vote_count"`
	CompletedAt time.Time `json:"completed_at"`
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for sessions, the card catalog, and
// leaderboards. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	playSvc    PlayService
	catalogSvc CatalogService
	ratingSvc  RatingService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(playSvc PlayService, catalogSvc CatalogService, ratingSvc RatingService) *Handlers {
	return &Handlers{playSvc: playSvc, catalogSvc: catalogSvc, ratingSvc: ratingSvc}
}

// outcomeResponse converts a service outcome into its wire form.
func outcomeResponse(o *services.SwipeOutcome) OutcomeResponse {
	return OutcomeResponse{
		Phase:        o.Phase,
		RequiresVote: o.RequiresVote,
		CardA:        o.CardA,
		CardB:        o.CardB,
		Completed:    o.Completed,
		Version:      o.Version,
	}
}

// failPlay translates session service sentinels into HTTP error responses.
func failPlay(c *gin.Context, err error) {
	switch err {
	case services.ErrInvalidDirection:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "direction must be left or right")
	case services.ErrInvalidWinner:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "winner must be one of the two distinct compared cards")
	case services.ErrInvalidCard:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid card")
	case services.ErrPlayNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "play not found")
	case services.ErrDeckNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "deck not found")
	case services.ErrCardNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "card not found")
	case services.ErrPlayExpired:
		fail(c, http.StatusNotFound, ErrCodePlayExpired, "play has expired")
	case services.ErrResultsNotReady:
		fail(c, http.StatusNotFound, ErrCodeResultsNotReady, "play is not completed yet")
	case services.ErrPlayCompleted:
		fail(c, http.StatusConflict, ErrCodePlayCompleted, "play is already completed")
	case services.ErrVotePending:
		fail(c, http.StatusConflict, ErrCodeVotePending, "a vote is pending, resolve it before swiping")
	case services.ErrNoVotePending:
		fail(c, http.StatusConflict, ErrCodeNoVotePending, "no vote is pending")
	case services.ErrStaleComparison:
		fail(c, http.StatusConflict, ErrCodeStaleComparison, "vote does not match the pending comparison")
	case services.ErrCardNotCurrent:
		fail(c, http.StatusConflict, ErrCodeConflict, "card is not the current card")
	case services.ErrAlreadySwiped:
		fail(c, http.StatusConflict, ErrCodeConflict, "card was already swiped in this play")
	case services.ErrVersionMismatch:
		fail(c, http.StatusConflict, ErrCodeVersionMismatch, "play was modified concurrently, re-fetch and retry")
	case services.ErrDeckTooSmall:
		fail(c, http.StatusConflict, ErrCodeDeckTooSmall, "deck does not have enough cards to play")
	case services.ErrDuplicateCard:
		fail(c, http.StatusConflict, ErrCodeConflict, "card name already exists")
	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("play service failure")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

//
// Handlers
//

// StartPlay godoc
// @ID          startPlay
// @Summary     Start a ranking session
// @Description Creates a session over the deck identified by tag and returns the shuffled card order.
// @Tags        Plays
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  false "Tenant namespace"  example(public)
// @Param       tag          path    string  true  "Deck tag"          example(movies)
//
// @Success     201  {object}  handlers.StartPlayResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Deck not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Deck too small"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /decks/{tag}/plays [post]
func (h *Handlers) StartPlay(c *gin.Context) {
	tag := strings.TrimSpace(c.Param("tag"))
	if tag == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deck tag required")
		return
	}

	p, err := h.playSvc.Start(c.Request.Context(), middleware.TenantFrom(c), tag)
	if err != nil {
		failPlay(c, err)
		return
	}

	ok(c, http.StatusCreated, StartPlayResponse{
		PlayID:    p.ID,
		DeckTag:   p.DeckTag,
		Cards:     p.Deck,
		Total:     len(p.Deck),
		Phase:     p.Status,
		Version:   p.Version,
		ExpiresAt: p.ExpiresAt,
	})
}

// Swipe godoc
// @ID          swipePlay
// @Summary     Swipe the current card
// @Description Records an accept (right) or reject (left) for the session's current card.
// @Tags        Plays
// @Accept      json
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  false "Tenant namespace"  example(public)
// @Param       id           path    string  true  "Play ID (UUID)"    format(uuid)
// @Param       body         body    handlers.SwipeRequest  true  "Swipe payload"
//
// @Success     200  {object}  handlers.OutcomeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Play not found or expired"
// @Failure     409  {object}  handlers.ErrorResponse  "State or version conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /plays/{id}/swipe [post]
func (h *Handlers) Swipe(c *gin.Context) {
	playID := c.Param("id")
	if _, err := uuid.Parse(playID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "play id must be a UUID")
		return
	}

	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "card_id, direction (left|right) and version required")
		return
	}

	o, err := h.playSvc.Swipe(c.Request.Context(), middleware.TenantFrom(c), playID, req.CardID, req.Direction, *req.Version)
	if err != nil {
		failPlay(c, err)
		return
	}
	ok(c, http.StatusOK, outcomeResponse(o))
}

// Vote godoc
// @ID          votePlay
// @Summary     Resolve the pending comparison
// @Description Records the winner of the pending pairwise comparison and advances the session.
// @Tags        Plays
// @Accept      json
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  false "Tenant namespace"  example(public)
// @Param       id           path    string  true  "Play ID (UUID)"    format(uuid)
// @Param       body         body    handlers.VoteRequest  true  "Vote payload"
//
// @Success     200  {object}  handlers.OutcomeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Play not found or expired"
// @Failure     409  {object}  handlers.ErrorResponse  "State or version conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /plays/{id}/vote [post]
func (h *Handlers) Vote(c *gin.Context) {
	playID := c.Param("id")
	if _, err := uuid.Parse(playID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "play id must be a UUID")
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "card_a, card_b, winner and version required")
		return
	}

	o, err := h.playSvc.Vote(c.Request.Context(), middleware.TenantFrom(c), playID, req.CardA, req.CardB, req.Winner, *req.Version)
	if err != nil {
		failPlay(c, err)
		return
	}
	ok(c, http.StatusOK, outcomeResponse(o))
}

// GetResults godoc
// @ID          getPlayResults
// @Summary     Fetch session results
// @Description Returns the persisted final ranking of a completed session.
// @Tags        Plays
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  false "Tenant namespace"  example(public)
// @Param       id           path    string  true  "Play ID (UUID)"    format(uuid)
//
// @Success     200  {object}  handlers.ResultsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Play not found or not completed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /plays/{id}/results [get]
func (h *Handlers) GetResults(c *gin.Context) {
	playID := c.Param("id")
	if _, err := uuid.Parse(playID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "play id must be a UUID")
		return
	}

	r, err := h.playSvc.Results(c.Request.Context(), middleware.TenantFrom(c), playID)
	if err != nil {
		failPlay(c, err)
		return
	}

	ok(c, http.StatusOK, ResultsResponse{
		PlayID:      r.PlayID,
		Ranking:     r.Ranking,
		SwipeCount:  r.SwipeCount,
		VoteCount:   r.VoteCount,
		CompletedAt: r.CompletedAt,
	})
}
