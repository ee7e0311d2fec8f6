// Card catalog HTTP handlers.
//
// This file exposes REST endpoints for the card catalog and the derived deck
// overview:
//   - POST /cards        (create)
//   - GET  /cards        (list active cards)
//   - GET  /cards/{id}   (fetch one card)
//   - GET  /decks        (deck overview with playability)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moldovancsaba/narimato-server/internal/domain"
	"github.com/moldovancsaba/narimato-server/internal/http/middleware"
	"github.com/moldovancsaba/narimato-server/internal/services"
)

// CatalogService defines card catalog operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CatalogService interface {
	// CreateCard inserts a new card with a normalized name and tag set.
	CreateCard(ctx context.Context, tenantID, name, title, imageURL string, tags []string) (*domain.Card, error)
	// GetCard fetches a card by ID.
	GetCard(ctx context.Context, tenantID, id string) (*domain.Card, error)
	// ListCards returns every active card of the tenant.
	ListCards(ctx context.Context, tenantID string) ([]domain.Card, error)
	// ListDecks returns the derived deck overview.
	ListDecks(ctx context.Context, tenantID string) ([]services.DeckInfo, error)
}

// CreateCardRequest is the JSON payload for creating a card.
type CreateCardRequest struct {
	// Name is the unique card identifier; it is normalized to "#name" form.
	Name string `json:"name" binding:"required,min=1,max=128" example:"inception"`
	// Title is the human-readable display title.
	Title string `json:"title" binding:"required,min=1,max=255" example:"Inception (2010)"`
	// ImageURL optionally points at the card artwork.
	ImageURL string `json:"image_url" binding:"omitempty,max=2048" example:"https://cdn.example.com/inception.png"`
	// Tags assigns the card to decks; each tag names a root card.
	Tags []string `json:"tags" example:"movies,scifi"`
}

// ListCardsResponse wraps the active card catalog.
type ListCardsResponse struct {
	Cards []domain.Card `json:"cards"`
	Total int           `json:"total"`
}

// ListDecksResponse wraps the derived deck overview.
type ListDecksResponse struct {
	Decks []services.DeckInfo `json:"decks"`
	Total int                 `json:"total"`
}

// CreateCard godoc
// @ID          createCard
// @Summary     Create a card
// @Description Creates a card with a normalized name and tag set and seeds its global rating.
// @Tags        Cards
// @Accept      json
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  false "Tenant namespace"  example(public)
// @Param       body         body    handlers.CreateCardRequest  true  "Create card payload"
//
// @Success     201  {object}  domain.Card
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Name already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /cards [post]
func (h *Handlers) CreateCard(c *gin.Context) {
	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and title required")
		return
	}

	card, err := h.catalogSvc.CreateCard(c.Request.Context(), middleware.TenantFrom(c), req.Name, req.Title, req.ImageURL, req.Tags)
	if err != nil {
		switch err {
		case services.ErrInvalidCard:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "card name and title must be non-empty")
		case services.ErrDuplicateCard:
			fail(c, http.StatusConflict, ErrCodeConflict, "card name already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create card")
		}
		return
	}
	ok(c, http.StatusCreated, card)
}

// GetCard godoc
// @ID          getCard
// @Summary     Fetch a card
// @Description Returns a single card by ID.
// @Tags        Cards
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  false "Tenant namespace"  example(public)
// @Param       id           path    string  true  "Card ID (UUID)"    format(uuid)
//
// @Success     200  {object}  domain.Card
// @Failure     404  {object}  handlers.ErrorResponse  "Card not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /cards/{id} [get]
func (h *Handlers) GetCard(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "card id must be a UUID")
		return
	}

	card, err := h.catalogSvc.GetCard(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		if err == services.ErrCardNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "card not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	ok(c, http.StatusOK, card)
}

// ListCards godoc
// @ID          listCards
// @Summary     List active cards
// @Description Returns every active card of the tenant.
// @Tags        Cards
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  false "Tenant namespace"  example(public)
//
// @Success     200  {object}  handlers.ListCardsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /cards [get]
func (h *Handlers) ListCards(c *gin.Context) {
	cards, err := h.catalogSvc.ListCards(c.Request.Context(), middleware.TenantFrom(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list cards")
		return
	}
	ok(c, http.StatusOK, ListCardsResponse{Cards: cards, Total: len(cards)})
}

// ListDecks godoc
// @ID          listDecks
// @Summary     List decks
// @Description Returns the derived deck overview: each root card with its child count and playability.
// @Tags        Decks
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  false "Tenant namespace"  example(public)
//
// @Success     200  {object}  handlers.ListDecksResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /decks [get]
func (h *Handlers) ListDecks(c *gin.Context) {
	decks, err := h.catalogSvc.ListDecks(c.Request.Context(), middleware.TenantFrom(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list decks")
		return
	}
	ok(c, http.StatusOK, ListDecksResponse{Decks: decks, Total: len(decks)})
}
