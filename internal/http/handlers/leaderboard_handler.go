// Leaderboard HTTP handlers.
//
// This file exposes the global rating view:
//   - GET /decks/{tag}/leaderboard  (paginated, ETag support)
//
// The leaderboard orders a deck's cards by their accumulated pairwise-vote
// ratings across all completed and in-flight sessions of the tenant.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/moldovancsaba/narimato-server/internal/http/middleware"
	"github.com/moldovancsaba/narimato-server/internal/repo"
	"github.com/moldovancsaba/narimato-server/internal/services"
	"github.com/moldovancsaba/narimato-server/internal/utils"
)

// RatingService defines the global rating operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RatingService interface {
	// Leaderboard returns a page of a deck's cards ordered by rating.
	Leaderboard(ctx context.Context, tenantID, deckTag string, page, pageSize int) ([]services.LeaderboardEntry, int64, error)
	// DeckCardIDs resolves the deck view to its member card IDs.
	DeckCardIDs(ctx context.Context, tenantID, deckTag string) ([]string, error)
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// LeaderboardResponse wraps a page of rating entries and pagination
// information.
type LeaderboardResponse struct {
	DeckTag    string                      `json:"deck_tag"`
	Entries    []services.LeaderboardEntry `json:"entries"`
	Pagination Pagination                  `json:"pagination"`
}

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

// Leaderboard godoc
// @ID          deckLeaderboard
// @Summary     Deck leaderboard (paginated)
// @Description Returns a deck's cards ordered by global rating. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Decks
// @Produce     json
//
// @Param       X-Tenant-ID    header  string  false "Tenant namespace"             example(public)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"   example(W/\"abc123\")
// @Param       tag            path    string  true  "Deck tag"                     example(movies)
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.LeaderboardResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Deck not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /decks/{tag}/leaderboard [get]
func (h *Handlers) Leaderboard(c *gin.Context) {
	ctx := c.Request.Context()
	tenant := middleware.TenantFrom(c)
	tag := strings.TrimSpace(c.Param("tag"))
	if tag == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deck tag required")
		return
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.ratingSvc.(*services.RatingService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		if ids, err := h.ratingSvc.DeckCardIDs(ctx, tenant, tag); err == nil {
			count, maxTS, err := repo.LeaderboardStats(ctx, db, tenant, ids)
			if err == nil {
				var ts int64
				if maxTS != nil {
					ts = maxTS.Unix()
				}
				etag := fmt.Sprintf(`W/"lb:%s:%s:%d:%d"`, tenant, tag, count, ts)
				c.Header("ETag", etag)
				if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}
	}

	entries, total, err := h.ratingSvc.Leaderboard(ctx, tenant, tag, page, pageSize)
	if err != nil {
		failPlay(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, LeaderboardResponse{
		DeckTag: services.NormalizeTag(tag),
		Entries: entries,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
