// Package services – CatalogService
//
// This file implements the minimal catalog surface the engine needs: card
// creation/lookup and the derived deck overview. Decks are never stored; a
// deck is the set of active cards tagged with a root card's name, playable
// once it reaches the configured minimum size.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"golang.org/x/text/cases"

	"github.com/moldovancsaba/narimato-server/internal/domain"
	"github.com/moldovancsaba/narimato-server/internal/repo"
)

// CardRepo defines the repository contract for the card catalog and its
// derived deck view. It is shared by the catalog, play, and rating services.
type CardRepo interface {
	// Create inserts a new card; a (tenant, name) collision yields repo.ErrDuplicate.
	Create(ctx context.Context, db *gorm.DB, tenantID, name, title, imageURL string, tags []string) (*domain.Card, error)

	// Get fetches a card by ID within a tenant.
	Get(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Card, error)

	// GetByName fetches a card by its canonical name within a tenant.
	GetByName(ctx context.Context, db *gorm.DB, tenantID, name string) (*domain.Card, error)

	// ListActiveChildren returns the deck view: active cards tagged with parentTag.
	ListActiveChildren(ctx context.Context, db *gorm.DB, tenantID, parentTag string) ([]domain.Card, error)

	// ListActive returns every active card of the tenant.
	ListActive(ctx context.Context, db *gorm.DB, tenantID string) ([]domain.Card, error)
}

// DeckInfo describes one deck root in the overview: its tag, display title,
// current child count, and whether it meets the playable minimum.
type DeckInfo struct {
	Tag       string `json:"tag"`
	Title     string `json:"title"`
	CardCount int    `json:"card_count"`
	Playable  bool   `json:"playable"`
}

// CatalogService owns card creation and the deck overview.
type CatalogService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the card repository.
	Repo CardRepo
	// Ratings seeds a rating row for every new card. Optional in tests.
	Ratings *RatingService

	// MinDeckSize is the minimum child count for a deck to be playable.
	MinDeckSize int
}

// NewCatalogService constructs a CatalogService with the default playable
// minimum of 2.
func NewCatalogService(db *gorm.DB, r CardRepo, ratings *RatingService) *CatalogService {
	return &CatalogService{DB: db, Repo: r, Ratings: ratings, MinDeckSize: 2}
}

// CreateCard inserts a new card for the tenant. Names and tags are
// normalized to their canonical hashtag form; the card's rating row is
// seeded immediately so it appears on leaderboards before its first vote.
func (s *CatalogService) CreateCard(ctx context.Context, tenantID, name, title, imageURL string, tags []string) (*domain.Card, error) {
	name = NormalizeTag(name)
	title = strings.TrimSpace(title)
	if name == "" || name == "#" || title == "" {
		return nil, ErrInvalidCard
	}
	normTags := make([]string, 0, len(tags))
	for _, t := range tags {
		if nt := NormalizeTag(t); nt != "" && nt != "#" {
			normTags = append(normTags, nt)
		}
	}

	card, err := s.Repo.Create(ctx, s.DB, tenantID, name, title, strings.TrimSpace(imageURL), normTags)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateCard
		}
		return nil, err
	}

	if s.Ratings != nil {
		if err := s.Ratings.EnsureSeeded(ctx, tenantID, card.ID); err != nil {
			return nil, err
		}
	}
	return card, nil
}

// GetCard fetches a card by ID within the tenant.
func (s *CatalogService) GetCard(ctx context.Context, tenantID, id string) (*domain.Card, error) {
	card, err := s.Repo.Get(ctx, s.DB, tenantID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return card, nil
}

// ListCards returns every active card of the tenant.
func (s *CatalogService) ListCards(ctx context.Context, tenantID string) ([]domain.Card, error) {
	return s.Repo.ListActive(ctx, s.DB, tenantID)
}

// ListDecks derives the deck overview from the active catalog: every card
// whose name appears in at least one other card's tag set is a deck root.
func (s *CatalogService) ListDecks(ctx context.Context, tenantID string) ([]DeckInfo, error) {
	cards, err := s.Repo.ListActive(ctx, s.DB, tenantID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, c := range cards {
		for _, t := range c.Tags {
			counts[t]++
		}
	}

	min := s.MinDeckSize
	if min < 2 {
		min = 2
	}
	out := make([]DeckInfo, 0)
	for _, c := range cards {
		n, ok := counts[c.Name]
		if !ok {
			continue
		}
		out = append(out, DeckInfo{
			Tag:       c.Name,
			Title:     c.Title,
			CardCount: n,
			Playable:  n >= min,
		})
	}
	return out, nil
}

// tagFolder lowercases deck tags Unicode-correctly so that lookups are
// case-insensitive across scripts.
var tagFolder = cases.Fold()

// NormalizeTag canonicalizes a card name or deck tag: trimmed, case-folded,
// and prefixed with "#".
func NormalizeTag(tag string) string {
	tag = tagFolder.String(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}
