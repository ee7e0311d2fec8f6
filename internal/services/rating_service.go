// Package services – RatingService
//
// This file implements the global rating aggregator. Every decisive
// comparison (a vote; never a plain swipe) folds into the persistent per-card
// ratings of the tenant via standard ELO arithmetic, and the leaderboard
// query exposes the resulting order per deck.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moldovancsaba/narimato-server/internal/domain"
	"github.com/moldovancsaba/narimato-server/internal/ranking"
	"github.com/moldovancsaba/narimato-server/internal/repo"
)

// RatingRepo defines the repository contract required by RatingService.
type RatingRepo interface {
	// GetOrCreate returns the rating row for (tenant, card), seeding it when absent.
	GetOrCreate(ctx context.Context, db *gorm.DB, tenantID, cardID string, seed int) (*domain.GlobalRating, error)

	// Save persists the rating value and counters of an existing row.
	Save(ctx context.Context, db *gorm.DB, r *domain.GlobalRating) error

	// ListPage returns an ordered leaderboard page for the given card set.
	ListPage(ctx context.Context, db *gorm.DB, tenantID string, cardIDs []string, offset, limit int) ([]domain.GlobalRating, error)

	// Count returns the number of rating rows for the given card set.
	Count(ctx context.Context, db *gorm.DB, tenantID string, cardIDs []string) (int64, error)
}

// LeaderboardEntry joins a rating row with its card's display fields.
type LeaderboardEntry struct {
	CardID  string  `json:"card_id"`
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Rating  int     `json:"rating"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Games   int     `json:"games"`
	WinRate float64 `json:"win_rate"`
}

// RatingService folds decisive comparisons into per-card global ratings and
// serves deck leaderboards.
type RatingService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Cards reads the deck view for leaderboard scoping.
	Cards CardRepo
	// Repo is the rating repository.
	Repo RatingRepo

	// Seed is the rating assigned to a card's first rating row.
	Seed int
	// KFactor scales rating movement per comparison.
	KFactor int
	// Divisor scales the rating difference in the expected-score formula.
	Divisor int
}

// NewRatingService constructs a RatingService with the standard constants
// (seed 1000, K 32, divisor 400).
func NewRatingService(db *gorm.DB, cards CardRepo, r RatingRepo) *RatingService {
	return &RatingService{
		DB:      db,
		Cards:   cards,
		Repo:    r,
		Seed:    1000,
		KFactor: 32,
		Divisor: 400,
	}
}

// ApplyComparison folds one decisive comparison into both cards' ratings:
// the winner moves up, the loser down, counters and win rates follow.
//
// This is a read-modify-write without serialization. Concurrent sessions
// finishing comparisons on the same card may interleave and occasionally lose
// an update; ratings are a statistical aggregate, not a ledger, so that
// reordering is an accepted approximation. Only results persistence requires
// (and gets) true at-most-once semantics.
func (s *RatingService) ApplyComparison(ctx context.Context, tenantID, winnerID, loserID string) error {
	tr := otel.Tracer("services/RatingService")
	ctx, span := tr.Start(ctx, "ApplyComparison",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("card.winner", winnerID),
			attribute.String("card.loser", loserID),
		),
	)
	defer span.End()

	winner, err := s.Repo.GetOrCreate(ctx, s.DB, tenantID, winnerID, s.Seed)
	if err != nil {
		return err
	}
	loser, err := s.Repo.GetOrCreate(ctx, s.DB, tenantID, loserID, s.Seed)
	if err != nil {
		return err
	}

	winner.Rating, loser.Rating = ranking.UpdateElo(winner.Rating, loser.Rating, s.KFactor, s.Divisor)

	winner.Wins++
	winner.Games++
	winner.RecalcWinRate()

	loser.Losses++
	loser.Games++
	loser.RecalcWinRate()

	if err := s.Repo.Save(ctx, s.DB, winner); err != nil {
		return err
	}
	return s.Repo.Save(ctx, s.DB, loser)
}

// EnsureSeeded guarantees a rating row exists for the card, created with the
// seed value when absent. Called at card creation so leaderboards include
// unplayed cards.
func (s *RatingService) EnsureSeeded(ctx context.Context, tenantID, cardID string) error {
	_, err := s.Repo.GetOrCreate(ctx, s.DB, tenantID, cardID, s.Seed)
	return err
}

// Leaderboard returns a page of the deck's cards ordered by rating
// descending, with win rate and total games as tie-breakers, plus the total
// number of entries. The deck is the derived view over active children of
// deckTag.
func (s *RatingService) Leaderboard(ctx context.Context, tenantID, deckTag string, page, pageSize int) ([]LeaderboardEntry, int64, error) {
	tr := otel.Tracer("services/RatingService")
	ctx, span := tr.Start(ctx, "Leaderboard",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("deck.tag", deckTag),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	cards, err := s.deckCards(ctx, tenantID, deckTag)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(cards))
	byID := make(map[string]domain.Card, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
		byID[c.ID] = c
	}

	total, err := s.Repo.Count(ctx, s.DB, tenantID, ids)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []LeaderboardEntry{}, 0, nil
	}

	rows, err := s.Repo.ListPage(ctx, s.DB, tenantID, ids, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	out := make([]LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		card := byID[r.CardID]
		out = append(out, LeaderboardEntry{
			CardID:  r.CardID,
			Name:    card.Name,
			Title:   card.Title,
			Rating:  r.Rating,
			Wins:    r.Wins,
			Losses:  r.Losses,
			Games:   r.Games,
			WinRate: r.WinRate,
		})
	}
	return out, total, nil
}

// DeckCardIDs returns the IDs of the deck's active cards, for callers that
// only need the scoping set (e.g. leaderboard ETags).
func (s *RatingService) DeckCardIDs(ctx context.Context, tenantID, deckTag string) ([]string, error) {
	cards, err := s.deckCards(ctx, tenantID, deckTag)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids, nil
}

// deckCards resolves the deck view, failing with ErrDeckNotFound when the
// root card does not exist.
func (s *RatingService) deckCards(ctx context.Context, tenantID, deckTag string) ([]domain.Card, error) {
	tag := NormalizeTag(deckTag)
	if _, err := s.Cards.GetByName(ctx, s.DB, tenantID, tag); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}
	return s.Cards.ListActiveChildren(ctx, s.DB, tenantID, tag)
}
