// Package services – PlayService
//
// This file implements the session state machine. A play moves between the
// swiping and voting phases: swipes accept or reject the current deck card,
// and every accepted card is placed into the personal ranking by a binary
// insertion whose comparisons are resolved externally as votes. When the last
// card is processed and no comparison is outstanding, the play completes and
// its results are persisted exactly once.
//
// Concurrency: plays are mutated under optimistic concurrency. Every mutation
// validates the caller's expected version, computes the next state in memory,
// and saves conditioned on the stored version being unchanged; a lost race
// surfaces as ErrVersionMismatch with no partial writes. Nothing blocks:
// callers re-fetch and retry.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// play/tenant identifiers.
package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moldovancsaba/narimato-server/internal/domain"
	"github.com/moldovancsaba/narimato-server/internal/ranking"
	"github.com/moldovancsaba/narimato-server/internal/repo"
)

// PlayRepo defines the repository contract required by PlayService for the
// play aggregate. Implementations own persistence and the optimistic version
// check; Save must return repo.ErrVersionConflict when the expected version
// is stale.
type PlayRepo interface {
	// Create inserts a fresh play with the given immutable deck snapshot.
	Create(ctx context.Context, db *gorm.DB, tenantID, deckTag string, deck []string, ttl time.Duration) (*domain.Play, error)

	// Get fetches a play by ID within a tenant.
	Get(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Play, error)

	// Save writes the play's mutable state conditioned on expectedVersion.
	Save(ctx context.Context, db *gorm.DB, p *domain.Play, expectedVersion int) error
}

// ResultRepo defines the repository contract for immutable play results.
// InsertIfAbsent must treat a uniqueness violation on the play ID as success
// and return the existing record.
type ResultRepo interface {
	InsertIfAbsent(ctx context.Context, db *gorm.DB, rec *domain.PlayResult) (*domain.PlayResult, bool, error)
	GetByPlay(ctx context.Context, db *gorm.DB, tenantID, playID string) (*domain.PlayResult, error)
}

// SwipeOutcome reports the state transition produced by a swipe: the new
// phase, whether a comparison is now required (and between which pair),
// whether the play just completed, and the new version for the next call.
type SwipeOutcome struct {
	Phase        string `json:"phase"`
	RequiresVote bool   `json:"requires_vote"`
	CardA        string `json:"card_a,omitempty"`
	CardB        string `json:"card_b,omitempty"`
	Completed    bool   `json:"completed"`
	Version      int    `json:"version"`
}

// VoteOutcome mirrors SwipeOutcome: a vote reports the same transition facts.
type VoteOutcome = SwipeOutcome

// PlayService drives play sessions from start through swipes and votes to
// completed results. It owns the phase transitions and delegates persistence
// to the injected repositories, ranking arithmetic to the ranking package,
// and rating updates to the RatingService.
type PlayService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Cards reads the deck view (active children of a root tag).
	Cards CardRepo
	// Plays persists the play aggregate.
	Plays PlayRepo
	// Records persists immutable results records.
	Records ResultRepo
	// Ratings folds decisive comparisons into global ratings. Optional in
	// tests; when nil, votes only affect the personal ranking.
	Ratings *RatingService

	// MinDeckSize is the minimum number of active children a deck needs to be
	// playable.
	MinDeckSize int
	// TTL is the play lifetime from creation; expired plays reject all
	// operations.
	TTL time.Duration
}

// NewPlayService constructs a PlayService with sane defaults.
func NewPlayService(db *gorm.DB, cards CardRepo, plays PlayRepo, results ResultRepo, ratings *RatingService) *PlayService {
	return &PlayService{
		DB:          db,
		Cards:       cards,
		Plays:       plays,
		Records:     results,
		Ratings:     ratings,
		MinDeckSize: 2,
		TTL:         24 * time.Hour,
	}
}

// Start creates a new play for the deck rooted at deckTag. The deck snapshot
// is the shuffled list of active child card IDs, fixed for the lifetime of
// the play regardless of later catalog changes.
func (s *PlayService) Start(ctx context.Context, tenantID, deckTag string) (*domain.Play, error) {
	tr := otel.Tracer("services/PlayService")
	ctx, span := tr.Start(ctx, "Start",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("deck.tag", deckTag),
		),
	)
	defer span.End()

	deckTag = NormalizeTag(deckTag)
	if deckTag == "" {
		return nil, ErrDeckNotFound
	}
	if _, err := s.Cards.GetByName(ctx, s.DB, tenantID, deckTag); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}

	children, err := s.Cards.ListActiveChildren(ctx, s.DB, tenantID, deckTag)
	if err != nil {
		return nil, err
	}
	if len(children) < s.minDeck() {
		return nil, ErrDeckTooSmall
	}

	deck := make([]string, len(children))
	for i, c := range children {
		deck[i] = c.ID
	}
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	return s.Plays.Create(ctx, s.DB, tenantID, deckTag, deck, s.TTL)
}

// Swipe processes one accept/reject decision on the current card.
//
// Semantics:
//   - The play must be active (not completed, not expired) and must not have
//     an outstanding comparison.
//   - cardID must be the first not-yet-swiped deck card.
//   - left discards the card; right places it: directly when the ranking is
//     empty, otherwise via a binary insertion that opens a voting context.
//   - When the last card is processed with no comparison outstanding, the
//     play completes and results are persisted.
func (s *PlayService) Swipe(ctx context.Context, tenantID, playID, cardID, direction string, expectedVersion int) (*SwipeOutcome, error) {
	tr := otel.Tracer("services/PlayService")
	ctx, span := tr.Start(ctx, "Swipe",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("play.id", playID),
			attribute.String("card.id", cardID),
			attribute.String("swipe.direction", direction),
		),
	)
	defer span.End()

	if direction != domain.DirectionLeft && direction != domain.DirectionRight {
		return nil, ErrInvalidDirection
	}

	p, err := s.loadActive(ctx, tenantID, playID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if p.Voting != nil {
		return nil, ErrVotePending
	}
	if p.Swiped(cardID) {
		return nil, ErrAlreadySwiped
	}
	if current := p.CurrentCard(); cardID != current {
		return nil, ErrCardNotCurrent
	}

	p.Swipes = append(p.Swipes, domain.Swipe{
		CardID:    cardID,
		Direction: direction,
		At:        time.Now().UTC(),
	})

	if direction == domain.DirectionRight {
		ins := ranking.NewInsertion(cardID, len(p.Ranking))
		if ins.Resolved() {
			// First accepted card: position is determined without comparison.
			p.Ranking = ranking.InsertAt(p.Ranking, ins.Index(), cardID)
		} else {
			p.Voting = &domain.VotingContext{
				NewCard:     cardID,
				CompareWith: ins.Opponent(p.Ranking),
				Low:         ins.Low,
				High:        ins.High,
			}
			p.Status = domain.PhaseVoting
		}
	}

	s.maybeComplete(p)

	if err := s.save(ctx, p, expectedVersion); err != nil {
		return nil, err
	}
	if p.Status == domain.PhaseCompleted {
		if _, err := s.finalize(ctx, p); err != nil {
			return nil, err
		}
	}
	return outcomeOf(p), nil
}

// Vote resolves the outstanding comparison with a decisive winner.
//
// The pair may arrive in either order. A vote identical to the last applied
// record is an idempotent replay and succeeds without effect; any other
// mismatch with the outstanding context is rejected. A decisive vote narrows
// the pending insertion and either opens the next comparison or places the
// card and returns the play to swiping, possibly completing it; once the new
// state commits, the comparison is folded into the global ratings.
func (s *PlayService) Vote(ctx context.Context, tenantID, playID, cardA, cardB, winner string, expectedVersion int) (*VoteOutcome, error) {
	tr := otel.Tracer("services/PlayService")
	ctx, span := tr.Start(ctx, "Vote",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("play.id", playID),
		),
	)
	defer span.End()

	if cardA == cardB || (winner != cardA && winner != cardB) {
		return nil, ErrInvalidWinner
	}

	// Loaded inline rather than via loadActive: a duplicate retry of the
	// final vote arrives after the play completed and must still succeed as
	// a no-op, so replay detection has to run before the terminal-phase
	// rejection.
	p, err := s.Plays.Get(ctx, s.DB, tenantID, playID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPlayNotFound
		}
		return nil, err
	}
	if p.Expired(time.Now().UTC()) {
		return nil, ErrPlayExpired
	}
	if expectedVersion != p.Version {
		return nil, ErrVersionMismatch
	}

	if p.Voting == nil || !p.Voting.Pair(cardA, cardB) {
		if s.isReplay(p, cardA, cardB, winner) {
			// Duplicate retry of the vote that already advanced the state.
			return outcomeOf(p), nil
		}
		if p.Status == domain.PhaseCompleted {
			return nil, ErrPlayCompleted
		}
		if p.Voting == nil {
			return nil, ErrNoVotePending
		}
		return nil, ErrStaleComparison
	}

	loser := cardA
	if winner == cardA {
		loser = cardB
	}

	p.Votes = append(p.Votes, domain.VoteRecord{
		CardA:  cardA,
		CardB:  cardB,
		Winner: winner,
		At:     time.Now().UTC(),
	})

	ins := ranking.Insertion{Card: p.Voting.NewCard, Low: p.Voting.Low, High: p.Voting.High}
	ins = ins.Narrow(winner == p.Voting.NewCard)
	if ins.Resolved() {
		p.Ranking = ranking.InsertAt(p.Ranking, ins.Index(), ins.Card)
		p.Voting = nil
		p.Status = domain.PhaseSwiping
		s.maybeComplete(p)
	} else {
		p.Voting = &domain.VotingContext{
			NewCard:     ins.Card,
			CompareWith: ins.Opponent(p.Ranking),
			Low:         ins.Low,
			High:        ins.High,
		}
	}

	if err := s.save(ctx, p, expectedVersion); err != nil {
		return nil, err
	}

	// Ratings move only once the vote has been committed: a vote that loses
	// the version race must leave them untouched, and a replayed retry of a
	// committed vote is a no-op above, so each comparison counts once.
	if s.Ratings != nil {
		if err := s.Ratings.ApplyComparison(ctx, tenantID, winner, loser); err != nil {
			return nil, err
		}
	}

	if p.Status == domain.PhaseCompleted {
		if _, err := s.finalize(ctx, p); err != nil {
			return nil, err
		}
	}
	return outcomeOf(p), nil
}

// Results returns the immutable results record of a completed play. If the
// play completed but its record is missing (an earlier finalize attempt
// failed mid-flight), the record is persisted now; the insert-if-absent
// contract makes this safe against concurrent repair.
func (s *PlayService) Results(ctx context.Context, tenantID, playID string) (*domain.PlayResult, error) {
	tr := otel.Tracer("services/PlayService")
	ctx, span := tr.Start(ctx, "Results",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("play.id", playID),
		),
	)
	defer span.End()

	rec, err := s.Records.GetByPlay(ctx, s.DB, tenantID, playID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	p, err := s.Plays.Get(ctx, s.DB, tenantID, playID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPlayNotFound
		}
		return nil, err
	}
	if p.Status != domain.PhaseCompleted {
		return nil, ErrResultsNotReady
	}
	return s.finalize(ctx, p)
}

// loadActive fetches a play and applies the shared preconditions: existence,
// lazy expiry, terminal phase, and the caller's expected version. It never
// mutates state.
func (s *PlayService) loadActive(ctx context.Context, tenantID, playID string, expectedVersion int) (*domain.Play, error) {
	p, err := s.Plays.Get(ctx, s.DB, tenantID, playID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPlayNotFound
		}
		return nil, err
	}
	if p.Expired(time.Now().UTC()) {
		return nil, ErrPlayExpired
	}
	if p.Status == domain.PhaseCompleted {
		return nil, ErrPlayCompleted
	}
	if expectedVersion != p.Version {
		return nil, ErrVersionMismatch
	}
	return p, nil
}

// maybeComplete transitions the play to completed when every deck card is
// swiped and no comparison is outstanding. Completion is never evaluated
// under an in-flight comparison.
func (s *PlayService) maybeComplete(p *domain.Play) {
	if p.Voting != nil || !p.AllSwiped() {
		return
	}
	now := time.Now().UTC()
	p.Status = domain.PhaseCompleted
	p.CompletedAt = &now
}

// save persists the play under the optimistic version check, translating the
// repository conflict into the service taxonomy.
func (s *PlayService) save(ctx context.Context, p *domain.Play, expectedVersion int) error {
	if err := s.Plays.Save(ctx, s.DB, p, expectedVersion); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return ErrVersionMismatch
		}
		return err
	}
	return nil
}

// finalize persists the immutable results record for a completed play.
// Duplicate finalize attempts converge on the first stored record.
func (s *PlayService) finalize(ctx context.Context, p *domain.Play) (*domain.PlayResult, error) {
	completedAt := time.Now().UTC()
	if p.CompletedAt != nil {
		completedAt = *p.CompletedAt
	}
	rec := &domain.PlayResult{
		PlayID:      p.ID,
		TenantID:    p.TenantID,
		DeckTag:     p.DeckTag,
		Ranking:     p.Ranking,
		SwipeCount:  len(p.Swipes),
		VoteCount:   len(p.Votes),
		CompletedAt: completedAt,
	}
	stored, _, err := s.Records.InsertIfAbsent(ctx, s.DB, rec)
	return stored, err
}

// isReplay reports whether the vote exactly matches the last applied record
// (same unordered pair, same winner).
func (s *PlayService) isReplay(p *domain.Play, cardA, cardB, winner string) bool {
	last := p.LastVote()
	if last == nil {
		return false
	}
	samePair := (last.CardA == cardA && last.CardB == cardB) ||
		(last.CardA == cardB && last.CardB == cardA)
	return samePair && last.Winner == winner
}

// minDeck returns the configured minimum deck size, defaulting to 2.
func (s *PlayService) minDeck() int {
	if s.MinDeckSize < 2 {
		return 2
	}
	return s.MinDeckSize
}

// outcomeOf summarizes the play's transition facts for the caller.
func outcomeOf(p *domain.Play) *SwipeOutcome {
	out := &SwipeOutcome{
		Phase:     p.Status,
		Completed: p.Status == domain.PhaseCompleted,
		Version:   p.Version,
	}
	if p.Voting != nil {
		out.RequiresVote = true
		out.CardA = p.Voting.NewCard
		out.CardB = p.Voting.CompareWith
	}
	return out
}
