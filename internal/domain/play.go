// Package domain – Play aggregate.
//
// A Play is one user's pass through a deck: the shuffled deck snapshot, the
// swipe log, the personal ranking built so far, the vote log, and (while a
// comparison is pending) the suspended binary-search state. The aggregate is
// mutated only by the session state machine in the services layer and guarded
// by an optimistic version counter at the repository boundary.
package domain

import "time"

// Play phases. A play is in exactly one phase at any time; PhaseCompleted is
// terminal.
const (
	PhaseSwiping   = "swiping"
	PhaseVoting    = "voting"
	PhaseCompleted = "completed"
)

// Swipe directions.
const (
	DirectionLeft  = "left"
	DirectionRight = "right"
)

// Swipe is one accept/reject decision recorded in the play's swipe log.
type Swipe struct {
	CardID    string    `json:"card_id"`
	Direction string    `json:"direction"`
	At        time.Time `json:"at"`
}

// VoteRecord is one resolved pairwise comparison, appended to the play's vote
// log. The log doubles as the duplicate-retry detector: a vote identical to
// the last applied record is treated as an idempotent replay.
type VoteRecord struct {
	CardA  string    `json:"card_a"`
	CardB  string    `json:"card_b"`
	Winner string    `json:"winner"`
	At     time.Time `json:"at"`
}

// VotingContext is the suspended binary-insertion state for a right-swiped
// card awaiting comparisons. CompareWith is the midpoint of the current
// search interval [Low, High) over the ranking; each resolved vote narrows
// the interval until it is empty and the card's position is determined.
type VotingContext struct {
	NewCard     string `json:"new_card"`
	CompareWith string `json:"compare_with"`
	Low         int    `json:"low"`
	High        int    `json:"high"`
}

// Pair reports whether the context concerns the given unordered card pair.
func (v VotingContext) Pair(a, b string) bool {
	return (v.NewCard == a && v.CompareWith == b) || (v.NewCard == b && v.CompareWith == a)
}

// Play represents one ranking session.
//
// The deck snapshot is fixed at creation: catalog changes never affect an
// in-flight play. Version is the optimistic-concurrency counter; every
// successful mutation advances it by exactly one. Expiry is checked lazily on
// load; there is no background sweeper.
type Play struct {
	ID          string         `json:"id"         gorm:"type:char(36);primaryKey"`
	TenantID    string         `json:"tenant_id"  gorm:"type:varchar(64);not null;index:idx_plays_tenant"`
	DeckTag     string         `json:"deck_tag"   gorm:"type:varchar(255);not null"`
	Deck        []string       `json:"deck"       gorm:"type:text;serializer:json"`
	Swipes      []Swipe        `json:"swipes"     gorm:"type:text;serializer:json"`
	Ranking     []string       `json:"ranking"    gorm:"type:text;serializer:json"`
	Votes       []VoteRecord   `json:"votes"      gorm:"type:text;serializer:json"`
	Voting      *VotingContext `json:"voting,omitempty" gorm:"type:text;serializer:json"`
	Status      string         `json:"status"     gorm:"type:varchar(16);not null;check:status IN ('swiping','voting','completed')"`
	Version     int            `json:"version"    gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ExpiresAt   time.Time      `json:"expires_at" gorm:"not null;index"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// TableName returns the database table name for Play.
func (Play) TableName() string { return "plays" }

// CurrentCard returns the first deck card that has not been swiped yet, or
// "" when every card has been processed.
func (p *Play) CurrentCard() string {
	for _, id := range p.Deck {
		if !p.Swiped(id) {
			return id
		}
	}
	return ""
}

// Swiped reports whether cardID already appears in the swipe log.
func (p *Play) Swiped(cardID string) bool {
	for _, s := range p.Swipes {
		if s.CardID == cardID {
			return true
		}
	}
	return false
}

// AllSwiped reports whether every card in the deck snapshot has been swiped.
func (p *Play) AllSwiped() bool {
	return len(p.Swipes) >= len(p.Deck) && p.CurrentCard() == ""
}

// Expired reports whether the play's TTL has elapsed at the given instant.
func (p *Play) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// LastVote returns the most recent vote record, or nil if none was applied.
func (p *Play) LastVote() *VoteRecord {
	if len(p.Votes) == 0 {
		return nil
	}
	return &p.Votes[len(p.Votes)-1]
}

// PlayResult is the immutable snapshot persisted exactly once per completed
// play. PlayID carries a uniqueness constraint so that concurrent or retried
// completion attempts can never produce a second record.
type PlayResult struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	PlayID      string    `json:"play_id"      gorm:"type:char(36);not null;uniqueIndex:ux_results_play"`
	TenantID    string    `json:"tenant_id"    gorm:"type:varchar(64);not null;index"`
	DeckTag     string    `json:"deck_tag"     gorm:"type:varchar(255);not null"`
	Ranking     []string  `json:"ranking"      gorm:"type:text;serializer:json"`
	SwipeCount  int       `json:"swipe_count"  gorm:"not null"`
	VoteCount   int       `json:"vote_count"   gorm:"not null"`
	CompletedAt time.Time `json:"completed_at" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for PlayResult.
func (PlayResult) TableName() string { return "play_results" }
