// Package domain defines the persistence models for cards, plays, ratings,
// and play results. These types are mapped with GORM and form the core data
// layer of the ranking engine.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Card represents a rankable unit of content owned by a tenant's catalog.
// A card optionally references parent cards through its Tags set; the active
// children of a parent form that parent's deck.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - TenantID: owning tenant; part of the per-tenant name uniqueness.
//   - Name: canonical hashtag-style identity (e.g. "#pizza"), unique per tenant.
//   - Title: display text shown while swiping.
//   - ImageURL: optional media payload.
//   - Tags: names of parent cards this card belongs under (JSON array).
//   - Active: inactive cards are excluded from decks and leaderboards.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Card struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	TenantID  string         `json:"tenant_id"  gorm:"type:varchar(64);not null;uniqueIndex:ux_cards_tenant_name,priority:1"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null;uniqueIndex:ux_cards_tenant_name,priority:2"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	ImageURL  string         `json:"image_url,omitempty" gorm:"type:text"`
	Tags      []string       `json:"tags"       gorm:"type:text;serializer:json"`
	Active    bool           `json:"active"     gorm:"not null;default:true;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Card.
func (Card) TableName() string { return "cards" }

// HasTag reports whether the card lists the given parent name in its tag set.
func (c Card) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// GlobalRating is the persistent, cross-session strength estimate for one
// card within one tenant. Ratings are created lazily with a configured seed
// value and updated only by decisive comparisons (votes), never by plain
// swipes.
//
// The (tenant_id, card_id) pair is unique; counters feed the leaderboard
// tie-breaks (win rate, then total games).
type GlobalRating struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	TenantID  string         `json:"tenant_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_ratings_tenant_card,priority:1"`
	CardID    string         `json:"card_id"   gorm:"type:char(36);not null;uniqueIndex:ux_ratings_tenant_card,priority:2"`
	Rating    int            `json:"rating"    gorm:"not null;index"`
	Wins      int            `json:"wins"      gorm:"not null;default:0"`
	Losses    int            `json:"losses"    gorm:"not null;default:0"`
	Games     int            `json:"games"     gorm:"not null;default:0"`
	WinRate   float64        `json:"win_rate"  gorm:"not null;default:0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`
}

// TableName returns the database table name for GlobalRating.
func (GlobalRating) TableName() string { return "global_ratings" }

// RecalcWinRate refreshes WinRate from the win/games counters.
func (r *GlobalRating) RecalcWinRate() {
	if r.Games <= 0 {
		r.WinRate = 0
		return
	}
	r.WinRate = float64(r.Wins) / float64(r.Games)
}
