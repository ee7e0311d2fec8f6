// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Play
// aggregate, including the optimistic-concurrency save used by the session
// state machine.
//
// Error semantics:
//   - When a play is not found, functions return ErrNotFound.
//   - A save whose expected version no longer matches the stored row returns
//     ErrVersionConflict; the row is left untouched.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moldovancsaba/narimato-server/internal/domain"
)

// ErrVersionConflict indicates that an optimistic-concurrency save lost the
// race: the stored play's version differs from the caller's expected version.
// Callers are expected to re-fetch and retry.
var ErrVersionConflict = errors.New("play version conflict")

// CreatePlay inserts a fresh play in the swiping phase with version 0 and the
// given deck snapshot. The snapshot is immutable for the lifetime of the play.
func CreatePlay(ctx context.Context, db *gorm.DB, tenantID, deckTag string, deck []string, ttl time.Duration) (*domain.Play, error) {
	now := time.Now().UTC()
	p := &domain.Play{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		DeckTag:   deckTag,
		Deck:      deck,
		Swipes:    []domain.Swipe{},
		Ranking:   []string{},
		Votes:     []domain.VoteRecord{},
		Status:    domain.PhaseSwiping,
		Version:   0,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPlay fetches a play by ID within a tenant, or ErrNotFound. Expiry is not
// checked here; the service layer enforces it lazily so that the error
// taxonomy stays in one place.
func GetPlay(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Play, error) {
	var p domain.Play
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePlay writes the mutable fields of the play conditioned on the stored
// version still equalling expectedVersion, and advances the version by one.
// If the condition fails (concurrent writer won, or the play vanished) it
// returns ErrVersionConflict and the in-memory play is left at its new state
// only on success.
func SavePlay(ctx context.Context, db *gorm.DB, p *domain.Play, expectedVersion int) error {
	next := expectedVersion + 1
	// Struct-based Updates so the JSON serializer applies to the log columns;
	// Select forces zero values (e.g. a cleared voting context) to be written.
	res := db.WithContext(ctx).
		Model(p).
		Where("version = ?", expectedVersion).
		Select("Swipes", "Ranking", "Votes", "Voting", "Status", "Version", "CompletedAt").
		Updates(domain.Play{
			Swipes:      p.Swipes,
			Ranking:     p.Ranking,
			Votes:       p.Votes,
			Voting:      p.Voting,
			Status:      p.Status,
			Version:     next,
			CompletedAt: p.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	p.Version = next
	return nil
}

// NewPlayID exposes the ID scheme used for plays, for callers that must
// reference a play before persisting it.
func NewPlayID() string { return uuid.NewString() }
