// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// GlobalRating model and the deck leaderboard query.
//
// Rating rows are created lazily with a seed value the first time a card is
// involved in a decisive comparison (or at card creation). Updates are plain
// read-modify-write: concurrent sessions finishing comparisons on the same
// card may interleave, which the engine accepts for this statistical
// aggregate (see services.RatingService).
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moldovancsaba/narimato-server/internal/domain"
)

// GetOrCreateRating returns the rating row for (tenant, card), creating it
// with the given seed when absent. A concurrent creator losing the unique
// index race falls back to reading the winner's row.
func GetOrCreateRating(ctx context.Context, db *gorm.DB, tenantID, cardID string, seed int) (*domain.GlobalRating, error) {
	var r domain.GlobalRating
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND card_id = ?", tenantID, cardID).
		First(&r).Error
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &domain.GlobalRating{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		CardID:    cardID,
		Rating:    seed,
		CreatedAt: time.Now().UTC(),
	}
	if cerr := db.WithContext(ctx).Create(fresh).Error; cerr != nil {
		if isUniqueViolation(cerr) {
			// Lost the creation race; the other writer's row is authoritative.
			err = db.WithContext(ctx).
				Where("tenant_id = ? AND card_id = ?", tenantID, cardID).
				First(&r).Error
			if err != nil {
				return nil, err
			}
			return &r, nil
		}
		return nil, cerr
	}
	return fresh, nil
}

// SaveRating persists the rating value and counters of an existing row.
func SaveRating(ctx context.Context, db *gorm.DB, r *domain.GlobalRating) error {
	return db.WithContext(ctx).
		Model(r).
		Select("Rating", "Wins", "Losses", "Games", "WinRate").
		Updates(domain.GlobalRating{
			Rating:  r.Rating,
			Wins:    r.Wins,
			Losses:  r.Losses,
			Games:   r.Games,
			WinRate: r.WinRate,
		}).Error
}

// ListLeaderboardPage returns a page of rating rows for the given card set,
// ordered by rating descending with win rate and total games as tie-breakers.
// The card set is the deck view computed by the caller; an empty set yields
// an empty page.
func ListLeaderboardPage(ctx context.Context, db *gorm.DB, tenantID string, cardIDs []string, offset, limit int) ([]domain.GlobalRating, error) {
	if len(cardIDs) == 0 {
		return []domain.GlobalRating{}, nil
	}
	var out []domain.GlobalRating
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND card_id IN ?", tenantID, cardIDs).
		Order("rating desc, win_rate desc, games desc, card_id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountLeaderboard returns the number of rating rows for the given card set.
func CountLeaderboard(ctx context.Context, db *gorm.DB, tenantID string, cardIDs []string) (int64, error) {
	if len(cardIDs) == 0 {
		return 0, nil
	}
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.GlobalRating{}).
		Where("tenant_id = ? AND card_id IN ?", tenantID, cardIDs).
		Count(&total).Error
	return total, err
}
