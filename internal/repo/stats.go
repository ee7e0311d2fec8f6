// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/moldovancsaba/narimato-server/internal/domain"
)

// LeaderboardStats returns aggregate metadata for the rating rows of a card
// set: the total number of rows and the maximum UpdatedAt timestamp among
// them. The pair changes whenever any rating in the deck moves, which makes
// it a cheap ETag input for leaderboard responses.
//
// When the set has no rating rows, the returned count is 0 and maxUpdatedAt
// is nil.
func LeaderboardStats(ctx context.Context, db *gorm.DB, tenantID string, cardIDs []string) (count int64, maxUpdatedAt *time.Time, err error) {
	if len(cardIDs) == 0 {
		return 0, nil, nil
	}
	q := db.WithContext(ctx).
		Model(&domain.GlobalRating{}).
		Where("tenant_id = ? AND card_id IN ?", tenantID, cardIDs)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
