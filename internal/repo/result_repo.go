// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the PlayResult
// model, which implements at-most-once results persistence for completed
// plays.
//
// The insert-if-absent contract: an insert that hits the unique play_id index
// is not an error: it means another caller already finalized the same play,
// and the existing record is returned instead. N concurrent finalize attempts
// therefore yield exactly one stored record and N successful reads.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moldovancsaba/narimato-server/internal/domain"
)

// CreateResultIfAbsent inserts the results record for a play, unless one
// already exists. It returns the stored record and whether this call created
// it. Uniqueness is enforced structurally by the index on play_id, not by
// locking.
func CreateResultIfAbsent(ctx context.Context, db *gorm.DB, rec *domain.PlayResult) (*domain.PlayResult, bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			existing, gerr := GetResultByPlay(ctx, db, rec.TenantID, rec.PlayID)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return rec, true, nil
}

// GetResultByPlay fetches the results record for a play, or ErrNotFound.
func GetResultByPlay(ctx context.Context, db *gorm.DB, tenantID, playID string) (*domain.PlayResult, error) {
	var r domain.PlayResult
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND play_id = ?", tenantID, playID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}
