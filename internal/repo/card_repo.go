// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Card model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Decks are never stored; they are a
// derived view over the active cards whose tag set contains a root card's
// name, and this package only reads that view.
//
// Error semantics:
//   - When a card is not found, functions return ErrNotFound.
//   - A (tenant, name) uniqueness violation is returned as ErrDuplicate.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moldovancsaba/narimato-server/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that a uniqueness constraint rejected an insert.
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation detects unique-constraint failures across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

// CreateCard inserts a new Card row owned by the tenant. The card ID is a
// randomly generated UUID and the card starts active. A (tenant, name)
// collision is returned as ErrDuplicate.
func CreateCard(ctx context.Context, db *gorm.DB, tenantID, name, title, imageURL string, tags []string) (*domain.Card, error) {
	c := &domain.Card{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      name,
		Title:     title,
		ImageURL:  imageURL,
		Tags:      tags,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return c, nil
}

// GetCard fetches a single card by ID within a tenant, or ErrNotFound.
func GetCard(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Card, error) {
	var c domain.Card
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCardByName fetches a card by its canonical name within a tenant, or
// ErrNotFound. Deck roots are addressed by name, not ID.
func GetCardByName(ctx context.Context, db *gorm.DB, tenantID, name string) (*domain.Card, error) {
	var c domain.Card
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActiveChildren returns the active cards of a tenant whose tag set
// contains parentTag, ordered by creation time. This is the deck view.
//
// Tags are stored as a JSON string array, so containment is matched on the
// JSON-encoded element ("#tag" -> `"#tag"`). The surrounding quotes prevent
// substring collisions between tags, and tagPattern escapes LIKE wildcards so
// that tags containing % or _ match only themselves.
func ListActiveChildren(ctx context.Context, db *gorm.DB, tenantID, parentTag string) ([]domain.Card, error) {
	var out []domain.Card
	err := db.WithContext(ctx).
		Where(`tenant_id = ? AND active = ? AND tags LIKE ? ESCAPE '\'`, tenantID, true, tagPattern(parentTag)).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// CountActiveChildren returns the number of active cards under parentTag.
// Used for the minimum-playable-deck check without loading rows.
func CountActiveChildren(ctx context.Context, db *gorm.DB, tenantID, parentTag string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Card{}).
		Where(`tenant_id = ? AND active = ? AND tags LIKE ? ESCAPE '\'`, tenantID, true, tagPattern(parentTag)).
		Count(&total).Error
	return total, err
}

// ListActiveCards returns every active card of a tenant. The deck overview
// (root cards with child counts) is derived from this in the service layer.
func ListActiveCards(ctx context.Context, db *gorm.DB, tenantID string) ([]domain.Card, error) {
	var out []domain.Card
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// likeEscaper neutralizes LIKE metacharacters so a pattern matches them
// literally. Queries using the result must carry ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// tagPattern builds the LIKE pattern matching a JSON-encoded tag element.
// The tag is JSON-encoded first so the pattern agrees byte for byte with how
// the tags column serializes its elements, then LIKE-escaped so wildcard
// characters inside a tag (e.g. "#100%") match only themselves.
func tagPattern(tag string) string {
	elem, err := json.Marshal(tag)
	if err != nil {
		elem = []byte(`"` + tag + `"`)
	}
	return `%` + likeEscaper.Replace(string(elem)) + `%`
}
