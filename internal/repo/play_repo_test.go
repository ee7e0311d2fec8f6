package repo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moldovancsaba/narimato-server/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.Card{}, &domain.Play{}, &domain.GlobalRating{}, &domain.PlayResult{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCreatePlay_Defaults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := CreatePlay(ctx, db, "t1", "#movies", []string{"a", "b", "c"}, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" || p.Version != 0 || p.Status != domain.PhaseSwiping {
		t.Fatalf("fresh play unexpected: %+v", p)
	}
	if p.Swipes == nil || p.Ranking == nil || p.Votes == nil {
		t.Fatalf("logs must be initialized empty, got nils: %+v", p)
	}
	if !p.ExpiresAt.After(time.Now().UTC()) {
		t.Fatalf("expiry not in the future: %v", p.ExpiresAt)
	}

	got, err := GetPlay(ctx, db, "t1", p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got.Deck, []string{"a", "b", "c"}) {
		t.Fatalf("deck round-trip mismatch: %v", got.Deck)
	}
}

func TestGetPlay_TenantScoped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := CreatePlay(ctx, db, "t1", "#movies", []string{"a", "b"}, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := GetPlay(ctx, db, "t2", p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestSavePlay_VersionConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := CreatePlay(ctx, db, "t1", "#movies", []string{"a", "b"}, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Swipes = append(p.Swipes, domain.Swipe{CardID: "a", Direction: domain.DirectionLeft, At: time.Now().UTC()})
	if err := SavePlay(ctx, db, p, 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.Version != 1 {
		t.Fatalf("version = %d, want 1", p.Version)
	}

	// A second writer still holding version 0 loses.
	stale, err := GetPlay(ctx, db, "t1", p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	stale.Version = 0
	stale.Swipes = append(stale.Swipes, domain.Swipe{CardID: "b", Direction: domain.DirectionLeft})
	if err := SavePlay(ctx, db, stale, 0); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	// The winning write is intact.
	cur, err := GetPlay(ctx, db, "t1", p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cur.Swipes) != 1 || cur.Swipes[0].CardID != "a" || cur.Version != 1 {
		t.Fatalf("state after lost race unexpected: %+v", cur)
	}
}

func TestSavePlay_ClearsVotingContext(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := CreatePlay(ctx, db, "t1", "#movies", []string{"a", "b"}, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Voting = &domain.VotingContext{NewCard: "b", CompareWith: "a", Low: 0, High: 1}
	p.Status = domain.PhaseVoting
	if err := SavePlay(ctx, db, p, 0); err != nil {
		t.Fatalf("save with voting: %v", err)
	}

	got, err := GetPlay(ctx, db, "t1", p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Voting == nil || got.Voting.NewCard != "b" || got.Voting.High != 1 {
		t.Fatalf("voting context round-trip failed: %+v", got.Voting)
	}

	// Resolving the comparison clears the context; the zero value must be
	// written, not skipped.
	got.Voting = nil
	got.Status = domain.PhaseSwiping
	got.Ranking = []string{"b", "a"}
	if err := SavePlay(ctx, db, got, 1); err != nil {
		t.Fatalf("save cleared: %v", err)
	}

	final, err := GetPlay(ctx, db, "t1", p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Voting != nil {
		t.Fatalf("voting context not cleared: %+v", final.Voting)
	}
	if !reflect.DeepEqual(final.Ranking, []string{"b", "a"}) {
		t.Fatalf("ranking = %v", final.Ranking)
	}
}

func TestSavePlay_CompletedAtPersists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := CreatePlay(ctx, db, "t1", "#movies", []string{"a"}, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	p.Status = domain.PhaseCompleted
	p.CompletedAt = &now
	if err := SavePlay(ctx, db, p, 0); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := GetPlay(ctx, db, "t1", p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.PhaseCompleted || got.CompletedAt == nil {
		t.Fatalf("completion not persisted: %+v", got)
	}
}
