package services

import (
	"context"
	"errors"
	"testing"
)

func newCatalogSvc(t *testing.T) (*CatalogService, *RatingService) {
	t.Helper()
	db := newTestDB(t)
	ratings := NewRatingService(db, cardRepoStub{}, ratingRepoStub{})
	return NewCatalogService(db, cardRepoStub{}, ratings), ratings
}

func TestCatalog_CreateCard_NormalizesNameAndTags(t *testing.T) {
	svc, _ := newCatalogSvc(t)
	ctx := context.Background()

	card, err := svc.CreateCard(ctx, "t1", "  Inception ", "Inception (2010)", "", []string{"Movies", "#SciFi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if card.Name != "#inception" {
		t.Fatalf("name = %q, want %q", card.Name, "#inception")
	}
	if len(card.Tags) != 2 || card.Tags[0] != "#movies" || card.Tags[1] != "#scifi" {
		t.Fatalf("tags = %v", card.Tags)
	}

	// Rating row is seeded at creation with the service seed, so a later
	// lookup with a different fallback seed must not re-create it.
	r, err := svc.Ratings.Repo.GetOrCreate(ctx, svc.DB, "t1", card.ID, 555)
	if err != nil {
		t.Fatalf("rating lookup: %v", err)
	}
	if r.Rating != svc.Ratings.Seed {
		t.Fatalf("seeded rating = %d, want %d", r.Rating, svc.Ratings.Seed)
	}
}

func TestCatalog_CreateCard_Invalid(t *testing.T) {
	svc, _ := newCatalogSvc(t)
	ctx := context.Background()

	if _, err := svc.CreateCard(ctx, "t1", "   ", "Title", "", nil); !errors.Is(err, ErrInvalidCard) {
		t.Fatalf("expected ErrInvalidCard for empty name, got %v", err)
	}
	if _, err := svc.CreateCard(ctx, "t1", "name", "   ", "", nil); !errors.Is(err, ErrInvalidCard) {
		t.Fatalf("expected ErrInvalidCard for empty title, got %v", err)
	}
}

func TestCatalog_CreateCard_DuplicateName(t *testing.T) {
	svc, _ := newCatalogSvc(t)
	ctx := context.Background()

	if _, err := svc.CreateCard(ctx, "t1", "dune", "Dune", "", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Case-folded collision.
	if _, err := svc.CreateCard(ctx, "t1", "DUNE", "Dune again", "", nil); !errors.Is(err, ErrDuplicateCard) {
		t.Fatalf("expected ErrDuplicateCard, got %v", err)
	}
	// Same name in another tenant is fine.
	if _, err := svc.CreateCard(ctx, "t2", "dune", "Dune", "", nil); err != nil {
		t.Fatalf("cross-tenant create: %v", err)
	}
}

func TestCatalog_GetCard_NotFound(t *testing.T) {
	svc, _ := newCatalogSvc(t)

	if _, err := svc.GetCard(context.Background(), "t1", "missing"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestCatalog_ListDecks_DerivedFromTags(t *testing.T) {
	svc, _ := newCatalogSvc(t)
	ctx := context.Background()

	if _, err := svc.CreateCard(ctx, "t1", "movies", "Movies", "", nil); err != nil {
		t.Fatalf("root: %v", err)
	}
	if _, err := svc.CreateCard(ctx, "t1", "books", "Books", "", nil); err != nil {
		t.Fatalf("root: %v", err)
	}
	for _, name := range []string{"dune", "tenet", "memento"} {
		if _, err := svc.CreateCard(ctx, "t1", name, name, "", []string{"movies"}); err != nil {
			t.Fatalf("child %s: %v", name, err)
		}
	}
	if _, err := svc.CreateCard(ctx, "t1", "hyperion", "Hyperion", "", []string{"books"}); err != nil {
		t.Fatalf("child: %v", err)
	}

	decks, err := svc.ListDecks(ctx, "t1")
	if err != nil {
		t.Fatalf("list decks: %v", err)
	}
	byTag := make(map[string]DeckInfo, len(decks))
	for _, d := range decks {
		byTag[d.Tag] = d
	}
	if len(decks) != 2 {
		t.Fatalf("decks = %+v, want movies and books only", decks)
	}
	if d := byTag["#movies"]; d.CardCount != 3 || !d.Playable {
		t.Fatalf("movies deck unexpected: %+v", d)
	}
	// One child is below the playable minimum of 2.
	if d := byTag["#books"]; d.CardCount != 1 || d.Playable {
		t.Fatalf("books deck unexpected: %+v", d)
	}
}

func TestNormalizeTag(t *testing.T) {
	cases := map[string]string{
		"movies":    "#movies",
		"#Movies":   "#movies",
		"  ÉCOLE  ": "#école",
		"":          "",
	}
	for in, want := range cases {
		if got := NormalizeTag(in); got != want {
			t.Fatalf("NormalizeTag(%q) = %q, want %q", in, got, want)
		}
	}
}
