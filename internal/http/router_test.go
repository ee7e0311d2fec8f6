package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moldovancsaba/narimato-server/internal/config"
	"github.com/moldovancsaba/narimato-server/internal/domain"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:httpapi_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Card{}, &domain.Play{}, &domain.GlobalRating{}, &domain.PlayResult{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cfg := config.Config{
		Port:           "0",
		GinMode:        gin.TestMode,
		APIBasePath:    "/api/v1",
		EloSeed:        1000,
		EloKFactor:     32,
		EloDivisor:     400,
		PlayTTL:        time.Hour,
		MinDeckSize:    2,
		RateRPS:        10_000,
		RateBurst:      10_000,
		SwaggerEnabled: false,
	}
	cfg.OTEL.ServiceName = "narimato-test"

	r := gin.New()
	RegisterRoutes(r, db, cfg)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func createCard(t *testing.T, r *gin.Engine, name, title string, tags []string) map[string]any {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/cards", map[string]any{
		"name":  name,
		"title": title,
		"tags":  tags,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create card %q: status = %d (%s)", name, w.Code, w.Body.String())
	}
	return decode[map[string]any](t, w)
}

func TestRouter_HealthAndFallbacks(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("no route: status = %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["code"] != "not_found" {
		t.Fatalf("no route envelope unexpected: %v", body)
	}

	w = doJSON(t, r, http.MethodDelete, "/health", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("no method: status = %d", w.Code)
	}
}

func TestRouter_RequestAndTenantHeaders(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Tenant-ID", "Acme")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID header missing")
	}
	if got := w.Header().Get("X-Tenant-ID"); got != "acme" {
		t.Fatalf("X-Tenant-ID = %q, want acme", got)
	}
}

func TestRouter_CardValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/cards", map[string]any{"name": "solo"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing title: status = %d", w.Code)
	}

	createCard(t, r, "solo", "Solo", nil)
	w = doJSON(t, r, http.MethodPost, "/api/v1/cards", map[string]any{"name": "SOLO", "title": "Again"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: status = %d (%s)", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/cards/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad card id: status = %d", w.Code)
	}
}

// outcome mirrors the swipe/vote response shape for test decoding.
type outcome struct {
	Phase        string `json:"phase"`
	RequiresVote bool   `json:"requires_vote"`
	CardA        string `json:"card_a"`
	CardB        string `json:"card_b"`
	Completed    bool   `json:"completed"`
	Version      int    `json:"version"`
}

type startResp struct {
	PlayID  string   `json:"play_id"`
	Cards   []string `json:"cards"`
	Total   int      `json:"total"`
	Phase   string   `json:"phase"`
	Version int      `json:"version"`
}

// seedDeck creates a root card and n children tagged with it.
func seedDeck(t *testing.T, r *gin.Engine, tag string, n int) {
	t.Helper()
	createCard(t, r, tag, "Deck "+tag, nil)
	for i := 0; i < n; i++ {
		createCard(t, r, fmt.Sprintf("%s-card-%d", tag, i), fmt.Sprintf("Card %d", i), []string{tag})
	}
}

func TestRouter_FullPlayFlow(t *testing.T) {
	r := newTestRouter(t)
	seedDeck(t, r, "movies", 4)

	w := doJSON(t, r, http.MethodPost, "/api/v1/decks/movies/plays", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("start: status = %d (%s)", w.Code, w.Body.String())
	}
	start := decode[startResp](t, w)
	if start.Total != 4 || start.Phase != domain.PhaseSwiping || start.Version != 0 {
		t.Fatalf("start response unexpected: %+v", start)
	}

	// Accept every card, resolving comparisons in favor of card_a, until done.
	version := start.Version
	next := 0
	completed := false
	for steps := 0; steps < 100 && !completed; steps++ {
		w = doJSON(t, r, http.MethodPost, "/api/v1/plays/"+start.PlayID+"/swipe", map[string]any{
			"card_id":   start.Cards[next],
			"direction": "right",
			"version":   version,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("swipe %d: status = %d (%s)", next, w.Code, w.Body.String())
		}
		o := decode[outcome](t, w)
		version = o.Version
		for o.RequiresVote {
			w = doJSON(t, r, http.MethodPost, "/api/v1/plays/"+start.PlayID+"/vote", map[string]any{
				"card_a":  o.CardA,
				"card_b":  o.CardB,
				"winner":  o.CardA,
				"version": version,
			})
			if w.Code != http.StatusOK {
				t.Fatalf("vote: status = %d (%s)", w.Code, w.Body.String())
			}
			o = decode[outcome](t, w)
			version = o.Version
		}
		completed = o.Completed
		next++
	}
	if !completed {
		t.Fatal("play did not complete")
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/plays/"+start.PlayID+"/results", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("results: status = %d (%s)", w.Code, w.Body.String())
	}
	res := decode[map[string]any](t, w)
	ranking, _ := res["ranking"].([]any)
	if len(ranking) != 4 {
		t.Fatalf("ranking length = %d, want 4 (%v)", len(ranking), res)
	}

	// Stale version retry must conflict, not mutate.
	w = doJSON(t, r, http.MethodPost, "/api/v1/plays/"+start.PlayID+"/swipe", map[string]any{
		"card_id":   start.Cards[0],
		"direction": "right",
		"version":   0,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("stale swipe: status = %d (%s)", w.Code, w.Body.String())
	}
}

func TestRouter_LeaderboardAndETag(t *testing.T) {
	r := newTestRouter(t)
	seedDeck(t, r, "books", 3)

	w := doJSON(t, r, http.MethodGet, "/api/v1/decks/books/leaderboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard: status = %d (%s)", w.Code, w.Body.String())
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("ETag header missing")
	}
	var resp struct {
		DeckTag string `json:"deck_tag"`
		Entries []struct {
			CardID string `json:"card_id"`
			Rating int    `json:"rating"`
		} `json:"entries"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DeckTag != "#books" || resp.Pagination.Total != 3 || len(resp.Entries) != 3 {
		t.Fatalf("leaderboard unexpected: %+v", resp)
	}
	for _, e := range resp.Entries {
		if e.Rating != 1000 {
			t.Fatalf("fresh rating = %d, want seed 1000", e.Rating)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/books/leaderboard", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional: status = %d, want 304", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/decks/missing/leaderboard", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing deck: status = %d", w.Code)
	}
}

func TestRouter_DeckOverviewAndTooSmall(t *testing.T) {
	r := newTestRouter(t)
	createCard(t, r, "tiny", "Tiny deck", nil)
	createCard(t, r, "only-child", "Only child", []string{"tiny"})

	w := doJSON(t, r, http.MethodGet, "/api/v1/decks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("decks: status = %d (%s)", w.Code, w.Body.String())
	}
	var decks struct {
		Decks []struct {
			Tag       string `json:"tag"`
			CardCount int    `json:"card_count"`
			Playable  bool   `json:"playable"`
		} `json:"decks"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &decks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decks.Total != 1 || decks.Decks[0].Tag != "#tiny" || decks.Decks[0].CardCount != 1 || decks.Decks[0].Playable {
		t.Fatalf("deck overview unexpected: %+v", decks)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/decks/tiny/plays", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("too small: status = %d (%s)", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/decks/ghost/plays", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing deck: status = %d (%s)", w.Code, w.Body.String())
	}
}
