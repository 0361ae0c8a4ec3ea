package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/sealhunt/internal/leaderboard"
	"github.com/robalobadob/sealhunt/internal/platform"
	"github.com/robalobadob/sealhunt/internal/player"
	"github.com/robalobadob/sealhunt/internal/season"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testSeason(id string, active bool) season.Season {
	return season.Season{
		ID:        id,
		Name:      "Season " + id,
		StartDate: t0,
		EndDate:   t0.Add(season.DefaultLength),
		IsActive:  active,
		CreatedAt: t0,
	}
}

// runBackendSuite exercises one Backend; newBackend must return an empty store.
func runBackendSuite(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("Ping", func(t *testing.T) {
		if err := newBackend(t).Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
	t.Run("SeasonRoundTrip", func(t *testing.T) { testSeasonRoundTrip(t, newBackend(t)) })
	t.Run("SeasonConflict", func(t *testing.T) { testSeasonConflict(t, newBackend(t)) })
	t.Run("ActivationIsExclusive", func(t *testing.T) { testActivation(t, newBackend(t)) })
	t.Run("PutKeepsCreatedAt", func(t *testing.T) { testPutKeepsCreatedAt(t, newBackend(t)) })
	t.Run("RecordBest", func(t *testing.T) { testRecordBest(t, newBackend(t)) })
	t.Run("RecordBestConcurrent", func(t *testing.T) { testRecordBestConcurrent(t, newBackend(t)) })
	t.Run("RecordScoreOverwrites", func(t *testing.T) { testRecordScore(t, newBackend(t)) })
	t.Run("TopOrderAndPaging", func(t *testing.T) { testTop(t, newBackend(t)) })
	t.Run("SeasonsAreIsolated", func(t *testing.T) { testIsolation(t, newBackend(t)) })
	t.Run("IdentityFirstWriteWins", func(t *testing.T) { testIdentity(t, newBackend(t)) })
	t.Run("RegistryAndService", func(t *testing.T) { testRegistryAndService(t, newBackend(t)) })
	t.Run("DefaultSeasonReactivated", func(t *testing.T) { testDefaultReactivated(t, newBackend(t)) })
}

func testSeasonRoundTrip(t *testing.T, b Backend) {
	ctx := context.Background()
	if _, err := b.ActiveSeason(ctx); !errors.Is(err, season.ErrNotFound) {
		t.Fatalf("empty store active season: %v", err)
	}
	if _, err := b.Season(ctx, "nope"); !errors.Is(err, season.ErrNotFound) {
		t.Fatalf("missing season: %v", err)
	}

	want := testSeason("season1", true)
	if err := b.CreateSeason(ctx, want); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := b.Season(ctx, "season1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != want.ID || got.Name != want.Name || !got.IsActive ||
		!got.StartDate.Equal(want.StartDate) || !got.EndDate.Equal(want.EndDate) || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("round trip: got %+v, want %+v", got, want)
	}
	active, err := b.ActiveSeason(ctx)
	if err != nil || active.ID != "season1" {
		t.Fatalf("active: %+v, %v", active, err)
	}
	all, err := b.Seasons(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list: %+v, %v", all, err)
	}
}

func testSeasonConflict(t *testing.T, b Backend) {
	ctx := context.Background()
	if err := b.CreateSeason(ctx, testSeason("season1", false)); err != nil {
		t.Fatal(err)
	}
	if err := b.CreateSeason(ctx, testSeason("season1", false)); !errors.Is(err, season.ErrConflict) {
		t.Fatalf("duplicate create: got %v, want ErrConflict", err)
	}
}

func testActivation(t *testing.T, b Backend) {
	ctx := context.Background()
	for _, id := range []string{"season1", "season2"} {
		if err := b.CreateSeason(ctx, testSeason(id, true)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := b.PutSeason(ctx, testSeason("season3", true)); err != nil {
		t.Fatal(err)
	}

	all, _ := b.Seasons(ctx)
	var active []string
	for _, s := range all {
		if s.IsActive {
			active = append(active, s.ID)
		}
	}
	if len(active) != 1 || active[0] != "season3" {
		t.Fatalf("active seasons: %v", active)
	}

	off := testSeason("season3", false)
	if err := b.PutSeason(ctx, off); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ActiveSeason(ctx); !errors.Is(err, season.ErrNotFound) {
		t.Fatalf("after deactivation: %v", err)
	}
}

func testPutKeepsCreatedAt(t *testing.T, b Backend) {
	ctx := context.Background()
	if err := b.CreateSeason(ctx, testSeason("season1", false)); err != nil {
		t.Fatal(err)
	}
	upd := testSeason("season1", false)
	upd.Name = "Renamed"
	upd.CreatedAt = t0.Add(48 * time.Hour)
	if err := b.PutSeason(ctx, upd); err != nil {
		t.Fatal(err)
	}
	got, _ := b.Season(ctx, "season1")
	if got.Name != "Renamed" || !got.CreatedAt.Equal(t0) {
		t.Fatalf("after put: %+v", got)
	}
}

func testRecordBest(t *testing.T, b Backend) {
	ctx := context.Background()
	if _, ok, err := b.BestScore(ctx, "s", "p1"); ok || err != nil {
		t.Fatalf("absent score: ok=%v err=%v", ok, err)
	}

	steps := []struct {
		score    int
		improved bool
		best     int
	}{
		{500, true, 500},
		{300, false, 500},
		{500, false, 500},
		{900, true, 900},
	}
	for _, st := range steps {
		improved, err := b.RecordBest(ctx, "s", "p1", st.score)
		if err != nil {
			t.Fatal(err)
		}
		if improved != st.improved {
			t.Errorf("RecordBest(%d) improved = %v, want %v", st.score, improved, st.improved)
		}
		if best, _, _ := b.BestScore(ctx, "s", "p1"); best != st.best {
			t.Errorf("after %d: best = %d, want %d", st.score, best, st.best)
		}
	}
}

func testRecordBestConcurrent(t *testing.T, b Backend) {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			if _, err := b.RecordBest(ctx, "s", "p1", score); err != nil {
				t.Errorf("RecordBest(%d): %v", score, err)
			}
		}(i * 10)
	}
	wg.Wait()
	if best, _, _ := b.BestScore(ctx, "s", "p1"); best != 200 {
		t.Fatalf("best after concurrent writes: %d, want 200", best)
	}
}

func testRecordScore(t *testing.T, b Backend) {
	ctx := context.Background()
	_ = b.RecordScore(ctx, "s", "p1", 900)
	if err := b.RecordScore(ctx, "s", "p1", 100); err != nil {
		t.Fatal(err)
	}
	if best, _, _ := b.BestScore(ctx, "s", "p1"); best != 100 {
		t.Fatalf("unconditional write: got %d", best)
	}
}

func testTop(t *testing.T, b Backend) {
	ctx := context.Background()
	for _, r := range []leaderboard.Ranked{
		{PlayerID: "a", Score: 500},
		{PlayerID: "b", Score: 500},
		{PlayerID: "c", Score: 900},
		{PlayerID: "d", Score: 100},
	} {
		if _, err := b.RecordBest(ctx, "s", r.PlayerID, r.Score); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}

	top, err := b.Top(ctx, "s", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "a", "b", "d"}
	if len(top) != len(want) {
		t.Fatalf("top: %+v", top)
	}
	for i, id := range want {
		if top[i].PlayerID != id {
			t.Fatalf("top order: got %+v, want %v", top, want)
		}
	}

	page, _ := b.Top(ctx, "s", 1, 2)
	if len(page) != 2 || page[0].PlayerID != "a" || page[1].PlayerID != "b" {
		t.Fatalf("page: %+v", page)
	}
	if past, _ := b.Top(ctx, "s", 10, 5); len(past) != 0 {
		t.Fatalf("past the end: %+v", past)
	}
	if n, _ := b.Count(ctx, "s"); n != 4 {
		t.Fatalf("count: %d", n)
	}
}

func testIsolation(t *testing.T, b Backend) {
	ctx := context.Background()
	_, _ = b.RecordBest(ctx, "season1", "p1", 100)
	_, _ = b.RecordBest(ctx, "season2", "p1", 50)
	if s1, _, _ := b.BestScore(ctx, "season1", "p1"); s1 != 100 {
		t.Errorf("season1: %d", s1)
	}
	if s2, _, _ := b.BestScore(ctx, "season2", "p1"); s2 != 50 {
		t.Errorf("season2: %d", s2)
	}
	if n, _ := b.Count(ctx, "season3"); n != 0 {
		t.Errorf("empty season count: %d", n)
	}
}

func testIdentity(t *testing.T, b Backend) {
	ctx := context.Background()
	if _, ok, err := b.Identity(ctx, "p1"); ok || err != nil {
		t.Fatalf("absent identity: ok=%v err=%v", ok, err)
	}
	first := player.Identity{ID: "p1", Username: "ann", FirstName: "Ann", LastName: "Lee", PhotoURL: "https://t.me/i/ann.jpg"}
	if stored, err := b.SetIdentityIfAbsent(ctx, first); err != nil || !stored {
		t.Fatalf("first write: %v %v", stored, err)
	}
	if stored, err := b.SetIdentityIfAbsent(ctx, player.Identity{ID: "p1", Username: "renamed"}); err != nil || stored {
		t.Fatalf("second write: %v %v", stored, err)
	}
	got, ok, _ := b.Identity(ctx, "p1")
	if !ok || got != first {
		t.Fatalf("identity: got %+v, want %+v", got, first)
	}
}

func testRegistryAndService(t *testing.T, b Backend) {
	ctx := context.Background()
	reg := season.NewRegistry(b)
	if id := reg.ActiveID(ctx); id != season.DefaultID {
		t.Fatalf("active id: %s", id)
	}
	if _, err := b.Season(ctx, season.DefaultID); err != nil {
		t.Fatalf("default season not stored: %v", err)
	}

	svc := leaderboard.NewService(leaderboard.NewStore(b), reg, platform.NewMock(), platform.TelegramIdentity{})
	for i, score := range []int{300, 800, 500} {
		id := player.Identity{ID: fmt.Sprintf("p%d", i), Username: fmt.Sprintf("user%d", i)}
		if _, err := svc.Submit(ctx, leaderboard.SubmitRequest{Claimed: id, Score: score}); err != nil {
			t.Fatal(err)
		}
	}
	page, err := svc.Query(ctx, leaderboard.QueryRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || page.Entries[0].Username != "user1" || page.Entries[0].Rank != 1 || page.Season.ID != season.DefaultID {
		t.Fatalf("page: %+v", page)
	}
}

func testDefaultReactivated(t *testing.T, b Backend) {
	ctx := context.Background()
	reg := season.NewRegistry(b)
	reg.ActiveID(ctx)

	s2 := testSeason("season2", true)
	if err := b.CreateSeason(ctx, s2); err != nil {
		t.Fatal(err)
	}
	s2.IsActive = false
	if err := b.PutSeason(ctx, s2); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ActiveSeason(ctx); !errors.Is(err, season.ErrNotFound) {
		t.Fatalf("precondition: %v", err)
	}

	if id := reg.ActiveID(ctx); id != season.DefaultID {
		t.Fatalf("active id: %s", id)
	}
	active, err := b.ActiveSeason(ctx)
	if err != nil || active.ID != season.DefaultID {
		t.Fatalf("active season: %+v %v", active, err)
	}
	all, err := reg.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, s := range all {
		if s.IsActive {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("active seasons: %d", n)
	}
}
