package report

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gramlens/internal/config"
	"gramlens/internal/model"
	"gramlens/internal/store/sqlitestore"
)

func seedTarget(t *testing.T, db *sqlitestore.DB) model.User {
	t.Helper()
	target := model.User{ID: "t1", Username: "analyst", FollowerCount: 10000,
		CollectedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
	if err := db.PutUserSnapshot(context.Background(), target); err != nil {
		t.Fatal(err)
	}
	return target
}

func testCfg() config.Config {
	cfg := config.Default()
	cfg.Account.Username = "analyst"
	cfg.Analysis.MinLikes = 100
	cfg.Analysis.MinSample = 2
	return cfg
}

func TestGenerateEmptyDatasetRecordedNotRaised(t *testing.T) {
	db, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	seedTarget(t, db)

	r, err := Generate(context.Background(), db, testCfg())
	if err != nil {
		t.Fatalf("empty dataset must not fail generation: %v", err)
	}
	if len(r.ContentPreferences) != 0 {
		t.Fatalf("expected empty content preferences, got %v", r.ContentPreferences)
	}
	found := false
	for _, n := range r.Notes {
		if strings.Contains(n, "empty dataset") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected empty-dataset note, got %v", r.Notes)
	}
	// report was still persisted
	if _, err := db.LastReport(context.Background(), "t1"); err != nil {
		t.Fatalf("report not stored: %v", err)
	}
}

func TestGenerateFullPipeline(t *testing.T) {
	db, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	target := seedTarget(t, db)

	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	author := model.User{ID: "a1", Username: "creator", FollowerCount: 50000, CollectedAt: now}
	if err := db.PutUserSnapshot(ctx, author); err != nil {
		t.Fatal(err)
	}
	if err := db.PutEdges(ctx, []model.FollowEdge{
		{SourceID: target.ID, TargetID: author.ID, Depth: 1, DiscoveredAt: now},
	}); err != nil {
		t.Fatal(err)
	}
	posts := []model.Post{
		{ID: "p1", AuthorID: "a1", Hashtags: []string{"travel"}, LikeCount: 5000, CommentCount: 100, PostedAt: now.Add(19 * time.Hour)},
		{ID: "p2", AuthorID: "a1", Hashtags: []string{"wanderlust"}, LikeCount: 7000, CommentCount: 50, PostedAt: now.Add(43 * time.Hour)},
		{ID: "p3", AuthorID: "a1", Hashtags: []string{"gym"}, LikeCount: 2000, CommentCount: 10, PostedAt: now.Add(19 * time.Hour)},
		// below minLikes: must be filtered before metrics
		{ID: "p4", AuthorID: "a1", Hashtags: []string{"travel"}, LikeCount: 10, PostedAt: now},
	}
	for _, p := range posts {
		if err := db.PutPost(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	r, err := Generate(ctx, db, testCfg())
	if err != nil {
		t.Fatal(err)
	}
	if r.UserID != "t1" || r.Username != "analyst" {
		t.Fatalf("wrong target %s/%s", r.UserID, r.Username)
	}
	if len(r.ContentPreferences) == 0 || r.ContentPreferences[0].Category != "travel" {
		t.Fatalf("expected travel on top, got %v", r.ContentPreferences)
	}
	total := 0
	for _, c := range r.ContentPreferences {
		total += c.Posts
	}
	if total != 3 {
		t.Fatalf("minLikes filter not applied: %d posts analyzed", total)
	}
	if r.TemporalRecommendations.BestHour != 19 {
		t.Fatalf("expected best hour 19, got %d", r.TemporalRecommendations.BestHour)
	}
	if r.NetworkSummary.TotalDiscovered() != 1 || r.NetworkSummary.TotalInfluence() != 50000 {
		t.Fatalf("unexpected network summary %+v", r.NetworkSummary)
	}
	if len(r.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if len(r.Notes) != 0 {
		t.Fatalf("unexpected notes %v", r.Notes)
	}
}

func TestGenerateDeterministicModuloIDAndTime(t *testing.T) {
	db, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	seedTarget(t, db)
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	_ = db.PutUserSnapshot(ctx, model.User{ID: "a1", Username: "creator", FollowerCount: 50000, CollectedAt: now})
	_ = db.PutEdges(ctx, []model.FollowEdge{{SourceID: "t1", TargetID: "a1", Depth: 1, DiscoveredAt: now}})
	for i, tags := range [][]string{{"travel"}, {"trip"}, {"foodie"}} {
		_ = db.PutPost(ctx, model.Post{
			ID: string(rune('a' + i)), AuthorID: "a1", Hashtags: tags,
			LikeCount: 1000 * (i + 1), CommentCount: 10, PostedAt: now.Add(time.Duration(i) * time.Hour),
		})
	}

	first, err := Generate(ctx, db, testCfg())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Generate(ctx, db, testCfg())
	if err != nil {
		t.Fatal(err)
	}
	first.ID, second.ID = "", ""
	first.GeneratedAt, second.GeneratedAt = time.Time{}, time.Time{}
	b1, _ := jsonMarshal(first)
	b2, _ := jsonMarshal(second)
	if b1 != b2 {
		t.Fatalf("reports differ on unchanged input:\n%s\n%s", b1, b2)
	}
}

func jsonMarshal(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func TestGeneratePartialFlagFromCursor(t *testing.T) {
	db, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	seedTarget(t, db)
	if err := db.SaveCursor(ctx, PartialCursorKey, "1"); err != nil {
		t.Fatal(err)
	}
	r, err := Generate(ctx, db, testCfg())
	if err != nil {
		t.Fatal(err)
	}
	if !r.NetworkSummary.Partial {
		t.Fatal("expected partial network summary flag")
	}
}
