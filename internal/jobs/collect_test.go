package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"gramlens/internal/config"
	"gramlens/internal/model"
	"gramlens/internal/report"
	"gramlens/internal/store/sqlitestore"
)

// fakeClient serves a small static graph with posts.
type fakeClient struct {
	users     map[string]model.User
	following map[string][]model.User
	posts     map[string][]model.Post
	rateLimit bool
}

func (f *fakeClient) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, errors.New("not found")
}

func (f *fakeClient) GetUserPosts(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	if f.rateLimit {
		return nil, &model.RateLimitedError{RetryAfter: time.Minute}
	}
	return f.posts[userID], nil
}

func (f *fakeClient) GetFollowing(ctx context.Context, userID string, limit int) ([]model.User, error) {
	return f.following[userID], nil
}

func (f *fakeClient) GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error) {
	return nil, nil
}

func newFakeClient() *fakeClient {
	target := model.User{ID: "t1", Username: "analyst", FollowerCount: 10000}
	a := model.User{ID: "a1", Username: "creator", FollowerCount: 50000}
	b := model.User{ID: "b1", Username: "painter", FollowerCount: 20000}
	posted := time.Date(2025, 5, 2, 19, 0, 0, 0, time.UTC)
	return &fakeClient{
		users: map[string]model.User{"t1": target, "a1": a, "b1": b},
		following: map[string][]model.User{
			"t1": {a},
			"a1": {b},
		},
		posts: map[string][]model.Post{
			"a1": {
				{ID: "p1", AuthorID: "a1", Hashtags: []string{"travel"}, LikeCount: 15000, PostedAt: posted},
				{ID: "p2", AuthorID: "a1", Hashtags: []string{"gym"}, LikeCount: 50, PostedAt: posted},
			},
			"b1": {
				{ID: "p3", AuthorID: "b1", Hashtags: []string{"art"}, LikeCount: 12000, PostedAt: posted},
			},
		},
	}
}

func collectCfg() config.Config {
	cfg := config.Default()
	cfg.Account.Username = "analyst"
	cfg.Analysis.MinLikes = 10000
	return cfg
}

func TestRunCollectOnceStoresGraphAndPosts(t *testing.T) {
	db, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := RunCollectOnce(ctx, db, newFakeClient(), collectCfg()); err != nil {
		t.Fatal(err)
	}

	edges, err := db.Edges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	posts, err := db.PostsByAuthors(ctx, []string{"a1", "b1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts above minLikes, got %d", len(posts))
	}
	for _, p := range posts {
		if p.LikeCount < 10000 {
			t.Fatalf("stored post below minLikes: %+v", p)
		}
	}
	if v, _ := db.LoadCursor(ctx, report.PartialCursorKey); v != "0" {
		t.Fatalf("expected complete traversal marker, got %q", v)
	}
	if v, _ := db.LoadCursor(ctx, "collect:last_ts"); v == "" {
		t.Fatal("expected collect cursor")
	}
	u, err := db.LatestUser(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if u.FollowerCount != 20000 {
		t.Fatalf("snapshot missing for discovered user: %+v", u)
	}
}

func TestRunCollectOnceSurfacesRateLimit(t *testing.T) {
	db, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	client := newFakeClient()
	client.rateLimit = true

	err = RunCollectOnce(context.Background(), db, client, collectCfg())
	var rl *model.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	// graph collected before the limit hit is kept
	edges, _ := db.Edges(context.Background())
	if len(edges) == 0 {
		t.Fatal("expected edges persisted before rate limit")
	}
}

func TestCollectThenReportEndToEnd(t *testing.T) {
	db, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	cfg := collectCfg()
	cfg.Analysis.MinSample = 1

	if err := RunCollectOnce(ctx, db, newFakeClient(), cfg); err != nil {
		t.Fatal(err)
	}
	r, err := report.Generate(ctx, db, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if r.NetworkSummary.TotalDiscovered() != 2 {
		t.Fatalf("expected 2 discovered users, got %d", r.NetworkSummary.TotalDiscovered())
	}
	if len(r.ContentPreferences) == 0 {
		t.Fatal("expected content preferences from collected posts")
	}
	if len(r.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
}
