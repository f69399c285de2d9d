package jobs

import (
	"context"
	"errors"
	"time"

	"gramlens/internal/config"
	"gramlens/internal/igclient"
	"gramlens/internal/logging"
	"gramlens/internal/metrics"
	"gramlens/internal/model"
	"gramlens/internal/network"
	"gramlens/internal/report"
	"gramlens/internal/store/sqlitestore"
)

const cursorKey = "collect:last_ts"

// RunCollectOnce resolves the target account, walks its follow graph,
// and stores snapshots, edges, and high-engagement posts from the
// discovered users. A rate-limit rejection is returned to the caller
// after persisting whatever was already collected; the caller paces
// the next run.
func RunCollectOnce(ctx context.Context, db *sqlitestore.DB, client igclient.Client, cfg config.Config) error {
	start := time.Now()
	metrics.CollectRuns.Inc()

	target, err := client.GetUserByUsername(ctx, cfg.Account.Username)
	if err != nil {
		metrics.CollectErrors.Inc()
		return err
	}
	if err := db.PutUserSnapshot(ctx, target); err != nil {
		metrics.CollectErrors.Inc()
		return err
	}

	fetcher := network.FetcherFunc(func(ctx context.Context, userID string) ([]model.User, error) {
		return client.GetFollowing(ctx, userID, cfg.Analysis.MaxUsersPerLevel)
	})
	tctx, cancel := context.WithTimeout(ctx, cfg.Analysis.TraversalTimeout())
	defer cancel()
	res, traverseErr := network.Traverse(tctx, fetcher, target, network.Options{
		MaxDepth:    cfg.Analysis.MaxDepth,
		MaxPerLevel: cfg.Analysis.MaxUsersPerLevel,
	})

	for _, u := range res.Users {
		if err := db.PutUserSnapshot(ctx, u); err != nil {
			metrics.CollectErrors.Inc()
			return err
		}
	}
	if err := db.PutEdges(ctx, res.Edges); err != nil {
		metrics.CollectErrors.Inc()
		return err
	}
	partial := "0"
	if res.Summary.Partial {
		partial = "1"
	}
	_ = db.SaveCursor(ctx, report.PartialCursorKey, partial)
	if traverseErr != nil {
		metrics.CollectErrors.Inc()
		return traverseErr
	}

	if err := collectPosts(ctx, db, client, cfg, append([]model.User{target}, res.Users...)); err != nil {
		metrics.CollectErrors.Inc()
		return err
	}

	_ = db.SaveCursor(ctx, cursorKey, time.Now().UTC().Format(time.RFC3339Nano))
	logging.Info("collect_once", map[string]any{
		"target": target.Username, "discovered": res.Summary.TotalDiscovered(), "partial": res.Summary.Partial,
	})
	metrics.ObserveCollectDuration(start)
	return nil
}

// collectPosts fetches recent posts per user and stores the ones at or
// above the minLikes threshold. Per-user fetch failures are logged and
// skipped; a rate-limit rejection stops the run.
func collectPosts(ctx context.Context, db *sqlitestore.DB, client igclient.Client, cfg config.Config, users []model.User) error {
	for _, u := range users {
		posts, err := client.GetUserPosts(ctx, u.ID, cfg.Analysis.MaxPostsPerUser)
		if err != nil {
			var rl *model.RateLimitedError
			if errors.As(err, &rl) {
				return err
			}
			logging.Warn("user_posts_skipped", map[string]any{"user_id": u.ID, "error": err.Error()})
			continue
		}
		for _, p := range posts {
			if p.LikeCount < cfg.Analysis.MinLikes {
				continue
			}
			if err := db.PutPost(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunCollectLoop runs RunCollectOnce on a ticker until ctx is
// cancelled. A rate-limit rejection delays the next run by the
// suggested backoff instead of the regular interval.
func RunCollectLoop(ctx context.Context, db *sqlitestore.DB, client igclient.Client, cfg config.Config, interval time.Duration) error {
	runOnce := func() time.Duration {
		err := RunCollectOnce(ctx, db, client, cfg)
		if err == nil {
			return interval
		}
		logging.Error("collect_once_error", map[string]any{"error": err.Error()})
		var rl *model.RateLimitedError
		if errors.As(err, &rl) && rl.RetryAfter > interval {
			return rl.RetryAfter
		}
		return interval
	}
	wait := runOnce()
	for {
		select {
		case <-ctx.Done():
			logging.Info("collect_loop_stop", nil)
			return ctx.Err()
		case <-time.After(wait):
			wait = runOnce()
		}
	}
}
