package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"gramlens/internal/analytics"
	"gramlens/internal/config"
	"gramlens/internal/logging"
	"gramlens/internal/metric"
	"gramlens/internal/metrics"
	"gramlens/internal/model"
	"gramlens/internal/store/sqlitestore"
)

// PartialCursorKey is set by the collector when a traversal pruned
// branches or hit its deadline, so the report can flag the network
// summary as partial.
const PartialCursorKey = "network:partial"

// Generate runs the aggregation pipeline over stored data and appends
// the resulting report. Apart from ID and GeneratedAt the report is a
// pure function of the stored posts, snapshots, and edges: regenerating
// on unchanged data yields identical content. An empty dataset is
// recorded in Notes, not raised.
func Generate(ctx context.Context, db *sqlitestore.DB, cfg config.Config) (model.Report, error) {
	start := time.Now()
	metrics.ReportRuns.Inc()

	r, err := Build(ctx, db, cfg)
	if err != nil {
		return model.Report{}, err
	}
	if err := db.AppendReport(ctx, r); err != nil {
		return model.Report{}, err
	}
	metrics.ObserveReportDuration(start)
	logging.Info("report_generated", map[string]any{
		"user_id": r.UserID, "recommendations": len(r.Recommendations),
	})
	return r, nil
}

// Build assembles a report from stored data without persisting it.
func Build(ctx context.Context, db *sqlitestore.DB, cfg config.Config) (model.Report, error) {
	target, err := db.LatestUserByUsername(ctx, cfg.Account.Username)
	if err != nil {
		return model.Report{}, fmt.Errorf("resolve target %q: %w", cfg.Account.Username, err)
	}

	summary, authorIDs, err := networkFromStore(ctx, db)
	if err != nil {
		return model.Report{}, err
	}
	if v, _ := db.LoadCursor(ctx, PartialCursorKey); v == "1" {
		summary.Partial = true
	}

	posts, err := db.PostsByAuthors(ctx, append([]string{target.ID}, authorIDs...))
	if err != nil {
		return model.Report{}, err
	}
	// minLikes is a pre-aggregation filter: posts below it never reach
	// metric computation.
	kept := posts[:0]
	for _, p := range posts {
		if p.LikeCount >= cfg.Analysis.MinLikes {
			kept = append(kept, p)
		}
	}
	posts = kept

	followerCounts, err := authorFollowerCounts(ctx, db, posts)
	if err != nil {
		return model.Report{}, err
	}

	var pairs []analytics.PostEngagement
	for _, p := range posts {
		eng, err := metric.Extract(p, followerCounts[p.AuthorID])
		if err != nil {
			if errors.Is(err, model.ErrInvalidMetricInput) {
				metrics.SkippedPosts.Inc()
				logging.Warn("post_skipped", map[string]any{"post_id": p.ID, "error": err.Error()})
				continue
			}
			return model.Report{}, err
		}
		pairs = append(pairs, analytics.PostEngagement{Post: p, Engagement: eng})
	}

	lx := cfg.BuildLexicon()
	prefs := analytics.CategoryShares(pairs, lx)
	temporal := model.TemporalSummary{
		HourBuckets:    analytics.HourBuckets(pairs),
		WeekdayBuckets: analytics.WeekdayBuckets(pairs),
		BestHour:       -1,
		BestWeekday:    -1,
	}
	if len(temporal.HourBuckets) > 0 {
		temporal.BestHour = temporal.HourBuckets[0].Key
	}
	if len(temporal.WeekdayBuckets) > 0 {
		temporal.BestWeekday = temporal.WeekdayBuckets[0].Key
	}
	analyzed := make([]model.Post, len(pairs))
	for i, pe := range pairs {
		analyzed[i] = pe.Post
	}
	tags := analytics.TopHashtags(analyzed, cfg.Analysis.TopHashtags)

	r := model.Report{
		ID:                      uuid.NewString(),
		UserID:                  target.ID,
		Username:                target.Username,
		GeneratedAt:             time.Now().UTC(),
		ContentPreferences:      prefs,
		TemporalRecommendations: temporal,
		NetworkSummary:          summary,
		HashtagStats:            tags,
		Recommendations:         Synthesize(prefs, temporal, summary, tags, cfg.Analysis.MinSample),
	}
	if len(pairs) == 0 {
		r.Notes = append(r.Notes, model.ErrEmptyDataset.Error())
		logging.Warn("report_empty_dataset", map[string]any{"user_id": target.ID})
	}
	return r, nil
}

// networkFromStore rebuilds the per-level network summary from stored
// follow edges. Each user counts at its shortest discovered depth;
// level influence sums the latest known follower counts.
func networkFromStore(ctx context.Context, db *sqlitestore.DB) (model.NetworkSummary, []string, error) {
	edges, err := db.Edges(ctx)
	if err != nil {
		return model.NetworkSummary{}, nil, err
	}
	minDepth := make(map[string]int)
	for _, e := range edges {
		if d, ok := minDepth[e.TargetID]; !ok || e.Depth < d {
			minDepth[e.TargetID] = e.Depth
		}
	}
	byDepth := make(map[int][]string)
	var allIDs []string
	for id, d := range minDepth {
		byDepth[d] = append(byDepth[d], id)
		allIDs = append(allIDs, id)
	}
	sort.Strings(allIDs)

	counts, err := db.FollowerCounts(ctx, allIDs)
	if err != nil {
		return model.NetworkSummary{}, nil, err
	}

	depths := make([]int, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	var summary model.NetworkSummary
	for _, d := range depths {
		ids := byDepth[d]
		sort.Strings(ids)
		level := model.NetworkLevel{Depth: d, UserIDs: ids}
		for _, id := range ids {
			level.Influence += int64(counts[id])
		}
		summary.Levels = append(summary.Levels, level)
	}
	return summary, allIDs, nil
}

func authorFollowerCounts(ctx context.Context, db *sqlitestore.DB, posts []model.Post) (map[string]int, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID)
	}
	return db.FollowerCounts(ctx, ids)
}
