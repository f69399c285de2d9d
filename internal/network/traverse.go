package network

import (
	"context"
	"errors"
	"sync"
	"time"

	"gramlens/internal/logging"
	"gramlens/internal/metrics"
	"gramlens/internal/model"
)

// Fetcher is the follow-graph accessor capability the engine needs.
// Implementations fetch the accounts a user follows.
type Fetcher interface {
	Neighbors(ctx context.Context, userID string) ([]model.User, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, userID string) ([]model.User, error)

func (f FetcherFunc) Neighbors(ctx context.Context, userID string) ([]model.User, error) {
	return f(ctx, userID)
}

// Options bound a traversal. Zero values fall back to the defaults
// below; the config layer supplies real values.
type Options struct {
	MaxDepth    int
	MaxPerLevel int
	MaxAttempts int
	BaseBackoff time.Duration
}

const (
	defaultMaxDepth    = 2
	defaultMaxPerLevel = 50
	defaultMaxAttempts = 3
	defaultBaseBackoff = 200 * time.Millisecond
)

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	if o.MaxPerLevel <= 0 {
		o.MaxPerLevel = defaultMaxPerLevel
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = defaultBaseBackoff
	}
	return o
}

// Result carries the per-level summary plus the discovered follow
// edges, ready for persistence.
type Result struct {
	Summary model.NetworkSummary
	Users   []model.User
	Edges   []model.FollowEdge
}

// Traverse explores the follow graph breadth-first from root. Per
// level it admits at most MaxPerLevel users in discovery order, never
// revisits a user already seen at an earlier or equal depth, and stops
// at MaxDepth. Neighbor fetches within one level run concurrently, but
// a level never starts before the previous one has fully settled,
// retries included. A node whose fetch keeps failing after MaxAttempts
// is pruned rather than aborting the traversal; pruning and deadline
// expiry mark the summary Partial. A rate-limit rejection stops the
// traversal and is returned alongside the partial result so the caller
// can pace itself.
func Traverse(ctx context.Context, f Fetcher, root model.User, opts Options) (Result, error) {
	opts = opts.withDefaults()
	now := time.Now().UTC()

	visited := map[string]struct{}{root.ID: {}}
	frontier := []model.User{root}
	res := Result{}

	for depth := 1; depth <= opts.MaxDepth && len(frontier) > 0; depth++ {
		if ctx.Err() != nil {
			res.Summary.Partial = true
			return res, nil
		}
		lists, pruned, rlErr := fetchLevel(ctx, f, frontier, opts)
		if pruned {
			res.Summary.Partial = true
		}

		level := model.NetworkLevel{Depth: depth}
		var next []model.User
		for i, source := range frontier {
			for _, u := range lists[i] {
				if len(level.UserIDs) >= opts.MaxPerLevel {
					break
				}
				if _, ok := visited[u.ID]; ok {
					continue
				}
				visited[u.ID] = struct{}{}
				level.UserIDs = append(level.UserIDs, u.ID)
				level.Influence += int64(u.FollowerCount)
				res.Users = append(res.Users, u)
				res.Edges = append(res.Edges, model.FollowEdge{
					SourceID:     source.ID,
					TargetID:     u.ID,
					Depth:        depth,
					DiscoveredAt: now,
				})
				next = append(next, u)
				metrics.NetworkNodes.Inc()
			}
		}
		if len(level.UserIDs) > 0 {
			res.Summary.Levels = append(res.Summary.Levels, level)
		}
		if rlErr != nil {
			res.Summary.Partial = true
			return res, rlErr
		}
		if ctx.Err() != nil {
			res.Summary.Partial = true
			return res, nil
		}
		frontier = next
	}
	return res, nil
}

// fetchLevel fetches neighbor lists for every frontier node
// concurrently and returns them indexed by frontier position, so
// admission order stays deterministic. pruned reports whether any node
// was given up on after retries.
func fetchLevel(ctx context.Context, f Fetcher, frontier []model.User, opts Options) (lists [][]model.User, pruned bool, rlErr error) {
	lists = make([][]model.User, len(frontier))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, u := range frontier {
		wg.Add(1)
		go func(i int, u model.User) {
			defer wg.Done()
			neighbors, err := fetchWithRetry(ctx, f, u.ID, opts)
			if err == nil {
				lists[i] = neighbors
				return
			}
			mu.Lock()
			defer mu.Unlock()
			var rl *model.RateLimitedError
			if errors.As(err, &rl) {
				rlErr = err
				return
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return
			}
			pruned = true
			logging.Error("network_node_pruned", map[string]any{"user_id": u.ID, "error": err.Error()})
		}(i, u)
	}
	wg.Wait()
	return lists, pruned, rlErr
}

// fetchWithRetry retries a single node lookup on transient failures
// with exponential backoff. Rate-limit rejections and context expiry
// are returned immediately; everything else is wrapped as a
// GraphAccessError once attempts run out.
func fetchWithRetry(ctx context.Context, f Fetcher, userID string, opts Options) ([]model.User, error) {
	backoff := opts.BaseBackoff
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		neighbors, err := f.Neighbors(ctx, userID)
		if err == nil {
			return neighbors, nil
		}
		var rl *model.RateLimitedError
		if errors.As(err, &rl) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if attempt == opts.MaxAttempts {
			break
		}
		metrics.IncAPIRetry("neighbors")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, &model.GraphAccessError{UserID: userID, Err: lastErr}
}
