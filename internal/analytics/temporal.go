package analytics

import (
	"sort"

	"gramlens/internal/model"
)

// PostEngagement pairs a post with its derived metrics for aggregation.
// Callers normalize all timestamps to a single reference zone (UTC)
// before handing posts in; buckets do not re-derive zones.
type PostEngagement struct {
	Post       model.Post
	Engagement model.Engagement
}

// HourBuckets groups posts by hour-of-day [0,23] and returns the
// ranked buckets. Empty input yields an empty slice.
func HourBuckets(pairs []PostEngagement) []model.TemporalBucket {
	return rank(bucketize(pairs, func(p model.Post) int { return p.PostedAt.Hour() }))
}

// WeekdayBuckets groups posts by day-of-week [0,6] (Sunday=0) and
// returns the ranked buckets.
func WeekdayBuckets(pairs []PostEngagement) []model.TemporalBucket {
	return rank(bucketize(pairs, func(p model.Post) int { return int(p.PostedAt.Weekday()) }))
}

func bucketize(pairs []PostEngagement, keyOf func(model.Post) int) []model.TemporalBucket {
	type acc struct {
		count int
		sum   float64
	}
	byKey := make(map[int]*acc)
	for _, pe := range pairs {
		k := keyOf(pe.Post)
		a, ok := byKey[k]
		if !ok {
			a = &acc{}
			byKey[k] = a
		}
		a.count++
		a.sum += pe.Engagement.Rate
	}
	out := make([]model.TemporalBucket, 0, len(byKey))
	for k, a := range byKey {
		out = append(out, model.TemporalBucket{Key: k, Posts: a.count, MeanRate: a.sum / float64(a.count)})
	}
	return out
}

// rank sorts buckets descending by mean rate, ties broken by higher
// post count, then by lower bucket key. The full ordering is total, so
// re-running on the same data yields the same order.
func rank(buckets []model.TemporalBucket) []model.TemporalBucket {
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].MeanRate != buckets[j].MeanRate {
			return buckets[i].MeanRate > buckets[j].MeanRate
		}
		if buckets[i].Posts != buckets[j].Posts {
			return buckets[i].Posts > buckets[j].Posts
		}
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}
