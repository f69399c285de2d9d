package metric

import (
	"fmt"
	"math"

	"gramlens/internal/model"
)

// Extract computes derived engagement metrics for one post given the
// author's follower count. The denominator is floor-clamped to 1 so a
// zero-follower snapshot produces a finite rate rather than an error.
func Extract(p model.Post, followerCount int) (model.Engagement, error) {
	if followerCount < 0 {
		return model.Engagement{}, fmt.Errorf("%w: follower count %d", model.ErrInvalidMetricInput, followerCount)
	}
	if p.LikeCount < 0 || p.CommentCount < 0 {
		return model.Engagement{}, fmt.Errorf("%w: post %s counts likes=%d comments=%d",
			model.ErrInvalidMetricInput, p.ID, p.LikeCount, p.CommentCount)
	}
	denom := followerCount
	if denom < 1 {
		denom = 1
	}
	rate := float64(p.LikeCount+p.CommentCount) / float64(denom)
	return model.Engagement{
		PostID: p.ID,
		Rate:   rate,
		Reach:  reachEstimate(p, followerCount),
	}, nil
}

// reachEstimate approximates unique accounts exposed to a post. A share
// of the author's audience sees any post, and engagement pulls in
// accounts beyond it; never less than the like count itself.
func reachEstimate(p model.Post, followerCount int) int {
	est := int(math.Round(float64(followerCount)*0.35 + float64(p.LikeCount)*1.5))
	if est < p.LikeCount {
		est = p.LikeCount
	}
	return est
}
