package analytics

import (
	"sort"

	"gramlens/internal/category"
	"gramlens/internal/model"
)

// CategoryShares classifies each post through the lexicon and returns
// the ranked category breakdown: post count, share of total, mean
// engagement rate. Ties rank alphabetically so output is stable.
func CategoryShares(pairs []PostEngagement, lx *category.Lexicon) []model.CategoryShare {
	if len(pairs) == 0 {
		return nil
	}
	type acc struct {
		count int
		sum   float64
	}
	byCat := make(map[string]*acc)
	for _, pe := range pairs {
		c := lx.Categorize(pe.Post.Hashtags)
		a, ok := byCat[c]
		if !ok {
			a = &acc{}
			byCat[c] = a
		}
		a.count++
		a.sum += pe.Engagement.Rate
	}
	total := float64(len(pairs))
	out := make([]model.CategoryShare, 0, len(byCat))
	for c, a := range byCat {
		out = append(out, model.CategoryShare{
			Category: c,
			Posts:    a.count,
			Share:    float64(a.count) / total,
			MeanRate: a.sum / float64(a.count),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Posts != out[j].Posts {
			return out[i].Posts > out[j].Posts
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TopHashtags returns the limit most frequent hashtags with their mean
// like count. Ties rank alphabetically.
func TopHashtags(posts []model.Post, limit int) []model.HashtagStat {
	type acc struct {
		count int
		likes int
	}
	byTag := make(map[string]*acc)
	for _, p := range posts {
		for _, h := range p.Hashtags {
			a, ok := byTag[h]
			if !ok {
				a = &acc{}
				byTag[h] = a
			}
			a.count++
			a.likes += p.LikeCount
		}
	}
	out := make([]model.HashtagStat, 0, len(byTag))
	for h, a := range byTag {
		out = append(out, model.HashtagStat{
			Hashtag:   h,
			Frequency: a.count,
			AvgLikes:  float64(a.likes) / float64(a.count),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Hashtag < out[j].Hashtag
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
