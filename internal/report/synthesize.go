package report

import (
	"fmt"
	"sort"
	"strings"

	"gramlens/internal/model"
)

// Fixed signal weights: category strength, temporal concentration,
// network reach.
const (
	weightContent = 0.5
	weightTiming  = 0.3
	weightNetwork = 0.2
)

var weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Synthesize combines category, temporal, and network signals into a
// ranked list of actionable recommendations. A category or bucket
// backed by fewer than minSample posts contributes nothing; the signal
// is omitted rather than reported with low confidence. Output is
// deterministic for identical inputs.
func Synthesize(prefs []model.CategoryShare, temporal model.TemporalSummary, network model.NetworkSummary, hashtags []model.HashtagStat, minSample int) []model.Recommendation {
	var recs []model.Recommendation

	totalPosts := 0
	for _, p := range prefs {
		totalPosts += p.Posts
	}

	if len(prefs) > 0 && prefs[0].Posts >= minSample {
		top := prefs[0]
		recs = append(recs, model.Recommendation{
			Text:   fmt.Sprintf("Focus on %s content - highest engagement category (%d%% of liked posts)", top.Category, int(top.Share*100)),
			Signal: "content",
			Score:  weightContent * top.Share,
		})
	}

	if len(temporal.HourBuckets) > 0 && temporal.HourBuckets[0].Posts >= minSample {
		best := temporal.HourBuckets[0]
		recs = append(recs, model.Recommendation{
			Text:   fmt.Sprintf("Optimal posting time: %02d:00 - peak engagement hour", best.Key),
			Signal: "timing",
			Score:  weightTiming * clamp01(best.MeanRate),
		})
	}
	if len(temporal.WeekdayBuckets) > 0 && temporal.WeekdayBuckets[0].Posts >= minSample {
		best := temporal.WeekdayBuckets[0]
		recs = append(recs, model.Recommendation{
			Text:   fmt.Sprintf("Best day to post: %s - strongest mean engagement", weekdayNames[best.Key%7]),
			Signal: "timing",
			Score:  weightTiming * clamp01(best.MeanRate) * 0.9,
		})
	}

	if len(hashtags) > 0 && totalPosts >= minSample {
		names := make([]string, 0, 5)
		for i, h := range hashtags {
			if i == 5 {
				break
			}
			names = append(names, "#"+h.Hashtag)
		}
		share := float64(hashtags[0].Frequency) / float64(totalPosts)
		recs = append(recs, model.Recommendation{
			Text:   fmt.Sprintf("Use hashtags: %s - frequently engaged", strings.Join(names, ", ")),
			Signal: "hashtags",
			Score:  weightContent * clamp01(share) * 0.8,
		})
	}

	if network.TotalDiscovered() > 0 {
		recs = append(recs, model.Recommendation{
			Text: fmt.Sprintf("Network reach: %d accounts across %d levels with combined influence %d followers",
				network.TotalDiscovered(), len(network.Levels), network.TotalInfluence()),
			Signal: "network",
			Score:  weightNetwork * normalizeInfluence(network.TotalInfluence()),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Signal < recs[j].Signal
	})
	return recs
}

// normalizeInfluence maps a follower sum onto [0,1) with diminishing
// returns, so one mega-account does not drown the other signals.
func normalizeInfluence(total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total) / (float64(total) + 100000)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
