package model

import "time"

// MediaType is the kind of media a post carries.
type MediaType string

const (
	MediaPhoto    MediaType = "photo"
	MediaVideo    MediaType = "video"
	MediaCarousel MediaType = "carousel"
)

// User is a snapshot of an Instagram account at collection time.
// Snapshots append; history is never overwritten.
type User struct {
	ID             string
	Username       string
	FullName       string
	FollowerCount  int
	FollowingCount int
	IsPrivate      bool
	Bio            string
	CollectedAt    time.Time
}

// Post is an immutable record of a collected post.
type Post struct {
	ID           string
	AuthorID     string
	URL          string
	Caption      string
	MediaType    MediaType
	Hashtags     []string
	Mentions     []string
	LikeCount    int
	CommentCount int
	PostedAt     time.Time
}

// FollowEdge is a directed follow relation discovered during traversal.
type FollowEdge struct {
	SourceID     string
	TargetID     string
	Depth        int
	DiscoveredAt time.Time
}

// Engagement holds derived per-post metrics. Recomputed on demand,
// never treated as source of truth.
type Engagement struct {
	PostID string
	Rate   float64
	Reach  int
}

// CategoryShare is one entry of a ranked category breakdown.
type CategoryShare struct {
	Category string  `json:"category"`
	Posts    int     `json:"posts"`
	Share    float64 `json:"share"`
	MeanRate float64 `json:"mean_rate"`
}

// TemporalBucket aggregates posts falling into one hour-of-day or
// day-of-week slot.
type TemporalBucket struct {
	Key      int     `json:"key"`
	Posts    int     `json:"posts"`
	MeanRate float64 `json:"mean_rate"`
}

// HashtagStat summarizes one hashtag across the analyzed posts.
type HashtagStat struct {
	Hashtag   string  `json:"hashtag"`
	Frequency int     `json:"frequency"`
	AvgLikes  float64 `json:"avg_likes"`
}

// NetworkLevel summarizes one BFS depth level.
type NetworkLevel struct {
	Depth     int      `json:"depth"`
	UserIDs   []string `json:"user_ids"`
	Influence int64    `json:"influence"`
}

// NetworkSummary is the traversal output carried into a Report.
// Partial is set when branches were pruned after exhausted retries
// or a deadline cut the traversal short.
type NetworkSummary struct {
	Levels  []NetworkLevel `json:"levels"`
	Partial bool           `json:"partial"`
}

// TotalDiscovered returns the number of users across all levels.
func (n NetworkSummary) TotalDiscovered() int {
	total := 0
	for _, l := range n.Levels {
		total += len(l.UserIDs)
	}
	return total
}

// TotalInfluence returns the summed follower counts across all levels.
func (n NetworkSummary) TotalInfluence() int64 {
	var total int64
	for _, l := range n.Levels {
		total += l.Influence
	}
	return total
}

// Report is the sole output contract toward consumers. It is a pure
// function of the stored Post/Engagement/FollowEdge data at generation
// time, modulo ID and GeneratedAt.
type Report struct {
	ID                      string           `json:"id"`
	UserID                  string           `json:"user_id"`
	Username                string           `json:"username"`
	GeneratedAt             time.Time        `json:"generated_at"`
	ContentPreferences      []CategoryShare  `json:"content_preferences"`
	TemporalRecommendations TemporalSummary  `json:"temporal_recommendations"`
	NetworkSummary          NetworkSummary   `json:"network_summary"`
	HashtagStats            []HashtagStat    `json:"hashtag_stats"`
	Recommendations         []Recommendation `json:"recommendations"`
	Notes                   []string         `json:"notes,omitempty"`
}

// TemporalSummary carries the ranked buckets plus the winning slots.
type TemporalSummary struct {
	HourBuckets    []TemporalBucket `json:"hour_buckets"`
	WeekdayBuckets []TemporalBucket `json:"weekday_buckets"`
	BestHour       int              `json:"best_hour"`
	BestWeekday    int              `json:"best_weekday"`
}

// Recommendation is one ranked, actionable suggestion.
type Recommendation struct {
	Text   string  `json:"text"`
	Signal string  `json:"signal"` // content, timing, hashtags, network
	Score  float64 `json:"score"`
}
