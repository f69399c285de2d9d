package schedule

import (
	"testing"
	"time"

	"gramlens/internal/model"
)

func TestNextPostWindowUsesBestBucket(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	buckets := []model.TemporalBucket{
		{Key: 19, Posts: 5, MeanRate: 0.4},
		{Key: 9, Posts: 3, MeanRate: 0.2},
	}
	got := NextPostWindow(now, buckets, nil)
	if got.Hour() != 19 || !got.After(now) {
		t.Fatalf("expected today 19:00, got %v", got)
	}
}

func TestNextPostWindowRollsToTomorrow(t *testing.T) {
	now := time.Date(2025, 6, 2, 20, 30, 0, 0, time.UTC)
	buckets := []model.TemporalBucket{{Key: 19, Posts: 5, MeanRate: 0.4}}
	got := NextPostWindow(now, buckets, nil)
	if got.Day() != 3 || got.Hour() != 19 {
		t.Fatalf("expected tomorrow 19:00, got %v", got)
	}
}

func TestNextPostWindowSkipsQuietBucket(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	buckets := []model.TemporalBucket{
		{Key: 2, Posts: 9, MeanRate: 0.9},
		{Key: 14, Posts: 4, MeanRate: 0.3},
	}
	got := NextPostWindow(now, buckets, []int{0, 1, 2, 3, 4, 5})
	if got.Hour() != 14 {
		t.Fatalf("expected quiet best hour skipped, got %v", got)
	}
}

func TestNextPostWindowFallbackWithoutBuckets(t *testing.T) {
	now := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	got := NextPostWindow(now, nil, []int{0, 1, 2, 3, 4, 5})
	if got.Hour() < 6 {
		t.Fatalf("expected non-quiet hour, got %v", got)
	}
}
