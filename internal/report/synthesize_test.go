package report

import (
	"reflect"
	"strings"
	"testing"

	"gramlens/internal/model"
)

func sampleInputs() ([]model.CategoryShare, model.TemporalSummary, model.NetworkSummary, []model.HashtagStat) {
	prefs := []model.CategoryShare{
		{Category: "travel", Posts: 6, Share: 0.6, MeanRate: 0.3},
		{Category: "food", Posts: 4, Share: 0.4, MeanRate: 0.2},
	}
	temporal := model.TemporalSummary{
		HourBuckets:    []model.TemporalBucket{{Key: 19, Posts: 5, MeanRate: 0.4}},
		WeekdayBuckets: []model.TemporalBucket{{Key: 3, Posts: 5, MeanRate: 0.35}},
		BestHour:       19,
		BestWeekday:    3,
	}
	network := model.NetworkSummary{Levels: []model.NetworkLevel{
		{Depth: 1, UserIDs: []string{"a", "b"}, Influence: 50000},
	}}
	tags := []model.HashtagStat{
		{Hashtag: "travel", Frequency: 5, AvgLikes: 12000},
		{Hashtag: "sunset", Frequency: 3, AvgLikes: 9000},
	}
	return prefs, temporal, network, tags
}

func TestSynthesizeRanking(t *testing.T) {
	prefs, temporal, network, tags := sampleInputs()
	recs := Synthesize(prefs, temporal, network, tags, 3)
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Fatalf("ranking not descending at %d: %v > %v", i, recs[i].Score, recs[i-1].Score)
		}
	}
	if recs[0].Signal != "content" {
		t.Fatalf("expected content signal on top, got %s", recs[0].Signal)
	}
	if !strings.Contains(recs[0].Text, "travel") {
		t.Fatalf("top recommendation should name the top category: %q", recs[0].Text)
	}
}

func TestSynthesizeIdempotent(t *testing.T) {
	prefs, temporal, network, tags := sampleInputs()
	first := Synthesize(prefs, temporal, network, tags, 3)
	for i := 0; i < 10; i++ {
		if got := Synthesize(prefs, temporal, network, tags, 3); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestSynthesizeOmitsThinSignals(t *testing.T) {
	prefs := []model.CategoryShare{{Category: "travel", Posts: 2, Share: 1, MeanRate: 0.5}}
	temporal := model.TemporalSummary{
		HourBuckets: []model.TemporalBucket{{Key: 9, Posts: 2, MeanRate: 0.5}},
	}
	recs := Synthesize(prefs, temporal, model.NetworkSummary{}, nil, 3)
	for _, r := range recs {
		if r.Signal == "content" || r.Signal == "timing" {
			t.Fatalf("signal below min sample must be omitted: %+v", r)
		}
	}
}

func TestSynthesizeEmptyInputs(t *testing.T) {
	recs := Synthesize(nil, model.TemporalSummary{}, model.NetworkSummary{}, nil, 3)
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %v", recs)
	}
}

func TestSynthesizeNetworkSignal(t *testing.T) {
	network := model.NetworkSummary{Levels: []model.NetworkLevel{
		{Depth: 1, UserIDs: []string{"x"}, Influence: 1000000},
	}}
	recs := Synthesize(nil, model.TemporalSummary{}, network, nil, 3)
	if len(recs) != 1 || recs[0].Signal != "network" {
		t.Fatalf("expected single network recommendation, got %v", recs)
	}
	if recs[0].Score <= 0 || recs[0].Score > weightNetwork {
		t.Fatalf("network score out of range: %v", recs[0].Score)
	}
}
