package schedule

import (
	"time"

	"gramlens/internal/model"
)

// NextPostWindow returns the next wall-clock time falling in the
// best-ranked posting hour, skipping quiet hours. With no bucket data
// it falls back to the next non-quiet hour.
func NextPostWindow(now time.Time, hourBuckets []model.TemporalBucket, quietHours []int) time.Time {
	isQuiet := func(h int) bool {
		for _, q := range quietHours {
			if q == h {
				return true
			}
		}
		return false
	}
	for _, b := range hourBuckets {
		if isQuiet(b.Key) {
			continue
		}
		return nextAtHour(now, b.Key)
	}
	for i := 0; i < 48; i++ { // search up to 2 days ahead
		cand := now.Add(time.Duration(i) * time.Hour)
		if !isQuiet(cand.Hour()) {
			return cand
		}
	}
	return now.Add(15 * time.Minute)
}

func nextAtHour(now time.Time, hour int) time.Time {
	cand := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !cand.After(now) {
		cand = cand.Add(24 * time.Hour)
	}
	return cand
}
