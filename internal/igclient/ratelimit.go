package igclient

import (
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"gramlens/internal/model"
)

// newDefaultLimiter creates a rate limiter using env overrides if present.
func newDefaultLimiter() *rate.Limiter {
	rps := 0.5
	burst := 3
	if v := os.Getenv("IG_API_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	if v := os.Getenv("IG_API_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// hourlyBudget caps total API calls per rolling hour on top of the
// token-bucket limiter.
type hourlyBudget struct {
	mu        sync.Mutex
	max       int
	count     int
	hourStart time.Time
	now       func() time.Time
}

func newHourlyBudget(max int) *hourlyBudget {
	return &hourlyBudget{max: max, now: time.Now}
}

// take consumes one call from the budget. When the cap is hit it
// returns a RateLimitedError suggesting to wait until the hour resets.
func (b *hourlyBudget) take() error {
	if b == nil || b.max <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if b.hourStart.IsZero() || now.Sub(b.hourStart) > time.Hour {
		b.hourStart = now
		b.count = 0
	}
	if b.count >= b.max {
		return &model.RateLimitedError{RetryAfter: time.Hour - now.Sub(b.hourStart)}
	}
	b.count++
	return nil
}
