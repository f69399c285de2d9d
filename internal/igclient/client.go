package igclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"gramlens/internal/metrics"
	"gramlens/internal/model"
	"gramlens/internal/util"
)

// Client defines the ingestion operations the pipeline uses.
type Client interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUserPosts(ctx context.Context, userID string, limit int) ([]model.Post, error)
	GetFollowing(ctx context.Context, userID string, limit int) ([]model.User, error)
	GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error)
}

// HTTPClient is a session-token client for the Instagram private API.
type HTTPClient struct {
	baseURL     string
	session     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	budget      *hourlyBudget
	maxAttempts int
	baseBackoff time.Duration
}

func NewHTTPClient(sessionToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:     "https://i.instagram.com/api/v1",
		session:     sessionToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     newDefaultLimiter(),
		budget:      newHourlyBudget(getEnvInt("IG_API_MAX_PER_HOUR", 200)),
		maxAttempts: getEnvInt("IG_API_MAX_ATTEMPTS", 5),
		baseBackoff: time.Duration(getEnvInt("IG_API_BASE_BACKOFF_MS", 500)) * time.Millisecond,
	}
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.session != "" {
		req.Header.Set("Cookie", "sessionid="+c.session)
	}
	req.Header.Set("Accept", "application/json")
}

type rawUser struct {
	PK             json.Number `json:"pk"`
	Username       string      `json:"username"`
	FullName       string      `json:"full_name"`
	FollowerCount  int         `json:"follower_count"`
	FollowingCount int         `json:"following_count"`
	IsPrivate      bool        `json:"is_private"`
	Biography      string      `json:"biography"`
}

func (r rawUser) toModel(now time.Time) model.User {
	return model.User{
		ID:             r.PK.String(),
		Username:       r.Username,
		FullName:       r.FullName,
		FollowerCount:  r.FollowerCount,
		FollowingCount: r.FollowingCount,
		IsPrivate:      r.IsPrivate,
		Bio:            r.Biography,
		CollectedAt:    now,
	}
}

func (c *HTTPClient) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var out model.User
	if username == "" {
		return out, errors.New("empty username")
	}
	u := fmt.Sprintf("%s/users/%s/usernameinfo/", c.baseURL, url.PathEscape(username))
	var raw struct {
		User rawUser `json:"user"`
	}
	if err := c.getJSON(ctx, u, "usernameinfo", &raw); err != nil {
		return out, err
	}
	return raw.User.toModel(time.Now().UTC()), nil
}

// GetUserPosts returns a user's recent posts. Hashtags and mentions
// are extracted from the caption at ingestion time.
func (c *HTTPClient) GetUserPosts(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	u := fmt.Sprintf("%s/feed/user/%s/?count=%d", c.baseURL, url.PathEscape(userID), clamp(limit, 1, 50))
	var raw struct {
		Items []struct {
			PK      json.Number `json:"pk"`
			Code    string      `json:"code"`
			TakenAt int64       `json:"taken_at"`
			Caption struct {
				Text string `json:"text"`
			} `json:"caption"`
			MediaType    int `json:"media_type"`
			LikeCount    int `json:"like_count"`
			CommentCount int `json:"comment_count"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, u, "user_feed", &raw); err != nil {
		return nil, err
	}
	out := make([]model.Post, 0, len(raw.Items))
	for _, it := range raw.Items {
		out = append(out, model.Post{
			ID:           it.PK.String(),
			AuthorID:     userID,
			URL:          "https://www.instagram.com/p/" + it.Code + "/",
			Caption:      it.Caption.Text,
			MediaType:    mediaTypeOf(it.MediaType),
			Hashtags:     util.ExtractHashtags(it.Caption.Text),
			Mentions:     util.ExtractMentions(it.Caption.Text),
			LikeCount:    it.LikeCount,
			CommentCount: it.CommentCount,
			PostedAt:     time.Unix(it.TakenAt, 0).UTC(),
		})
	}
	return out, nil
}

func (c *HTTPClient) GetFollowing(ctx context.Context, userID string, limit int) ([]model.User, error) {
	u := fmt.Sprintf("%s/friendships/%s/following/?count=%d", c.baseURL, url.PathEscape(userID), clamp(limit, 1, 200))
	return c.getUserList(ctx, u, "following")
}

func (c *HTTPClient) GetFollowers(ctx context.Context, userID string, limit int) ([]model.User, error) {
	u := fmt.Sprintf("%s/friendships/%s/followers/?count=%d", c.baseURL, url.PathEscape(userID), clamp(limit, 1, 200))
	return c.getUserList(ctx, u, "followers")
}

func (c *HTTPClient) getUserList(ctx context.Context, u, endpoint string) ([]model.User, error) {
	var raw struct {
		Users []rawUser `json:"users"`
	}
	if err := c.getJSON(ctx, u, endpoint, &raw); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]model.User, 0, len(raw.Users))
	for _, ru := range raw.Users {
		out = append(out, ru.toModel(now))
	}
	return out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, u, endpoint string, dst any) error {
	if err := c.budget.take(); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.auth(req)
	resp, err := c.doWithRetry(ctx, req, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("ig api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// doWithRetry retries transient server errors with exponential backoff
// and jitter. A 429 is returned immediately as a RateLimitedError with
// the server's suggested backoff; the caller paces subsequent calls.
func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request, endpoint string) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests {
				retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Minute)
				_ = resp.Body.Close()
				return nil, &model.RateLimitedError{RetryAfter: retryAfter}
			}
			if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
				_ = resp.Body.Close()
				lastErr = fmt.Errorf("ig api status %d", resp.StatusCode)
			} else {
				return resp, nil
			}
		} else {
			lastErr = err
		}
		if attempt == c.maxAttempts {
			break
		}
		metrics.IncAPIRetry(endpoint)
		// jitter +/-20%
		wait := backoff
		jitter := time.Duration(float64(wait) * 0.2)
		if jitter > 0 {
			wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return nil, lastErr
}

func parseRetryAfter(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return def
}

func mediaTypeOf(n int) model.MediaType {
	switch n {
	case 2:
		return model.MediaVideo
	case 8:
		return model.MediaCarousel
	default:
		return model.MediaPhoto
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
