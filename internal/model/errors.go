package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMetricInput marks raw counts that cannot produce a metric.
// Fatal only to that single post; callers skip and log.
var ErrInvalidMetricInput = errors.New("invalid metric input")

// ErrEmptyDataset marks an analysis run over no posts. A Report with
// empty sections is still valid; callers record this instead of failing.
var ErrEmptyDataset = errors.New("empty dataset")

// GraphAccessError is a transient failure fetching a node's neighbors.
// The traversal retries it per node before pruning the branch.
type GraphAccessError struct {
	UserID string
	Err    error
}

func (e *GraphAccessError) Error() string {
	return fmt.Sprintf("graph access for user %s: %v", e.UserID, e.Err)
}

func (e *GraphAccessError) Unwrap() error { return e.Err }

// RateLimitedError is an externally imposed rejection, distinct from
// GraphAccessError: the caller paces itself, we do not retry locally.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
