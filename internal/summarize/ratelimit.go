package summarize

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to an underlying summarizer with a token
// bucket shared by all workers.
type RateLimited struct {
	next   Summarizer
	bucket *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute with a burst of one.
func NewRateLimited(next Summarizer, perMinute int) *RateLimited {
	return &RateLimited{
		next:   next,
		bucket: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (r *RateLimited) Summarize(ctx context.Context, in ModuleInput) (string, error) {
	if err := r.bucket.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Summarize(ctx, in)
}
