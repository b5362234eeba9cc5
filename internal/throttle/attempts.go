package throttle

import (
	"context"
	"time"

	"github.com/geocoder89/foodservice/internal/utils"
)

// AttemptLimiter allows max sign-in attempts per username inside window. A
// successful sign-in clears the count; otherwise the lock lifts when the
// window opened by the first attempt expires.
type AttemptLimiter struct {
	counter Counter
	max     int
	window  time.Duration
}

func NewAttemptLimiter(counter Counter, max int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{counter: counter, max: max, window: window}
}

// Attempt counts one attempt and reports whether it is within the allowance.
// The count and the decision come from one atomic Hit. A limiter with
// max <= 0 allows everything.
func (l *AttemptLimiter) Attempt(ctx context.Context, username string) (bool, error) {
	if l == nil || l.max <= 0 {
		return true, nil
	}

	n, _, err := l.counter.Hit(ctx, utils.SignInAttemptKey(username), l.window)
	if err != nil {
		return true, err
	}
	return n <= l.max, nil
}

func (l *AttemptLimiter) Succeed(ctx context.Context, username string) error {
	if l == nil || l.max <= 0 {
		return nil
	}

	return l.counter.Reset(ctx, utils.SignInAttemptKey(username))
}
