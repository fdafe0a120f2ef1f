package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Store counts hits per key inside fixed windows. Hit must be atomic: two
// concurrent calls for the same key never observe the same count.
type Store interface {
	// Hit records one request for key at now and returns the number of hits
	// in the current window, including this one, and the window start.
	// A window starts at the first hit after the previous one expired.
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (hits int, start time.Time, err error)
}

// Decision is the outcome of Admit.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter applies per-class policies to client keys.
type Limiter struct {
	store    Store
	policies Policies
	now      func() time.Time
	log      *zap.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithLogger sets the logger used for store failures.
func WithLogger(log *zap.Logger) Option {
	return func(l *Limiter) {
		l.log = log
	}
}

// New creates a Limiter over store.
func New(store Store, policies Policies, opts ...Option) *Limiter {
	l := &Limiter{
		store:    store,
		policies: policies,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy returns the quota of class.
func (l *Limiter) Policy(class Class) (Policy, bool) {
	p, ok := l.policies[class]
	return p, ok
}

// Admit counts one request from clientKey against class. Classes without a
// policy are always allowed. Store errors fail open.
func (l *Limiter) Admit(ctx context.Context, clientKey string, class Class) Decision {
	p, ok := l.policies[class]
	if !ok {
		return Decision{Allowed: true}
	}

	now := l.now()
	hits, start, err := l.store.Hit(ctx, string(class)+"|"+clientKey, p.Window, now)
	if err != nil {
		l.log.Warn("rate limit store unavailable, admitting request",
			zap.String("class", string(class)),
			zap.Error(err),
		)
		return Decision{Allowed: true, Limit: p.Limit, Remaining: p.Limit}
	}

	if hits > p.Limit {
		retry := start.Add(p.Window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, Limit: p.Limit, RetryAfter: retry}
	}
	return Decision{Allowed: true, Limit: p.Limit, Remaining: p.Limit - hits}
}
