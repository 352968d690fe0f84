package prayertime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig sizes the token bucket shared by every upstream request.
type LimiterConfig struct {
	Capacity   int     `json:"capacity"`
	RefillRate float64 `json:"refillRate"` // tokens per second
}

// LimiterUpdate is a partial LimiterConfig; nil fields are left unchanged.
type LimiterUpdate struct {
	Capacity   *int     `json:"capacity,omitempty"`
	RefillRate *float64 `json:"refillRate,omitempty"`
}

type LimiterStats struct {
	Tokens     float64 `json:"tokens"`
	Capacity   int     `json:"capacity"`
	RefillRate float64 `json:"refillRate"`
}

// Limiter is a token bucket. Tokens are replenished lazily from the time
// elapsed since the last acquisition, so no background goroutine is needed.
// A waiting caller holds a reservation and sleeps until its token is due.
type Limiter struct {
	mu  sync.Mutex
	cfg LimiterConfig
	lim *rate.Limiter
}

func NewLimiter(cfg LimiterConfig) *Limiter {
	cfg = normalizeLimiterConfig(cfg)
	return &Limiter{
		cfg: cfg,
		lim: rate.NewLimiter(rate.Limit(cfg.RefillRate), cfg.Capacity),
	}
}

func normalizeLimiterConfig(cfg LimiterConfig) LimiterConfig {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillRate <= 0 {
		cfg.RefillRate = 1
	}
	return cfg
}

// Acquire blocks until one token is available and consumes it. It only
// fails when ctx ends first; a deadline alone never shortens the wait.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := l.lim.Reserve()
	if !r.OK() {
		return fmt.Errorf("limiter cannot grant a token with capacity %d", l.lim.Burst())
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		// hand the token back to later callers
		r.Cancel()
		return ctx.Err()
	}
}

// Stats reports the current bucket level without consuming anything.
func (l *Limiter) Stats() LimiterStats {
	l.mu.Lock()
	cfg := l.cfg
	l.mu.Unlock()

	tokens := l.lim.Tokens()
	if tokens < 0 {
		// outstanding reservations
		tokens = 0
	}
	if tokens > float64(cfg.Capacity) {
		tokens = float64(cfg.Capacity)
	}
	return LimiterStats{Tokens: tokens, Capacity: cfg.Capacity, RefillRate: cfg.RefillRate}
}

// UpdateConfig changes capacity and/or refill rate. Callers already waiting
// keep their reservation; later acquisitions use the new settings.
func (l *Limiter) UpdateConfig(u LimiterUpdate) LimiterStats {
	l.mu.Lock()
	next := l.cfg
	if u.Capacity != nil {
		next.Capacity = *u.Capacity
	}
	if u.RefillRate != nil {
		next.RefillRate = *u.RefillRate
	}
	next = normalizeLimiterConfig(next)
	l.cfg = next
	l.lim.SetLimit(rate.Limit(next.RefillRate))
	l.lim.SetBurst(next.Capacity)
	l.mu.Unlock()

	return l.Stats()
}

var shared struct {
	mu      sync.Mutex
	limiter *Limiter
}

// SharedLimiter returns the process-wide limiter, creating it from cfg on
// first use. Later calls get the same instance whatever cfg they pass.
func SharedLimiter(cfg LimiterConfig) *Limiter {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.limiter == nil {
		shared.limiter = NewLimiter(cfg)
	}
	return shared.limiter
}

// ResetSharedLimiter drops the process-wide limiter so the next
// SharedLimiter call builds a fresh one.
func ResetSharedLimiter() {
	shared.mu.Lock()
	shared.limiter = nil
	shared.mu.Unlock()
}
