// Package ratelimit provides a fixed-window rate limiter for a single entity.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a simple fixed-window rate limiter for a single entity.
type Limiter struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
	lastSeen    time.Time
	rate        int
	window      time.Duration
}

// New creates a Limiter that allows rate requests per window.
func New(rate int, window time.Duration) *Limiter {
	now := time.Now()
	return &Limiter{
		rate:        rate,
		window:      window,
		windowStart: now,
		lastSeen:    now,
	}
}

// Allow returns true if the request is within the rate limit.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.lastSeen = now
	if now.Sub(l.windowStart) > l.window {
		l.count = 0
		l.windowStart = now
	}
	l.count++
	return l.count <= l.rate
}

// IdleFor reports whether the limiter has seen no requests for at least d.
// Holders of many per-entity limiters use it to drop stale ones.
func (l *Limiter) IdleFor(d time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Since(l.lastSeen) >= d
}
