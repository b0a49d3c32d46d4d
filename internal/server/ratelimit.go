package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agent-pulse/pulsed/internal/ratelimit"
)

// ipLimiter applies a fixed-window rate limit per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*ratelimit.Limiter
	rate     int
	window   time.Duration
}

// newIPLimiter creates a limiter allowing rate requests per window per IP.
// It starts a background goroutine that drops idle entries every minute.
func newIPLimiter(rate int, window time.Duration) *ipLimiter {
	rl := &ipLimiter{
		visitors: make(map[string]*ratelimit.Limiter),
		rate:     rate,
		window:   window,
	}
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.cleanup()
		}
	}()
	return rl
}

// allow returns true if the IP has not exceeded its rate limit.
func (rl *ipLimiter) allow(ip string) bool {
	rl.mu.Lock()
	l, ok := rl.visitors[ip]
	if !ok {
		l = ratelimit.New(rl.rate, rl.window)
		rl.visitors[ip] = l
	}
	rl.mu.Unlock()
	return l.Allow()
}

// cleanup drops limiters that have been idle for at least three windows.
func (rl *ipLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, l := range rl.visitors {
		if l.IdleFor(3 * rl.window) {
			delete(rl.visitors, ip)
		}
	}
}

// clientIP extracts the client IP, preferring X-Forwarded-For when the node
// sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
