// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts hits per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	hits    map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

type bucket struct {
	count int
	reset time.Time
}

// New returns a Limiter allowing limit hits per key per window. It runs a
// janitor goroutine until Close is called.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		hits:   make(map[string]*bucket),
		limit:  limit,
		window: window,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go l.janitor(2 * window)
	return l
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.hits[key]
	if !ok || now.After(b.reset) {
		l.hits[key] = &bucket{count: 1, reset: now.Add(l.window)}
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// Remaining returns how many hits key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.hits[key]
	if !ok || l.now().After(b.reset) {
		return l.limit
	}
	return max(l.limit-b.count, 0)
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}

// Close stops the janitor goroutine.
func (l *Limiter) Close() {
	l.stopped.Do(func() { close(l.stop) })
}

func (l *Limiter) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			l.mu.Lock()
			now := l.now()
			for k, b := range l.hits {
				if now.After(b.reset) {
					delete(l.hits, k)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP returns the caller's address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginLimiter throttles login attempts per client IP and per account.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter allows perIP attempts per window from one address and
// half as many (at least one) against one email.
func NewLoginLimiter(perIP int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(perIP, window),
		byEmail: New(max(perIP/2, 1), window),
	}
}

// Check records an attempt and reports whether it may proceed. reason is
// a user-facing message when it may not.
func (ll *LoginLimiter) Check(r *http.Request, email string) (ok bool, reason string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := strings.ToLower(strings.TrimSpace(email)); key != "" && !ll.byEmail.Allow(key) {
		return false, "Too many login attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// Succeeded clears the per-account counter after a successful login.
func (ll *LoginLimiter) Succeeded(email string) {
	if key := strings.ToLower(strings.TrimSpace(email)); key != "" {
		ll.byEmail.Reset(key)
	}
}

// Close stops both limiters.
func (ll *LoginLimiter) Close() {
	ll.byIP.Close()
	ll.byEmail.Close()
}
