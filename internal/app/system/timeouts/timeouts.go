// Package timeouts holds the deadlines handlers put on database and
// storage calls.
//
//   - Ping: health checks
//   - Short: single-document reads and lookups
//   - Medium: list and search queries, single-document writes
//   - Long: workflow operations that touch several collections, uploads
//
// Values are set once at startup from configuration (Configure); until
// then the defaults apply.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

// Ping is the deadline for connectivity checks.
func Ping() time.Duration { return get(func(c Config) time.Duration { return c.Ping }) }

// Short is the deadline for single-document reads.
func Short() time.Duration { return get(func(c Config) time.Duration { return c.Short }) }

// Medium is the deadline for lists, searches and simple writes.
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }

// Long is the deadline for multi-collection workflow writes and uploads.
func Long() time.Duration { return get(func(c Config) time.Duration { return c.Long }) }

// Configure overrides the non-zero fields of c. Call it during startup,
// before handlers are built.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	if c.Ping > 0 {
		cur.Ping = c.Ping
	}
	if c.Short > 0 {
		cur.Short = c.Short
	}
	if c.Medium > 0 {
		cur.Medium = c.Medium
	}
	if c.Long > 0 {
		cur.Long = c.Long
	}
}

// Current returns the active configuration, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was the reason the operation ended.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "accept invitation")
//	defer cancel()
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, op string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded {
			log.Warn("operation timed out", zap.String("operation", op), zap.Duration("timeout", d))
		}
		cancel()
	}
}
