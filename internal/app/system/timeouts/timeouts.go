// Package timeouts holds the deadlines applied to backend calls made while
// serving a request.
//
//   - Ping: health checks
//   - Short: single-document reads, role lookups
//   - Medium: list queries and single writes
//   - Long: registration and avatar uploads, which touch several backends
//   - RoleWait: how long a guarded request waits for a pending role before
//     answering with a loading response
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing     = 2 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultMedium   = 10 * time.Second
	DefaultLong     = 30 * time.Second
	DefaultRoleWait = 3 * time.Second
)

// Config overrides the defaults. Zero fields keep the current value.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	Medium   time.Duration
	Long     time.Duration
	RoleWait time.Duration
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func defaults() Config {
	return Config{
		Ping:     DefaultPing,
		Short:    DefaultShort,
		Medium:   DefaultMedium,
		Long:     DefaultLong,
		RoleWait: DefaultRoleWait,
	}
}

func Ping() time.Duration     { return get().Ping }
func Short() time.Duration    { return get().Short }
func Medium() time.Duration   { return get().Medium }
func Long() time.Duration     { return get().Long }
func RoleWait() time.Duration { return get().RoleWait }

func get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Configure applies the positive values in cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		current.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		current.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		current.Medium = cfg.Medium
	}
	if cfg.Long > 0 {
		current.Long = cfg.Long
	}
	if cfg.RoleWait > 0 {
		current.RoleWait = cfg.RoleWait
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// Current returns the active configuration.
func Current() Config {
	return get()
}

// WithTimeout derives a context with the given timeout. Its cancel func
// logs a warning when the deadline was the reason the context ended.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "register")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
