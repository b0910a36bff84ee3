package governorsdk

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithCacheTTL sets how long an allowed decision is cached before the
// pipeline is re-run for an identical call. Defaults to 2 seconds.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = d
	}
}

// WithCacheMaxSize sets the maximum number of cached decisions.
// Defaults to 1000.
func WithCacheMaxSize(n int) Option {
	return func(c *Client) {
		c.cacheMaxSize = n
	}
}

// WithLogger sets the logger used for internal diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}
