// Package config holds the tunables named in the external-interfaces
// configuration table: reaper attempt/batch/delay bounds and consumer
// poll bounds. The library is configured by its Go caller via functional
// options — no file or environment parsing is in scope.
package config

import "time"

// Config mirrors the recognized configuration keys and their defaults.
type Config struct {
	// MaxAttempts is the number of processing attempts, counted by the
	// reaper's retry counter, before an entry is routed to the DLQ.
	MaxAttempts int
	// MaxRetention is the TTL applied to a retry counter and the oldest
	// the reaper may consider a retry before restarting the attempt count.
	MaxRetention time.Duration
	// BatchSize bounds how many pending entries the reaper inspects per tick.
	BatchSize int
	// FixedDelay is the period of the reaper's tick schedule.
	FixedDelay time.Duration
	// PollTimeout bounds how long a stream consumer blocks per read.
	PollTimeout time.Duration
	// StreamBatchSize bounds how many entries a consumer reads per poll.
	StreamBatchSize int64
}

// Default returns the configuration documented in the external interfaces
// table: 3 attempts, 120s retention, batches of 50/100, a 5 minute reaper
// period and a 1s poll bound.
func Default() Config {
	return Config{
		MaxAttempts:     3,
		MaxRetention:    120 * time.Second,
		BatchSize:       50,
		FixedDelay:      300 * time.Second,
		PollTimeout:     1 * time.Second,
		StreamBatchSize: 100,
	}
}

// Option mutates a Config produced by Default.
type Option func(*Config)

// New builds a Config from Default with opts applied in order.
func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithMaxAttempts(n int) Option {
	return func(c *Config) { c.MaxAttempts = n }
}

func WithMaxRetention(d time.Duration) Option {
	return func(c *Config) { c.MaxRetention = d }
}

func WithBatchSize(n int) Option {
	return func(c *Config) { c.BatchSize = n }
}

func WithFixedDelay(d time.Duration) Option {
	return func(c *Config) { c.FixedDelay = d }
}

func WithPollTimeout(d time.Duration) Option {
	return func(c *Config) { c.PollTimeout = d }
}

func WithStreamBatchSize(n int64) Option {
	return func(c *Config) { c.StreamBatchSize = n }
}

// IsZero reports whether c is the unset zero value, used by Register to
// decide whether to substitute Default().
func (c Config) IsZero() bool {
	return c == Config{}
}
