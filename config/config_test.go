package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, 120*time.Second, c.MaxRetention)
	assert.Equal(t, 50, c.BatchSize)
	assert.Equal(t, 300*time.Second, c.FixedDelay)
	assert.Equal(t, time.Second, c.PollTimeout)
	assert.Equal(t, int64(100), c.StreamBatchSize)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	c := New(
		WithMaxAttempts(1),
		WithMaxRetention(5*time.Second),
		WithBatchSize(10),
		WithFixedDelay(time.Minute),
		WithPollTimeout(200*time.Millisecond),
		WithStreamBatchSize(20),
	)
	assert.Equal(t, 1, c.MaxAttempts)
	assert.Equal(t, 5*time.Second, c.MaxRetention)
	assert.Equal(t, 10, c.BatchSize)
	assert.Equal(t, time.Minute, c.FixedDelay)
	assert.Equal(t, 200*time.Millisecond, c.PollTimeout)
	assert.Equal(t, int64(20), c.StreamBatchSize)
}

func TestIsZero(t *testing.T) {
	var c Config
	assert.True(t, c.IsZero())
	assert.False(t, Default().IsZero())
}
