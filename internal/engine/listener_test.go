package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foogaro/kinexis/logger"
)

func TestEnsureKeyspaceNotificationsMergesFlags(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()
	ctx := context.Background()

	require.NoError(t, client.ConfigSet(ctx, "notify-keyspace-events", "g").Err())
	require.NoError(t, EnsureKeyspaceNotifications(ctx, client))

	cur, err := client.ConfigGet(ctx, "notify-keyspace-events").Result()
	require.NoError(t, err)
	val := cur["notify-keyspace-events"]
	assert.Contains(t, val, "g")
	assert.Contains(t, val, "E")
	assert.Contains(t, val, "x")
}

func TestEnsureKeyspaceNotificationsNoopWhenAlreadySet(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()
	ctx := context.Background()

	require.NoError(t, client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err())
	require.NoError(t, EnsureKeyspaceNotifications(ctx, client))

	cur, err := client.ConfigGet(ctx, "notify-keyspace-events").Result()
	require.NoError(t, err)
	assert.Equal(t, "Ex", cur["notify-keyspace-events"])
}

func TestListenerFiltersByPrefixAndDispatches(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()

	seen := make(chan string, 1)
	l := NewListener[good, int](client, "good", logger.NewTestLogger(), func(ctx context.Context, idSuffix string) error {
		seen <- idSuffix
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()

	// give PSubscribe a beat to register before publishing.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, client.Publish(context.Background(), "__keyevent@0__:expired", "other:1").Err())
	require.NoError(t, client.Publish(context.Background(), "__keyevent@0__:expired", "good:42").Err())

	select {
	case suffix := <-seen:
		assert.Equal(t, "42", suffix)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not dispatch matching key")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop after cancel")
	}
}
