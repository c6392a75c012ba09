package engine

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/foogaro/kinexis/logger"
)

// Listener is the refresh-ahead expiration listener: it
// subscribes to the server's keyspace expiration channel and, for every
// expired key under its entity's prefix, triggers a cache refill.
type Listener[E any, ID comparable] struct {
	client    *redis.Client
	prefix    string
	logger    logger.Logger
	onExpired func(ctx context.Context, idSuffix string) error
}

// NewListener returns a Listener watching keys under prefix.
func NewListener[E any, ID comparable](client *redis.Client, prefix string, log logger.Logger, onExpired func(ctx context.Context, idSuffix string) error) *Listener[E, ID] {
	return &Listener[E, ID]{client: client, prefix: prefix, logger: log, onExpired: onExpired}
}

// Run subscribes to __keyevent@*__:expired and dispatches matching keys
// until ctx is done.
func (l *Listener[E, ID]) Run(ctx context.Context) error {
	pubsub := l.client.PSubscribe(ctx, "__keyevent@*__:expired")
	defer pubsub.Close()

	ch := pubsub.Channel()
	prefix := l.prefix + ":"
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			key := msg.Payload
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			idSuffix := key[len(prefix):]
			if err := l.onExpired(ctx, idSuffix); err != nil {
				l.logger.Warn("refresh-ahead reload failed for %s: %s", key, err)
			}
		}
	}
}

// EnsureKeyspaceNotifications configures the server so keyspace
// expiration events are published, merging with any flags already set
// rather than clobbering them. This is a one-time initialization step
// run before any Listener starts.
func EnsureKeyspaceNotifications(ctx context.Context, client *redis.Client) error {
	cur, err := client.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err != nil {
		return err
	}
	existing := cur["notify-keyspace-events"]
	need := map[byte]bool{'E': true, 'x': true}
	for i := 0; i < len(existing); i++ {
		delete(need, existing[i])
	}
	if len(need) == 0 {
		return nil
	}
	merged := existing
	for _, c := range []byte{'E', 'x'} {
		if need[c] {
			merged += string(c)
		}
	}
	return client.ConfigSet(ctx, "notify-keyspace-events", merged).Err()
}
