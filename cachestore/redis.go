// Package cachestore implements the cache store adapter on top of
// Redis: per-entity JSON or HASH encoding, TTL on write,
// and the prefix(E)+":"+id key scheme every other component assumes.
package cachestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foogaro/kinexis/envelope"
	"github.com/foogaro/kinexis/kerrors"
	"github.com/foogaro/kinexis/policy"
	"github.com/foogaro/kinexis/store"
)

// Redis is a store.CacheStore[E, ID] backed by a *redis.Client.
type Redis[E any, ID comparable] struct {
	client   *redis.Client
	prefix   string
	format   policy.Format
	ttl      time.Duration
	identify func(E) ID
	formatID func(ID) string
}

var _ store.CacheStore[struct{}, string] = (*Redis[struct{}, string])(nil)

// New returns a Redis-backed CacheStore. identify derives an entity's id
// for Save; formatID renders an ID into the textual form used in keys.
func New[E any, ID comparable](client *redis.Client, prefix string, format policy.Format, ttl time.Duration, identify func(E) ID, formatID func(ID) string) *Redis[E, ID] {
	return &Redis[E, ID]{
		client:   client,
		prefix:   prefix,
		format:   format,
		ttl:      ttl,
		identify: identify,
		formatID: formatID,
	}
}

func (r *Redis[E, ID]) Key(id ID) string {
	return r.prefix + ":" + r.formatID(id)
}

func (r *Redis[E, ID]) FindByID(ctx context.Context, id ID) (E, bool, error) {
	var zero E
	key := r.Key(id)
	switch r.format {
	case policy.HASH:
		m, err := r.client.HGetAll(ctx, key).Result()
		if err != nil {
			return zero, false, kerrors.WrapCacheUnavailable(err, "hgetall "+key)
		}
		if len(m) == 0 {
			return zero, false, nil
		}
		e, err := envelope.DecodeFieldMap[E](m)
		if err != nil {
			return zero, false, err
		}
		return e, true, nil
	default:
		s, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			return zero, false, nil
		}
		if err != nil {
			return zero, false, kerrors.WrapCacheUnavailable(err, "get "+key)
		}
		var e E
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return zero, false, err
		}
		return e, true, nil
	}
}

func (r *Redis[E, ID]) Save(ctx context.Context, e E) (E, error) {
	key := r.Key(r.identify(e))
	switch r.format {
	case policy.HASH:
		m, err := envelope.EncodeFieldMap(e)
		if err != nil {
			return e, err
		}
		args := make([]interface{}, 0, len(m)*2)
		for k, v := range m {
			args = append(args, k, v)
		}
		pipe := r.client.Pipeline()
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, args...)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return e, kerrors.WrapCacheUnavailable(err, "hset "+key)
		}
		return e, nil
	default:
		b, err := json.Marshal(e)
		if err != nil {
			return e, err
		}
		var ttl time.Duration
		if r.ttl > 0 {
			ttl = r.ttl
		}
		if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
			return e, kerrors.WrapCacheUnavailable(err, "set "+key)
		}
		return e, nil
	}
}

func (r *Redis[E, ID]) DeleteByID(ctx context.Context, id ID) error {
	if err := r.client.Del(ctx, r.Key(id)).Err(); err != nil {
		return kerrors.WrapCacheUnavailable(err, "del "+r.Key(id))
	}
	return nil
}
