package engine

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"github.com/foogaro/kinexis/kerrors"
	"github.com/foogaro/kinexis/logger"
	"github.com/foogaro/kinexis/policy"
	"github.com/foogaro/kinexis/store"
)

// Facade is the application-visible entry point:
// save/findById/delete, dispatched to either the stream producer or the
// cache store directly, according to policy.
type Facade[E any, ID comparable] struct {
	policy   policy.Policy
	identify func(E) ID
	cache    store.CacheStore[E, ID]
	primary  []store.Named[E, ID]
	producer *Producer[E, ID]
	formatID func(ID) string
	logger   logger.Logger
}

// NewFacade wires a Facade. producer may be nil when WRITE_BEHIND is not
// in the policy; cache may be nil when neither CACHE_ASIDE nor
// REFRESH_AHEAD is enabled and WRITE_BEHIND handles every write.
func NewFacade[E any, ID comparable](p policy.Policy, identify func(E) ID, formatID func(ID) string, cache store.CacheStore[E, ID], primary []store.Named[E, ID], producer *Producer[E, ID], log logger.Logger) *Facade[E, ID] {
	return &Facade[E, ID]{
		policy:   p,
		identify: identify,
		cache:    cache,
		primary:  primary,
		producer: producer,
		formatID: formatID,
		logger:   log,
	}
}

// Save appends a write-behind intent when WRITE_BEHIND is enabled,
// otherwise writes synchronously to the cache. The facade never writes
// to a target store directly under WRITE_BEHIND — only the processor
// does, downstream of the stream.
func (f *Facade[E, ID]) Save(ctx context.Context, e E) error {
	ctx, span := tracer.Start(ctx, "Facade.Save")
	defer span.End()

	if f.policy.HasWriteBehind() {
		_, err := f.producer.AppendSave(ctx, e)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
	if f.cache == nil {
		return kerrors.ErrPolicyMisconfigured
	}
	if _, err := f.cache.Save(ctx, e); err != nil {
		// Cache writes are a no-op on failure — logged, not surfaced.
		f.logger.Warn("cache save failed: %s", err)
	}
	return nil
}

// FindByID looks up id in the cache; on miss it falls through to the
// primary store when CACHE_ASIDE or REFRESH_AHEAD is enabled, writing
// the result back to the cache before returning it.
func (f *Facade[E, ID]) FindByID(ctx context.Context, id ID) (E, bool, error) {
	return f.findByID(ctx, id, false)
}

// Reload forces a primary-store read and cache refill, bypassing any
// cache hit. Used by the refresh-ahead expiration listener and exposed
// for callers that want to force a manual cache-aside refresh.
func (f *Facade[E, ID]) Reload(ctx context.Context, id ID) (E, bool, error) {
	return f.findByID(ctx, id, true)
}

func (f *Facade[E, ID]) findByID(ctx context.Context, id ID, forceReload bool) (E, bool, error) {
	ctx, span := tracer.Start(ctx, "Facade.FindByID")
	defer span.End()

	var zero E
	var cacheErr error
	if f.cache != nil && !forceReload {
		e, found, err := f.cache.FindByID(ctx, id)
		if err != nil {
			cacheErr = err
			f.logger.Warn("cache read failed, falling through to primary: %s", err)
		} else if found {
			return e, true, nil
		}
	}

	if !f.policy.HasCacheAside() && !f.policy.HasRefreshAhead() {
		if cacheErr != nil {
			return zero, false, kerrors.WrapCacheUnavailable(cacheErr, "cache lookup")
		}
		return zero, false, nil
	}
	if len(f.primary) == 0 {
		return zero, false, kerrors.ErrPolicyMisconfigured
	}

	e, found, err := f.primary[0].Store.FindByID(ctx, id)
	if err != nil {
		if cacheErr != nil {
			// findById only surfaces StoreUnavailable from the primary
			// store when the cache also failed.
			werr := kerrors.WrapStoreUnavailable(err, "primary read after cache failure")
			span.RecordError(werr)
			span.SetStatus(codes.Error, werr.Error())
			return zero, false, werr
		}
		f.logger.Error("primary read failed for cache miss: %s", err)
		return zero, false, nil
	}
	if !found {
		return zero, false, nil
	}
	if f.cache != nil {
		if _, err := f.cache.Save(ctx, e); err != nil {
			f.logger.Warn("cache writeback failed: %s", err)
		}
	}
	return e, true, nil
}

// Delete appends a write-behind DELETE intent, otherwise deletes
// directly from the cache.
func (f *Facade[E, ID]) Delete(ctx context.Context, id ID) error {
	ctx, span := tracer.Start(ctx, "Facade.Delete")
	defer span.End()

	if f.policy.HasWriteBehind() {
		_, err := f.producer.AppendDelete(ctx, id, f.formatID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
	if f.cache == nil {
		return kerrors.ErrPolicyMisconfigured
	}
	if err := f.cache.DeleteByID(ctx, id); err != nil {
		f.logger.Warn("cache delete failed: %s", err)
	}
	return nil
}
