// Package kinexis is the entry point applications use to register an
// entity type and get back a running cache-aside / write-behind /
// refresh-ahead pipeline for it.
//
// Some implementations of this pattern wire per-entity components
// through build-time code generation and container scanning; this one
// replaces both with one explicit call, Register, backed by Go generics.
package kinexis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/foogaro/kinexis/config"
	"github.com/foogaro/kinexis/envelope"
	"github.com/foogaro/kinexis/internal/engine"
	"github.com/foogaro/kinexis/kerrors"
	"github.com/foogaro/kinexis/logger"
	"github.com/foogaro/kinexis/policy"
	"github.com/foogaro/kinexis/store"
)

// EntityConfig is the explicit per-entity registration a caller supplies
// to Register: everything the pipeline needs for one entity type, spelled
// out as plain fields and function values instead of discovered by
// reflection or a container scan.
type EntityConfig[E any, ID comparable] struct {
	// Name is the entity's simple type name, e.g. "Employer". Lowercased,
	// it is used to derive the cache prefix (if Policy.Prefix is empty)
	// and the stream/DLQ names.
	Name string
	// Policy is the immutable per-entity pattern set, format and TTL.
	Policy policy.Policy
	// Identify extracts an entity's id.
	Identify func(E) ID
	// ParseID parses the textual id carried by a DELETE intent.
	ParseID func(string) (ID, error)
	// FormatID renders an id into the textual form used in keys and
	// DELETE intents.
	FormatID func(ID) string
	// Redis is the shared connection to the Redis-compatible server.
	// Required whenever WRITE_BEHIND, CACHE_ASIDE or REFRESH_AHEAD is set.
	Redis *redis.Client
	// Cache is the cache store adapter. Required unless
	// the policy has none of CACHE_ASIDE/REFRESH_AHEAD/WRITE_BEHIND's
	// synchronous-cache-write fallback path.
	Cache store.CacheStore[E, ID]
	// PrimaryStores are the target stores of record bound to this
	// entity. One consumer group, consumer and reaper
	// stack is created per store when WRITE_BEHIND is enabled; each
	// stack's processor still fans out to every store in this slice.
	PrimaryStores []store.Named[E, ID]
	// Logger defaults to a console logger reading KINEXIS_LOG_LEVEL.
	Logger logger.Logger
	// Config defaults to config.Default().
	Config config.Config
}

func (c EntityConfig[E, ID]) validate() error {
	if c.Name == "" || c.Identify == nil || c.ParseID == nil || c.FormatID == nil {
		return kerrors.ErrPolicyMisconfigured
	}
	needsRedis := c.Policy.HasWriteBehind() || c.Policy.HasCacheAside() || c.Policy.HasRefreshAhead()
	if needsRedis && c.Redis == nil {
		return kerrors.ErrPolicyMisconfigured
	}
	if c.Policy.HasWriteBehind() && len(c.PrimaryStores) == 0 {
		return kerrors.ErrPolicyMisconfigured
	}
	return nil
}

// Registration holds the facade and the runnable workers Register built
// for one entity type. Start launches them; Shutdown stops them and
// waits for in-flight work to finish.
type Registration[E any, ID comparable] struct {
	facade    *engine.Facade[E, ID]
	consumers []*engine.Consumer[E, ID]
	reapers   []*engine.Reaper[E, ID]
	listener  *engine.Listener[E, ID]
	redis     *redis.Client
	logger    logger.Logger

	cancel  context.CancelFunc
	group   *errgroup.Group
	started bool
}

// Register builds the facade plus one consumer/reaper pair per bound
// store and one expiration listener (if REFRESH_AHEAD is set) for the
// entity described by cfg, memoizing its policy in registry.
func Register[E any, ID comparable](registry *policy.Registry, cfg EntityConfig[E, ID]) (*Registration[E, ID], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewConsoleLogger()
	}
	if cfg.Config.IsZero() {
		cfg.Config = config.Default()
	}

	p := cfg.Policy
	if p.Prefix == "" {
		p.Prefix = strings.ToLower(cfg.Name)
	}
	if err := registry.Register(cfg.Name, p); err != nil {
		return nil, err
	}

	entityLogger := cfg.Logger.With(map[string]interface{}{"entity": cfg.Name})

	var producer *engine.Producer[E, ID]
	if p.HasWriteBehind() {
		producer = engine.NewProducer[E, ID](cfg.Redis, cfg.Name, p.Format)
	}

	facade := engine.NewFacade(p, cfg.Identify, cfg.FormatID, cfg.Cache, cfg.PrimaryStores, producer, entityLogger)

	reg := &Registration[E, ID]{facade: facade, redis: cfg.Redis, logger: entityLogger}

	if p.HasWriteBehind() {
		for _, target := range cfg.PrimaryStores {
			processor := engine.NewProcessor(p.Format, cfg.ParseID, cfg.PrimaryStores)
			orch := engine.NewOrchestrator(cfg.Redis, producer.Stream(), envelope.GroupName(target.Name), processor, entityLogger)
			consumer := engine.NewConsumer[E, ID](cfg.Redis, cfg.Name, target.Name, cfg.Config, entityLogger, orch.Orchestrate)
			reaper := engine.NewReaper(cfg.Redis, cfg.Name, target.Name, processor, cfg.Config, entityLogger)
			reg.consumers = append(reg.consumers, consumer)
			reg.reapers = append(reg.reapers, reaper)
		}
	}

	if p.HasRefreshAhead() {
		reg.listener = engine.NewListener[E, ID](cfg.Redis, p.Prefix, entityLogger, func(ctx context.Context, idSuffix string) error {
			id, err := cfg.ParseID(idSuffix)
			if err != nil {
				return fmt.Errorf("parse expired id %q: %w", idSuffix, err)
			}
			_, _, err = facade.Reload(ctx, id)
			return err
		})
	}

	return reg, nil
}

// Facade returns the registered entity's application-visible entry point.
func (r *Registration[E, ID]) Facade() *engine.Facade[E, ID] { return r.facade }

// Start launches every worker (consumers, reapers, expiration listener)
// under one errgroup so a fatal error in any one cancels the others, per
// a shared concurrency model. Start is idempotent; calling it twice is
// a no-op.
func (r *Registration[E, ID]) Start(ctx context.Context) error {
	if r.started {
		return nil
	}
	r.started = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	r.group = g

	if r.listener != nil {
		if err := engine.EnsureKeyspaceNotifications(runCtx, r.redis); err != nil {
			cancel()
			return fmt.Errorf("configure keyspace notifications: %w", err)
		}
		g.Go(func() error { return r.listener.Run(gctx) })
	}
	for _, c := range r.consumers {
		c := c
		g.Go(func() error { return c.Run(gctx) })
	}
	for _, rp := range r.reapers {
		rp := rp
		g.Go(func() error { rp.Run(gctx); return nil })
	}
	return nil
}

// Shutdown stops every worker and waits for in-flight work to finish:
// the current consumer callback completes, the reaper's in-flight tick
// finishes and the expiration subscription is released.
func (r *Registration[E, ID]) Shutdown() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.group != nil {
		return r.group.Wait()
	}
	return nil
}
