// Package policy implements the policy registry: the
// memoized, per-entity pattern set, cache encoding, namespace and TTL
// that every other component consults.
package policy

import (
	"strings"
	"sync"
	"time"

	"github.com/foogaro/kinexis/kerrors"
)

// Bit is one caching pattern bit.
type Bit int

const (
	CacheAside Bit = 1 << iota
	RefreshAhead
	WriteBehind
)

// Format is the cache encoding: JSON blob or Redis hash field map.
type Format int

const (
	JSON Format = iota
	HASH
)

// Policy is the immutable per-entity configuration resolved at registration.
type Policy struct {
	Bits    Bit
	Format  Format
	Enabled bool
	// TTL <= 0 means the cache key never expires.
	TTL time.Duration
	// Prefix is the cache key namespace; defaults to lower(entity) if empty.
	Prefix string
}

func (p Policy) HasCacheAside() bool   { return p.Bits&CacheAside != 0 }
func (p Policy) HasRefreshAhead() bool { return p.Bits&RefreshAhead != 0 }
func (p Policy) HasWriteBehind() bool  { return p.Bits&WriteBehind != 0 }

// Registry memoizes the Policy for each entity name, computed exactly
// once. Reads after the first Register require no inspection of any
// declaration — they are plain map lookups guarded by a read lock.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
	prefixes map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[string]Policy),
		prefixes: make(map[string]string),
	}
}

// Register memoizes p for entity. Registering the same entity a second
// time with an identical policy is a no-op; registering it with a
// different policy is a PolicyMisconfigured error, since the pattern set
// must be computed once per type.
func (r *Registry) Register(entity string, p Policy) error {
	if p.Prefix == "" {
		p.Prefix = strings.ToLower(entity)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.policies[entity]; ok {
		if existing != p {
			return kerrors.ErrPolicyMisconfigured
		}
		return nil
	}
	r.policies[entity] = p
	r.prefixes[entity] = p.Prefix
	return nil
}

// Get returns the memoized Policy for entity, if registered.
func (r *Registry) Get(entity string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[entity]
	return p, ok
}

func (r *Registry) HasCacheAside(entity string) bool {
	p, _ := r.Get(entity)
	return p.HasCacheAside()
}

func (r *Registry) HasRefreshAhead(entity string) bool {
	p, _ := r.Get(entity)
	return p.HasRefreshAhead()
}

func (r *Registry) HasWriteBehind(entity string) bool {
	p, _ := r.Get(entity)
	return p.HasWriteBehind()
}

// Prefix returns the cache namespace registered for entity, or
// lower(entity) if entity was never registered.
func (r *Registry) Prefix(entity string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if prefix, ok := r.prefixes[entity]; ok {
		return prefix
	}
	return strings.ToLower(entity)
}
