// Package registry implements cocol.ChannelScope, a named lookup table for
// channels shared across independently constructed processes.
package registry

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/cocol-go/cocol"
)

// entry pairs a resolved channel with the type tag it was registered
// under, so a later Resolve call with a mismatched type can be rejected
// instead of silently handing back the wrong element type.
type entry struct {
	value   any
	typeTag string
}

// Registry is a cocol.ChannelScope backed by patrickmn/go-cache, giving
// registered channels an optional expiration independent of any process's
// lifetime — useful for scopes that should self-clean if no one resolves
// a name again within a TTL.
type Registry struct {
	cache *gocache.Cache
	log   *logrus.Entry

	mu     sync.Mutex
	closed bool
}

// New constructs a Registry. ttl of zero disables expiration (entries
// live until explicitly Forget'd or the Registry is Closed); cleanupEvery
// controls how often expired entries are swept, and is ignored when ttl is
// zero.
func New(ttl, cleanupEvery time.Duration) *Registry {
	return &Registry{
		cache: gocache.New(ttl, cleanupEvery),
		log:   logrus.WithField("component", "cocol.registry"),
	}
}

// Resolve implements cocol.ChannelScope.
func (r *Registry) Resolve(name string, typeTag string, factory func() any) (any, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, cocol.ErrClosed
	}
	r.mu.Unlock()

	if v, ok := r.cache.Get(name); ok {
		e := v.(entry)
		if e.typeTag != typeTag {
			return nil, cocol.ErrTypeMismatch
		}
		return e.value, nil
	}

	if factory == nil {
		return nil, cocol.ErrNotFound
	}

	created := factory()
	// Add only stores the entry if no live entry exists under name, so of
	// two concurrent first Resolves for the same name exactly one stores
	// its channel; the other's channel is discarded and both return the
	// stored entry read back below.
	_ = r.cache.Add(name, entry{value: created, typeTag: typeTag}, gocache.DefaultExpiration)
	if v, ok := r.cache.Get(name); ok {
		e := v.(entry)
		if e.typeTag == typeTag {
			r.log.WithField("name", name).Debug("channel registered")
			return e.value, nil
		}
	}
	return nil, cocol.ErrTypeMismatch
}

// Forget implements cocol.ChannelScope.
func (r *Registry) Forget(name string) {
	r.cache.Delete(name)
}

// Close implements cocol.ChannelScope.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.cache.Flush()
	return nil
}
