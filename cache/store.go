package cache

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/storefront/observe"
)

// Loader performs the network read for one key and returns the raw body.
type Loader func(ctx context.Context) ([]byte, error)

// Cache is the keyed store of server resources.
//
// Contract:
//   - Concurrency: safe for concurrent use; at most one Loader runs per key
//     at any instant.
//   - Context: Loaders run with the caller's context values but detached
//     from its cancellation. A caller whose context ends stops waiting;
//     the load finishes for everyone else.
//   - Ownership: returned byte slices are shared and must not be modified.
type Cache struct {
	mu      sync.Mutex
	records map[string]*record
	nextSub uint64

	flight singleflight.Group
	wg     sync.WaitGroup

	policy Policy
	logger observe.Logger
	now    func() time.Time

	hits          metric.Int64Counter
	misses        metric.Int64Counter
	loads         metric.Int64Counter
	invalidations metric.Int64Counter
}

type record struct {
	id    string
	entry Entry

	// gen is bumped on every invalidation; a load that started under an
	// older generation stores its result as stale.
	gen uint64
	// epoch is bumped when the entry is removed under a mounted consumer;
	// a load from an older epoch is discarded.
	epoch    uint64
	inflight bool
	pending  bool

	subs   map[uint64]*Subscription
	loader Loader
}

// Option configures a Cache.
type Option func(*Cache)

// WithPolicy sets the freshness policy.
func WithPolicy(p Policy) Option {
	return func(c *Cache) { c.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMeter registers cache counters on the given meter.
func WithMeter(m metric.Meter) Option {
	return func(c *Cache) {
		if m != nil {
			c.instrument(m)
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		records: make(map[string]*record),
		policy:  DefaultPolicy(),
		logger:  observe.NopLogger(),
		now:     time.Now,
	}
	c.instrument(noop.NewMeterProvider().Meter("noop"))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) instrument(m metric.Meter) {
	counter := func(name, desc string) metric.Int64Counter {
		ctr, err := m.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			ctr, _ = noop.NewMeterProvider().Meter("noop").Int64Counter(name)
		}
		return ctr
	}
	c.hits = counter("storefront.cache.hits", "Fetches served from a fresh entry")
	c.misses = counter("storefront.cache.misses", "Fetches that required a load")
	c.loads = counter("storefront.cache.loads", "Loader calls")
	c.invalidations = counter("storefront.cache.invalidations", "Entries marked stale")
}

// Get returns the current entry for key. Unknown keys report StatusIdle.
func (c *Cache) Get(key Key) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.records[key.String()]; ok {
		return rec.entry
	}
	return Entry{Key: key, Status: StatusIdle}
}

// Fetch returns the value for key, loading it when the entry is missing,
// stale, failed or expired by policy. Concurrent calls for the same key
// share a single Loader call.
func (c *Cache) Fetch(ctx context.Context, key Key, loader Loader) ([]byte, error) {
	if loader == nil {
		return nil, ErrNilLoader
	}
	if key.Resource == "" {
		return nil, ErrEmptyResource
	}

	id := key.String()
	attrs := metric.WithAttributes(attribute.String("resource", key.Resource))

	c.mu.Lock()
	if rec, ok := c.records[id]; ok && c.freshLocked(rec) {
		value := rec.entry.Value
		c.mu.Unlock()
		c.hits.Add(ctx, 1, attrs)
		return value, nil
	}
	c.mu.Unlock()

	c.misses.Add(ctx, 1, attrs)
	return c.load(ctx, id, key, loader)
}

func (c *Cache) freshLocked(rec *record) bool {
	e := rec.entry
	return e.Status == StatusSuccess && !e.Stale && c.policy.isFresh(e.LastFetchedAt, c.now())
}

func (c *Cache) recordLocked(id string, key Key) *record {
	rec, ok := c.records[id]
	if !ok {
		rec = &record{
			id:    id,
			entry: Entry{Key: key, Status: StatusIdle},
			subs:  make(map[uint64]*Subscription),
		}
		c.records[id] = rec
	}
	return rec
}

// load runs loader for key under the key's flight. The shared load is
// detached from the caller's cancellation: a caller whose context ends
// stops waiting and gets ctx.Err(), while callers that joined the same
// flight still receive the result and the entry is still stored.
func (c *Cache) load(ctx context.Context, id string, key Key, loader Loader) ([]byte, error) {
	shared := context.WithoutCancel(ctx)

	// Held until this caller's share of the flight has ended so Wait
	// covers loads whose callers left.
	c.wg.Add(1)
	ch := c.flight.DoChan(id, func() (any, error) {
		return c.loadShared(shared, id, key, loader)
	})

	select {
	case res := <-ch:
		c.wg.Done()
		if res.Err != nil {
			return nil, res.Err
		}
		value, _ := res.Val.([]byte)
		return value, nil
	case <-ctx.Done():
		go func() {
			<-ch
			c.wg.Done()
		}()
		return nil, ctx.Err()
	}
}

// loadShared is the body of a key's flight.
func (c *Cache) loadShared(ctx context.Context, id string, key Key, loader Loader) ([]byte, error) {
	c.mu.Lock()
	rec := c.recordLocked(id, key)
	if c.freshLocked(rec) {
		// A flight that ended between the caller's check and this one
		// already stored a fresh value.
		value := rec.entry.Value
		c.mu.Unlock()
		return value, nil
	}
	startGen, startEpoch := rec.gen, rec.epoch
	rec.inflight = true
	rec.entry.Status = StatusLoading
	c.mu.Unlock()

	c.loads.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", key.Resource)))
	value, err := loader(ctx)

	c.mu.Lock()
	rec.inflight = false
	if c.records[id] != rec || rec.epoch != startEpoch {
		// Removed while loading; do not resurrect it.
		c.mu.Unlock()
		return value, err
	}
	if err != nil {
		rec.entry.Status = StatusError
		rec.entry.Err = err
	} else {
		rec.entry.Status = StatusSuccess
		rec.entry.Err = nil
		rec.entry.Value = value
		rec.entry.LastFetchedAt = c.now()
		rec.entry.Fingerprint = xxhash.Sum64(value)
		rec.entry.Stale = rec.gen != startGen
	}
	var refetch Loader
	if rec.pending && len(rec.subs) > 0 && rec.loader != nil {
		refetch = rec.loader
	}
	rec.pending = false
	entry := rec.entry
	subs := rec.subscribers()
	c.evictLocked()

	if len(subs) > 0 || refetch != nil {
		// Delivered off the flight so a callback may Fetch the same key.
		// Forget lets that Fetch, or the refetch, start a new flight
		// instead of joining this one.
		c.flight.Forget(id)
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for _, s := range subs {
				s.deliver(entry)
			}
			if refetch != nil {
				c.refetchAsync(ctx, id, key, refetch)
			}
		}()
	}
	c.mu.Unlock()
	return value, err
}

// refetchAsync loads key in the background. The context keeps its values
// but not its cancellation, so unmounting or navigating away does not
// abort the request.
func (c *Cache) refetchAsync(ctx context.Context, id string, key Key, loader Loader) {
	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.load(ctx, id, key, loader); err != nil {
			c.logger.Debug(ctx, "background refetch failed",
				observe.F("key", id),
				observe.F("error", err),
			)
		}
	}()
}

// Invalidate marks the given keys stale. See InvalidateMatching.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) int {
	matchers := make([]Matcher, 0, len(keys))
	for _, k := range keys {
		matchers = append(matchers, Exact(k))
	}
	return c.InvalidateMatching(ctx, matchers...)
}

// InvalidateMatching marks every entry selected by any matcher stale and
// returns how many were marked. Entries with a mounted consumer are
// refetched in the background; the rest are refetched on next Fetch.
// Entries the matchers do not select are left untouched.
func (c *Cache) InvalidateMatching(ctx context.Context, matchers ...Matcher) int {
	if len(matchers) == 0 {
		return 0
	}
	match := Any(matchers...)

	type job struct {
		id     string
		key    Key
		loader Loader
	}

	c.mu.Lock()
	var jobs []job
	n := 0
	for id, rec := range c.records {
		if !match(rec.entry.Key) {
			continue
		}
		n++
		rec.gen++
		rec.entry.Stale = true
		if len(rec.subs) == 0 || rec.loader == nil {
			continue
		}
		if rec.inflight {
			rec.pending = true
			continue
		}
		jobs = append(jobs, job{id: id, key: rec.entry.Key, loader: rec.loader})
	}
	c.mu.Unlock()

	for _, j := range jobs {
		c.refetchAsync(ctx, j.id, j.key, j.loader)
	}
	if n > 0 {
		c.invalidations.Add(ctx, int64(n))
		c.logger.Debug(ctx, "cache invalidated",
			observe.F("entries", n),
			observe.F("refetching", len(jobs)),
		)
	}
	return n
}

// Remove drops the given keys. Keys with a mounted consumer keep the
// consumer: their entry is reset to idle and the next Fetch or
// invalidation loads it again. In-flight loads for removed keys finish
// without storing their result.
func (c *Cache) Remove(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if rec, ok := c.records[k.String()]; ok {
			c.removeLocked(rec)
		}
	}
}

// RemoveMatching drops every entry selected by any matcher, as Remove
// does, and returns how many were dropped.
func (c *Cache) RemoveMatching(matchers ...Matcher) int {
	match := Any(matchers...)
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, rec := range c.records {
		if match(rec.entry.Key) {
			c.removeLocked(rec)
			n++
		}
	}
	return n
}

// Clear drops every entry, as Remove does.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.records {
		c.removeLocked(rec)
	}
}

func (c *Cache) removeLocked(rec *record) {
	if len(rec.subs) == 0 {
		delete(c.records, rec.id)
		return
	}
	rec.gen++
	rec.epoch++
	rec.pending = false
	rec.entry = Entry{Key: rec.entry.Key, Status: StatusIdle}
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Snapshot returns a copy of every entry keyed by canonical key string.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Entry, len(c.records))
	for id, rec := range c.records {
		out[id] = rec.entry
	}
	return out
}

// Wait blocks until all background refetches have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// evictLocked drops the least recently fetched entries that have no
// consumer and no load in flight until the policy bound holds.
func (c *Cache) evictLocked() {
	limit := c.policy.MaxEntries
	if limit <= 0 || len(c.records) <= limit {
		return
	}
	candidates := make([]*record, 0, len(c.records))
	for _, rec := range c.records {
		if len(rec.subs) == 0 && !rec.inflight {
			candidates = append(candidates, rec)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].entry.LastFetchedAt.Before(candidates[j].entry.LastFetchedAt)
	})
	for _, rec := range candidates {
		if len(c.records) <= limit {
			return
		}
		delete(c.records, rec.id)
	}
}

func (r *record) subscribers() []*Subscription {
	subs := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	return subs
}

// Subscription is a mounted consumer of one key.
type Subscription struct {
	id     uint64
	key    Key
	cache  *Cache
	fn     func(Entry)
	closed atomic.Bool
}

// Watch mounts a consumer on key. If the entry is not fresh a load starts
// in the background. fn, if non-nil, is called with the entry after every
// completed load of the key until the subscription is closed. It runs on
// a background goroutine after the load's flight has ended, so it may call
// Fetch on the same key; calls for consecutive loads are not serialized.
func (c *Cache) Watch(ctx context.Context, key Key, loader Loader, fn func(Entry)) (*Subscription, error) {
	if loader == nil {
		return nil, ErrNilLoader
	}
	if key.Resource == "" {
		return nil, ErrEmptyResource
	}
	id := key.String()

	c.mu.Lock()
	rec := c.recordLocked(id, key)
	c.nextSub++
	sub := &Subscription{id: c.nextSub, key: key, cache: c, fn: fn}
	rec.subs[sub.id] = sub
	rec.loader = loader
	need := !c.freshLocked(rec)
	c.mu.Unlock()

	if need {
		c.refetchAsync(ctx, id, key, loader)
	}
	return sub, nil
}

// Key returns the watched key.
func (s *Subscription) Key() Key { return s.key }

// Entry returns the current entry of the watched key.
func (s *Subscription) Entry() Entry { return s.cache.Get(s.key) }

// Close unmounts the consumer. Loads completing afterwards are not
// delivered to it. Close is idempotent.
func (s *Subscription) Close() {
	if s.closed.Swap(true) {
		return
	}
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[s.key.String()]
	if !ok {
		return
	}
	delete(rec.subs, s.id)
	if len(rec.subs) == 0 {
		rec.loader = nil
		// kept only for this consumer after a Remove
		if rec.entry.Status == StatusIdle && !rec.inflight {
			delete(c.records, rec.id)
		}
	}
}

func (s *Subscription) deliver(e Entry) {
	if s.fn == nil || s.closed.Load() {
		return
	}
	s.fn(e)
}
