// Package query is a process-wide cache of API read results.
//
// Entries are addressed by Key and carry a staleness window. Reads serve
// fresh entries directly and refetch stale or missing ones in the
// background while returning the best data available. At most one fetch per
// key is in flight: concurrent reads share it through singleflight.
//
// Every new flight and every invalidation bumps the entry's generation. A
// flight whose generation is no longer current when it completes is dropped,
// so the most recently issued request always wins regardless of the order
// responses arrive in.
package query

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultGCTime is how long an unobserved entry survives after its last use.
	DefaultGCTime = 5 * time.Minute
	// StaleNever keeps an entry fresh until it is invalidated.
	StaleNever = time.Duration(1<<63 - 1)
)

type entry struct {
	key  Key
	hash string

	data      any
	hasData   bool
	fetchedAt time.Time
	staleTime time.Duration

	err     error
	errorAt time.Time
	// failed is set by a failed flight and cleared by success or
	// invalidation. Read does not restart failed entries.
	failed      bool
	invalidated bool

	gen      uint64
	fetching bool
	cancel   context.CancelFunc
	run      func() (any, error)
	fetch    func(context.Context) (any, error)

	lastUsed time.Time
}

// outcome is what a flight hands to every caller sharing it.
type outcome struct {
	val     any
	applied bool
}

type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	subs    map[string]map[uint64]func()
	nextSub uint64

	flights singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now          func() time.Time
	retry        RetryPolicy
	metrics      Metrics
	gcTime       time.Duration
	defaultStale time.Duration
}

type Option func(*Client)

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithRetry(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithMetrics(m Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithGCTime sets how long unobserved entries are kept. Zero disables
// collection.
func WithGCTime(d time.Duration) Option {
	return func(c *Client) { c.gcTime = d }
}

// WithDefaultStaleTime applies to reads that do not pass StaleTime.
func WithDefaultStaleTime(d time.Duration) Option {
	return func(c *Client) { c.defaultStale = d }
}

// New builds a Client. Call Close to stop its background work.
func New(opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		entries: map[string]*entry{},
		subs:    map[string]map[uint64]func(){},
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
		retry:   DefaultRetryPolicy(),
		metrics: NoopMetrics{},
		gcTime:  DefaultGCTime,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gcTime > 0 {
		c.wg.Add(1)
		go c.janitor(c.gcTime)
	}
	return c
}

// Close cancels in-flight fetches and stops the collector.
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Client) janitor(interval time.Duration) {
	defer c.wg.Done()
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.GC()
		}
	}
}

func (c *Client) entryLocked(key Key, now time.Time) *entry {
	hash := key.Hash()
	e, ok := c.entries[hash]
	if !ok {
		e = &entry{key: key.clone(), hash: hash, staleTime: c.defaultStale}
		c.entries[hash] = e
	}
	e.lastUsed = now
	return e
}

func (c *Client) staleLocked(e *entry, now time.Time) bool {
	if !e.hasData || e.invalidated {
		return true
	}
	return now.Sub(e.fetchedAt) >= e.staleTime
}

// startLocked joins the entry's current flight or starts a new one.
func (c *Client) startLocked(e *entry) <-chan singleflight.Result {
	if e.fetching {
		return c.flights.DoChan(flightKey(e.hash, e.gen), e.run)
	}

	e.gen++
	gen := e.gen
	ctx, cancel := context.WithCancel(c.ctx)
	fetch := e.fetch
	e.fetching = true
	e.cancel = cancel
	e.run = func() (any, error) {
		v, err := c.retry.run(ctx, fetch)
		applied := c.complete(e, gen, v, err)
		return outcome{val: v, applied: applied}, err
	}
	c.metrics.Fetch()
	return c.flights.DoChan(flightKey(e.hash, gen), e.run)
}

func flightKey(hash string, gen uint64) string {
	return hash + "#" + strconv.FormatUint(gen, 10)
}

// complete stores a flight's result unless a newer generation replaced it.
func (c *Client) complete(e *entry, gen uint64, v any, err error) bool {
	c.mu.Lock()
	cur, ok := c.entries[e.hash]
	if !ok || cur != e || e.gen != gen || !e.fetching {
		c.mu.Unlock()
		c.metrics.Superseded()
		return false
	}

	e.fetching = false
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	now := c.now()
	if err != nil {
		e.err = err
		e.errorAt = now
		e.failed = true
	} else {
		e.data = v
		e.hasData = true
		e.fetchedAt = now
		e.err = nil
		e.failed = false
		e.invalidated = false
	}
	listeners := c.listenersLocked(e.hash)
	c.mu.Unlock()

	notify(listeners)
	return true
}

// abandonLocked drops the entry's flight; its result will be ignored.
func (e *entry) abandonLocked() {
	if !e.fetching {
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.fetching = false
	e.gen++
}

func matchesAny(k Key, prefixes []Key) bool {
	for _, p := range prefixes {
		if k.HasPrefix(p) {
			return true
		}
	}
	return false
}

// Invalidate marks every entry whose key starts with one of prefixes as
// stale. In-flight fetches for those entries are dropped. Entries with
// observers are refetched immediately; the rest refetch on their next read.
// Pass Key{} to invalidate everything. It returns the number of entries
// touched.
func (c *Client) Invalidate(prefixes ...Key) int {
	c.mu.Lock()
	var listeners []func()
	n := 0
	for hash, e := range c.entries {
		if !matchesAny(e.key, prefixes) {
			continue
		}
		n++
		e.invalidated = true
		e.failed = false
		e.abandonLocked()
		if len(c.subs[hash]) > 0 && e.fetch != nil {
			c.startLocked(e)
		}
		listeners = append(listeners, c.listenersLocked(hash)...)
		c.metrics.Invalidate()
	}
	c.mu.Unlock()

	notify(listeners)
	return n
}

// SetData stores v under key as freshly fetched data, superseding any
// in-flight fetch for it.
func (c *Client) SetData(key Key, v any) {
	c.mu.Lock()
	now := c.now()
	e := c.entryLocked(key, now)
	e.abandonLocked()
	e.data = v
	e.hasData = true
	e.fetchedAt = now
	e.err = nil
	e.failed = false
	e.invalidated = false
	listeners := c.listenersLocked(e.hash)
	c.mu.Unlock()

	notify(listeners)
}

// Remove deletes every entry whose key starts with one of prefixes.
// Observers stay subscribed and see a missing entry on their next read.
func (c *Client) Remove(prefixes ...Key) int {
	c.mu.Lock()
	var listeners []func()
	n := 0
	for hash, e := range c.entries {
		if !matchesAny(e.key, prefixes) {
			continue
		}
		e.abandonLocked()
		delete(c.entries, hash)
		listeners = append(listeners, c.listenersLocked(hash)...)
		n++
	}
	c.mu.Unlock()

	notify(listeners)
	return n
}

// GC removes entries that have no observers, no flight, and have not been
// used for the configured GC time.
func (c *Client) GC() int {
	if c.gcTime <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for hash, e := range c.entries {
		if e.fetching || len(c.subs[hash]) > 0 {
			continue
		}
		if now.Sub(e.lastUsed) < c.gcTime {
			continue
		}
		delete(c.entries, hash)
		c.metrics.Evict()
		n++
	}
	return n
}

// EntryState is a copy of an entry's bookkeeping.
type EntryState struct {
	Key         Key
	HasData     bool
	Err         error
	FetchedAt   time.Time
	StaleTime   time.Duration
	Stale       bool
	Invalidated bool
	Fetching    bool
	Generation  uint64
	Observers   int
}

// State reports the entry stored under key.
func (c *Client) State(key Key) (EntryState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.Hash()]
	if !ok {
		return EntryState{}, false
	}
	return EntryState{
		Key:         e.key.clone(),
		HasData:     e.hasData,
		Err:         e.err,
		FetchedAt:   e.fetchedAt,
		StaleTime:   e.staleTime,
		Stale:       c.staleLocked(e, c.now()),
		Invalidated: e.invalidated,
		Fetching:    e.fetching,
		Generation:  e.gen,
		Observers:   len(c.subs[e.hash]),
	}, true
}

// IsStale reports whether the next read of key would refetch. Missing keys
// are stale.
func (c *Client) IsStale(key Key) bool {
	st, ok := c.State(key)
	return !ok || st.Stale
}

// Len returns the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Client) subscribe(hash string, fn func()) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	if c.subs[hash] == nil {
		c.subs[hash] = map[uint64]func(){}
	}
	c.subs[hash][id] = fn
	return id
}

func (c *Client) unsubscribe(hash string, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs[hash], id)
	if len(c.subs[hash]) == 0 {
		delete(c.subs, hash)
	}
}

func (c *Client) listenersLocked(hash string) []func() {
	subs := c.subs[hash]
	if len(subs) == 0 {
		return nil
	}
	out := make([]func(), 0, len(subs))
	for _, fn := range subs {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}
