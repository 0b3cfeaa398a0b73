package query

import (
	"context"
	"sync"
)

// Query bundles a key with its fetch function and read options.
type Query[T any] struct {
	Key     Key
	Fetch   Fetcher[T]
	Options []ReadOption
}

func (q Query[T]) Read(c *Client) Result[T] {
	return Read(c, q.Key, q.Fetch, q.Options...)
}

func (q Query[T]) Get(ctx context.Context, c *Client) (T, error) {
	return Fetch(ctx, c, q.Key, q.Fetch, q.Options...)
}

// Observer follows one key at a time and is notified whenever the entry
// under it changes. It is the equivalent of a mounted component: entries
// with observers are refetched as soon as they are invalidated and are never
// garbage collected.
type Observer[T any] struct {
	c       *Client
	updates chan struct{}

	mu     sync.Mutex
	q      Query[T]
	hash   string
	subID  uint64
	prev   Result[T]
	closed bool
}

// Observe subscribes to q's key and starts fetching it if needed.
func Observe[T any](c *Client, q Query[T]) *Observer[T] {
	o := &Observer[T]{c: c, q: q, hash: q.Key.Hash(), updates: make(chan struct{}, 1)}
	o.subID = c.subscribe(o.hash, o.notify)
	o.Result()
	return o
}

func (q Query[T]) Observe(c *Client) *Observer[T] {
	return Observe(c, q)
}

func (o *Observer[T]) notify() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.updates <- struct{}{}:
	default:
	}
}

// Updates receives a value after the observed entry changes. Call Result
// to read the new state.
func (o *Observer[T]) Updates() <-chan struct{} {
	return o.updates
}

// SetQuery moves the observer to another key, e.g. the next page. The
// previous key's entry stays cached.
func (o *Observer[T]) SetQuery(q Query[T]) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	oldHash, oldID := o.hash, o.subID
	o.q = q
	hash := q.Key.Hash()
	changed := hash != oldHash
	o.hash = hash
	o.mu.Unlock()

	if changed {
		o.c.unsubscribe(oldHash, oldID)
		id := o.c.subscribe(hash, o.notify)
		o.mu.Lock()
		o.subID = id
		o.mu.Unlock()
	}
	o.Result()
}

// Result reads the observed key. With KeepPreviousData, a key that has no
// data yet shows the last data this observer saw, flagged as placeholder.
func (o *Observer[T]) Result() Result[T] {
	o.mu.Lock()
	q := o.q
	o.mu.Unlock()

	r := q.Read(o.c)
	rc := o.c.readConfig(q.Options)

	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case r.hasData:
		o.prev = r
	case rc.keepPrevious && o.prev.hasData && !o.prev.Key.Equal(r.Key):
		r.Data = o.prev.Data
		r.IsPlaceholderData = true
		if r.Status == StatusPending {
			r.Status = StatusSuccess
		}
	}
	return r
}

// Close unsubscribes. Results that land afterwards are not delivered.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	hash, id := o.hash, o.subID
	o.mu.Unlock()
	o.c.unsubscribe(hash, id)
}
