package query

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNoFetcher is returned by Fetch when no fetch function was given.
var ErrNoFetcher = errors.New("query: no fetch function")

// Fetcher loads the value for one key.
type Fetcher[T any] func(ctx context.Context) (T, error)

type Status int

const (
	// StatusIdle is a disabled query: nothing is fetched.
	StatusIdle Status = iota
	// StatusPending has no data yet and a fetch is running or due.
	StatusPending
	StatusSuccess
	// StatusError is a failed latest fetch. Earlier data may still be present.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is a snapshot of one key as seen by a reader.
type Result[T any] struct {
	Key       Key
	Status    Status
	Data      T
	Err       error
	UpdatedAt time.Time

	IsFetching bool
	IsStale    bool
	// IsPlaceholderData marks Data that does not belong to Key: a
	// placeholder, or the previous key's data while paginating.
	IsPlaceholderData bool

	hasData bool
}

// HasData reports whether Data holds a value (cached or placeholder).
func (r Result[T]) HasData() bool {
	return r.hasData || r.IsPlaceholderData
}

type readConfig struct {
	enabled        bool
	staleTime      time.Duration
	keepPrevious   bool
	placeholder    any
	hasPlaceholder bool
}

type ReadOption func(*readConfig)

// Enabled gates fetching. A disabled read never touches the network.
func Enabled(on bool) ReadOption {
	return func(rc *readConfig) { rc.enabled = on }
}

// StaleTime is how long fetched data counts as fresh.
func StaleTime(d time.Duration) ReadOption {
	return func(rc *readConfig) { rc.staleTime = d }
}

// KeepPreviousData makes an Observer keep showing the previous key's data
// while a new key loads.
func KeepPreviousData() ReadOption {
	return func(rc *readConfig) { rc.keepPrevious = true }
}

// Placeholder is returned as Data when the key has nothing cached. It is
// never written to the cache.
func Placeholder(v any) ReadOption {
	return func(rc *readConfig) {
		rc.placeholder = v
		rc.hasPlaceholder = true
	}
}

func (c *Client) readConfig(opts []ReadOption) readConfig {
	rc := readConfig{enabled: true, staleTime: c.defaultStale}
	for _, opt := range opts {
		opt(&rc)
	}
	return rc
}

func erase[T any](fetch Fetcher[T]) func(context.Context) (any, error) {
	if fetch == nil {
		return nil
	}
	return func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}
}

// cast converts stored data to T. Hydrated entries hold raw JSON until the
// first typed read decodes them.
func cast[T any](v any) (T, bool) {
	if t, ok := v.(T); ok {
		return t, true
	}
	var zero T
	raw, ok := v.(json.RawMessage)
	if !ok {
		return zero, false
	}
	var t T
	if err := json.Unmarshal(raw, &t); err != nil {
		return zero, false
	}
	return t, true
}

// decodeLocked converts hydrated JSON to T in place. Data that does not
// decode is dropped so the entry reads as missing and gets refetched.
func decodeLocked[T any](e *entry) {
	raw, ok := e.data.(json.RawMessage)
	if !e.hasData || !ok {
		return
	}
	if v, ok := cast[T](raw); ok {
		e.data = v
		return
	}
	e.data = nil
	e.hasData = false
	e.fetchedAt = time.Time{}
}

func (c *Client) prepareLocked(e *entry, rc readConfig, fetch func(context.Context) (any, error)) {
	if fetch != nil {
		e.fetch = fetch
	}
	e.staleTime = rc.staleTime
}

func resultLocked[T any](c *Client, e *entry, now time.Time, rc readConfig) Result[T] {
	r := Result[T]{
		Key:        e.key.clone(),
		Err:        e.err,
		UpdatedAt:  e.fetchedAt,
		IsFetching: e.fetching,
		IsStale:    c.staleLocked(e, now),
	}
	if e.hasData {
		if v, ok := cast[T](e.data); ok {
			r.Data = v
			r.hasData = true
		}
	}
	switch {
	case !rc.enabled:
		r.Status = StatusIdle
	case e.failed:
		r.Status = StatusError
	case r.hasData:
		r.Status = StatusSuccess
	default:
		r.Status = StatusPending
	}
	placeholderResult(&r, rc)
	return r
}

func placeholderResult[T any](r *Result[T], rc readConfig) {
	if r.hasData || !rc.hasPlaceholder {
		return
	}
	if v, ok := rc.placeholder.(T); ok {
		r.Data = v
		r.IsPlaceholderData = true
	}
}

// Read returns the best data available for key without blocking. A fresh
// entry is served as is. A stale or missing entry is returned as it stands
// while a background fetch runs; subscribers are notified when it lands.
// An entry whose last fetch failed is not refetched until invalidated.
func Read[T any](c *Client, key Key, fetch Fetcher[T], opts ...ReadOption) Result[T] {
	rc := c.readConfig(opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()

	if !rc.enabled {
		e, ok := c.entries[key.Hash()]
		if !ok {
			r := Result[T]{Key: key.clone(), Status: StatusIdle, IsStale: true}
			placeholderResult(&r, rc)
			return r
		}
		e.lastUsed = now
		decodeLocked[T](e)
		return resultLocked[T](c, e, now, rc)
	}

	e := c.entryLocked(key, now)
	decodeLocked[T](e)
	c.prepareLocked(e, rc, erase(fetch))
	if c.staleLocked(e, now) {
		c.metrics.Miss()
		if !e.fetching && !e.failed && e.fetch != nil {
			c.startLocked(e)
		}
	} else {
		c.metrics.Hit()
	}
	return resultLocked[T](c, e, now, rc)
}

// Fetch returns fresh data for key, waiting for a fetch if needed. It joins
// an in-flight fetch instead of issuing a second request, and retries a
// previously failed entry. A disabled read returns the placeholder or the
// zero value without fetching.
func Fetch[T any](ctx context.Context, c *Client, key Key, fetch Fetcher[T], opts ...ReadOption) (T, error) {
	rc := c.readConfig(opts)
	var zero T
	if !rc.enabled {
		if v, ok := rc.placeholder.(T); ok && rc.hasPlaceholder {
			return v, nil
		}
		return zero, nil
	}

	for {
		c.mu.Lock()
		now := c.now()
		e := c.entryLocked(key, now)
		decodeLocked[T](e)
		c.prepareLocked(e, rc, erase(fetch))
		if !c.staleLocked(e, now) {
			c.metrics.Hit()
			r := resultLocked[T](c, e, now, rc)
			c.mu.Unlock()
			return r.Data, nil
		}
		if e.fetch == nil {
			c.mu.Unlock()
			return zero, ErrNoFetcher
		}
		c.metrics.Miss()
		ch := c.startLocked(e)
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			out, _ := res.Val.(outcome)
			if !out.applied {
				// superseded by a newer flight or an invalidation
				if err := ctx.Err(); err != nil {
					return zero, err
				}
				continue
			}
			if res.Err != nil {
				return zero, res.Err
			}
			v, _ := cast[T](out.val)
			return v, nil
		}
	}
}
