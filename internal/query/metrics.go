package query

// Metrics receives cache lifecycle events. Implementations must be safe for
// concurrent use and must not call back into the Client.
type Metrics interface {
	// Hit is a read served from a fresh entry.
	Hit()
	// Miss is a read that found a missing or stale entry.
	Miss()
	// Fetch is a new network flight. Coalesced reads do not count.
	Fetch()
	// Superseded is a completed flight whose result was dropped.
	Superseded()
	Invalidate()
	Evict()
}

// NoopMetrics ignores every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Fetch()      {}
func (NoopMetrics) Superseded() {}
func (NoopMetrics) Invalidate() {}
func (NoopMetrics) Evict()      {}
