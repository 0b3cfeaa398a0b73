package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/novelhub/readerkit/internal/query"

// CacheMetrics counts query cache events. It records to the global meter
// provider and keeps local totals for the CLI summary.
type CacheMetrics struct {
	events metric.Int64Counter

	hits, misses, fetches, superseded, invalidations, evictions atomic.Int64
}

func NewCacheMetrics() (*CacheMetrics, error) {
	counter, err := otel.Meter(meterName).Int64Counter(
		"readerkit.cache.events",
		metric.WithDescription("Query cache lifecycle events"),
	)
	if err != nil {
		return nil, err
	}
	return &CacheMetrics{events: counter}, nil
}

func (m *CacheMetrics) record(kind string, n *atomic.Int64) {
	n.Add(1)
	m.events.Add(context.Background(), 1, metric.WithAttributes(attribute.String("event", kind)))
}

func (m *CacheMetrics) Hit()        { m.record("hit", &m.hits) }
func (m *CacheMetrics) Miss()       { m.record("miss", &m.misses) }
func (m *CacheMetrics) Fetch()      { m.record("fetch", &m.fetches) }
func (m *CacheMetrics) Superseded() { m.record("superseded", &m.superseded) }
func (m *CacheMetrics) Invalidate() { m.record("invalidate", &m.invalidations) }
func (m *CacheMetrics) Evict()      { m.record("evict", &m.evictions) }

// Totals is a point-in-time copy of the counters.
type Totals struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Fetches       int64 `json:"fetches"`
	Superseded    int64 `json:"superseded"`
	Invalidations int64 `json:"invalidations"`
	Evictions     int64 `json:"evictions"`
}

func (m *CacheMetrics) Totals() Totals {
	return Totals{
		Hits:          m.hits.Load(),
		Misses:        m.misses.Load(),
		Fetches:       m.fetches.Load(),
		Superseded:    m.superseded.Load(),
		Invalidations: m.invalidations.Load(),
		Evictions:     m.evictions.Load(),
	}
}
