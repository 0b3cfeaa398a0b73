package query

import (
	"encoding/json"
	"fmt"
	"time"
)

const snapshotVersion = 1

// Snapshot is the serializable form of the cache used for persistence.
type Snapshot struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	Entries []SnapshotEntry `json:"entries"`
}

type SnapshotEntry struct {
	Key       Key             `json:"key"`
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetchedAt"`
	StaleTime time.Duration   `json:"staleTime"`
}

// Dehydrate captures every entry holding valid data. Invalidated entries
// and entries under any of the exclude prefixes are left out.
func (c *Client) Dehydrate(exclude ...Key) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{Version: snapshotVersion, SavedAt: c.now()}
	for _, e := range c.entries {
		if !e.hasData || e.invalidated || matchesAny(e.key, exclude) {
			continue
		}
		data, err := json.Marshal(e.data)
		if err != nil {
			return Snapshot{}, fmt.Errorf("encode %s: %w", e.hash, err)
		}
		snap.Entries = append(snap.Entries, SnapshotEntry{
			Key:       e.key.clone(),
			Data:      data,
			FetchedAt: e.fetchedAt,
			StaleTime: e.staleTime,
		})
	}
	return snap, nil
}

// Hydrate loads a snapshot. Entries already holding newer data are kept.
// Data stays raw JSON until a typed read decodes it.
func (c *Client) Hydrate(snap Snapshot) (int, error) {
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for _, se := range snap.Entries {
		if len(se.Key) == 0 || len(se.Data) == 0 {
			continue
		}
		e := c.entryLocked(se.Key, now)
		if e.hasData && !e.fetchedAt.Before(se.FetchedAt) {
			continue
		}
		e.data = se.Data
		e.hasData = true
		e.fetchedAt = se.FetchedAt
		e.staleTime = se.StaleTime
		e.invalidated = false
		e.failed = false
		e.err = nil
		n++
	}
	return n, nil
}
