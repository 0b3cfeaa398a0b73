package query

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chapter struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestSnapshotRestoresTypedData(t *testing.T) {
	clock := newFakeClock()
	src := newTestClient(t, WithClock(clock.Now))
	key := Key{"novel-chapters", "n1"}
	want := []chapter{{ID: "c1", Title: "Prologue"}, {ID: "c2", Title: "Storm"}}

	_, err := Fetch(context.Background(), src, key, func(context.Context) ([]chapter, error) {
		return want, nil
	}, StaleTime(time.Hour))
	require.NoError(t, err)
	src.SetData(Key{"novel", "n1"}, "gone")
	src.Invalidate(Key{"novel", "n1"})

	snap, err := src.Dehydrate()
	require.NoError(t, err)
	require.Len(t, snap.Entries, 1, "invalidated entries are not persisted")

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	clock.Advance(10 * time.Minute)
	dst := newTestClient(t, WithClock(clock.Now))
	n, err := dst.Hydrate(decoded)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var calls atomic.Int32
	r := Read(dst, key, func(context.Context) ([]chapter, error) {
		calls.Add(1)
		return nil, nil
	}, StaleTime(time.Hour))
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, want, r.Data)
	assert.False(t, r.IsStale)
	assert.EqualValues(t, 0, calls.Load())
}

func TestHydrateKeepsNewerData(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(t, WithClock(clock.Now))
	key := Key{"novel", "n1"}
	c.SetData(key, "current")

	n, err := c.Hydrate(Snapshot{Version: 1, Entries: []SnapshotEntry{{
		Key:       key,
		Data:      json.RawMessage(`"older"`),
		FetchedAt: clock.Now().Add(-time.Hour),
		StaleTime: time.Hour,
	}}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = c.Hydrate(Snapshot{Version: 99})
	assert.Error(t, err)
}

func TestUndecodableSnapshotEntryIsRefetched(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(t, WithClock(clock.Now))
	key := Key{"novel-chapters", "n1"}
	_, err := c.Hydrate(Snapshot{Version: 1, Entries: []SnapshotEntry{{
		Key:       key,
		Data:      json.RawMessage(`"not a list"`),
		FetchedAt: clock.Now(),
		StaleTime: time.Hour,
	}}})
	require.NoError(t, err)

	var calls atomic.Int32
	fetch := func(context.Context) ([]int, error) {
		calls.Add(1)
		return []int{1, 2}, nil
	}

	r := Read(c, key, fetch, StaleTime(time.Hour))
	assert.Equal(t, StatusPending, r.Status)
	assert.True(t, r.IsStale)
	assert.True(t, r.IsFetching)

	got, err := Fetch(context.Background(), c, key, fetch, StaleTime(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
	assert.EqualValues(t, 1, calls.Load())
}
