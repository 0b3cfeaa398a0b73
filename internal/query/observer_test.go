package query

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitUpdate[T any](t *testing.T, o *Observer[T]) {
	t.Helper()
	select {
	case <-o.Updates():
	case <-time.After(time.Second):
		t.Fatal("no update from observer")
	}
}

func pageQuery(page int, gates map[int]chan struct{}, calls *atomic.Int32) Query[string] {
	return Query[string]{
		Key: Key{"competition-novels", "c1", "", page, 20},
		Fetch: func(ctx context.Context) (string, error) {
			calls.Add(1)
			<-gates[page]
			return fmt.Sprintf("page-%d", page), nil
		},
		Options: []ReadOption{KeepPreviousData(), StaleTime(time.Minute)},
	}
}

func TestObserverKeepsPreviousPageWhilePaginating(t *testing.T) {
	c := newTestClient(t)
	gates := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	var calls atomic.Int32

	o := Observe(c, pageQuery(1, gates, &calls))
	defer o.Close()

	r := o.Result()
	assert.Equal(t, StatusPending, r.Status)
	assert.False(t, r.HasData())

	close(gates[1])
	waitUpdate(t, o)
	r = o.Result()
	require.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, "page-1", r.Data)
	assert.False(t, r.IsPlaceholderData)

	o.SetQuery(pageQuery(2, gates, &calls))
	r = o.Result()
	assert.Equal(t, StatusSuccess, r.Status, "no loading flash")
	assert.NoError(t, r.Err)
	assert.Equal(t, "page-1", r.Data)
	assert.True(t, r.IsPlaceholderData)
	assert.True(t, r.IsFetching)

	close(gates[2])
	waitUpdate(t, o)
	r = o.Result()
	assert.Equal(t, "page-2", r.Data)
	assert.False(t, r.IsPlaceholderData)

	o.SetQuery(pageQuery(1, gates, &calls))
	r = o.Result()
	assert.Equal(t, "page-1", r.Data, "previous page is still cached")
	assert.False(t, r.IsPlaceholderData)
	assert.False(t, r.IsFetching)
	assert.EqualValues(t, 2, calls.Load())
}

func TestObserverWithoutKeepPreviousShowsPending(t *testing.T) {
	c := newTestClient(t)
	gates := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	var calls atomic.Int32

	q1 := pageQuery(1, gates, &calls)
	q1.Options = []ReadOption{StaleTime(time.Minute)}
	o := Observe(c, q1)
	defer o.Close()
	close(gates[1])
	waitUpdate(t, o)

	q2 := pageQuery(2, gates, &calls)
	q2.Options = []ReadOption{StaleTime(time.Minute)}
	o.SetQuery(q2)
	r := o.Result()
	assert.Equal(t, StatusPending, r.Status)
	assert.Empty(t, r.Data)
	close(gates[2])
}

func TestClosedObserverIsNotNotified(t *testing.T) {
	c := newTestClient(t)
	gate := make(chan struct{})
	key := Key{"novel-chapters", "n1"}
	o := Observe(c, Query[string]{Key: key, Fetch: func(ctx context.Context) (string, error) {
		<-gate
		return "late", nil
	}})
	o.Close()

	close(gate)
	waitFresh(t, c, key)

	select {
	case <-o.Updates():
		t.Fatal("closed observer was notified")
	default:
	}
	st, _ := c.State(key)
	assert.Equal(t, 0, st.Observers)
}

func TestInvalidateRefetchesObservedEntries(t *testing.T) {
	c := newTestClient(t)
	key := Key{"novel-reviews", "n1"}
	var calls atomic.Int32
	o := Observe(c, Query[string]{Key: key, Fetch: counter("reviews", &calls), Options: []ReadOption{StaleTime(time.Hour)}})
	defer o.Close()
	waitUpdate(t, o)
	require.EqualValues(t, 1, calls.Load())

	c.Invalidate(key)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	waitFresh(t, c, key)
	assert.False(t, c.IsStale(key))

	var idle atomic.Int32
	_, err := Fetch(context.Background(), c, Key{"unobserved"}, counter("v", &idle), StaleTime(time.Hour))
	require.NoError(t, err)
	c.Invalidate(Key{"unobserved"})
	assert.EqualValues(t, 1, idle.Load(), "unobserved entries wait for the next read")
}
