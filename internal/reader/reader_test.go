package reader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novelhub/readerkit/internal/api"
	"github.com/novelhub/readerkit/internal/persist"
	"github.com/novelhub/readerkit/internal/query"
	"github.com/novelhub/readerkit/internal/token"
)

type memTokens struct {
	mu    sync.Mutex
	value string
}

func (m *memTokens) Get(context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.value != ""
}

func (m *memTokens) Set(_ context.Context, tok string, _ token.Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = tok
	return nil
}

func (m *memTokens) Clear(context.Context) error {
	return m.Set(context.Background(), "", token.Options{})
}

type recordingNotifier struct {
	mu       sync.Mutex
	errors   []string
	messages []string
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

type fixture struct {
	svc    *Service
	tokens *memTokens
	notes  *recordingNotifier
	calls  map[string]*atomic.Int32
	mux    *http.ServeMux
	url    string
}

func (f *fixture) handle(pattern string, status int, payload any) {
	f.handleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, payload)
	})
}

func (f *fixture) handleFunc(pattern string, h http.HandlerFunc) {
	counter := &atomic.Int32{}
	f.calls[pattern] = counter
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)
		h(w, r)
	})
}

func (f *fixture) count(pattern string) int32 {
	c, ok := f.calls[pattern]
	if !ok {
		return 0
	}
	return c.Load()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tokens: &memTokens{},
		notes:  &recordingNotifier{},
		calls:  map[string]*atomic.Int32{},
		mux:    http.NewServeMux(),
	}
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)
	f.url = srv.URL
	f.svc = f.service(t, f.tokens)
	return f
}

// service builds another process talking to the same server.
func (f *fixture) service(t *testing.T, tokens token.Store) *Service {
	t.Helper()
	cache := query.New(
		query.WithGCTime(0),
		query.WithRetry(query.RetryPolicy{}),
		query.WithDefaultStaleTime(time.Hour),
	)
	t.Cleanup(cache.Close)
	return New(cache, api.NewClient(f.url, tokens), tokens, f.notes)
}

func TestMyParticipationsWithoutToken(t *testing.T) {
	f := newFixture(t)
	f.handle("GET /api/competition/my-participations", http.StatusOK, []api.Participation{{NovelID: "n1"}})
	ctx := context.Background()

	r := f.svc.MyParticipations(ctx).Read(f.svc.Cache)
	assert.Equal(t, query.StatusIdle, r.Status)
	assert.True(t, r.HasData())
	assert.Equal(t, []api.Participation{}, r.Data)

	got, err := Get(ctx, f.svc, f.svc.MyParticipations(ctx))
	require.NoError(t, err)
	assert.Equal(t, []api.Participation{}, got)
	assert.Zero(t, f.count("GET /api/competition/my-participations"))
}

func TestMyParticipationsWithToken(t *testing.T) {
	f := newFixture(t)
	f.handle("GET /api/competition/my-participations", http.StatusOK, []api.Participation{{NovelID: "n1"}})
	ctx := context.Background()
	require.NoError(t, f.svc.Login(ctx, "tok"))

	got, err := Get(ctx, f.svc, f.svc.MyParticipations(ctx))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].NovelID)

	_, err = Get(ctx, f.svc, f.svc.MyParticipations(ctx))
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.count("GET /api/competition/my-participations"), "fresh entry is served from cache")
}

func TestNovelPrivilegeNotFound(t *testing.T) {
	f := newFixture(t)
	f.handle("GET /api/novel/abc/privilege", http.StatusNotFound, map[string]string{"message": "no privilege"})

	got, err := Get(context.Background(), f.svc, f.svc.NovelPrivilege("abc"))
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, f.notes.errors)
}

func TestNovelChaptersDisabledWithoutID(t *testing.T) {
	f := newFixture(t)
	r := f.svc.NovelChapters("").Read(f.svc.Cache)
	assert.Equal(t, query.StatusIdle, r.Status)
	assert.Zero(t, f.svc.Cache.Len())
}

func TestNovelChaptersCoalesced(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.handleFunc("GET /api/novel/n1/chapter", func(w http.ResponseWriter, r *http.Request) {
		<-gate
		writeJSON(w, http.StatusOK, []api.Chapter{{ID: "c1", NovelID: "n1", Title: "One"}})
	})

	q := f.svc.NovelChapters("n1")
	for range 5 {
		r := q.Read(f.svc.Cache)
		assert.True(t, r.IsFetching)
	}
	close(gate)

	got, err := Get(context.Background(), f.svc, q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, f.count("GET /api/novel/n1/chapter"))
}

func TestCompetitionNovelsKeyDefaults(t *testing.T) {
	a := CompetitionNovelsKey("c1", api.CompetitionNovelsParams{})
	b := CompetitionNovelsKey("c1", api.CompetitionNovelsParams{PageNumber: 1, PageSize: 20})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(CompetitionNovelsKey("c1", api.CompetitionNovelsParams{PageNumber: 2})))
}

func TestDeleteReviewInvalidates(t *testing.T) {
	f := newFixture(t)
	f.handle("DELETE /api/n1", http.StatusOK, api.Envelope{Success: true})
	cache := f.svc.Cache
	cache.SetData(NovelReviewsKey("n1"), []string{"r1"})
	cache.SetData(NovelKey("n1"), "novel")
	cache.SetData(NovelKey("n2"), "other")

	_, err := f.svc.DeleteReview(context.Background(), "n1")
	require.NoError(t, err)

	assert.True(t, cache.IsStale(NovelReviewsKey("n1")))
	assert.True(t, cache.IsStale(NovelKey("n1")))
	assert.False(t, cache.IsStale(NovelKey("n2")))
}

func TestDeleteReviewFailureNotifies(t *testing.T) {
	f := newFixture(t)
	f.handle("DELETE /api/n1", http.StatusForbidden, map[string]string{"message": "not your review"})
	cache := f.svc.Cache
	cache.SetData(NovelKey("n1"), "novel")

	_, err := f.svc.DeleteReview(context.Background(), "n1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))
	assert.False(t, cache.IsStale(NovelKey("n1")), "failed mutation invalidates nothing")
	assert.Equal(t, []string{"not your review"}, f.notes.errors)
}

func TestTrackReadingProgressWithoutToken(t *testing.T) {
	f := newFixture(t)
	f.handle("POST /api/library/track-progress/c1", http.StatusOK, api.ProgressResult{Success: true})
	f.svc.Cache.SetData(ReadingHistoryKey(), []string{"c0"})

	res, err := f.svc.TrackReadingProgress(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Zero(t, f.count("POST /api/library/track-progress/c1"))
	assert.False(t, f.svc.Cache.IsStale(ReadingHistoryKey()))
}

func TestTrackReadingProgressInvalidatesHistory(t *testing.T) {
	f := newFixture(t)
	f.handle("POST /api/library/track-progress/c1", http.StatusOK, api.ProgressResult{Success: true, Message: "ok"})
	ctx := context.Background()
	require.NoError(t, f.svc.Login(ctx, "tok"))
	f.svc.Cache.SetData(ReadingHistoryKey(), []string{"c0"})

	res, err := f.svc.TrackReadingProgress(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.True(t, f.svc.Cache.IsStale(ReadingHistoryKey()))
}

func TestForgotPassword(t *testing.T) {
	f := newFixture(t)
	f.handle("POST /api/identity/forget-password", http.StatusOK, api.Envelope{Success: true, Message: "check your inbox"})
	f.svc.Cache.SetData(NovelKey("n1"), "novel")

	_, err := f.svc.ForgotPassword(context.Background(), "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"check your inbox"}, f.notes.messages)
	assert.False(t, f.svc.Cache.IsStale(NovelKey("n1")))

	_, err = f.svc.ForgotPassword(context.Background(), "not-an-email")
	require.Error(t, err)
	assert.Len(t, f.notes.errors, 1)
}

func TestLogoutDropsUserScopedEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Login(ctx, "tok"))
	cache := f.svc.Cache
	cache.SetData(MyParticipationsKey(), []api.Participation{})
	cache.SetData(NovelPrivilegeKey("n1"), &api.NovelPrivilege{NovelID: "n1"})
	cache.SetData(ReadingHistoryKey(), []string{})
	cache.SetData(NovelChaptersKey("n1"), []api.Chapter{})

	require.NoError(t, f.svc.Logout(ctx))
	assert.False(t, f.svc.LoggedIn(ctx))
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.State(NovelChaptersKey("n1"))
	assert.True(t, ok)
}

func TestSnapshotDoesNotCarryUserData(t *testing.T) {
	f := newFixture(t)
	f.handleFunc("GET /api/novel/n1/privilege", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer alice" {
			writeJSON(w, http.StatusNotFound, nil)
			return
		}
		writeJSON(w, http.StatusOK, api.NovelPrivilege{NovelID: "n1", Role: "owner", CanDelete: true})
	})
	f.handleFunc("GET /api/competition/my-participations", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer alice" {
			writeJSON(w, http.StatusOK, []api.Participation{})
			return
		}
		writeJSON(w, http.StatusOK, []api.Participation{{NovelID: "alice-secret"}})
	})
	f.handle("GET /api/novel/n1/chapter", http.StatusOK, []api.Chapter{{ID: "c1", NovelID: "n1"}})
	ctx := context.Background()

	alice := f.svc
	require.NoError(t, alice.Login(ctx, "alice"))
	priv, err := Get(ctx, alice, alice.NovelPrivilege("n1"))
	require.NoError(t, err)
	require.NotNil(t, priv)
	_, err = Get(ctx, alice, alice.MyParticipations(ctx))
	require.NoError(t, err)
	_, err = Get(ctx, alice, alice.NovelChapters("n1"))
	require.NoError(t, err)

	p := &persist.Persister{Store: persist.NewMemoryStore(), Key: "snap.json", Exclude: UserScoped()}
	saved, err := p.Save(ctx, alice.Cache)
	require.NoError(t, err)
	require.True(t, saved)

	bobTokens := &memTokens{value: "bob"}
	bob := f.service(t, bobTokens)
	n, err := p.Restore(ctx, bob.Cache)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the chapter list is shared")

	priv, err = Get(ctx, bob, bob.NovelPrivilege("n1"))
	require.NoError(t, err)
	assert.Nil(t, priv)
	parts, err := Get(ctx, bob, bob.MyParticipations(ctx))
	require.NoError(t, err)
	assert.Empty(t, parts)
	_, err = Get(ctx, bob, bob.NovelChapters("n1"))
	require.NoError(t, err)

	assert.EqualValues(t, 2, f.count("GET /api/novel/n1/privilege"), "bob asks the server")
	assert.EqualValues(t, 2, f.count("GET /api/competition/my-participations"))
	assert.EqualValues(t, 1, f.count("GET /api/novel/n1/chapter"), "restored chapters are served from the snapshot")
}
