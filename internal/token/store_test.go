package token

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token reads as absent", func(t *testing.T) {
		s, err := NewCookieStore("http://api.example.com", "token")
		require.NoError(t, err)
		tok, ok := s.Get(ctx)
		assert.False(t, ok)
		assert.Empty(t, tok)
	})

	t.Run("set then get then clear", func(t *testing.T) {
		s, err := NewCookieStore("http://api.example.com/v1", "token")
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "abc", Options{SameSite: http.SameSiteStrictMode}))

		tok, ok := s.Get(ctx)
		require.True(t, ok)
		assert.Equal(t, "abc", tok)

		require.NoError(t, s.Clear(ctx))
		_, ok = s.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("empty token clears", func(t *testing.T) {
		s, err := NewCookieStore("http://api.example.com", "token")
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "abc", Options{}))
		require.NoError(t, s.Set(ctx, "  ", Options{}))
		_, ok := s.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("secure token needs https", func(t *testing.T) {
		s, err := NewCookieStore("http://api.example.com", "token")
		require.NoError(t, err)
		err = s.Set(ctx, "abc", Options{Secure: true})
		require.ErrorIs(t, err, ErrInsecureOrigin)
		_, ok := s.Get(ctx)
		assert.False(t, ok)

		s, err = NewCookieStore("https://api.example.com", "token")
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "abc", Options{Secure: true}))
		tok, ok := s.Get(ctx)
		require.True(t, ok)
		assert.Equal(t, "abc", tok)
	})

	t.Run("rejects relative base url", func(t *testing.T) {
		_, err := NewCookieStore("/api", "token")
		require.Error(t, err)
	})
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return raw
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, Expired("opaque-token", now))
	assert.False(t, Expired("a.b.c", now), "unparseable tokens are opaque")
	assert.False(t, Expired(signed(t, now.Add(time.Hour)), now))
	assert.True(t, Expired(signed(t, now.Add(-time.Hour)), now))
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	inner, err := NewCookieStore("http://api.example.com", "token")
	require.NoError(t, err)

	g := Guard(inner).(*guarded)
	now := time.Now()
	g.now = func() time.Time { return now }

	require.NoError(t, g.Set(ctx, signed(t, now.Add(-time.Minute)), Options{}))
	_, ok := g.Get(ctx)
	assert.False(t, ok)

	fresh := signed(t, now.Add(time.Minute))
	require.NoError(t, g.Set(ctx, fresh, Options{}))
	tok, ok := g.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, fresh, tok)
}
