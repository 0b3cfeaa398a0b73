package token

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type guarded struct {
	Store
	now func() time.Time
}

// Guard wraps s so that a JWT whose exp claim has passed reads as absent.
// Opaque tokens pass through untouched; signatures are never checked here.
func Guard(s Store) Store {
	return &guarded{Store: s, now: time.Now}
}

func (g *guarded) Get(ctx context.Context) (string, bool) {
	tok, ok := g.Store.Get(ctx)
	if !ok {
		return "", false
	}
	if Expired(tok, g.now()) {
		return "", false
	}
	return tok, true
}

// Expired reports whether raw is a JWT with an exp claim at or before now.
func Expired(raw string, now time.Time) bool {
	if strings.Count(raw, ".") != 2 {
		return false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
