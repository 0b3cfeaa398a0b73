// Package reader binds the API fetch functions to the query cache: one
// query definition per read, and the mutations together with the cache
// keys they invalidate.
package reader

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/novelhub/readerkit/internal/api"
	"github.com/novelhub/readerkit/internal/query"
	"github.com/novelhub/readerkit/internal/token"
)

// Staleness windows per resource.
const (
	ChaptersStaleTime       = 5 * time.Minute
	CompetitionStaleTime    = time.Minute
	ParticipationsStaleTime = 30 * time.Second
	PrivilegeStaleTime      = 5 * time.Minute
)

type Service struct {
	Cache  *query.Client
	API    *api.Client
	Tokens token.Store
	Notify Notifier

	// SameSite applies to tokens stored by Login.
	SameSite http.SameSite
}

func New(cache *query.Client, client *api.Client, tokens token.Store, n Notifier) *Service {
	if n == nil {
		n = discard{}
	}
	return &Service{Cache: cache, API: client, Tokens: tokens, Notify: n, SameSite: http.SameSiteLaxMode}
}

// LoggedIn reports whether a usable token is stored.
func (s *Service) LoggedIn(ctx context.Context) bool {
	_, ok := s.Tokens.Get(ctx)
	return ok
}

// Login stores the bearer token and drops cached data that belonged to
// the anonymous session.
func (s *Service) Login(ctx context.Context, tok string) error {
	if err := s.Tokens.Set(ctx, tok, token.Options{SameSite: s.SameSite}); err != nil {
		return err
	}
	n := s.Cache.Remove(UserScoped()...)
	log.Printf("reader: login, dropped %d user entries", n)
	return nil
}

// Logout clears the token and every user-scoped cache entry.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.Tokens.Clear(ctx); err != nil {
		return err
	}
	n := s.Cache.Remove(UserScoped()...)
	log.Printf("reader: logout, dropped %d user entries", n)
	return nil
}
