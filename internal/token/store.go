// Package token keeps the bearer token used by authenticated API calls.
package token

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrInsecureOrigin is returned when a Secure token is stored for an http
// API origin, where it could never be read back.
var ErrInsecureOrigin = errors.New("token: secure cookie needs an https api origin")

// Options controls how a token is persisted.
type Options struct {
	// SameSite is the cross-site send policy of the token cookie.
	SameSite http.SameSite
	// MaxAge bounds the token lifetime. Zero keeps it for the session.
	MaxAge time.Duration
	Secure bool
}

// Store reads and writes the auth token. A missing token is reported as
// ("", false); Get never fails.
type Store interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string, opts Options) error
	Clear(ctx context.Context) error
}

// CookieStore keeps the token as a cookie scoped to the API origin.
type CookieStore struct {
	name string
	url  *url.URL

	mu  sync.Mutex
	jar *cookiejar.Jar
}

func NewCookieStore(baseURL, name string) (*CookieStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, errors.New("token cookie store needs an absolute base url")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("token cookie name required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &CookieStore{name: name, url: &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, jar: jar}, nil
}

func (s *CookieStore) Get(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.jar.Cookies(s.url) {
		if c.Name == s.name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

func (s *CookieStore) Set(ctx context.Context, token string, opts Options) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear(ctx)
	}
	// The jar never returns a Secure cookie for a plain http origin.
	if opts.Secure && s.url.Scheme != "https" {
		return ErrInsecureOrigin
	}
	cookie := &http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		SameSite: opts.SameSite,
		Secure:   opts.Secure,
	}
	if opts.MaxAge > 0 {
		cookie.MaxAge = int(opts.MaxAge / time.Second)
		cookie.Expires = time.Now().Add(opts.MaxAge)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar.SetCookies(s.url, []*http.Cookie{cookie})
	return nil
}

func (s *CookieStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar.SetCookies(s.url, []*http.Cookie{{Name: s.name, Value: "", Path: "/", MaxAge: -1}})
	return nil
}
