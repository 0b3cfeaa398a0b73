package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrMissingID is returned when a required resource identifier is empty.
var ErrMissingID = errors.New("api: resource id required")

// NovelChapters lists the chapters of a novel.
func (c *Client) NovelChapters(ctx context.Context, novelID string) ([]Chapter, error) {
	if strings.TrimSpace(novelID) == "" {
		return nil, ErrMissingID
	}
	var chapters []Chapter
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/novel/" + escape(novelID) + "/chapter"}, &chapters)
	if err != nil {
		return nil, err
	}
	if chapters == nil {
		chapters = []Chapter{}
	}
	return chapters, nil
}

// NovelPrivilege returns what the caller may do with a novel. Privileges are
// optional: a 404, or a 401 for anonymous callers, yields nil without error.
func (c *Client) NovelPrivilege(ctx context.Context, novelID string) (*NovelPrivilege, error) {
	if strings.TrimSpace(novelID) == "" {
		return nil, ErrMissingID
	}
	var priv NovelPrivilege
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/novel/" + escape(novelID) + "/privilege"}, &priv)
	if err != nil {
		switch StatusOf(err) {
		case http.StatusNotFound, http.StatusUnauthorized:
			return nil, nil
		}
		return nil, err
	}
	return &priv, nil
}
