package api

import (
	"context"
	"net/http"
	"strings"
)

// DeleteReview removes the caller's review of a novel.
func (c *Client) DeleteReview(ctx context.Context, novelID string) (*Envelope, error) {
	if strings.TrimSpace(novelID) == "" {
		return nil, ErrMissingID
	}
	var env Envelope
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/api/" + escape(novelID)}, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
