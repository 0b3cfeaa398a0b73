package api

import (
	"context"
	"net/http"
	"strings"
)

// TrackReadingProgress records that the caller reached a chapter. Without a
// token it does nothing and returns nil.
func (c *Client) TrackReadingProgress(ctx context.Context, chapterID string) (*ProgressResult, error) {
	if strings.TrimSpace(chapterID) == "" {
		return nil, ErrMissingID
	}
	if _, ok := c.token(ctx); !ok {
		return nil, nil
	}
	var res ProgressResult
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/library/track-progress/" + escape(chapterID)}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
