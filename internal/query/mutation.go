package query

import "context"

// Mutation is a write against the API together with the cache keys it
// makes stale. Keeping Invalidates next to Fn keeps the mapping auditable.
type Mutation[V, R any] struct {
	Fn func(ctx context.Context, vars V) (R, error)
	// Invalidates names the keys (prefixes) to mark stale after a
	// successful call. Returning nil skips invalidation.
	Invalidates func(vars V, res R) []Key
	OnSuccess   func(vars V, res R)
	OnError     func(vars V, err error)
}

// Run executes the mutation. On success the invalidation rule runs before
// OnSuccess; on failure nothing is invalidated and OnError sees the error.
func (m Mutation[V, R]) Run(ctx context.Context, c *Client, vars V) (R, error) {
	res, err := m.Fn(ctx, vars)
	if err != nil {
		if m.OnError != nil {
			m.OnError(vars, err)
		}
		return res, err
	}
	if m.Invalidates != nil {
		if keys := m.Invalidates(vars, res); len(keys) > 0 {
			c.Invalidate(keys...)
		}
	}
	if m.OnSuccess != nil {
		m.OnSuccess(vars, res)
	}
	return res, nil
}
