package gateway

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshWindow is how much remaining lifetime triggers a lazy refresh.
// Refresh happens on demand at call time, never in a background task.
const refreshWindow = 5 * time.Minute

type fetchFunc func(ctx context.Context) (token string, expiresAt time.Time, err error)

// tokenCache holds a bearer token and refreshes it lazily when fewer than
// refreshWindow remain. It is owned by the client instance that uses it, so
// tests can construct isolated caches. Concurrent callers share a single
// refresh via singleflight.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	group     singleflight.Group
	fetch     fetchFunc
}

func newTokenCache(fetch fetchFunc) *tokenCache {
	return &tokenCache{fetch: fetch}
}

func (c *tokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Until(c.expiresAt) > refreshWindow {
		tok := c.token
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("token", func() (interface{}, error) {
		tok, exp, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.token = tok
		c.expiresAt = exp
		c.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
