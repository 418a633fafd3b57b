package index

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/matzehuels/reqsolve/pkg/cache"
	"github.com/matzehuels/reqsolve/pkg/errors"
	"github.com/matzehuels/reqsolve/pkg/httputil"
)

// Client provides shared HTTP functionality for registry API access.
// It layers response caching and retry logic over the run's session.
type Client struct {
	session *httputil.Session
	cache   cache.Cache
	prefix  string
	ttl     time.Duration

	// Refresh bypasses the cache for every lookup.
	Refresh bool
}

// NewClient creates a Client over the given session and cache backend.
// Cached responses are stored under prefix-qualified keys for ttl.
func NewClient(session *httputil.Session, backend cache.Cache, prefix string, ttl time.Duration) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		session: session,
		cache:   backend,
		prefix:  prefix,
		ttl:     ttl,
	}
}

// Cached retrieves a value from cache or executes fetch and caches the
// result. The fetch function should populate v; on success, v is stored
// in the cache under the prefixed key.
func (c *Client) Cached(ctx context.Context, key string, v any, fetch func() error) error {
	key = c.prefix + cache.Hash([]byte(key))
	if !c.Refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			if json.Unmarshal(data, v) == nil {
				return nil
			}
		}
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return nil
}

// GetJSON performs an HTTP GET through the session and JSON-decodes the
// response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request %s", url)
	}
	body, err := c.session.Get(req)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "decode response from %s", url)
	}
	return nil
}
