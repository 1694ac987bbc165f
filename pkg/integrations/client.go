package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/olamyy/wmt/pkg/buildinfo"
	"github.com/olamyy/wmt/pkg/cache"
	"github.com/olamyy/wmt/pkg/httputil"
	"github.com/olamyy/wmt/pkg/observability"
)

// maxBody bounds how much of a response is read.
const maxBody = 16 << 20

// defaultBreakers is shared by every client so that all requests to one
// host see the same breaker.
var defaultBreakers = httputil.NewBreakers(30*time.Second, 5*time.Minute)

// Client provides shared HTTP functionality for all registry API clients.
// It handles response caching, per-host circuit breaking, and maps HTTP
// failures to the error values of this package. It does not retry.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	breakers  *httputil.Breakers
}

// NewClient creates a Client that caches responses in backend under
// namespace for ttl. A nil backend disables caching. Headers are applied
// to all requests made through this client; nil is allowed.
func NewClient(backend cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     backend,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		breakers:  defaultBreakers,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) {
	if h != nil {
		c.http = h
	}
}

// SetKeyer replaces the cache keyer.
func (c *Client) SetKeyer(k cache.Keyer) {
	if k != nil {
		c.keyer = k
	}
}

// SetBreakers replaces the circuit breakers shared with other clients.
func (c *Client) SetBreakers(b *httputil.Breakers) {
	if b != nil {
		c.breakers = b
	}
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// Cache failures are treated as misses.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	k := c.keyer.HTTPKey(c.namespace, key)
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, k); err == nil && ok && json.Unmarshal(data, v) == nil {
			observability.Cache().OnCacheHit(ctx, "http")
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}
	if err := fetch(); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := c.cache.Set(ctx, k, data, c.ttl); err == nil {
			observability.Cache().OnCacheSet(ctx, "http", len(data))
		}
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	_, err := c.GetResponse(ctx, url, headers, v)
	return err
}

// GetResponse is GetWithHeaders that also returns the response headers,
// for APIs that paginate through Link.
func (c *Client) GetResponse(ctx context.Context, url string, headers map[string]string, v any) (http.Header, error) {
	resp, err := c.do(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(v); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrMalformed, url, err)
	}
	return resp.Header, nil
}

// GetText performs an HTTP GET request and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	resp, err := c.do(ctx, url, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return string(data), nil
}

// Exists reports whether url answers 2xx (true) or 404 (false). Any other
// answer is returned as an error.
func (c *Client) Exists(ctx context.Context, url string, headers map[string]string) (bool, error) {
	resp, err := c.do(ctx, url, headers)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	resp.Body.Close()
	return true, nil
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	var resp *http.Response
	var ctxErr error
	callErr := c.breakers.Call(url, func() error {
		r, err := c.http.Do(req)
		if err != nil {
			// The caller giving up says nothing about the host.
			if ctx.Err() != nil {
				ctxErr = err
				return nil
			}
			return fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		if r.StatusCode >= 500 {
			r.Body.Close()
			return fmt.Errorf("%w: %s answered %d", ErrNetwork, host, r.StatusCode)
		}
		resp = r
		return nil
	})
	if callErr == nil && ctxErr != nil {
		callErr = ctxErr
	}
	if callErr != nil {
		observability.HTTP().OnError(ctx, req.Method, host, path, callErr)
		return nil, callErr
	}
	observability.HTTP().OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func checkResponse(resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrNotFound
	case httputil.RateLimited(resp):
		return &RateLimitError{RetryAfter: httputil.RetryAfter(resp.Header, time.Now())}
	default:
		return &StatusError{Code: code}
	}
}
