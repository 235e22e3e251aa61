package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ReneKroon/ttlcache/v2"
	log "github.com/sirupsen/logrus"
)

// HTTPClient makes JSON requests to third-party APIs with an optional
// TTL cache for GET responses. Upstream failures are returned to the
// caller and never retried.
type HTTPClient struct {
	client *http.Client
	cache  *ttlcache.Cache
}

// NewHTTPClient creates a client whose GET responses are cached for
// cacheTTL.
func NewHTTPClient(cacheTTL time.Duration) *HTTPClient {
	cache := ttlcache.NewCache()
	_ = cache.SetTTL(cacheTTL)
	cache.SkipTTLExtensionOnHit(true)

	return &HTTPClient{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  cache,
	}
}

// GetJSON fetches url and decodes the JSON response into out. When
// useCache is set, a fresh cached body is reused without a request.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, out any, useCache bool) error {
	if useCache {
		if cached, err := c.cache.Get(url); err == nil {
			if body, ok := cached.([]byte); ok {
				log.WithField("url", url).Debug("Serving cached HTTP GET response")
				return json.Unmarshal(body, out)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	log.WithField("url", url).Debug("Making HTTP GET request")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request to %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if useCache {
		_ = c.cache.Set(url, body)
	}

	return json.Unmarshal(body, out)
}

// GetBytes fetches url and returns the raw body. Used for attachment
// downloads; responses are never cached.
func (c *HTTPClient) GetBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request to %s returned status %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Close releases the cache's background resources.
func (c *HTTPClient) Close() {
	c.cache.Close()
}
