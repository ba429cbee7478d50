// Package geo resolves client IP addresses to countries through ipapi.co.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrLookupFailed is returned when the provider cannot resolve an address
var ErrLookupFailed = errors.New("geo: lookup failed")

// Config configures the lookup client
type Config struct {
	APIURL  string
	Timeout time.Duration
	// RequestsPerSecond caps outbound lookups; zero means 1/s with a burst of 5
	RequestsPerSecond float64
	// CacheTTL keeps answers per IP; zero means one hour
	CacheTTL time.Duration
}

type cached struct {
	country string
	expires time.Time
}

// Client implements the currency GeoLocator
type Client struct {
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
	ttl        time.Duration

	mu    sync.Mutex
	cache map[string]cached
}

// NewClient creates an ipapi.co client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 5),
		ttl:        ttl,
		cache:      make(map[string]cached),
	}
}

type ipapiResponse struct {
	CountryCode string `json:"country_code"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

// CountryCode returns the ISO country code of ip
func (c *Client) CountryCode(ctx context.Context, ip string) (string, error) {
	if country, ok := c.lookupCache(ip); ok {
		return country, nil
	}
	// fail fast instead of waiting for a token
	if !c.limiter.Allow() {
		return "", fmt.Errorf("%w: local rate limit reached", ErrLookupFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/"+url.PathEscape(ip)+"/json/", nil)
	if err != nil {
		return "", fmt.Errorf("geo: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "wazhop-backend")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: HTTP %d", ErrLookupFailed, resp.StatusCode)
	}

	var out ipapiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return "", fmt.Errorf("geo: failed to parse response: %w", err)
	}
	if out.Error {
		return "", fmt.Errorf("%w: %s", ErrLookupFailed, out.Reason)
	}
	country := strings.ToUpper(out.CountryCode)
	if country != "" {
		c.store(ip, country)
	}
	return country, nil
}

func (c *Client) lookupCache(ip string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[ip]
	if !ok {
		return "", false
	}
	if time.Now().After(e.expires) {
		delete(c.cache, ip)
		return "", false
	}
	return e.country, true
}

func (c *Client) store(ip, country string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// keep the cache bounded
	if len(c.cache) >= 10000 {
		c.cache = make(map[string]cached)
	}
	c.cache[ip] = cached{country: country, expires: time.Now().Add(c.ttl)}
}
