// Package exchange fetches USD based exchange rates over HTTP.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const maxResponseSize = 1 << 20

// ErrUnavailable is returned when the rate API cannot be reached or refuses
// the request.
var ErrUnavailable = errors.New("exchange: rate API unavailable")

// Config configures the rate API client
type Config struct {
	// APIURL is the latest-rates endpoint. Both exchangerate.host style
	// (/latest?base=USD) and open.er-api.com style (/v6/latest/USD)
	// responses are understood.
	APIURL  string
	Timeout time.Duration
}

// Client implements the currency RateFetcher
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a rate API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiURL:     cfg.APIURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ratesResponse covers both supported response shapes
type ratesResponse struct {
	Result    string                     `json:"result"`
	Success   *bool                      `json:"success"`
	Base      string                     `json:"base"`
	BaseCode  string                     `json:"base_code"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	ErrorType string                     `json:"error-type"`
}

// FetchRates returns units of each symbol per one unit of base
func (c *Client) FetchRates(ctx context.Context, base string, symbols []string) (map[string]decimal.Decimal, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("exchange: invalid api url: %w", err)
	}
	q := u.Query()
	q.Set("base", base)
	if len(symbols) > 0 {
		q.Set("symbols", strings.Join(symbols, ","))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("exchange: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("exchange: failed to read response: %w", err)
	}

	var out ratesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("exchange: failed to parse response: %w", err)
	}
	if out.Result == "error" || (out.Success != nil && !*out.Success) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, out.ErrorType)
	}
	if len(out.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate table", ErrUnavailable)
	}
	if got := firstNonEmpty(out.BaseCode, out.Base); got != "" && !strings.EqualFold(got, base) {
		return nil, fmt.Errorf("exchange: expected base %s, got %s", base, got)
	}

	if len(symbols) == 0 {
		return out.Rates, nil
	}
	wanted := make(map[string]decimal.Decimal, len(symbols))
	for _, s := range symbols {
		if v, ok := out.Rates[strings.ToUpper(s)]; ok {
			wanted[strings.ToUpper(s)] = v
		}
	}
	return wanted, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
