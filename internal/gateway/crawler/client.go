// Package crawler talks to the news crawler service that owns article storage.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptopredict/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	SearchTimeout time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 300 * time.Millisecond
	}
	return &Client{cfg: cfg, http: &http.Client{}}
}

// Latest returns the newest articles tagged with symbol. A response without
// the success envelope yields an empty list.
func (c *Client) Latest(ctx context.Context, symbol string, limit int) ([]NewsItem, error) {
	endpoint := fmt.Sprintf("%s/api/v1/news/latest/%s?limit=%d", c.cfg.BaseURL, url.PathEscape(symbol), limit)
	body, err := c.get(ctx, endpoint, c.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("fetch latest news for %s: %w", symbol, err)
	}
	if !gjson.GetBytes(body, "success").Bool() || !gjson.GetBytes(body, "data").Exists() {
		logger.Errorf("[crawler] invalid response format for %s", symbol)
		return nil, nil
	}
	items := parseItems(gjson.GetBytes(body, "data.items"))
	logger.Infof("[crawler] fetched %d articles for %s", len(items), symbol)
	return items, nil
}

// Search runs a keyword query against the crawler's article index.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]NewsItem, error) {
	q := url.Values{}
	q.Set("keyword", query)
	q.Set("limit", strconv.Itoa(limit))
	body, err := c.get(ctx, c.cfg.BaseURL+"/api/news/search?"+q.Encode(), c.cfg.SearchTimeout)
	if err != nil {
		return nil, fmt.Errorf("search articles %q: %w", query, err)
	}
	items := parseItems(gjson.GetBytes(body, "data.items"))
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("crawler returned HTTP %d", e.StatusCode)
}

func (c *Client) get(ctx context.Context, endpoint string, timeout time.Duration) ([]byte, error) {
	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			logger.Warnf("[crawler] GET %s attempt %d failed: %v", endpoint, attempt, err)
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			statusErr := &StatusError{StatusCode: resp.StatusCode}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				logger.Warnf("[crawler] GET %s attempt %d: %v", endpoint, attempt, statusErr)
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if !gjson.ValidBytes(data) {
			return backoff.Permanent(fmt.Errorf("crawler returned invalid JSON"))
		}
		body = data
		return nil
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryInterval
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), ctx))
	if err != nil {
		return nil, err
	}
	return body, nil
}
