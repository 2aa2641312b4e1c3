package statement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const maxErrorBody = 4 << 10

type Client struct {
	baseURL   string
	client    *http.Client
	now       func() time.Time
	maxWindow time.Duration
	pageLimit int
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithMaxWindow(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxWindow = d
		}
	}
}

func WithPageLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageLimit = n
		}
	}
}

// NewClient creates a statement client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		now:       time.Now,
		maxWindow: DefaultMaxWindow,
		pageLimit: DefaultPageLimit,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Window clamps the requested start to the widest window the source accepts.
func (c *Client) Window(from time.Time) (time.Time, time.Time) {
	to := c.now().UTC().Truncate(time.Second)

	earliest := to.Add(-c.maxWindow)
	if from.Before(earliest) {
		from = earliest
	}

	if from.After(to) {
		from = to
	}

	return from.UTC().Truncate(time.Second), to
}

// Fetch returns the account's statement from the given time up to now.
func (c *Client) Fetch(ctx context.Context, token, accountID string, from time.Time) (*Statement, error) {
	from, to := c.Window(from)

	endpoint := fmt.Sprintf("%s/personal/statement/%s/%s/%s",
		c.baseURL,
		url.PathEscape(accountID),
		strconv.FormatInt(from.Unix(), 10),
		strconv.FormatInt(to.Unix(), 10),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-Token", token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		slog.Warn("statement source error",
			"account", accountID,
			"status", resp.StatusCode,
			"body", string(body),
		)

		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding statement: %w", err)
	}

	// The source lists newest first.
	slices.Reverse(items)

	return &Statement{
		Items:     items,
		From:      from,
		To:        to,
		Truncated: len(items) >= c.pageLimit,
	}, nil
}
