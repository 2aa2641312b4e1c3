package statement

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultMaxWindow is the widest window the statement API accepts.
	DefaultMaxWindow = 31 * 24 * time.Hour
	// DefaultPageLimit is the most items the API returns for one request.
	DefaultPageLimit = 500
)

// ErrRateLimited means the source throttled the request. It is never a hard failure.
var ErrRateLimited = errors.New("statement source rate limited")

// APIError is a non-success, non-throttling response. Body is kept for
// diagnostics and deliberately left out of Error.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("statement source returned status %d", e.StatusCode)
}

// Item is one raw statement record. Amounts are signed minor units.
type Item struct {
	ID          string `json:"id"`
	Time        int64  `json:"time"`
	Description string `json:"description"`
	MCC         int    `json:"mcc"`
	Amount      int64  `json:"amount"`
	Balance     int64  `json:"balance"`
}

func (i Item) Date() time.Time {
	return time.Unix(i.Time, 0).UTC()
}

// Statement is a successful fetch. Items are oldest first.
type Statement struct {
	Items []Item
	From  time.Time
	To    time.Time
	// Truncated is set when the page was full and older items in the window may be missing.
	Truncated bool
}
