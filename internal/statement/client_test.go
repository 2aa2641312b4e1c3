package statement_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgersync/internal/statement"
)

var now = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func newClient(t *testing.T, handler http.HandlerFunc, opts ...statement.Option) *statement.Client {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	opts = append([]statement.Option{statement.WithClock(fixedClock)}, opts...)

	return statement.NewClient(ts.URL, 5*time.Second, opts...)
}

func TestClient_Fetch_Success(t *testing.T) {
	from := now.Add(-10 * 24 * time.Hour)

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("X-Token"))
		assert.Equal(t, fmt.Sprintf("/personal/statement/acc-1/%d/%d", from.Unix(), now.Unix()), r.URL.Path)

		// Newest first, as the source returns it.
		_ = json.NewEncoder(w).Encode([]statement.Item{
			{ID: "c", Time: now.Add(-time.Hour).Unix(), Amount: 10000, Description: "Salary"},
			{ID: "b", Time: now.Add(-2 * time.Hour).Unix(), Amount: -250, MCC: 5411, Description: "Grocery"},
			{ID: "a", Time: now.Add(-3 * time.Hour).Unix(), Amount: -120, MCC: 4111, Description: "Metro"},
		})
	})

	stmt, err := client.Fetch(context.Background(), "secret-token", "acc-1", from)
	require.NoError(t, err)

	require.Len(t, stmt.Items, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{stmt.Items[0].ID, stmt.Items[1].ID, stmt.Items[2].ID})
	assert.Equal(t, 5411, stmt.Items[1].MCC)
	assert.Equal(t, from, stmt.From)
	assert.Equal(t, now, stmt.To)
	assert.False(t, stmt.Truncated)
}

func TestClient_Fetch_ClampsWindow(t *testing.T) {
	requested := now.Add(-90 * 24 * time.Hour)
	boundary := now.Add(-statement.DefaultMaxWindow)

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/personal/statement/acc-1/%d/%d", boundary.Unix(), now.Unix()), r.URL.Path)
		_, _ = w.Write([]byte("[]"))
	})

	stmt, err := client.Fetch(context.Background(), "token", "acc-1", requested)
	require.NoError(t, err)
	assert.Equal(t, boundary, stmt.From)
	assert.Empty(t, stmt.Items)
}

func TestClient_Window(t *testing.T) {
	client := statement.NewClient("http://unused", time.Second,
		statement.WithClock(fixedClock),
		statement.WithMaxWindow(7*24*time.Hour),
	)

	tests := []struct {
		name     string
		from     time.Time
		wantFrom time.Time
	}{
		{name: "inside window", from: now.Add(-24 * time.Hour), wantFrom: now.Add(-24 * time.Hour)},
		{name: "too old", from: now.Add(-30 * 24 * time.Hour), wantFrom: now.Add(-7 * 24 * time.Hour)},
		{name: "zero time", from: time.Time{}, wantFrom: now.Add(-7 * 24 * time.Hour)},
		{name: "future", from: now.Add(time.Hour), wantFrom: now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := client.Window(tt.from)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, now, to)
		})
	}
}

func TestClient_Fetch_RateLimited(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorDescription":"Too many requests"}`, http.StatusTooManyRequests)
	})

	stmt, err := client.Fetch(context.Background(), "token", "acc-1", now.Add(-time.Hour))
	assert.ErrorIs(t, err, statement.ErrRateLimited)
	assert.Nil(t, stmt)
}

func TestClient_Fetch_APIError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorDescription":"Unknown 'X-Token'"}`, http.StatusForbidden)
	})

	_, err := client.Fetch(context.Background(), "bad", "acc-1", now.Add(-time.Hour))
	require.Error(t, err)
	assert.False(t, errors.Is(err, statement.ErrRateLimited))

	var apiErr *statement.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Unknown 'X-Token'")
	assert.NotContains(t, err.Error(), "X-Token")
}

func TestClient_Fetch_Truncated(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]statement.Item{
			{ID: "2", Time: now.Add(-time.Hour).Unix()},
			{ID: "1", Time: now.Add(-2 * time.Hour).Unix()},
		})
	}, statement.WithPageLimit(2))

	stmt, err := client.Fetch(context.Background(), "token", "acc-1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, stmt.Truncated)
}

func TestClient_Fetch_BadJSON(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.Fetch(context.Background(), "token", "acc-1", now.Add(-time.Hour))
	assert.Error(t, err)
}

func TestClient_Fetch_ContextCanceled(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, "token", "acc-1", now.Add(-time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}
