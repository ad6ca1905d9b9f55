package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statusdash/status"
)

const scenarioDoc = `{"day": 3, "cash": 100, "JOBIN": [2, 3, 4], "S1Q": [0, 0, 0], "S2Q": [0, 0, 0], "S3Q": [0, 0, 0],
 "JOBOUT": [1, 2, 3], "JOBREV": [10, 10, 10], "JOBT": [1, 1, 1], "INV": [5, 5, 5], "INVORDER": "none"}`

func TestClientFetchDecodesSnapshot(t *testing.T) {
	var gotUA, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.URL.RawQuery)
		gotUA = r.Header.Get("User-Agent")
		gotID = r.Header.Get(RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(scenarioDoc))
	}))
	defer srv.Close()

	c, err := NewClient(Options{URL: srv.URL, UserAgent: "statusdash-test"})
	require.NoError(t, err)
	res, err := c.Fetch(context.Background())
	require.NoError(t, err)

	require.NotNil(t, res.Snapshot)
	assert.Equal(t, 3, res.Snapshot.Day)
	assert.Equal(t, "statusdash-test", gotUA)
	assert.Equal(t, gotID, res.RequestID)
	assert.Len(t, res.RequestID, 36)
	assert.Equal(t, len(scenarioDoc), res.Bytes)
	assert.False(t, res.FetchedAt.IsZero())
}

func TestClientFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(Options{URL: srv.URL})
	require.NoError(t, err)
	res, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Equal(t, "fetch: unexpected status 503 Service Unavailable", err.Error())
	assert.NotEmpty(t, res.RequestID)
	assert.Nil(t, res.Snapshot)
}

func TestClientFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c, err := NewClient(Options{URL: srv.URL})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrMalformed))
}

func TestClientFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Options{URL: url})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch: request failed")
}

func TestClientFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Options{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(Options{URL: "  "})
	assert.Error(t, err)
}
