package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalendarServer(t *testing.T, status *atomic.Int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != nil && status.Load() != 0 {
			w.WriteHeader(int(status.Load()))
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(sampleCalendar))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetcher_ReusesETag(t *testing.T) {
	srv, hits := newCalendarServer(t, nil)
	fetcher := NewFetcher(srv.Client())
	feed := Feed{ID: "work", URL: srv.URL + "/work.ics?token=secret"}

	first, err := fetcher.Fetch(context.Background(), feed)
	require.NoError(t, err)
	assert.False(t, first.NotModified)
	assert.Equal(t, sampleCalendar, string(first.Body))

	second, err := fetcher.Fetch(context.Background(), feed)
	require.NoError(t, err)
	assert.True(t, second.NotModified)
	assert.Equal(t, first.Body, second.Body)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetcher_Errors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv, _ := newCalendarServer(t, &status)
	fetcher := NewFetcher(srv.Client())

	_, err := fetcher.Fetch(context.Background(), Feed{ID: "down", URL: srv.URL})
	assert.Error(t, err)

	_, err = fetcher.Fetch(context.Background(), Feed{ID: "empty"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status.Store(0)
	_, err = fetcher.Fetch(ctx, Feed{ID: "cancelled", URL: srv.URL})
	assert.Error(t, err)
}

func TestFetcher_BodyLimit(t *testing.T) {
	srv, _ := newCalendarServer(t, nil)
	feed := Feed{ID: "work", URL: srv.URL}

	tests := []struct {
		name    string
		maxBody int64
		wantErr bool
	}{
		{name: "body at the limit", maxBody: int64(len(sampleCalendar))},
		{name: "body over the limit", maxBody: int64(len(sampleCalendar)) - 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := NewFetcher(srv.Client())
			fetcher.maxBody = tt.maxBody

			result, err := fetcher.Fetch(context.Background(), feed)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "exceeds")
				assert.Empty(t, fetcher.cache, "a truncated body must not be cached")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sampleCalendar, string(result.Body))
		})
	}
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://cal.example.com/feed.ics", redactURL("https://user:pw@cal.example.com/feed.ics?token=abc"))
	assert.Equal(t, "invalid-url", redactURL("://bad"))
}
