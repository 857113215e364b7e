// Package ics reads remote iCalendar feeds and turns their events into busy
// intervals for the scheduler.
package ics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultFetchTimeout bounds a single feed download.
const DefaultFetchTimeout = 15 * time.Second

// maxBodySize caps a feed body at 10 MiB.
const maxBodySize = 10 << 20

// Feed is a subscribed calendar.
type Feed struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// FetchResult is the outcome of one download.
type FetchResult struct {
	Feed Feed
	Body []byte
	// NotModified reports that the server answered 304 and Body is the
	// previously downloaded payload.
	NotModified bool
}

type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher downloads feeds and reuses ETag / Last-Modified validators.
type Fetcher struct {
	client *http.Client
	// maxBody is the largest accepted feed body in bytes.
	maxBody int64

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewFetcher creates a fetcher. A nil client gets DefaultFetchTimeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &Fetcher{
		client:  client,
		maxBody: maxBodySize,
		cache:   make(map[string]cacheEntry),
	}
}

// Fetch downloads one feed.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) (FetchResult, error) {
	if feed.URL == "" {
		return FetchResult{}, errors.Errorf("feed %s has no url", feed.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return FetchResult{}, errors.Wrapf(err, "failed to build request for feed %s", feed.ID)
	}
	req.Header.Set("Accept", "text/calendar")

	f.mu.Lock()
	cached, hasCache := f.cache[feed.URL]
	f.mu.Unlock()
	if hasCache {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, errors.Wrapf(err, "failed to fetch feed %s", feed.ID)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
		if err != nil {
			return FetchResult{}, errors.Wrapf(err, "failed to read feed %s", feed.ID)
		}
		if int64(len(body)) > f.maxBody {
			return FetchResult{}, errors.Errorf("feed %s exceeds %d bytes", feed.ID, f.maxBody)
		}
		f.mu.Lock()
		f.cache[feed.URL] = cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		f.mu.Unlock()
		slog.Debug("ics feed fetched", "feed", feed.ID, "url", redactURL(feed.URL), "bytes", len(body))
		return FetchResult{Feed: feed, Body: body}, nil

	case http.StatusNotModified:
		if !hasCache {
			return FetchResult{}, errors.Errorf("feed %s answered 304 without a cached body", feed.ID)
		}
		slog.Debug("ics feed not modified", "feed", feed.ID)
		return FetchResult{Feed: feed, Body: cached.body, NotModified: true}, nil

	default:
		return FetchResult{}, errors.Errorf("feed %s answered %s", feed.ID, resp.Status)
	}
}

// redactURL drops credentials and query strings, which often carry secret tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
