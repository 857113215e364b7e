package ics

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_KeepsLastGoodSnapshot(t *testing.T) {
	var status atomic.Int32
	srv, _ := newCalendarServer(t, &status)
	feed := Feed{ID: "work", URL: srv.URL}
	source := NewSource(NewFetcher(srv.Client()), []Feed{feed}, time.UTC)
	ctx := context.Background()

	busy, err := source.BusyIntervals(ctx, rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, busy, 5)

	snap, ok := source.Snapshot("work")
	require.True(t, ok)
	assert.Len(t, snap.Events, 7)

	status.Store(http.StatusBadGateway)
	assert.Error(t, source.Refresh(ctx))

	busy, err = source.BusyIntervals(ctx, rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Len(t, busy, 5)
}

func TestSource_UnknownFeedFails(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	srv, _ := newCalendarServer(t, &status)
	source := NewSource(NewFetcher(srv.Client()), []Feed{{ID: "gone", URL: srv.URL}}, time.UTC)

	_, err := source.BusyIntervals(context.Background(), rangeStart, rangeEnd)
	assert.Error(t, err)
	assert.Equal(t, "ics", source.Name())
}

func TestSource_RefreshReportsEveryFailure(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadGateway)
	srv, _ := newCalendarServer(t, &status)
	feeds := []Feed{
		{ID: "work", URL: srv.URL + "/work.ics"},
		{ID: "home", URL: srv.URL + "/home.ics"},
	}
	source := NewSource(NewFetcher(srv.Client()), feeds, time.UTC)

	err := source.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed work answered 502")
	assert.Contains(t, err.Error(), "feed home answered 502")
}

func TestSource_NoFeeds(t *testing.T) {
	source := NewSource(nil, nil, nil)

	busy, err := source.BusyIntervals(context.Background(), rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Empty(t, busy)
	assert.NoError(t, source.Refresh(context.Background()))
}
