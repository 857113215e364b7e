package ics

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/timezone"
)

// Snapshot is the last successfully parsed state of one feed.
type Snapshot struct {
	Events    []Event
	FetchedAt time.Time
}

// Source serves busy intervals from a set of feeds. Each feed keeps its last
// good snapshot, so a failed refresh never empties a calendar.
type Source struct {
	fetcher     *Fetcher
	feeds       []Feed
	loc         *time.Location
	maxPerEvent int

	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewSource creates a source over feeds. Floating feed times are read in loc.
func NewSource(fetcher *Fetcher, feeds []Feed, loc *time.Location) *Source {
	if fetcher == nil {
		fetcher = NewFetcher(nil)
	}
	if loc == nil {
		loc = timezone.UTC
	}
	return &Source{
		fetcher:     fetcher,
		feeds:       feeds,
		loc:         loc,
		maxPerEvent: DefaultMaxPerEvent,
		snapshots:   make(map[string]Snapshot),
	}
}

// Name identifies the source in logs and errors.
func (s *Source) Name() string {
	return "ics"
}

// Feeds returns the configured feeds.
func (s *Source) Feeds() []Feed {
	return s.feeds
}

// RefreshFeed downloads and parses one feed, replacing its snapshot on success.
func (s *Source) RefreshFeed(ctx context.Context, feed Feed) error {
	result, err := s.fetcher.Fetch(ctx, feed)
	if err != nil {
		return err
	}
	if result.NotModified {
		s.mu.Lock()
		if snap, ok := s.snapshots[feed.ID]; ok {
			snap.FetchedAt = time.Now()
			s.snapshots[feed.ID] = snap
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()
	}

	events, err := Parse(result.Body, s.loc)
	if err != nil {
		return errors.Wrapf(err, "feed %s", feed.ID)
	}
	s.mu.Lock()
	s.snapshots[feed.ID] = Snapshot{Events: events, FetchedAt: time.Now()}
	s.mu.Unlock()
	slog.Info("ics feed refreshed", "feed", feed.ID, "events", len(events))
	return nil
}

// Refresh refreshes every feed and returns the failures joined.
func (s *Source) Refresh(ctx context.Context) error {
	var errs []error
	for _, feed := range s.feeds {
		if err := s.RefreshFeed(ctx, feed); err != nil {
			slog.Warn("ics feed refresh failed", "feed", feed.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Snapshot returns the current snapshot of a feed.
func (s *Source) Snapshot(feedID string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[feedID]
	return snap, ok
}

// BusyIntervals expands every feed snapshot over [start, end). Feeds that
// were never loaded are fetched first; a feed that still has no snapshot
// makes the call fail, since its calendar is unknown.
func (s *Source) BusyIntervals(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error) {
	var busy []availability.BusyInterval
	for _, feed := range s.feeds {
		snap, ok := s.Snapshot(feed.ID)
		if !ok {
			if err := s.RefreshFeed(ctx, feed); err != nil {
				return nil, err
			}
			snap, _ = s.Snapshot(feed.ID)
		}
		busy = append(busy, Expand(snap.Events, start, end, s.loc, s.maxPerEvent)...)
	}
	return availability.NormalizeBusy(busy), nil
}
