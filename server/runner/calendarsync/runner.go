// Package calendarsync keeps ICS feed snapshots fresh in the background.
package calendarsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/hrygo/freeslot/internal/observability"
	"github.com/hrygo/freeslot/plugin/ics"
)

// FeedRefresher downloads feeds into local snapshots.
type FeedRefresher interface {
	Feeds() []ics.Feed
	RefreshFeed(ctx context.Context, feed ics.Feed) error
}

// CacheInvalidator drops cached busy time once a feed changed.
type CacheInvalidator interface {
	InvalidateBusyCache()
}

type Runner struct {
	source  FeedRefresher
	cache   CacheInvalidator
	metrics *observability.Metrics
	spec    string
	loc     *time.Location

	// feedTimeout bounds one feed download.
	feedTimeout time.Duration
}

// NewRunner creates a feed sync runner firing on spec, a robfig/cron
// expression such as "@every 15m" or "*/10 * * * *".
func NewRunner(source FeedRefresher, cache CacheInvalidator, metrics *observability.Metrics, spec string, loc *time.Location) (*Runner, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, errors.Wrapf(err, "invalid ics sync spec %q", spec)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{
		source:      source,
		cache:       cache,
		metrics:     metrics,
		spec:        spec,
		loc:         loc,
		feedTimeout: time.Minute,
	}, nil
}

// Run syncs once on startup, then on every tick of the schedule until ctx
// is done. A sync still running when the next tick fires skips that tick.
func (r *Runner) Run(ctx context.Context) {
	r.RunOnce(ctx)

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(r.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(r.spec, func() { r.RunOnce(ctx) }); err != nil {
		slog.Error("failed to schedule ics sync", "spec", r.spec, "error", err)
		return
	}
	c.Start()
	slog.Info("ics sync runner started", "spec", r.spec, "feeds", len(r.source.Feeds()))

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("ics sync runner stopped")
}

// RunOnce refreshes every feed. Feeds are refreshed concurrently; the busy
// cache is dropped when at least one feed refreshed.
func (r *Runner) RunOnce(ctx context.Context) {
	feeds := r.source.Feeds()
	if len(feeds) == 0 {
		return
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		refreshed int
	)
	for _, feed := range feeds {
		wg.Add(1)
		go func(feed ics.Feed) {
			defer wg.Done()
			err := r.refresh(ctx, feed)
			r.metrics.ICSSync(feed.ID, err)
			if err != nil {
				slog.Warn("ics feed sync failed", "feed", feed.ID, "error", err)
				return
			}
			mu.Lock()
			refreshed++
			mu.Unlock()
		}(feed)
	}
	wg.Wait()

	if refreshed > 0 && r.cache != nil {
		r.cache.InvalidateBusyCache()
	}
	slog.Debug("ics sync finished", "feeds", len(feeds), "refreshed", refreshed)
}

func (r *Runner) refresh(ctx context.Context, feed ics.Feed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.feedTimeout)
	defer cancel()
	return r.source.RefreshFeed(ctx, feed)
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
