package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/freeslot/internal/observability"
	serrors "github.com/hrygo/freeslot/server/internal/errors"
	"github.com/hrygo/freeslot/server/scheduler/availability"
)

// storeSource reads busy time from the local calendar store.
type storeSource struct {
	store Store
	loc   *time.Location
}

func (s *storeSource) Name() string {
	return StoreSourceName
}

func (s *storeSource) BusyIntervals(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error) {
	return s.store.ListBusyIntervals(ctx, start, end, s.loc)
}

// busyCache holds merged busy intervals per queried range. Every Purge starts
// a new generation; a fetch that began in an older one is not stored.
type busyCache struct {
	lru *expirable.LRU[string, []availability.BusyInterval]

	mu         sync.Mutex
	generation uint64
}

func newBusyCache(size int, ttl time.Duration) *busyCache {
	if size <= 0 {
		size = DefaultBusyCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultBusyCacheTTL
	}
	return &busyCache{lru: expirable.NewLRU[string, []availability.BusyInterval](size, nil, ttl)}
}

func busyCacheKey(start, end time.Time) string {
	return fmt.Sprintf("%d:%d", start.Unix(), end.Unix())
}

func (c *busyCache) Get(start, end time.Time) ([]availability.BusyInterval, bool) {
	return c.lru.Get(busyCacheKey(start, end))
}

// Generation identifies the current cache contents.
func (c *busyCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Add stores busy for the range unless the cache was purged since generation.
func (c *busyCache) Add(generation uint64, start, end time.Time, busy []availability.BusyInterval) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	c.lru.Add(busyCacheKey(start, end), busy)
	return true
}

func (c *busyCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.lru.Purge()
}

// busy merges every source over [start, end). Any failing source fails the
// call: planning around a calendar that could not be read would double-book.
func (s *service) busy(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error) {
	if cached, ok := s.cache.Get(start, end); ok {
		s.metrics.CacheHit()
		return cached, nil
	}
	s.metrics.CacheMiss()
	generation := s.cache.Generation()

	rc := observability.FromContextOr(ctx, OperationBusy)
	results := make([][]availability.BusyInterval, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxSourceWorkers)
	for i, src := range s.sources {
		i, src := i, src
		g.Go(func() error {
			busy, err := src.BusyIntervals(gctx, start, end)
			if err != nil {
				rc.Warn("busy source failed",
					slog.String(observability.LogFieldSource, src.Name()),
					slog.String("error", err.Error()),
				)
				return errors.Wrapf(err, "source %s", src.Name())
			}
			results[i] = busy
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, serrors.FromContextError(ctxErr)
		}
		return nil, serrors.CalendarUnavailable(err)
	}

	var merged []availability.BusyInterval
	for _, busy := range results {
		merged = append(merged, busy...)
	}
	merged = availability.NormalizeBusy(merged)
	if !s.cache.Add(generation, start, end, merged) {
		rc.Debug("busy cache invalidated during fetch, result not cached")
	}
	rc.Debug("busy intervals loaded",
		slog.Int("sources", len(s.sources)),
		slog.Int("intervals", len(merged)),
	)
	return merged, nil
}
