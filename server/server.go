package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/freeslot/internal/observability"
	"github.com/hrygo/freeslot/internal/profile"
	"github.com/hrygo/freeslot/plugin/ics"
	"github.com/hrygo/freeslot/server/middleware"
	apiv1 "github.com/hrygo/freeslot/server/router/api/v1"
	"github.com/hrygo/freeslot/server/runner/calendarsync"
	"github.com/hrygo/freeslot/server/service/schedule"
	"github.com/hrygo/freeslot/store"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	// ScheduleService is the service behind the HTTP API.
	ScheduleService schedule.Service

	echoServer *echo.Echo
	syncRunner *calendarsync.Runner
	logger     *slog.Logger
}

// NewServer wires the scheduling service, its calendar sources and the HTTP
// API. The store must already be migrated.
func NewServer(_ context.Context, profile *profile.Profile, st *store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Profile: profile,
		Store:   st,
		logger:  logger,
	}
	loc := profile.Location()
	metrics := observability.DefaultMetrics()

	var sources []schedule.BusySource
	var feedSource *ics.Source
	if len(profile.ICSFeeds) > 0 {
		feedSource = NewFeedSource(profile, nil)
		sources = append(sources, feedSource)
	}

	s.ScheduleService = schedule.NewService(st, sources, schedule.Config{
		Location:       loc,
		HorizonDays:    profile.HorizonDays,
		SlotSearchDays: profile.SlotSearchDays,
		RequestTimeout: profile.RequestTimeout,
		CacheTTL:       profile.BusyCacheTTL,
		CacheSize:      profile.BusyCacheSize,
		Metrics:        metrics,
	})

	if feedSource != nil {
		runner, err := calendarsync.NewRunner(feedSource, s.ScheduleService, metrics, profile.ICSSyncSpec, loc)
		if err != nil {
			return nil, err
		}
		s.syncRunner = runner
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = apiv1.HTTPErrorHandler
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(middleware.RequestContext(logger))

	limiter := middleware.NewRateLimiter(profile.RateLimit, profile.RateBurst)
	apiv1.NewAPIV1Service(profile, s.ScheduleService).RegisterRoutes(echoServer, limiter.Middleware())
	s.echoServer = echoServer

	return s, nil
}

// NewFeedSource builds the ICS busy source for the profile's feeds.
func NewFeedSource(profile *profile.Profile, client *http.Client) *ics.Source {
	feeds := make([]ics.Feed, 0, len(profile.ICSFeeds))
	for _, feed := range profile.ICSFeeds {
		feeds = append(feeds, ics.Feed{ID: feed.ID, URL: feed.URL})
	}
	return ics.NewSource(ics.NewFetcher(client), feeds, profile.Location())
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Profile.Addr, strconv.Itoa(s.Profile.Port))
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Run serves HTTP and syncs feeds until ctx is done, then shuts down
// gracefully. It returns the first error that stopped the server.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server started", slog.String("addr", listener.Addr().String()), slog.String("mode", s.Profile.Mode))
		if err := s.echoServer.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	if s.syncRunner != nil {
		g.Go(func() error {
			s.syncRunner.Run(ctx)
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return s.Shutdown()
	})
	return g.Wait()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	s.logger.Info("server stopped properly")
	return nil
}
