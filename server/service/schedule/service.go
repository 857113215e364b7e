// Package schedule runs the availability engine for callers.
//
// Key features:
//   - Busy time merged from the calendar store and every remote feed
//   - A short-lived busy cache shared by all requests
//   - A request timeout around busy fetches and engine runs
//   - Coded errors for the HTTP and CLI boundaries
//
// The engine itself stays pure; everything that touches a clock, a database
// or the network lives here.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/freeslot/internal/observability"
	"github.com/hrygo/freeslot/plugin/ai/aitime"
	serrors "github.com/hrygo/freeslot/server/internal/errors"
	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/scheduler/rrule"
	"github.com/hrygo/freeslot/server/timezone"
)

// Config tunes a Service. Zero values take the package defaults.
type Config struct {
	Location       *time.Location
	HorizonDays    int
	SlotSearchDays int
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	CacheSize      int
	// Now is the clock; tests pin it.
	Now         func() time.Time
	Metrics     *observability.Metrics
	TimeService aitime.TimeService
}

type service struct {
	store   Store
	sources []BusySource
	cache   *busyCache

	loc            *time.Location
	horizonDays    int
	slotSearchDays int
	timeout        time.Duration
	now            func() time.Time
	metrics        *observability.Metrics
	timeService    aitime.TimeService
}

// NewService creates a new schedule service. The store always acts as a busy
// source; extra sources such as ICS feeds are consulted alongside it.
func NewService(st Store, sources []BusySource, cfg Config) Service {
	if cfg.Location == nil {
		cfg.Location = timezone.UTC
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = availability.DefaultHorizonDays
	}
	if cfg.SlotSearchDays <= 0 {
		cfg.SlotSearchDays = availability.DefaultSlotSearchDays
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TimeService == nil {
		cfg.TimeService = aitime.NewService(cfg.Location.String())
	}

	all := make([]BusySource, 0, len(sources)+1)
	all = append(all, &storeSource{store: st, loc: cfg.Location})
	all = append(all, sources...)

	return &service{
		store:          st,
		sources:        all,
		cache:          newBusyCache(cfg.CacheSize, cfg.CacheTTL),
		loc:            cfg.Location,
		horizonDays:    cfg.HorizonDays,
		slotSearchDays: cfg.SlotSearchDays,
		timeout:        cfg.RequestTimeout,
		now:            cfg.Now,
		metrics:        cfg.Metrics,
		timeService:    cfg.TimeService,
	}
}

func (s *service) options(now time.Time, diagnostic bool) availability.Options {
	return availability.Options{
		Now:            now,
		Location:       s.loc,
		HorizonDays:    s.horizonDays,
		SlotSearchDays: s.slotSearchDays,
		Diagnostic:     diagnostic,
	}
}

// begin starts one observed operation under the request timeout.
func (s *service) begin(ctx context.Context, operation string) (context.Context, *observability.RequestContext, context.CancelFunc) {
	rc := observability.FromContextOr(ctx, operation)
	rc.StartTime = time.Now()
	ctx, cancel := context.WithTimeout(observability.WithRequestContext(ctx, rc), s.timeout)
	return ctx, rc, cancel
}

func (s *service) finish(rc *observability.RequestContext, operation string, err error) {
	s.metrics.ObserveRequest(operation, err, rc.Duration())
	if err != nil {
		rc.Warn("operation failed",
			slog.String(observability.LogFieldErrorCode, string(serrors.GetCodeFromError(err, serrors.ErrCodeInternal))),
			slog.String("error", err.Error()),
		)
	}
}

// runEngine runs fn unless ctx ends first. The engine cannot be interrupted,
// so a late result is dropped.
func runEngine[T any](ctx context.Context, fn func() T) (T, error) {
	done := make(chan T, 1)
	go func() { done <- fn() }()
	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, serrors.FromContextError(ctx.Err())
	}
}

func (s *service) Plan(ctx context.Context, goal availability.Goal, diagnostic bool) (result *availability.ScheduleResult, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationPlan)
	defer cancel()
	defer func() { s.finish(rc, OperationPlan, err) }()
	return s.plan(ctx, rc, goal, diagnostic)
}

func (s *service) PlanGoal(ctx context.Context, uid string, diagnostic bool) (result *availability.ScheduleResult, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationPlanGoal)
	defer cancel()
	defer func() { s.finish(rc, OperationPlanGoal, err) }()

	goal, err := s.findGoal(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.plan(ctx, rc.WithGoal(uid), goal.ToAvailabilityGoal(), diagnostic)
}

func (s *service) plan(ctx context.Context, rc *observability.RequestContext, goal availability.Goal, diagnostic bool) (*availability.ScheduleResult, error) {
	if err := s.validateGoal(goal); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	start, end := s.planRange(now, goal.DeadlineIn(s.loc))
	busy, err := s.busy(ctx, start, end)
	if err != nil {
		return nil, err
	}

	opts := s.options(now, diagnostic)
	result, err := runEngine(ctx, func() *availability.ScheduleResult {
		return availability.PlanSchedule(goal, busy, opts)
	})
	if err != nil {
		return nil, err
	}

	if result.Incomplete() {
		s.metrics.PlanIncomplete()
		rc.Info("plan incomplete",
			slog.Int("sessions_needed", result.Diagnostics.SessionsNeeded),
			slog.Int("sessions_found", result.Diagnostics.SessionsFound),
			slog.Int("alternatives", len(result.Diagnostics.Alternatives)),
		)
	}
	rc.Info("plan computed",
		slog.Int(observability.LogFieldSessionCount, result.EventCount),
		slog.Int("options", len(result.TimeOptions)),
		slog.Int("busy", len(busy)),
	)
	return result, nil
}

// planRange covers every date the engine may look at for a goal: the
// horizon, stretched to the deadline.
func (s *service) planRange(now time.Time, deadline *time.Time) (time.Time, time.Time) {
	today := timezone.StartOfDay(now, s.loc)
	days := s.horizonDays
	if deadline != nil {
		days = max(days, timezone.DaysBetween(today, *deadline, s.loc)+1)
	}
	days = min(days, MaxPlanDays)
	return today, timezone.AddDays(today, days+1, s.loc)
}

func (s *service) validateGoal(goal availability.Goal) error {
	if goal.Deadline != "" {
		deadline, err := timezone.ParseDate(goal.Deadline, s.loc)
		if err != nil {
			return serrors.InvalidArgument("invalid deadline: %v", err)
		}
		if err := s.checkReach("deadline", deadline); err != nil {
			return err
		}
	}
	if goal.TargetAmount != nil && *goal.TargetAmount < 0 {
		return serrors.InvalidArgument("target_amount must not be negative")
	}
	if goal.SessionDuration != nil && *goal.SessionDuration <= 0 {
		return serrors.InvalidArgument("session_duration must be positive")
	}
	if goal.MaxSessionsPerDay < 0 {
		return serrors.InvalidArgument("max_sessions_per_day must not be negative")
	}
	switch goal.DistributionStrategy {
	case "", availability.SpreadEvenly, availability.FinishQuickly:
	default:
		return serrors.InvalidArgument("unknown distribution_strategy %q", goal.DistributionStrategy)
	}
	for _, pref := range goal.TimePreferences {
		if !knownPreference(pref) {
			return serrors.InvalidArgument("unknown time preference %q", pref)
		}
	}
	return nil
}

func knownPreference(pref availability.TimePreference) bool {
	if _, ok := availability.ParseDayPart(string(pref)); ok {
		return true
	}
	return pref == availability.PreferWeekend
}

func (s *service) FindSlots(ctx context.Context, req *FindSlotsRequest) (result *FindSlotsResult, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationFindSlots)
	defer cancel()
	defer func() { s.finish(rc, OperationFindSlots, err) }()

	if req == nil {
		return nil, serrors.InvalidArgument("request is required")
	}
	slots, err := s.findSlots(ctx, *req)
	if err != nil {
		return nil, err
	}
	rc.Info("slots found", slog.Int(observability.LogFieldSessionCount, len(slots)))
	return &FindSlotsResult{Slots: slots}, nil
}

func (s *service) FindSlotsFromText(ctx context.Context, text string, durationMinutes int) (result *FindSlotsResult, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationFindSlotsText)
	defer cancel()
	defer func() { s.finish(rc, OperationFindSlotsText, err) }()

	parsed, err := s.parseTime(ctx, text)
	if err != nil {
		return nil, err
	}
	window := parsed.Window
	slots, err := s.findSlots(ctx, FindSlotsRequest{
		DurationMinutes: durationMinutes,
		TargetDate:      parsed.DateString(),
		Window:          &window,
		Exact:           parsed.IsExact,
	})
	if err != nil {
		return nil, err
	}
	rc.Info("slots found from text",
		slog.String("date", parsed.DateString()),
		slog.String("window", parsed.Window.String()),
		slog.Int(observability.LogFieldSessionCount, len(slots)),
	)
	return &FindSlotsResult{Slots: slots, TimeRequest: parsed}, nil
}

func (s *service) findSlots(ctx context.Context, req FindSlotsRequest) ([]availability.FreeBlock, error) {
	if req.DurationMinutes <= 0 || req.DurationMinutes > 24*60 {
		return nil, serrors.InvalidArgument("duration_minutes must be between 1 and 1440, got %d", req.DurationMinutes)
	}

	slotReq := availability.SlotRequest{DurationMinutes: req.DurationMinutes}
	if req.Deadline != "" {
		deadline, err := timezone.ParseDate(req.Deadline, s.loc)
		if err != nil {
			return nil, serrors.InvalidArgument("invalid deadline: %v", err)
		}
		if err := s.checkReach("deadline", deadline); err != nil {
			return nil, err
		}
		slotReq.Deadline = &deadline
	}
	if req.TargetDate != "" {
		target, err := timezone.ParseDate(req.TargetDate, s.loc)
		if err != nil {
			return nil, serrors.InvalidArgument("invalid target_date: %v", err)
		}
		if err := s.checkReach("target_date", target); err != nil {
			return nil, err
		}
		slotReq.TargetDate = &target
	}
	if req.Window != nil {
		window := *req.Window
		if window.Span() <= 0 {
			return nil, serrors.InvalidArgument("window %s is empty", window)
		}
		if req.Exact {
			window = window.Widen(max(60, req.DurationMinutes))
		}
		slotReq.Window = &window
	}

	now := s.now().In(s.loc)
	start, end := s.slotRange(now, slotReq)
	busy, err := s.busy(ctx, start, end)
	if err != nil {
		return nil, err
	}
	opts := s.options(now, false)
	return runEngine(ctx, func() []availability.FreeBlock {
		return availability.FindSlots(slotReq, busy, opts)
	})
}

// checkReach rejects dates the busy fetch cannot cover. Searching past the
// fetched range would report busy days as free.
func (s *service) checkReach(field string, date time.Time) error {
	today := timezone.StartOfDay(s.now().In(s.loc), s.loc)
	if timezone.DaysBetween(today, date, s.loc) >= MaxPlanDays {
		return serrors.InvalidArgument("%s %s is more than %d days away", field, date.Format(time.DateOnly), MaxPlanDays)
	}
	return nil
}

func (s *service) slotRange(now time.Time, req availability.SlotRequest) (time.Time, time.Time) {
	today := timezone.StartOfDay(now, s.loc)
	days := s.slotSearchDays
	if req.Deadline != nil {
		days = timezone.DaysBetween(today, *req.Deadline, s.loc) + 1
	}
	if req.TargetDate != nil {
		days = timezone.DaysBetween(today, *req.TargetDate, s.loc) + 1
	}
	days = min(max(days, 1), MaxPlanDays)
	return today, timezone.AddDays(today, days+1, s.loc)
}

func (s *service) ParseTimeRequest(ctx context.Context, text string) (result *aitime.TimeRequest, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationParseTime)
	defer cancel()
	defer func() { s.finish(rc, OperationParseTime, err) }()
	return s.parseTime(ctx, text)
}

func (s *service) parseTime(ctx context.Context, text string) (*aitime.TimeRequest, error) {
	if strings.TrimSpace(text) == "" {
		return nil, serrors.InvalidArgument("time request text is required")
	}
	parsed, err := s.timeService.ParseTimeRequest(ctx, text, s.now().In(s.loc))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, serrors.FromContextError(ctxErr)
		}
		return nil, serrors.Wrap(err, serrors.ErrCodeInvalidArgument, "failed to parse time request")
	}
	return &parsed, nil
}

func (s *service) BuildRecurrence(ctx context.Context, frequency, start, deadline string) (result *rrule.Descriptor, err error) {
	_, rc, cancel := s.begin(ctx, OperationBuildRecurrence)
	defer cancel()
	defer func() { s.finish(rc, OperationBuildRecurrence, err) }()

	first := timezone.StartOfDay(s.now(), s.loc)
	if start != "" {
		if first, err = timezone.ParseDate(start, s.loc); err != nil {
			return nil, serrors.InvalidArgument("invalid start: %v", err)
		}
	}
	return s.buildRecurrence(frequency, first, deadline)
}

func (s *service) buildRecurrence(frequency string, start time.Time, deadline string) (*rrule.Descriptor, error) {
	var until *time.Time
	if deadline != "" {
		d, err := timezone.ParseDate(deadline, s.loc)
		if err != nil {
			return nil, serrors.InvalidArgument("invalid deadline: %v", err)
		}
		until = &d
	}

	desc, err := rrule.BuildRecurrence(availability.ParseCadence(frequency), start, until, s.loc)
	if err != nil {
		if errors.Is(err, rrule.ErrNotRecurring) {
			return nil, serrors.Wrap(err, serrors.ErrCodeInvalidArgument, "frequency is not recurring")
		}
		return nil, serrors.Internal("failed to build recurrence", err)
	}
	return desc, nil
}

func (s *service) BusyIntervals(ctx context.Context, start, end time.Time) (busy []availability.BusyInterval, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationBusy)
	defer cancel()
	defer func() { s.finish(rc, OperationBusy, err) }()

	if !start.Before(end) {
		return nil, serrors.InvalidArgument("start must be before end")
	}
	if end.Sub(start) > MaxPlanDays*24*time.Hour {
		return nil, serrors.InvalidArgument("range exceeds %d days", MaxPlanDays)
	}
	return s.busy(ctx, start, end)
}

func (s *service) InvalidateBusyCache() {
	s.cache.Purge()
}
