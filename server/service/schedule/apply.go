package schedule

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hrygo/freeslot/internal/observability"
	serrors "github.com/hrygo/freeslot/server/internal/errors"
	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/timezone"
	"github.com/hrygo/freeslot/store"
)

type session struct {
	start time.Time
	end   time.Time
}

func (s *service) ApplyPlan(ctx context.Context, req *ApplyRequest) (result *ApplyResult, err error) {
	ctx, rc, cancel := s.begin(ctx, OperationApplyPlan)
	defer cancel()
	defer func() { s.finish(rc, OperationApplyPlan, err) }()

	if req == nil || len(req.Events) == 0 {
		return nil, serrors.InvalidArgument("events are required")
	}

	title, frequency, deadline := strings.TrimSpace(req.Title), req.Frequency, req.Deadline
	if req.GoalUID != "" {
		goal, err := s.findGoal(ctx, req.GoalUID)
		if err != nil {
			return nil, err
		}
		rc = rc.WithGoal(goal.UID)
		if title == "" {
			title = goal.Description
		}
		if frequency == "" {
			frequency = goal.Frequency
		}
		if deadline == "" {
			deadline = goal.Deadline
		}
	}
	if title == "" {
		title = DefaultSessionTitle
	}

	sessions := make([]session, 0, len(req.Events))
	for i, ev := range req.Events {
		sess, err := s.sessionOf(ev)
		if err != nil {
			return nil, serrors.InvalidArgument("event %d: %v", i, err)
		}
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].start.Before(sessions[j].start) })

	base := store.Schedule{
		Title:    title,
		Timezone: s.loc.String(),
		GoalUID:  req.GoalUID,
	}
	if req.Recurring {
		result, err = s.applyRecurring(ctx, base, sessions[0], frequency, deadline)
	} else {
		result, err = s.applySessions(ctx, rc, base, sessions)
	}
	if err != nil {
		return nil, err
	}

	s.InvalidateBusyCache()
	rc.Info("plan applied",
		slog.Int(observability.LogFieldSessionCount, len(result.ScheduleUIDs)),
		slog.Bool("recurring", req.Recurring),
	)
	return result, nil
}

func (s *service) applySessions(ctx context.Context, rc *observability.RequestContext, base store.Schedule, sessions []session) (*ApplyResult, error) {
	result := &ApplyResult{ScheduleUIDs: make([]string, 0, len(sessions))}
	for _, sess := range sessions {
		row := base
		row.StartTs = sess.start.Unix()
		endTs := sess.end.Unix()
		row.EndTs = &endTs
		created, err := s.store.CreateSchedule(ctx, &row)
		if err != nil {
			if len(result.ScheduleUIDs) > 0 {
				rc.Warn("plan partially applied", slog.Any("schedule_uids", result.ScheduleUIDs))
			}
			return nil, storeError(ctx, "failed to create schedule", err)
		}
		result.ScheduleUIDs = append(result.ScheduleUIDs, created.UID)
	}
	return result, nil
}

// applyRecurring writes one schedule that repeats the first session. The row
// keeps the end of its last occurrence so busy queries can skip it afterwards.
func (s *service) applyRecurring(ctx context.Context, base store.Schedule, first session, frequency, deadline string) (*ApplyResult, error) {
	desc, err := s.buildRecurrence(frequency, first.start, deadline)
	if err != nil {
		return nil, err
	}

	var recurrenceEnd int64
	if desc.Until != nil {
		recurrenceEnd = desc.Until.Unix()
	} else {
		occurrences, err := desc.Occurrences(first.start, max(desc.Count, 1))
		if err != nil {
			return nil, serrors.Internal("failed to expand recurrence", err)
		}
		last := first.start
		if len(occurrences) > 0 {
			last = occurrences[len(occurrences)-1]
		}
		recurrenceEnd = last.Add(first.end.Sub(first.start)).Unix()
	}

	row := base
	row.StartTs = first.start.Unix()
	endTs := first.end.Unix()
	row.EndTs = &endTs
	row.RecurrenceRule = &desc.Rule
	row.RecurrenceEndTs = &recurrenceEnd
	created, err := s.store.CreateSchedule(ctx, &row)
	if err != nil {
		return nil, storeError(ctx, "failed to create recurring schedule", err)
	}
	return &ApplyResult{ScheduleUIDs: []string{created.UID}, Recurrence: desc}, nil
}

// sessionOf reads a proposed event back into instants. An end of 00:00 or
// 24:00 means midnight after the session date.
func (s *service) sessionOf(ev availability.SessionEvent) (session, error) {
	date, err := timezone.ParseDate(ev.Date, s.loc)
	if err != nil {
		return session{}, err
	}
	startMinute, err := timezone.ParseClock(ev.StartTime)
	if err != nil {
		return session{}, err
	}
	endMinute := 24 * 60
	if ev.EndTime != "24:00" {
		if endMinute, err = timezone.ParseClock(ev.EndTime); err != nil {
			return session{}, err
		}
		if endMinute == 0 {
			endMinute = 24 * 60
		}
	}
	if endMinute <= startMinute {
		return session{}, serrors.InvalidArgument("end %s is not after start %s", ev.EndTime, ev.StartTime)
	}
	return session{
		start: timezone.AtClock(date, startMinute, s.loc),
		end:   timezone.AtClock(date, endMinute, s.loc),
	}, nil
}
