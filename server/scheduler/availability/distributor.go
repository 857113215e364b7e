package availability

import (
	"math"
	"time"

	"github.com/hrygo/freeslot/server/timezone"
)

// SessionEvent is one concrete session proposed for a goal.
type SessionEvent struct {
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationMinutes int     `json:"duration_minutes"`
	DayPart         DayPart `json:"day_part"`

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (f FreeBlock) toEvent() SessionEvent {
	return SessionEvent{
		Date:            f.Date,
		StartTime:       f.StartTime,
		EndTime:         f.EndTime,
		DurationMinutes: f.DurationMinutes,
		DayPart:         f.DayPart,
		Start:           f.Start,
		End:             f.End,
	}
}

// TimeOption is the session list proposed for one preferred day part.
type TimeOption struct {
	DayPart     DayPart        `json:"day_part"`
	Label       string         `json:"label"`
	Events      []SessionEvent `json:"events"`
	TotalEvents int            `json:"total_events"`
	TotalHours  float64        `json:"total_hours"`
}

// Diagnostics explains a plan's shortfall.
type Diagnostics struct {
	Incomplete      bool        `json:"incomplete"`
	SessionsNeeded  int         `json:"sessions_needed"`
	SessionsFound   int         `json:"sessions_found"`
	MissingSessions int         `json:"missing_sessions"`
	Alternatives    []FreeBlock `json:"alternatives"`
	// DeadlinePassed is set when the deadline fell before the first candidate
	// date and a single as-soon-as-possible occurrence was planned instead.
	DeadlinePassed bool `json:"deadline_passed,omitempty"`
}

// ScheduleResult is the plan for one goal.
type ScheduleResult struct {
	TimeOptions    []TimeOption `json:"time_options"`
	EventCount     int          `json:"event_count"`
	Frequency      string       `json:"frequency"`
	SessionMinutes int          `json:"session_minutes"`
	Diagnostics    *Diagnostics `json:"diagnostics,omitempty"`
}

// Incomplete reports whether the best option falls short of the planned count.
// It needs a diagnostic run.
func (r *ScheduleResult) Incomplete() bool {
	return r.Diagnostics != nil && r.Diagnostics.Incomplete
}

// PlanSchedule proposes sessions for a goal, one TimeOption per preferred day
// part. An option is dropped when its day part yields no session at all, so
// TimeOptions may be empty; that means nothing was found, not an error.
func PlanSchedule(goal Goal, busy []BusyInterval, opts Options) *ScheduleResult {
	opts = opts.normalized()
	loc := opts.Location

	cadence := goal.Cadence()
	plan := resolveSessions(goal, cadence)

	dates := validDates(opts.today(), opts.HorizonDays, goal.weekendOnly(), loc)
	first := opts.today()
	if len(dates) > 0 {
		first = dates[0]
	}

	deadline := goal.DeadlineIn(loc)
	deadlinePassed := deadline != nil && timezone.DaysBetween(first, *deadline, loc) < 0
	if deadlinePassed {
		deadline = nil
	}

	needed := plan.needed
	if needed == 0 {
		needed = PlanSessionCount(cadence, first, deadline, opts.HorizonDays, loc)
	}
	if deadlinePassed {
		needed = 1
	}

	sessionDates := GenerateDates(DateRequest{
		Cadence:     cadence,
		First:       first,
		ValidDates:  dates,
		Deadline:    deadline,
		Max:         needed,
		Consecutive: plan.consecutive && !deadlinePassed,
		Location:    loc,
	})

	result := &ScheduleResult{
		TimeOptions:    make([]TimeOption, 0, 3),
		EventCount:     needed,
		Frequency:      cadence.Label(),
		SessionMinutes: plan.minutes,
	}

	g := newGrid(busy, opts)
	parts, explicit := goal.dayParts()
	best := -1
	for _, part := range parts {
		option := distribute(g, goal, part, !explicit, sessionDates, plan.minutes, needed)
		if option.TotalEvents == 0 {
			continue
		}
		result.TimeOptions = append(result.TimeOptions, option)
		if best < 0 || option.TotalEvents > result.TimeOptions[best].TotalEvents {
			best = len(result.TimeOptions) - 1
		}
	}

	if !opts.Diagnostic {
		return result
	}

	diag := &Diagnostics{
		SessionsNeeded: needed,
		Alternatives:   []FreeBlock{},
		DeadlinePassed: deadlinePassed,
	}
	var chosen []BusyInterval
	if best >= 0 {
		diag.SessionsFound = result.TimeOptions[best].TotalEvents
		for _, e := range result.TimeOptions[best].Events {
			chosen = append(chosen, BusyInterval{Start: e.Start, End: e.End})
		}
	}
	if diag.SessionsFound < needed {
		diag.Incomplete = true
		diag.MissingSessions = needed - diag.SessionsFound
		diag.Alternatives = FindAlternatives(AlternativeRequest{
			DurationMinutes: plan.minutes,
			Deadline:        deadline,
			Exclude:         chosen,
			Limit:           AlternativesPerMissingSession * diag.MissingSessions,
		}, busy, opts)
	}
	result.Diagnostics = diag
	return result
}

// distribute fills one day part's option across the session dates. With
// fallback set, a date whose day part is full is retried in the other two.
func distribute(g *grid, goal Goal, part DayPart, fallback bool, dates []time.Time, minutes, needed int) TimeOption {
	option := TimeOption{
		DayPart: part,
		Label:   part.optionLabel(),
		Events:  []SessionEvent{},
	}

	for _, date := range dates {
		remaining := needed - len(option.Events)
		if remaining <= 0 {
			break
		}

		blocks := g.search(date, part.Window(), minutes)
		if len(blocks) == 0 && fallback {
			for _, other := range AllDayParts() {
				if other == part {
					continue
				}
				if blocks = g.search(date, other.Window(), minutes); len(blocks) > 0 {
					break
				}
			}
		}
		if len(blocks) == 0 {
			continue
		}

		limit := goal.maxPerDay()
		if goal.strategy() == FinishQuickly {
			limit = len(blocks)
		}
		for _, b := range pickNonOverlapping(blocks, min(limit, remaining)) {
			option.Events = append(option.Events, b.toEvent())
		}
	}

	totalMinutes := 0
	for _, e := range option.Events {
		totalMinutes += e.DurationMinutes
	}
	option.TotalEvents = len(option.Events)
	option.TotalHours = math.Round(float64(totalMinutes)/60*100) / 100
	return option
}
