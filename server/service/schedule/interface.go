package schedule

import (
	"context"
	"time"

	"github.com/hrygo/freeslot/plugin/ai/aitime"
	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/scheduler/rrule"
	"github.com/hrygo/freeslot/store"
)

// Service is the caller-side scheduling API shared by the HTTP router and the CLI.
// It feeds the engine with busy time from every calendar source and writes
// accepted plans back to the calendar store.
type Service interface {
	// Plan proposes sessions for a goal that is not persisted.
	Plan(ctx context.Context, goal availability.Goal, diagnostic bool) (*availability.ScheduleResult, error)

	// PlanGoal plans a stored goal by UID.
	PlanGoal(ctx context.Context, uid string, diagnostic bool) (*availability.ScheduleResult, error)

	// FindSlots searches up to three free blocks for an ad-hoc request.
	FindSlots(ctx context.Context, req *FindSlotsRequest) (*FindSlotsResult, error)

	// FindSlotsFromText parses a phrase like "tomorrow afternoon" and searches it.
	FindSlotsFromText(ctx context.Context, text string, durationMinutes int) (*FindSlotsResult, error)

	// ParseTimeRequest parses a phrase against the current time.
	ParseTimeRequest(ctx context.Context, text string) (*aitime.TimeRequest, error)

	// BuildRecurrence translates a frequency into an RRULE descriptor. start and
	// deadline are civil YYYY-MM-DD dates; an empty start means today.
	BuildRecurrence(ctx context.Context, frequency, start, deadline string) (*rrule.Descriptor, error)

	// ApplyPlan writes accepted sessions to the calendar store.
	ApplyPlan(ctx context.Context, req *ApplyRequest) (*ApplyResult, error)

	// BusyIntervals returns the merged busy time of every source over [start, end).
	BusyIntervals(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error)

	// InvalidateBusyCache drops cached busy intervals after a calendar changes.
	InvalidateBusyCache()

	CreateGoal(ctx context.Context, goal availability.Goal) (*availability.Goal, error)
	ListGoals(ctx context.Context) ([]availability.Goal, error)
	GetGoal(ctx context.Context, uid string) (*availability.Goal, error)
	UpdateGoal(ctx context.Context, uid string, patch *GoalPatch) (*availability.Goal, error)
	DeleteGoal(ctx context.Context, uid string) error
}

// BusySource is a calendar the planner must respect.
type BusySource interface {
	Name() string
	BusyIntervals(ctx context.Context, start, end time.Time) ([]availability.BusyInterval, error)
}

// Store is the interface for store operations needed by the schedule service.
type Store interface {
	ListBusyIntervals(ctx context.Context, start, end time.Time, loc *time.Location) ([]availability.BusyInterval, error)
	CreateSchedule(ctx context.Context, create *store.Schedule) (*store.Schedule, error)

	CreateGoal(ctx context.Context, create *store.Goal) (*store.Goal, error)
	ListGoals(ctx context.Context, find *store.FindGoal) ([]*store.Goal, error)
	GetGoal(ctx context.Context, find *store.FindGoal) (*store.Goal, error)
	UpdateGoal(ctx context.Context, update *store.UpdateGoal) (*store.Goal, error)
	DeleteGoal(ctx context.Context, delete *store.DeleteGoal) error
}

// FindSlotsRequest is an ad-hoc slot search. Dates are civil YYYY-MM-DD.
type FindSlotsRequest struct {
	DurationMinutes int    `json:"duration_minutes"`
	Deadline        string `json:"deadline,omitempty"`
	TargetDate      string `json:"target_date,omitempty"`
	// Window restricts the time of day; nil searches all three day parts.
	Window *availability.Window `json:"window,omitempty"`
	// Exact marks a one-hour window around a named time. It is widened so the
	// whole duration fits after the named start.
	Exact bool `json:"exact,omitempty"`
}

// FindSlotsResult holds the slots found, earliest first.
type FindSlotsResult struct {
	Slots []availability.FreeBlock `json:"slots"`
	// TimeRequest is the parsed phrase when the search came from text.
	TimeRequest *aitime.TimeRequest `json:"time_request,omitempty"`
}

// ApplyRequest writes the sessions a user accepted.
type ApplyRequest struct {
	GoalUID string `json:"goal_uid,omitempty"`
	// Title defaults to the goal description.
	Title  string                      `json:"title,omitempty"`
	Events []availability.SessionEvent `json:"events"`
	// Recurring writes one schedule starting at the first event and repeating
	// per Frequency, bounded by Deadline.
	Recurring bool   `json:"recurring,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Deadline  string `json:"deadline,omitempty"`
}

// ApplyResult reports what was written.
type ApplyResult struct {
	ScheduleUIDs []string          `json:"schedule_uids"`
	Recurrence   *rrule.Descriptor `json:"recurrence,omitempty"`
}

// GoalPatch updates a stored goal. Nil fields are left unchanged.
type GoalPatch struct {
	Description          *string   `json:"description,omitempty"`
	TargetAmount         *float64  `json:"target_amount,omitempty"`
	TargetUnit           *string   `json:"target_unit,omitempty"`
	Deadline             *string   `json:"deadline,omitempty"`
	Frequency            *string   `json:"frequency,omitempty"`
	TimePreferences      *[]string `json:"time_preferences,omitempty"`
	MaxSessionsPerDay    *int      `json:"max_sessions_per_day,omitempty"`
	SessionDuration      *float64  `json:"session_duration,omitempty"`
	DistributionStrategy *string   `json:"distribution_strategy,omitempty"`
}
