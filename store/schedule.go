package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/scheduler/rrule"
	"github.com/hrygo/freeslot/server/timezone"
)

// MaxInstances caps how many occurrences one recurring schedule contributes
// to a busy query.
const MaxInstances = 500

// Schedule is a calendar event. Every normal schedule makes its time busy.
type Schedule struct {
	ID        int32
	UID       string
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64

	Title       string
	Description string
	StartTs     int64
	EndTs       *int64
	AllDay      bool
	// Timezone is the IANA zone all-day dates are read in. Empty means the
	// scheduling timezone.
	Timezone        string
	RecurrenceRule  *string
	RecurrenceEndTs *int64
	// GoalUID links sessions written by ApplyPlan to their goal.
	GoalUID string
}

// FindSchedule is the find condition for schedule.
type FindSchedule struct {
	ID      *int32
	UID     *string
	GoalUID *string

	// StartTs keeps rows still busy at or after it, recurring rows included.
	StartTs *int64
	// EndTs keeps rows that begin before it.
	EndTs *int64

	RowStatus *RowStatus

	Limit  *int
	Offset *int
}

// UpdateSchedule is the update request for schedule.
type UpdateSchedule struct {
	ID              int32
	UpdatedTs       *int64
	RowStatus       *RowStatus
	Title           *string
	Description     *string
	StartTs         *int64
	EndTs           *int64
	AllDay          *bool
	Timezone        *string
	RecurrenceRule  *string
	RecurrenceEndTs *int64
}

// DeleteSchedule is the delete request for schedule.
type DeleteSchedule struct {
	ID int32
}

// CreateSchedule creates a new schedule, assigning a UID when none is given.
func (s *Store) CreateSchedule(ctx context.Context, create *Schedule) (*Schedule, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.EndTs != nil && *create.EndTs <= create.StartTs {
		return nil, errors.Errorf("schedule %s ends before it starts", create.UID)
	}
	if create.RecurrenceRule != nil && *create.RecurrenceRule != "" {
		if err := rrule.Validate(*create.RecurrenceRule); err != nil {
			return nil, err
		}
	}
	return s.driver.CreateSchedule(ctx, create)
}

// ListSchedules lists schedules with filter.
func (s *Store) ListSchedules(ctx context.Context, find *FindSchedule) ([]*Schedule, error) {
	return s.driver.ListSchedules(ctx, find)
}

// GetSchedule returns the first schedule matching find, or nil.
func (s *Store) GetSchedule(ctx context.Context, find *FindSchedule) (*Schedule, error) {
	list, err := s.driver.ListSchedules(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateSchedule(ctx context.Context, update *UpdateSchedule) error {
	if update.RecurrenceRule != nil && *update.RecurrenceRule != "" {
		if err := rrule.Validate(*update.RecurrenceRule); err != nil {
			return err
		}
	}
	return s.driver.UpdateSchedule(ctx, update)
}

func (s *Store) DeleteSchedule(ctx context.Context, delete *DeleteSchedule) error {
	return s.driver.DeleteSchedule(ctx, delete)
}

// IsRecurring reports whether the schedule carries a recurrence rule.
func (s *Schedule) IsRecurring() bool {
	return s.RecurrenceRule != nil && *s.RecurrenceRule != ""
}

// location is the zone the schedule's civil dates are read in.
func (s *Schedule) location(fallback *time.Location) *time.Location {
	if s.Timezone == "" {
		return fallback
	}
	loc, err := timezone.ParseTimezone(s.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// span returns the first occurrence of the schedule. All-day rows cover
// whole civil days up to the day holding the last instant before EndTs.
// ok is false for a timed row without an end, which occupies nothing.
func (s *Schedule) span(loc *time.Location) (start, end time.Time, ok bool) {
	start = time.Unix(s.StartTs, 0).In(loc)
	if s.AllDay {
		start = timezone.StartOfDay(start, loc)
		last := start
		if s.EndTs != nil {
			last = timezone.StartOfDay(time.Unix(*s.EndTs-1, 0), loc)
		}
		days := max(1, timezone.DaysBetween(start, last, loc)+1)
		return start, timezone.AddDays(start, days, loc), true
	}
	if s.EndTs == nil {
		return time.Time{}, time.Time{}, false
	}
	return start, time.Unix(*s.EndTs, 0).In(loc), true
}

// BusyIntervals expands the schedule into the busy intervals that overlap
// [from, to). Recurring rows contribute at most MaxInstances occurrences.
func (s *Schedule) BusyIntervals(from, to time.Time, loc *time.Location) ([]availability.BusyInterval, error) {
	loc = s.location(loc)
	start, end, ok := s.span(loc)
	if !ok {
		return nil, nil
	}

	if !s.IsRecurring() {
		if !start.Before(to) || !end.After(from) {
			return nil, nil
		}
		return []availability.BusyInterval{{Start: start, End: end}}, nil
	}

	before := to
	if s.RecurrenceEndTs != nil {
		if until := time.Unix(*s.RecurrenceEndTs, 0); until.Before(before) {
			before = until
		}
	}
	length := end.Sub(start)
	days := timezone.DaysBetween(start, end, loc)
	occurrences, err := rrule.Between(*s.RecurrenceRule, start, from.Add(-length), before, MaxInstances)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to expand schedule %s", s.UID)
	}

	intervals := make([]availability.BusyInterval, 0, len(occurrences))
	for _, occ := range occurrences {
		occEnd := occ.Add(length)
		if s.AllDay {
			occEnd = timezone.AddDays(occ, days, loc)
		}
		if occ.Before(to) && occEnd.After(from) {
			intervals = append(intervals, availability.BusyInterval{Start: occ, End: occEnd})
		}
	}
	return intervals, nil
}

// ListBusyIntervals returns the merged busy intervals of every normal
// schedule overlapping [start, end).
func (s *Store) ListBusyIntervals(ctx context.Context, start, end time.Time, loc *time.Location) ([]availability.BusyInterval, error) {
	if loc == nil {
		loc = timezone.UTC
	}
	normal := Normal
	// All-day rows are stored at local midnight; widen by a day so a zone
	// offset never drops one.
	startTs := start.Add(-24 * time.Hour).Unix()
	endTs := end.Unix()
	list, err := s.driver.ListSchedules(ctx, &FindSchedule{
		RowStatus: &normal,
		StartTs:   &startTs,
		EndTs:     &endTs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list schedules")
	}

	busy := make([]availability.BusyInterval, 0, len(list))
	for _, schedule := range list {
		intervals, err := schedule.BusyIntervals(start, end, loc)
		if err != nil {
			return nil, err
		}
		busy = append(busy, intervals...)
	}
	return availability.NormalizeBusy(busy), nil
}
