package ics

import (
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/timezone"
)

// DefaultMaxPerEvent caps the occurrences one recurring event may contribute.
const DefaultMaxPerEvent = 500

// Expand converts events into the busy intervals overlapping [start, end).
// Recurring events are expanded with their EXDATEs removed and their
// RECURRENCE-ID overrides applied. Cancelled and transparent events are free.
func Expand(events []Event, start, end time.Time, loc *time.Location, maxPerEvent int) []availability.BusyInterval {
	if loc == nil {
		loc = timezone.UTC
	}
	if maxPerEvent <= 0 {
		maxPerEvent = DefaultMaxPerEvent
	}

	overrides := make(map[string][]Event)
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	busy := make([]availability.BusyInterval, 0, len(events))
	add := func(ev Event, s, e time.Time) {
		if !ev.Cancelled && !ev.Transparent && s.Before(end) && e.After(start) && s.Before(e) {
			busy = append(busy, availability.BusyInterval{Start: s.In(loc), End: e.In(loc)})
		}
	}

	for _, ev := range events {
		switch {
		case ev.RecurrenceID != nil:
			// An override occupies its own slot even when the base rule is gone.
			add(ev, ev.Start, ev.End)
		case ev.RRule == "":
			add(ev, ev.Start, ev.End)
		default:
			for _, occ := range occurrences(ev, overrides[ev.UID], start, end, maxPerEvent) {
				add(ev, occ, occurrenceEnd(ev, occ))
			}
		}
	}
	return availability.NormalizeBusy(busy)
}

func occurrences(ev Event, overrides []Event, start, end time.Time, limit int) []time.Time {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		slog.Warn("skipping event with invalid rrule", "uid", ev.UID, "rrule", ev.RRule, "error", err)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}
	for _, o := range overrides {
		set.ExDate(o.RecurrenceID.In(ev.Start.Location()))
	}

	// Occurrences starting before the range may still run into it.
	length := ev.End.Sub(ev.Start)
	after := start.Add(-length).In(ev.Start.Location())
	occ := set.Between(after, end.In(ev.Start.Location()), true)
	if len(occ) > limit {
		slog.Warn("truncated recurring event", "uid", ev.UID, "cap", limit)
		occ = occ[:limit]
	}
	return occ
}

func occurrenceEnd(ev Event, occ time.Time) time.Time {
	if ev.AllDay {
		days := timezone.DaysBetween(ev.Start, ev.End, ev.Start.Location())
		return timezone.AddDays(occ, max(1, days), ev.Start.Location())
	}
	return occ.Add(ev.End.Sub(ev.Start))
}
