package availability

import (
	"time"

	"github.com/hrygo/freeslot/server/timezone"
)

const (
	// GridStepMinutes is the spacing between candidate start times.
	GridStepMinutes = 30
	// LookAheadMinutes keeps candidates from starting sooner than this after now.
	LookAheadMinutes = 30
	// DefaultSlotSearchDays bounds ad-hoc searches that carry no deadline.
	DefaultSlotSearchDays = 7
)

// Options carries the explicit clock and timezone every entry point needs.
type Options struct {
	// Now is the reference instant; it is never read from the wall clock.
	Now time.Time
	// Location is the civil timezone all dates and HH:MM values refer to. Defaults to UTC.
	Location *time.Location
	// HorizonDays is the planning horizon for goals. Defaults to 28.
	HorizonDays int
	// SlotSearchDays bounds FindSlots when no deadline is given. Defaults to 7.
	SlotSearchDays int
	// Diagnostic asks PlanSchedule to report insufficiency and alternatives.
	Diagnostic bool
}

func (o Options) normalized() Options {
	if o.Location == nil {
		o.Location = timezone.UTC
	}
	if o.HorizonDays <= 0 {
		o.HorizonDays = DefaultHorizonDays
	}
	if o.SlotSearchDays <= 0 {
		o.SlotSearchDays = DefaultSlotSearchDays
	}
	o.Now = o.Now.In(o.Location)
	return o
}

func (o Options) today() time.Time {
	return timezone.StartOfDay(o.Now, o.Location)
}

// grid walks windows of single days against a fixed busy set.
type grid struct {
	busy     []BusyInterval
	earliest time.Time
	loc      *time.Location
}

func newGrid(busy []BusyInterval, opts Options) *grid {
	return &grid{
		busy:     busy,
		earliest: opts.Now.Add(LookAheadMinutes * time.Minute),
		loc:      opts.Location,
	}
}

// search returns, in chronological order, every candidate of durationMinutes
// on the 30-minute grid inside window on date's civil day that starts no
// earlier than now plus the look-ahead buffer and overlaps no busy interval.
func (g *grid) search(date time.Time, window Window, durationMinutes int) []FreeBlock {
	if durationMinutes <= 0 || durationMinutes > window.Span() {
		return nil
	}

	length := time.Duration(durationMinutes) * time.Minute
	var blocks []FreeBlock
	for m := window.StartMinute; m+durationMinutes <= window.EndMinute; m += GridStepMinutes {
		start := timezone.AtClock(date, m, g.loc)
		end := start.Add(length)
		if start.Before(g.earliest) {
			continue
		}
		if overlapsAny(g.busy, start, end) {
			continue
		}
		part := window.Part
		if part == "" {
			part = DayPartOf(m)
		}
		blocks = append(blocks, newFreeBlock(start, end, part, g.loc))
	}
	return blocks
}

// SearchWindow runs the grid search over one window of one civil day.
func SearchWindow(date time.Time, window Window, durationMinutes int, busy []BusyInterval, opts Options) []FreeBlock {
	opts = opts.normalized()
	return newGrid(busy, opts).search(date, window, durationMinutes)
}

// SearchDayPart runs the grid search over a day part of one civil day.
func SearchDayPart(date time.Time, part DayPart, durationMinutes int, busy []BusyInterval, opts Options) []FreeBlock {
	return SearchWindow(date, part.Window(), durationMinutes, busy, opts)
}
