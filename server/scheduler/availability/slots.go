package availability

import (
	"time"

	"github.com/hrygo/freeslot/server/timezone"
)

const (
	// AlternativesPerMissingSession caps the alternative search.
	AlternativesPerMissingSession = 3
	// MaxSlotResults caps FindSlots.
	MaxSlotResults = 3
	// maxScanDays bounds date scans driven by far-away deadlines.
	maxScanDays = 366
)

// AlternativeRequest drives the alternative search that backs an incomplete plan.
type AlternativeRequest struct {
	DurationMinutes int
	// Deadline bounds the scan; nil scans the planning horizon.
	Deadline *time.Time
	// Exclude holds sessions already proposed; alternatives never overlap them.
	Exclude []BusyInterval
	Limit   int
}

// FindAlternatives scans every date from today to the deadline across all three
// day parts and returns non-overlapping candidates in chronological order.
func FindAlternatives(req AlternativeRequest, busy []BusyInterval, opts Options) []FreeBlock {
	opts = opts.normalized()
	alternatives := []FreeBlock{}
	if req.Limit <= 0 || req.DurationMinutes <= 0 {
		return alternatives
	}

	blocked := make([]BusyInterval, 0, len(busy)+len(req.Exclude))
	blocked = append(blocked, busy...)
	blocked = append(blocked, req.Exclude...)
	g := newGrid(blocked, opts)

	for _, date := range scanDates(opts, req.Deadline, opts.HorizonDays) {
		for _, part := range AllDayParts() {
			found := pickNonOverlapping(g.search(date, part.Window(), req.DurationMinutes), req.Limit)
			for _, b := range found {
				if len(alternatives) == req.Limit {
					return alternatives
				}
				alternatives = append(alternatives, b)
			}
		}
	}
	return alternatives
}

// SlotRequest is an ad-hoc search for a single meeting-like slot.
type SlotRequest struct {
	DurationMinutes int
	// Deadline is the last civil date searched, inclusive. Nil searches
	// Options.SlotSearchDays days.
	Deadline *time.Time
	// Window restricts the time of day. Nil searches all three day parts.
	Window *Window
	// TargetDate restricts the search to one civil date.
	TargetDate *time.Time
}

// FindSlots returns up to three free blocks, earliest first.
func FindSlots(req SlotRequest, busy []BusyInterval, opts Options) []FreeBlock {
	opts = opts.normalized()
	slots := make([]FreeBlock, 0, MaxSlotResults)

	windows := make([]Window, 0, 3)
	if req.Window != nil {
		windows = append(windows, *req.Window)
	} else {
		for _, part := range AllDayParts() {
			windows = append(windows, part.Window())
		}
	}

	dates := scanDates(opts, req.Deadline, opts.SlotSearchDays)
	if req.TargetDate != nil {
		dates = []time.Time{timezone.StartOfDay(*req.TargetDate, opts.Location)}
	}

	g := newGrid(busy, opts)
	for _, date := range dates {
		for _, w := range windows {
			for _, b := range g.search(date, w, req.DurationMinutes) {
				slots = append(slots, b)
				if len(slots) == MaxSlotResults {
					return slots
				}
			}
		}
	}
	return slots
}

// scanDates lists today through the inclusive deadline, or days dates when
// there is no deadline.
func scanDates(opts Options, deadline *time.Time, days int) []time.Time {
	today := opts.today()
	if deadline != nil {
		days = timezone.DaysBetween(today, *deadline, opts.Location) + 1
	}
	days = min(days, maxScanDays)
	dates := make([]time.Time, 0, max(days, 0))
	for i := 0; i < days; i++ {
		dates = append(dates, timezone.AddDays(today, i, opts.Location))
	}
	return dates
}
