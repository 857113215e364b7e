// Package availability finds free time for goals and ad-hoc requests.
//
// Every function in this package is a pure function of its arguments: the
// busy intervals, the goal and the current time are all supplied by the
// caller through Options. Nothing here reads the wall clock, performs I/O or
// mutates its inputs, so concurrent calls are safe.
package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/hrygo/freeslot/server/timezone"
)

// BusyInterval is an occupied [Start, End) range read from a calendar.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewBusyInterval validates start < end.
func NewBusyInterval(start, end time.Time) (BusyInterval, error) {
	if !start.Before(end) {
		return BusyInterval{}, fmt.Errorf("busy interval start %s must be before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return BusyInterval{Start: start, End: end}, nil
}

// Overlaps reports whether [start, end) intersects the interval.
// Touching ranges do not overlap.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return !(!end.After(b.Start) || !start.Before(b.End))
}

func overlapsAny(busy []BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// NormalizeBusy returns the intervals sorted by start with overlapping or
// touching ranges merged. Invalid (empty or inverted) intervals are dropped.
func NormalizeBusy(busy []BusyInterval) []BusyInterval {
	sorted := make([]BusyInterval, 0, len(busy))
	for _, b := range busy {
		if b.Start.Before(b.End) {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]BusyInterval, 0, len(sorted))
	for _, b := range sorted {
		if n := len(merged); n > 0 && !b.Start.After(merged[n-1].End) {
			if b.End.After(merged[n-1].End) {
				merged[n-1].End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

// FreeBlock is a candidate slot of the requested duration that overlaps no
// busy interval. Date and times are civil strings in the scheduling timezone.
type FreeBlock struct {
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DayPart         DayPart `json:"day_part"`
	DurationMinutes int     `json:"duration_minutes"`

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func newFreeBlock(start, end time.Time, part DayPart, loc *time.Location) FreeBlock {
	return FreeBlock{
		Date:            timezone.FormatDate(start, loc),
		StartTime:       timezone.FormatClock(start, loc),
		EndTime:         timezone.FormatClock(end, loc),
		DayPart:         part,
		DurationMinutes: int(end.Sub(start) / time.Minute),
		Start:           start,
		End:             end,
	}
}

// Interval returns the block as a busy interval, for callers that book it.
func (f FreeBlock) Interval() BusyInterval {
	return BusyInterval{Start: f.Start, End: f.End}
}

// pickNonOverlapping walks chronologically ordered blocks and keeps each one
// that starts at or after the end of the previously kept block, up to limit.
func pickNonOverlapping(blocks []FreeBlock, limit int) []FreeBlock {
	if limit <= 0 {
		return nil
	}
	picked := make([]FreeBlock, 0, limit)
	for _, b := range blocks {
		if len(picked) == limit {
			break
		}
		if n := len(picked); n > 0 && b.Start.Before(picked[n-1].End) {
			continue
		}
		picked = append(picked, b)
	}
	return picked
}
