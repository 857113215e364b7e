package availability

import (
	"time"

	"github.com/hrygo/freeslot/server/timezone"
)

// DateRequest describes which dates a goal should occupy.
type DateRequest struct {
	Cadence Cadence
	// First is the first chosen date; generation starts at the first valid date on or after it.
	First time.Time
	// ValidDates is the ordered list of candidate civil dates in the horizon.
	ValidDates []time.Time
	// Deadline is inclusive of its whole civil day.
	Deadline *time.Time
	// Max caps the number of dates returned.
	Max int
	// Consecutive takes one date per valid date regardless of cadence. It is
	// used for one-shot goals that were split into several sessions.
	Consecutive bool
	Location    *time.Location
}

// GenerateDates enumerates the dates sessions should fall on. The first date
// past the deadline stops generation; later dates are not substituted.
func GenerateDates(req DateRequest) []time.Time {
	loc := req.Location
	if loc == nil {
		loc = timezone.UTC
	}
	maxCount := max(1, req.Max)

	start := -1
	for i, d := range req.ValidDates {
		if timezone.DaysBetween(req.First, d, loc) >= 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	valid := req.ValidDates[start:]

	afterDeadline := func(d time.Time) bool {
		return req.Deadline != nil && timezone.DaysBetween(*req.Deadline, d, loc) > 0
	}

	var dates []time.Time
	switch {
	case req.Consecutive || req.Cadence == CadenceDaily:
		for _, d := range valid {
			if len(dates) == maxCount || afterDeadline(d) {
				break
			}
			dates = append(dates, d)
		}

	case req.Cadence.IsRecurring():
		// Each run of 7 valid dates is a week; the cadence's positions index
		// into it, so a filtered list (weekends only) is stepped by list
		// position rather than by calendar day.
		positions := req.Cadence.weekPositions()
		for week := 0; week < len(valid) && len(dates) < maxCount; week += 7 {
			for _, p := range positions {
				k := week + p
				if k >= len(valid) || len(dates) == maxCount {
					break
				}
				if afterDeadline(valid[k]) {
					return dates
				}
				dates = append(dates, valid[k])
			}
		}

	default:
		dates = []time.Time{valid[0]}
	}
	return dates
}

// validDates lists the civil dates of the horizon starting today, keeping
// only Saturdays and Sundays when weekendOnly is set.
func validDates(today time.Time, horizonDays int, weekendOnly bool, loc *time.Location) []time.Time {
	dates := make([]time.Time, 0, horizonDays)
	for i := 0; i < horizonDays; i++ {
		d := timezone.AddDays(today, i, loc)
		if weekendOnly && d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}
