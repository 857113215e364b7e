package availability

import (
	"time"

	"github.com/hrygo/freeslot/server/timezone"
)

// PlanSessionCount returns how many occurrences a cadence needs between first
// and an optional inclusive deadline, capped by the horizon. Daily cadences
// count calendar days; weekly and Nx-per-week cadences count started weeks.
// The result is never below 1, even for a deadline before first.
func PlanSessionCount(cadence Cadence, first time.Time, deadline *time.Time, horizonDays int, loc *time.Location) int {
	if !cadence.IsRecurring() {
		return 1
	}

	limit := cadence.MaxOccurrences(horizonDays)
	if deadline == nil {
		return limit
	}

	days := timezone.DaysBetween(first, *deadline, loc) + 1
	if days < 1 {
		return 1
	}

	bound := days
	if cadence != CadenceDaily {
		weeks := ceilDiv(days, 7)
		bound = weeks * cadence.PerWeek()
	}
	return max(1, min(limit, bound))
}
