package availability

import (
	"time"

	"github.com/hrygo/freeslot/server/timezone"
)

// DistributionStrategy governs how many sessions are packed into one date.
type DistributionStrategy string

const (
	// SpreadEvenly caps each date at MaxSessionsPerDay.
	SpreadEvenly DistributionStrategy = "spread_evenly"
	// FinishQuickly takes every non-overlapping block a date offers.
	FinishQuickly DistributionStrategy = "finish_quickly"
)

// TimePreference is a day part or "weekend".
type TimePreference string

const (
	PreferMorning   TimePreference = "morning"
	PreferAfternoon TimePreference = "afternoon"
	PreferEvening   TimePreference = "evening"
	PreferWeekend   TimePreference = "weekend"
)

// Goal is the read-only description of what to schedule.
type Goal struct {
	UID          string   `json:"uid,omitempty"`
	Description  string   `json:"description"`
	TargetAmount *float64 `json:"target_amount,omitempty"`
	TargetUnit   string   `json:"target_unit,omitempty"`
	// Deadline is a civil YYYY-MM-DD date, inclusive of the whole day.
	Deadline             string               `json:"deadline,omitempty"`
	Frequency            string               `json:"frequency,omitempty"`
	TimePreferences      []TimePreference     `json:"time_preferences,omitempty"`
	MaxSessionsPerDay    int                  `json:"max_sessions_per_day,omitempty"`
	SessionDuration      *float64             `json:"session_duration,omitempty"` // hours
	DistributionStrategy DistributionStrategy `json:"distribution_strategy,omitempty"`
}

// Cadence resolves the goal's frequency text.
func (g Goal) Cadence() Cadence {
	return ParseCadence(g.Frequency)
}

// DeadlineIn parses the deadline in loc. A missing or malformed deadline is nil.
func (g Goal) DeadlineIn(loc *time.Location) *time.Time {
	if g.Deadline == "" {
		return nil
	}
	d, err := timezone.ParseDate(g.Deadline, loc)
	if err != nil {
		return nil
	}
	return &d
}

// dayParts returns the preferred day parts in chronological order, or all
// three when none is named. explicit reports whether the goal named any.
func (g Goal) dayParts() (parts []DayPart, explicit bool) {
	wanted := make(map[DayPart]bool)
	for _, p := range g.TimePreferences {
		if part, ok := ParseDayPart(string(p)); ok {
			wanted[part] = true
		}
	}
	if len(wanted) == 0 {
		return AllDayParts(), false
	}
	for _, part := range AllDayParts() {
		if wanted[part] {
			parts = append(parts, part)
		}
	}
	return parts, true
}

func (g Goal) weekendOnly() bool {
	for _, p := range g.TimePreferences {
		if p == PreferWeekend {
			return true
		}
	}
	return false
}

func (g Goal) maxPerDay() int {
	return max(1, g.MaxSessionsPerDay)
}

func (g Goal) strategy() DistributionStrategy {
	if g.DistributionStrategy == FinishQuickly {
		return FinishQuickly
	}
	return SpreadEvenly
}
