package availability

import (
	"math"
	"strings"
)

// DefaultSessionMinutes is used when a goal's amount or unit cannot be resolved,
// and is the session length one-shot goals are split into.
const DefaultSessionMinutes = 60

// Unit is a goal target unit with a known minutes-per-unit estimate.
type Unit string

const (
	UnitHour      Unit = "hour"
	UnitMinute    Unit = "minute"
	UnitKilometer Unit = "kilometer"
	UnitMile      Unit = "mile"
	UnitPage      Unit = "page"
	UnitChapter   Unit = "chapter"
	UnitUnknown   Unit = "unknown"
)

// unitMinutes are rough effort estimates, not measured durations:
// a kilometre of running, a page of reading and so on.
var unitMinutes = map[Unit]int{
	UnitHour:      60,
	UnitMinute:    1,
	UnitKilometer: 30,
	UnitMile:      45,
	UnitPage:      2,
	UnitChapter:   30,
}

var unitAliases = map[string]Unit{
	"hour": UnitHour, "hours": UnitHour, "hr": UnitHour, "hrs": UnitHour, "h": UnitHour,
	"minute": UnitMinute, "minutes": UnitMinute, "min": UnitMinute, "mins": UnitMinute,
	"kilometer": UnitKilometer, "kilometers": UnitKilometer, "kilometre": UnitKilometer,
	"kilometres": UnitKilometer, "km": UnitKilometer, "kms": UnitKilometer,
	"mile": UnitMile, "miles": UnitMile, "mi": UnitMile,
	"page": UnitPage, "pages": UnitPage, "pg": UnitPage, "pgs": UnitPage, "pp": UnitPage,
	"chapter": UnitChapter, "chapters": UnitChapter, "ch": UnitChapter, "chap": UnitChapter,
}

// ParseUnit resolves free-form unit text. Unrecognised text yields UnitUnknown.
func ParseUnit(s string) Unit {
	key := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
	if u, ok := unitAliases[key]; ok {
		return u
	}
	return UnitUnknown
}

// Minutes returns the per-unit estimate.
func (u Unit) Minutes() (int, bool) {
	m, ok := unitMinutes[u]
	return m, ok
}

// ResolveDurationMinutes converts a target amount and unit into minutes.
// A missing or non-positive amount, or an unknown unit, resolves to
// DefaultSessionMinutes.
func ResolveDurationMinutes(amount *float64, unit string) int {
	if amount == nil || *amount <= 0 {
		return DefaultSessionMinutes
	}
	per, ok := ParseUnit(unit).Minutes()
	if !ok {
		return DefaultSessionMinutes
	}
	return max(1, int(math.Ceil(*amount*float64(per))))
}

// sessionPlan is how a goal is cut into sessions.
type sessionPlan struct {
	minutes int
	// needed is the fixed session count, or 0 when the cadence planner decides.
	needed int
	// consecutive places a split one-shot goal on consecutive valid dates.
	consecutive bool
}

func resolveSessions(goal Goal, cadence Cadence) sessionPlan {
	total := ResolveDurationMinutes(goal.TargetAmount, goal.TargetUnit)

	if goal.SessionDuration != nil && *goal.SessionDuration > 0 {
		minutes := max(1, int(math.Round(*goal.SessionDuration*60)))
		plan := sessionPlan{minutes: minutes}
		if amount := goal.TargetAmount; amount != nil && *amount > 0 {
			if _, known := ParseUnit(goal.TargetUnit).Minutes(); known {
				plan.needed = ceilDiv(total, minutes)
			} else {
				// Without a measurable unit the amount counts in session-duration units.
				plan.needed = max(1, int(math.Ceil(*amount / *goal.SessionDuration)))
			}
			plan.consecutive = !cadence.IsRecurring() && plan.needed > 1
		}
		return plan
	}

	if cadence.IsRecurring() {
		// The target amount is per occurrence.
		return sessionPlan{minutes: total}
	}

	if total > DefaultSessionMinutes {
		needed := ceilDiv(total, DefaultSessionMinutes)
		return sessionPlan{minutes: DefaultSessionMinutes, needed: needed, consecutive: true}
	}
	return sessionPlan{minutes: total}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
