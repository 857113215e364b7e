// Package rrule builds iCalendar RFC 5545 recurrence rules for recurring goals.
package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	rrulego "github.com/teambition/rrule-go"

	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/timezone"
)

// Frequency represents the recurrence frequency.
type Frequency string

const (
	Daily  Frequency = "DAILY"
	Weekly Frequency = "WEEKLY"
)

// Weekday represents the day of week for recurrence.
type Weekday string

const (
	Sunday    Weekday = "SU"
	Monday    Weekday = "MO"
	Tuesday   Weekday = "TU"
	Wednesday Weekday = "WE"
	Thursday  Weekday = "TH"
	Friday    Weekday = "FR"
	Saturday  Weekday = "SA"
)

// UntilLayout is the RFC 5545 UTC date-time form used for UNTIL.
const UntilLayout = "20060102T150405Z"

// Rule is a recurrence rule limited to the parts the scheduler emits.
type Rule struct {
	Frequency Frequency // FREQ
	Interval  int       // INTERVAL (default 1)
	Count     int       // COUNT
	Until     time.Time // UNTIL, always rendered in UTC
	ByDay     []Weekday // BYDAY
}

// String returns the RRULE string representation.
func (r *Rule) String() string {
	parts := []string{fmt.Sprintf("FREQ=%s", r.Frequency)}

	if r.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}
	if len(r.ByDay) > 0 {
		days := make([]string, len(r.ByDay))
		for i, day := range r.ByDay {
			days[i] = string(day)
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if r.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", r.Count))
	}
	if !r.Until.IsZero() {
		parts = append(parts, "UNTIL="+r.Until.UTC().Format(UntilLayout))
	}

	return strings.Join(parts, ";")
}

// Bound says how a descriptor ends.
type Bound string

const (
	BoundCount Bound = "count"
	BoundUntil Bound = "until"
)

// ErrNotRecurring is returned for one-shot and unrecognised cadences, which
// are scheduled as discrete sessions instead.
var ErrNotRecurring = errors.New("cadence is not recurring")

// untilThresholdDays is how far a deadline must lie past the start before
// the rule switches from COUNT to UNTIL.
const untilThresholdDays = availability.DefaultHorizonDays

// cadenceRules are the fixed weekday assignments per cadence.
var cadenceRules = map[availability.Cadence]Rule{
	availability.CadenceDaily:        {Frequency: Daily},
	availability.CadenceWeekly:       {Frequency: Weekly},
	availability.CadenceTwicePerWeek: {Frequency: Weekly, ByDay: []Weekday{Monday, Thursday}},
	availability.CadenceThreePerWeek: {Frequency: Weekly, ByDay: []Weekday{Monday, Wednesday, Friday}},
}

// Descriptor is a validated recurrence rule handed to a calendar writer.
type Descriptor struct {
	Rule      string     `json:"rule"`
	BoundedBy Bound      `json:"bounded_by"`
	Count     int        `json:"count,omitempty"`
	Until     *time.Time `json:"until,omitempty"`
}

// BoundValue is the occurrence count or the until instant, whichever bounds the rule.
func (d *Descriptor) BoundValue() any {
	if d.BoundedBy == BoundUntil && d.Until != nil {
		return *d.Until
	}
	return d.Count
}

// BuildRecurrence converts a cadence and date range into a descriptor. A
// deadline more than four weeks past start bounds the rule by UNTIL at the end
// of the deadline's civil day; otherwise the rule carries the planned COUNT.
func BuildRecurrence(cadence availability.Cadence, start time.Time, deadline *time.Time, loc *time.Location) (*Descriptor, error) {
	base, ok := cadenceRules[cadence]
	if !ok {
		return nil, errors.Wrapf(ErrNotRecurring, "cadence %q", cadence)
	}
	if loc == nil {
		loc = timezone.UTC
	}

	rule := base
	desc := &Descriptor{}
	if deadline != nil && timezone.DaysBetween(start, *deadline, loc) > untilThresholdDays {
		until := timezone.EndOfDay(*deadline, loc).UTC().Truncate(time.Second)
		rule.Until = until
		desc.BoundedBy = BoundUntil
		desc.Until = &until
	} else {
		rule.Count = availability.PlanSessionCount(cadence, start, deadline, availability.DefaultHorizonDays, loc)
		desc.BoundedBy = BoundCount
		desc.Count = rule.Count
	}
	desc.Rule = rule.String()

	if err := Validate(desc.Rule); err != nil {
		return nil, err
	}
	return desc, nil
}

// Validate checks that rule parses as an RRULE.
func Validate(rule string) error {
	if _, err := rrulego.StrToROption(rule); err != nil {
		return errors.Wrapf(err, "invalid rrule %q", rule)
	}
	return nil
}

// Occurrences expands the descriptor from dtstart, returning at most limit instants.
func (d *Descriptor) Occurrences(dtstart time.Time, limit int) ([]time.Time, error) {
	return Expand(d.Rule, dtstart, limit)
}

// Expand expands any bounded rule from dtstart. An unbounded rule stops at limit.
func Expand(rule string, dtstart time.Time, limit int) ([]time.Time, error) {
	opt, err := rrulego.StrToROption(rule)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid rrule %q", rule)
	}
	opt.Dtstart = dtstart
	r, err := rrulego.NewRRule(*opt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build rrule")
	}

	occurrences := make([]time.Time, 0, max(limit, 0))
	next := r.Iterator()
	for len(occurrences) < limit {
		t, ok := next()
		if !ok {
			break
		}
		occurrences = append(occurrences, t)
	}
	return occurrences, nil
}

// Between expands rule from dtstart and returns the occurrences that start in
// [after, before], at most limit. It is safe on unbounded rules.
func Between(rule string, dtstart, after, before time.Time, limit int) ([]time.Time, error) {
	opt, err := rrulego.StrToROption(rule)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid rrule %q", rule)
	}
	opt.Dtstart = dtstart
	r, err := rrulego.NewRRule(*opt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build rrule")
	}

	occurrences := r.Between(after, before, true)
	if limit >= 0 && len(occurrences) > limit {
		occurrences = occurrences[:limit]
	}
	return occurrences, nil
}
