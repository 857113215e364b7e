package availability

import (
	"regexp"
	"strings"
)

// Cadence is a recognised recurrence pattern.
type Cadence string

const (
	CadenceNone         Cadence = "none"
	CadenceDaily        Cadence = "daily"
	CadenceWeekly       Cadence = "weekly"
	CadenceThreePerWeek Cadence = "three_per_week"
	CadenceTwicePerWeek Cadence = "twice_per_week"
	CadenceUnknown      Cadence = "unknown"
)

// DefaultHorizonDays is the rolling planning horizon.
const DefaultHorizonDays = 28

var cadenceAliases = map[string]Cadence{
	"": CadenceNone, "none": CadenceNone, "once": CadenceNone,
	"one time": CadenceNone, "one off": CadenceNone, "one shot": CadenceNone,

	"daily": CadenceDaily, "every day": CadenceDaily, "everyday": CadenceDaily,
	"each day": CadenceDaily, "per day": CadenceDaily,

	"weekly": CadenceWeekly, "every week": CadenceWeekly, "each week": CadenceWeekly,
	"once a week": CadenceWeekly, "once per week": CadenceWeekly, "once weekly": CadenceWeekly,

	"twice a week": CadenceTwicePerWeek, "twice per week": CadenceTwicePerWeek,
	"twice weekly": CadenceTwicePerWeek, "two times a week": CadenceTwicePerWeek,
	"two times per week": CadenceTwicePerWeek,

	"three times a week": CadenceThreePerWeek, "three times per week": CadenceThreePerWeek,
	"thrice a week": CadenceThreePerWeek, "thrice weekly": CadenceThreePerWeek,
}

// nxPerWeekPattern matches "3x per week", "2 times a week", "3x weekly", "3x/week".
var nxPerWeekPattern = regexp.MustCompile(`^(\d+)\s*(?:x|times?)\s*(?:(?:per|a|an|each|every)\s+)?week(?:ly)?$`)

var perWeekCadence = map[string]Cadence{
	"1": CadenceWeekly,
	"2": CadenceTwicePerWeek,
	"3": CadenceThreePerWeek,
	"7": CadenceDaily,
}

// ParseCadence looks a frequency phrase up in a fixed table. Empty text is a
// one-shot goal; anything unrecognised is CadenceUnknown, which schedules
// like a one-shot goal.
func ParseCadence(text string) Cadence {
	key := normalizeCadence(text)
	if c, ok := cadenceAliases[key]; ok {
		return c
	}
	if m := nxPerWeekPattern.FindStringSubmatch(key); m != nil {
		if c, ok := perWeekCadence[strings.TrimLeft(m[1], "0")]; ok {
			return c
		}
	}
	return CadenceUnknown
}

func normalizeCadence(text string) string {
	s := strings.ToLower(text)
	s = strings.NewReplacer("/", " per ", "-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// PerWeek is the number of occurrences per 7 days, 0 for one-shot cadences.
func (c Cadence) PerWeek() int {
	switch c {
	case CadenceDaily:
		return 7
	case CadenceWeekly:
		return 1
	case CadenceThreePerWeek:
		return 3
	case CadenceTwicePerWeek:
		return 2
	default:
		return 0
	}
}

// IsRecurring reports whether the cadence repeats.
func (c Cadence) IsRecurring() bool {
	return c.PerWeek() > 0
}

// MaxOccurrences caps the occurrence count over the horizon. With the default
// 28-day horizon that is daily 28, weekly 4, 3x/week 12, 2x/week 8, else 1.
func (c Cadence) MaxOccurrences(horizonDays int) int {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	switch {
	case c == CadenceDaily:
		return horizonDays
	case c.IsRecurring():
		return c.PerWeek() * max(1, horizonDays/7)
	default:
		return 1
	}
}

// weekPositions are the indexes taken inside each 7-day window.
func (c Cadence) weekPositions() []int {
	switch c {
	case CadenceWeekly:
		return []int{0}
	case CadenceThreePerWeek:
		return []int{0, 2, 4}
	case CadenceTwicePerWeek:
		return []int{0, 3}
	default:
		return nil
	}
}

// Label is the human-readable cadence.
func (c Cadence) Label() string {
	switch c {
	case CadenceDaily:
		return "daily"
	case CadenceWeekly:
		return "weekly"
	case CadenceThreePerWeek:
		return "3x per week"
	case CadenceTwicePerWeek:
		return "2x per week"
	default:
		return "once"
	}
}
