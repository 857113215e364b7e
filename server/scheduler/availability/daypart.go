package availability

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/freeslot/server/timezone"
)

// DayPart is one of the three fixed daily windows used for slot search and
// preference matching.
type DayPart string

const (
	Morning   DayPart = "morning"
	Afternoon DayPart = "afternoon"
	Evening   DayPart = "evening"
)

const minutesPerDay = 24 * 60

var dayPartWindows = map[DayPart]Window{
	Morning:   {StartMinute: 6 * 60, EndMinute: 12 * 60, Part: Morning},
	Afternoon: {StartMinute: 12 * 60, EndMinute: 18 * 60, Part: Afternoon},
	Evening:   {StartMinute: 18 * 60, EndMinute: 22 * 60, Part: Evening},
}

// WorkHours is the window used when an ad-hoc request names no time of day.
var WorkHours = Window{StartMinute: 9 * 60, EndMinute: 18 * 60}

// AllDayParts returns the day parts in chronological order.
func AllDayParts() []DayPart {
	return []DayPart{Morning, Afternoon, Evening}
}

// ParseDayPart maps a case-insensitive name to a DayPart.
func ParseDayPart(s string) (DayPart, bool) {
	part := DayPart(strings.ToLower(strings.TrimSpace(s)))
	_, ok := dayPartWindows[part]
	return part, ok
}

// DayPartOf classifies a minute of the day. Times before 06:00 count as
// morning and times after 22:00 as evening.
func DayPartOf(minuteOfDay int) DayPart {
	switch {
	case minuteOfDay < 12*60:
		return Morning
	case minuteOfDay < 18*60:
		return Afternoon
	default:
		return Evening
	}
}

// Window returns the fixed window of the day part.
func (d DayPart) Window() Window {
	return dayPartWindows[d]
}

// Label is the capitalised display name.
func (d DayPart) Label() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

func (d DayPart) optionLabel() string {
	return fmt.Sprintf("%s (%s)", d.Label(), d.Window())
}

// Window is a [StartMinute, EndMinute) range of minutes past midnight. Part
// names the day part the window stands for; it is empty for arbitrary windows.
type Window struct {
	StartMinute int
	EndMinute   int
	Part        DayPart
}

// ExactWindow is the one-hour window starting at hour:minute, clipped at midnight.
func ExactWindow(hour, minute int) Window {
	start := hour*60 + minute
	return Window{StartMinute: start, EndMinute: min(start+60, minutesPerDay)}
}

// Span is the window length in minutes.
func (w Window) Span() int {
	return w.EndMinute - w.StartMinute
}

// Widen extends the window end so at least minutes fit after its start.
func (w Window) Widen(minutes int) Window {
	if w.Span() >= minutes {
		return w
	}
	w.EndMinute = min(w.StartMinute+minutes, minutesPerDay)
	return w
}

func (w Window) String() string {
	return timezone.FormatMinuteOfDay(w.StartMinute) + "-" + timezone.FormatMinuteOfDay(w.EndMinute)
}

type windowJSON struct {
	Start   string  `json:"start"`
	End     string  `json:"end"`
	DayPart DayPart `json:"day_part,omitempty"`
}

// MarshalJSON renders the window as civil HH:MM strings.
func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(windowJSON{
		Start:   timezone.FormatMinuteOfDay(w.StartMinute),
		End:     timezone.FormatMinuteOfDay(w.EndMinute),
		DayPart: w.Part,
	})
}

// UnmarshalJSON accepts either {"day_part": "morning"} or {"start": "HH:MM", "end": "HH:MM"}.
func (w *Window) UnmarshalJSON(data []byte) error {
	var raw windowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Start == "" && raw.End == "" {
		part, ok := ParseDayPart(string(raw.DayPart))
		if !ok {
			return fmt.Errorf("window needs start/end or a known day_part, got %q", raw.DayPart)
		}
		*w = part.Window()
		return nil
	}
	start, err := timezone.ParseClock(raw.Start)
	if err != nil {
		return err
	}
	end := minutesPerDay
	if raw.End != "24:00" {
		if end, err = timezone.ParseClock(raw.End); err != nil {
			return err
		}
	}
	if start >= end {
		return fmt.Errorf("window start %s must be before end %s", raw.Start, raw.End)
	}
	*w = Window{StartMinute: start, EndMinute: end}
	if part, ok := ParseDayPart(string(raw.DayPart)); ok {
		w.Part = part
	}
	return nil
}
