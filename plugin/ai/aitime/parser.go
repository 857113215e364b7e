package aitime

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/timezone"
)

// ErrEmptyRequest is returned for blank input.
var ErrEmptyRequest = errors.New("empty time request")

// Patterns for time request parsing. Input is lower-cased before matching.
var (
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	inDaysPattern      = regexp.MustCompile(`\bin\s+(\d+|a|an|one|two|three|four|five|six|seven)\s+(days?|weeks?)\b`)
	weekdayPattern     = regexp.MustCompile(`\b(?:(this|next)\s+)?(monday|mon|tuesday|tues|tue|wednesday|weds|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun)\b`)
	monthDayPattern    = regexp.MustCompile(`\b(january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayMonthPattern    = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec)\b`)
	twelveHourPattern  = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)`)
	twentyFourPattern  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	atHourPattern      = regexp.MustCompile(`\bat\s+(\d{1,2})\b`)
	noonPattern        = regexp.MustCompile(`\b(noon|midday)\b`)
	dayAfterTomorrow   = regexp.MustCompile(`\bday\s+after\s+tomorrow\b`)
	dayPartWordPattern = regexp.MustCompile(`\b(morning|afternoon|evening|tonight)\b`)
)

var smallNumbers = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "weds": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thur": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April, "may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Parser parses short English time requests.
type Parser struct {
	timezone *time.Location
	now      func() time.Time
}

// NewParser creates a new time parser with the given timezone.
func NewParser(tz *time.Location) *Parser {
	if tz == nil {
		tz = timezone.UTC
	}
	return &Parser{
		timezone: tz,
		now:      time.Now,
	}
}

// WithTimezone returns a new parser with the given timezone.
func (p *Parser) WithTimezone(tz *time.Location) *Parser {
	return &Parser{
		timezone: tz,
		now:      p.now,
	}
}

// Parse resolves a phrase into a date and a window. Unrecognised phrases
// degrade to today and work hours; only blank input is an error.
func (p *Parser) Parse(input string) (TimeRequest, error) {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return TimeRequest{}, ErrEmptyRequest
	}

	today := timezone.StartOfDay(p.now(), p.timezone)
	req := TimeRequest{Date: today, Window: availability.WorkHours}

	if date, ok := p.parseDate(text, today); ok {
		req.Date = date
		req.DateMatched = true
	}
	p.parseTime(text, &req)
	return req, nil
}

// parseDate tries each date form in turn; the first match wins.
func (p *Parser) parseDate(text string, today time.Time) (time.Time, bool) {
	if m := isoDatePattern.FindString(text); m != "" {
		if d, err := timezone.ParseDate(normalizeISO(m), p.timezone); err == nil {
			return d, true
		}
	}

	switch {
	case dayAfterTomorrow.MatchString(text):
		return timezone.AddDays(today, 2, p.timezone), true
	case strings.Contains(text, "tomorrow"):
		return timezone.AddDays(today, 1, p.timezone), true
	case strings.Contains(text, "today"), strings.Contains(text, "tonight"):
		return today, true
	}

	if m := inDaysPattern.FindStringSubmatch(text); m != nil {
		n, ok := smallNumbers[m[1]]
		if !ok {
			n, _ = strconv.Atoi(m[1])
		}
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		return timezone.AddDays(today, n, p.timezone), true
	}

	if m := weekdayPattern.FindStringSubmatch(text); m != nil {
		return p.resolveWeekday(today, weekdayNames[m[2]], m[1] == "this"), true
	}

	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[2])
		if d, ok := p.resolveMonthDay(today, monthNames[m[1]], day); ok {
			return d, true
		}
	}
	if m := dayMonthPattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		if d, ok := p.resolveMonthDay(today, monthNames[m[2]], day); ok {
			return d, true
		}
	}

	return time.Time{}, false
}

// resolveWeekday returns the next occurrence of wd. A bare or "next" weekday
// that matches today rolls to next week; "this" keeps today.
func (p *Parser) resolveWeekday(today time.Time, wd time.Weekday, allowToday bool) time.Time {
	delta := (int(wd) - int(today.Weekday()) + 7) % 7
	if delta == 0 && !allowToday {
		delta = 7
	}
	return timezone.AddDays(today, delta, p.timezone)
}

// resolveMonthDay rolls a month/day literal that already passed into next year.
func (p *Parser) resolveMonthDay(today time.Time, month time.Month, day int) (time.Time, bool) {
	year := today.Year()
	d := time.Date(year, month, day, 0, 0, 0, 0, p.timezone)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	if d.Before(today) {
		d = time.Date(year+1, month, day, 0, 0, 0, 0, p.timezone)
		if d.Month() != month {
			return time.Time{}, false
		}
	}
	return d, true
}

// parseTime sets the window. Exact clock times win over day-part keywords.
func (p *Parser) parseTime(text string, req *TimeRequest) {
	part, hasPart := dayPartOf(text)

	if hour, minute, ok := exactClock(text, part, hasPart); ok {
		req.Window = availability.ExactWindow(hour, minute)
		req.IsExact = true
		req.TimeMatched = true
		return
	}
	if hasPart {
		req.Window = part.Window()
		req.TimeMatched = true
	}
}

func dayPartOf(text string) (availability.DayPart, bool) {
	m := dayPartWordPattern.FindString(text)
	if m == "" {
		return "", false
	}
	if m == "tonight" {
		return availability.Evening, true
	}
	return availability.DayPart(m), true
}

func exactClock(text string, part availability.DayPart, hasPart bool) (hour, minute int, ok bool) {
	if m := twelveHourPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour >= 1 && hour <= 12 && minute < 60 {
			pm := strings.HasPrefix(m[3], "p")
			switch {
			case pm && hour < 12:
				hour += 12
			case !pm && hour == 12:
				hour = 0
			}
			return hour, minute, true
		}
	}

	if m := twentyFourPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return hour, minute, true
	}

	if noonPattern.MatchString(text) {
		return 12, 0, true
	}

	if m := atHourPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if hour > 23 {
			return 0, 0, false
		}
		return bareHour(hour, part, hasPart), 0, true
	}

	return 0, 0, false
}

// bareHour disambiguates "at 3". A bare 12 is always noon. A day-part keyword
// decides the rest when present; otherwise 1-6 reads as afternoon and 7-11 as
// morning.
func bareHour(hour int, part availability.DayPart, hasPart bool) int {
	if hour >= 12 || hour == 0 {
		return hour
	}
	if hasPart {
		if part == availability.Morning {
			return hour
		}
		return hour + 12
	}
	if hour >= 1 && hour <= 6 {
		return hour + 12
	}
	return hour
}

// normalizeISO zero-pads a loose YYYY-M-D literal.
func normalizeISO(s string) string {
	parts := strings.Split(s, "-")
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	return strings.Join(parts, "-")
}
