// Package timezone holds the single civil timezone freeslot schedules in.
//
// Every date and clock value that crosses an API boundary is a civil string
// ("2006-01-02" for dates, "15:04" for clock times) interpreted in one
// process-wide location. This package owns the conversions between those
// strings and time.Time values anchored in that location.
package timezone

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the civil date format used at every boundary.
	DateLayout = "2006-01-02"
	// ClockLayout is the civil time-of-day format used at every boundary.
	ClockLayout = "15:04"

	// TimezoneUTC is the UTC timezone identifier.
	TimezoneUTC = "UTC"
)

// UTC is the fallback location.
var UTC = time.UTC

// ParseTimezone parses an IANA timezone identifier (e.g., "Europe/Paris").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == TimezoneUTC {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
}

// EndOfDay returns the last instant of the day (23:59:59.999999999) in the given timezone.
func EndOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, tz)
}

// AddDays moves a civil date by n calendar days. The result is midnight in tz,
// which keeps day arithmetic correct across DST changes.
func AddDays(date time.Time, n int, tz *time.Location) time.Time {
	start := StartOfDay(date, tz)
	return time.Date(start.Year(), start.Month(), start.Day()+n, 0, 0, 0, 0, start.Location())
}

// DaysBetween returns the number of calendar days from a to b in tz.
// Same-day values yield 0; b before a yields a negative count.
func DaysBetween(a, b time.Time, tz *time.Location) int {
	da := StartOfDay(a, tz)
	db := StartOfDay(b, tz)
	// Compare as UTC dates so DST transitions do not shorten a day.
	ua := time.Date(da.Year(), da.Month(), da.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(db.Year(), db.Month(), db.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// AtClock returns the instant at minuteOfDay minutes past midnight on date's civil day.
func AtClock(date time.Time, minuteOfDay int, tz *time.Location) time.Time {
	start := StartOfDay(date, tz)
	return time.Date(start.Year(), start.Month(), start.Day(), minuteOfDay/60, minuteOfDay%60, 0, 0, start.Location())
}

// FormatDate renders t as a civil date in tz.
func FormatDate(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = UTC
	}
	return t.In(tz).Format(DateLayout)
}

// FormatClock renders t as a civil HH:MM in tz.
func FormatClock(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = UTC
	}
	return t.In(tz).Format(ClockLayout)
}

// ParseDate parses a civil YYYY-MM-DD date into midnight in tz.
func ParseDate(s string, tz *time.Location) (time.Time, error) {
	if tz == nil {
		tz = UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseClock parses a civil HH:MM value into minutes past midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatMinuteOfDay renders minutes past midnight as HH:MM.
func FormatMinuteOfDay(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
