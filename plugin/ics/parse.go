package ics

import (
	"bytes"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/pkg/errors"

	"github.com/hrygo/freeslot/server/timezone"
)

const (
	utcTimestampLayout   = "20060102T150405Z"
	localTimestampLayout = "20060102T150405"
	dateLayout           = "20060102"
)

var durationPattern = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// Event is a VEVENT reduced to what busy-time expansion needs.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool

	RRule   string
	ExDates []time.Time
	// RecurrenceID marks an override of one instance of a recurring event.
	RecurrenceID *time.Time

	Cancelled   bool
	Transparent bool
}

// Busy reports whether the event blocks time.
func (e Event) Busy() bool {
	return !e.Cancelled && !e.Transparent && e.End.After(e.Start)
}

// Parse reads a calendar body. Floating times and all-day dates are read in
// loc. Malformed events are logged and skipped.
func Parse(body []byte, loc *time.Location) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty calendar body")
	}
	if loc == nil {
		loc = timezone.UTC
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse calendar")
	}

	events := make([]Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseEvent(ve, loc)
		if err != nil {
			slog.Warn("skipping malformed vevent", "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseEvent(ve *ical.VEvent, loc *time.Location) (Event, error) {
	var ev Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("missing UID")
	}
	ev.UID = uid.Value
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		ev.Cancelled = strings.EqualFold(p.Value, "CANCELLED")
	}
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil {
		ev.Transparent = strings.EqualFold(p.Value, string(ical.TransparencyTransparent))
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return ev, errors.Errorf("event %s has no DTSTART", ev.UID)
	}
	ev.AllDay = isDateValue(&dtstart.BaseProperty)
	start, err := propertyTime(&dtstart.BaseProperty, loc)
	if err != nil {
		return ev, errors.Wrapf(err, "event %s", ev.UID)
	}
	ev.Start = start

	switch dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); {
	case dtend != nil:
		end, err := propertyTime(&dtend.BaseProperty, loc)
		if err != nil {
			return ev, errors.Wrapf(err, "event %s", ev.UID)
		}
		ev.End = end
	case ve.GetProperty(ical.ComponentPropertyDuration) != nil:
		d, err := parseDuration(ve.GetProperty(ical.ComponentPropertyDuration).Value)
		if err != nil {
			return ev, errors.Wrapf(err, "event %s", ev.UID)
		}
		ev.End = ev.Start.Add(d)
	case ev.AllDay:
		ev.End = timezone.AddDays(ev.Start, 1, ev.Start.Location())
	default:
		ev.End = ev.Start
	}
	if ev.AllDay && !ev.End.After(ev.Start) {
		ev.End = timezone.AddDays(ev.Start, 1, ev.Start.Location())
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		tzid := parameter(&p.BaseProperty, "TZID")
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseTime(strings.TrimSpace(part), tzid, loc); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		rid, err := propertyTime(&p.BaseProperty, loc)
		if err != nil {
			return ev, errors.Wrapf(err, "event %s", ev.UID)
		}
		ev.RecurrenceID = &rid
	}
	return ev, nil
}

func parameter(p *ical.BaseProperty, name string) string {
	if vs, ok := p.ICalParameters[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func isDateValue(p *ical.BaseProperty) bool {
	return strings.EqualFold(parameter(p, "VALUE"), "DATE") || !strings.Contains(p.Value, "T")
}

func propertyTime(p *ical.BaseProperty, loc *time.Location) (time.Time, error) {
	return parseTime(strings.TrimSpace(p.Value), parameter(p, "TZID"), loc)
}

// parseTime reads a DATE or DATE-TIME value. UTC values keep UTC, TZID values
// use that zone and floating values use loc.
func parseTime(v, tzid string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse(utcTimestampLayout, v)
		return t, errors.Wrapf(err, "invalid time %q", v)
	}

	zone := loc
	if tzid != "" {
		z, err := time.LoadLocation(tzid)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "unknown TZID %q", tzid)
		}
		zone = z
	}
	layout := dateLayout
	if strings.Contains(v, "T") {
		layout = localTimestampLayout
	}
	t, err := time.ParseInLocation(layout, v, zone)
	return t, errors.Wrapf(err, "invalid time %q", v)
}

// parseDuration reads the positive RFC 5545 DURATION forms.
func parseDuration(v string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(strings.TrimPrefix(strings.TrimSpace(v), "+"))
	if m == nil || v == "P" || strings.HasSuffix(v, "T") {
		return 0, errors.Errorf("invalid duration %q", v)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+1])
		d += time.Duration(n) * unit
	}
	return d, nil
}
