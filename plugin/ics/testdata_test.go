package ics

import (
	"time"

	"github.com/hrygo/freeslot/server/scheduler/availability"
)

const sampleCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//freeslot//test//EN
BEGIN:VEVENT
UID:standup
DTSTAMP:20261001T000000Z
DTSTART:20261019T090000Z
DTEND:20261019T093000Z
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20261021T090000Z
SUMMARY:Standup
END:VEVENT
BEGIN:VEVENT
UID:standup
DTSTAMP:20261001T000000Z
RECURRENCE-ID:20261022T090000Z
DTSTART:20261022T110000Z
DTEND:20261022T113000Z
SUMMARY:Standup (moved)
END:VEVENT
BEGIN:VEVENT
UID:offsite
DTSTAMP:20261001T000000Z
DTSTART;VALUE=DATE:20261020
DTEND;VALUE=DATE:20261021
SUMMARY:Offsite
END:VEVENT
BEGIN:VEVENT
UID:dentist
DTSTAMP:20261001T000000Z
DTSTART;TZID=Europe/Paris:20261019T150000
DURATION:PT1H30M
SUMMARY:Dentist
END:VEVENT
BEGIN:VEVENT
UID:cancelled
DTSTAMP:20261001T000000Z
DTSTART:20261019T120000Z
DTEND:20261019T130000Z
STATUS:CANCELLED
SUMMARY:Lunch
END:VEVENT
BEGIN:VEVENT
UID:free
DTSTAMP:20261001T000000Z
DTSTART:20261019T140000Z
DTEND:20261019T150000Z
TRANSP:TRANSPARENT
SUMMARY:Focus reminder
END:VEVENT
BEGIN:VEVENT
UID:floating
DTSTAMP:20261001T000000Z
DTSTART:20261023T080000
DTEND:20261023T090000
SUMMARY:Breakfast
END:VEVENT
END:VCALENDAR
`

var (
	rangeStart = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)
)

func spans(busy []availability.BusyInterval) []string {
	out := make([]string, 0, len(busy))
	for _, b := range busy {
		out = append(out, b.Start.UTC().Format("01-02 15:04")+" "+b.End.UTC().Format("01-02 15:04"))
	}
	return out
}
