// Package aitime parses loose English time requests into a civil date and a
// search window for the slot finder.
package aitime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/timezone"
)

// TimeService defines the time request parsing interface.
// Consumers: the schedule service and the slots CLI.
type TimeService interface {
	// ParseTimeRequest parses phrases like "tomorrow afternoon", "3pm" or
	// "next tuesday at 10am" against reference, which also fixes the timezone.
	ParseTimeRequest(ctx context.Context, text string, reference time.Time) (TimeRequest, error)
}

// TimeRequest is a parsed ad-hoc request.
type TimeRequest struct {
	// Date is midnight of the target civil date.
	Date time.Time
	// Window is a day part, a one-hour window around an exact time, or work hours.
	Window  availability.Window
	IsExact bool
	// DateMatched and TimeMatched report which parts of the phrase were recognised.
	DateMatched bool
	TimeMatched bool
}

// DateString is the civil YYYY-MM-DD target date.
func (r TimeRequest) DateString() string {
	return timezone.FormatDate(r.Date, r.Date.Location())
}

type timeRequestJSON struct {
	Date        string              `json:"date"`
	Window      availability.Window `json:"window"`
	IsExact     bool                `json:"is_exact"`
	DateMatched bool                `json:"date_matched"`
	TimeMatched bool                `json:"time_matched"`
}

// MarshalJSON renders the date as a civil string.
func (r TimeRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeRequestJSON{
		Date:        r.DateString(),
		Window:      r.Window,
		IsExact:     r.IsExact,
		DateMatched: r.DateMatched,
		TimeMatched: r.TimeMatched,
	})
}
