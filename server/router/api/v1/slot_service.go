package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	serrors "github.com/hrygo/freeslot/server/internal/errors"
	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/service/schedule"
	"github.com/hrygo/freeslot/server/timezone"
)

// SearchSlotsRequest is the conversational "parse then search" request.
type SearchSlotsRequest struct {
	Text            string `json:"text"`
	DurationMinutes int    `json:"duration_minutes"`
}

// ParseTimeRequestRequest carries a phrase to parse.
type ParseTimeRequestRequest struct {
	Text string `json:"text"`
}

// ListBusyResponse is the merged busy time of every calendar.
type ListBusyResponse struct {
	Start time.Time                   `json:"start"`
	End   time.Time                   `json:"end"`
	Busy  []availability.BusyInterval `json:"busy"`
}

// FindSlots handles POST /api/v1/slots.
func (s *APIV1Service) FindSlots(c echo.Context) error {
	var req schedule.FindSlotsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := s.ScheduleService.FindSlots(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// SearchSlots handles POST /api/v1/slots:search.
func (s *APIV1Service) SearchSlots(c echo.Context) error {
	var req SearchSlotsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := s.ScheduleService.FindSlotsFromText(c.Request().Context(), req.Text, req.DurationMinutes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ParseTimeRequest handles POST /api/v1/time-requests:parse.
func (s *APIV1Service) ParseTimeRequest(c echo.Context) error {
	var req ParseTimeRequestRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	parsed, err := s.ScheduleService.ParseTimeRequest(c.Request().Context(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, parsed)
}

// ListBusy handles GET /api/v1/busy?start=&end=. Bounds are RFC 3339 instants
// or civil dates; a civil end date is inclusive.
func (s *APIV1Service) ListBusy(c echo.Context) error {
	loc := s.location()
	start, _, err := parseBound(c.QueryParam("start"), loc)
	if err != nil {
		return serrors.InvalidArgument("invalid start: %v", err)
	}
	end, civil, err := parseBound(c.QueryParam("end"), loc)
	if err != nil {
		return serrors.InvalidArgument("invalid end: %v", err)
	}
	if civil {
		end = timezone.AddDays(end, 1, loc)
	}

	busy, err := s.ScheduleService.BusyIntervals(c.Request().Context(), start, end)
	if err != nil {
		return err
	}
	if busy == nil {
		busy = []availability.BusyInterval{}
	}
	return c.JSON(http.StatusOK, ListBusyResponse{Start: start, End: end, Busy: busy})
}

func (s *APIV1Service) location() *time.Location {
	if s.Profile == nil {
		return timezone.UTC
	}
	return s.Profile.Location()
}

// parseBound reads an RFC 3339 instant or a YYYY-MM-DD date. civil reports a date.
func parseBound(raw string, loc *time.Location) (t time.Time, civil bool, err error) {
	if raw == "" {
		return time.Time{}, false, serrors.InvalidArgument("value is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), false, nil
	}
	t, err = timezone.ParseDate(raw, loc)
	return t, true, err
}
