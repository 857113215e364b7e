package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	serrors "github.com/hrygo/freeslot/server/internal/errors"
	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/service/schedule"
)

// PlanRequest asks for a plan of an unsaved goal.
type PlanRequest struct {
	Goal       availability.Goal `json:"goal"`
	Diagnostic bool              `json:"diagnostic"`
}

// RecurrenceRequest asks for an RRULE descriptor.
type RecurrenceRequest struct {
	Frequency string `json:"frequency"`
	Start     string `json:"start,omitempty"`
	Deadline  string `json:"deadline,omitempty"`
}

// Plan handles POST /api/v1/plans.
func (s *APIV1Service) Plan(c echo.Context) error {
	var req PlanRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := s.ScheduleService.Plan(c.Request().Context(), req.Goal, req.Diagnostic)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// PlanGoal handles POST /api/v1/goals/:uid/plan?diagnostic=true.
func (s *APIV1Service) PlanGoal(c echo.Context) error {
	diagnostic, err := boolParam(c, "diagnostic")
	if err != nil {
		return err
	}
	result, err := s.ScheduleService.PlanGoal(c.Request().Context(), c.Param("uid"), diagnostic)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ApplyPlan handles POST /api/v1/plans:apply.
func (s *APIV1Service) ApplyPlan(c echo.Context) error {
	var req schedule.ApplyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := s.ScheduleService.ApplyPlan(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// BuildRecurrence handles POST /api/v1/recurrences.
func (s *APIV1Service) BuildRecurrence(c echo.Context) error {
	var req RecurrenceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	desc, err := s.ScheduleService.BuildRecurrence(c.Request().Context(), req.Frequency, req.Start, req.Deadline)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, desc)
}

func boolParam(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, serrors.InvalidArgument("%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}

// bind decodes the request body, turning decode failures into INVALID_ARGUMENT.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return serrors.Wrap(err, serrors.ErrCodeInvalidArgument, "malformed request body")
	}
	return nil
}
