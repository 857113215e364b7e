package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/service/schedule"
)

// ListGoalsResponse wraps the goal list.
type ListGoalsResponse struct {
	Goals []availability.Goal `json:"goals"`
}

func (s *APIV1Service) ListGoals(c echo.Context) error {
	goals, err := s.ScheduleService.ListGoals(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ListGoalsResponse{Goals: goals})
}

func (s *APIV1Service) CreateGoal(c echo.Context) error {
	var goal availability.Goal
	if err := bind(c, &goal); err != nil {
		return err
	}
	created, err := s.ScheduleService.CreateGoal(c.Request().Context(), goal)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *APIV1Service) GetGoal(c echo.Context) error {
	goal, err := s.ScheduleService.GetGoal(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, goal)
}

func (s *APIV1Service) UpdateGoal(c echo.Context) error {
	var patch schedule.GoalPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	goal, err := s.ScheduleService.UpdateGoal(c.Request().Context(), c.Param("uid"), &patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, goal)
}

func (s *APIV1Service) DeleteGoal(c echo.Context) error {
	if err := s.ScheduleService.DeleteGoal(c.Request().Context(), c.Param("uid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
