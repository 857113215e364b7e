package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/freeslot/internal/profile"
	"github.com/hrygo/freeslot/server/service/schedule"
)

// APIV1Service serves the JSON API under /api/v1.
type APIV1Service struct {
	Profile         *profile.Profile
	ScheduleService schedule.Service
	// MetricsHandler serves /metrics; nil uses the default Prometheus registry.
	MetricsHandler http.Handler

	startedAt time.Time
}

func NewAPIV1Service(profile *profile.Profile, scheduleService schedule.Service) *APIV1Service {
	return &APIV1Service{
		Profile:         profile,
		ScheduleService: scheduleService,
		startedAt:       time.Now(),
	}
}

// RegisterRoutes mounts the API, the health check and the metrics endpoint.
// apiMiddleware applies to /api/v1 only. Custom methods use the
// "/resource:verb" form, so their colons are escaped.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo, apiMiddleware ...echo.MiddlewareFunc) {
	e.GET("/healthz", s.Healthz)

	metrics := s.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	e.GET("/metrics", echo.WrapHandler(metrics))

	g := e.Group("/api/v1", apiMiddleware...)
	g.POST("/plans", s.Plan)
	g.POST("/plans\\:apply", s.ApplyPlan)
	g.POST("/slots", s.FindSlots)
	g.POST("/slots\\:search", s.SearchSlots)
	g.POST("/time-requests\\:parse", s.ParseTimeRequest)
	g.POST("/recurrences", s.BuildRecurrence)
	g.GET("/busy", s.ListBusy)

	g.GET("/goals", s.ListGoals)
	g.POST("/goals", s.CreateGoal)
	g.GET("/goals/:uid", s.GetGoal)
	g.PATCH("/goals/:uid", s.UpdateGoal)
	g.DELETE("/goals/:uid", s.DeleteGoal)
	g.POST("/goals/:uid/plan", s.PlanGoal)
}

// HealthzResponse reports liveness.
type HealthzResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Timezone string `json:"timezone"`
	Uptime   string `json:"uptime"`
}

// Healthz handles GET /healthz.
func (s *APIV1Service) Healthz(c echo.Context) error {
	resp := HealthzResponse{
		Status: "ok",
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	}
	if s.Profile != nil {
		resp.Version = s.Profile.Version
		resp.Timezone = s.Profile.Location().String()
	}
	return c.JSON(http.StatusOK, resp)
}
