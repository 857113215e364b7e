package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/freeslot/internal/observability"
	"github.com/hrygo/freeslot/internal/profile"
	serrors "github.com/hrygo/freeslot/server/internal/errors"
	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/service/schedule"
	"github.com/hrygo/freeslot/store"
	teststore "github.com/hrygo/freeslot/store/test"
)

// Monday 2026-10-19 08:00 UTC.
var testNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

type testServer struct {
	echo  *echo.Echo
	store *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	st := teststore.NewTestingStore(ctx, t)

	reg := prometheus.NewRegistry()
	svc := schedule.NewService(st, nil, schedule.Config{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
		Metrics:  observability.MustNewMetrics(reg),
	})

	api := NewAPIV1Service(&profile.Profile{Timezone: "UTC", Version: "test"}, svc)
	api.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	api.RegisterRoutes(e)
	return &testServer{echo: e, store: st}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

// slotsResponse reads the slot half of a FindSlotsResult; the parsed time
// request is rendered write-only.
type slotsResponse struct {
	Slots []availability.FreeBlock `json:"slots"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code serrors.ErrorCode) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, code, body.Code)
	assert.NotEmpty(t, body.Message)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthzResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "UTC", resp.Timezone)
}

func TestGoalRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/goals",
		`{"uid":"read","description":"Read a book","frequency":"3x per week","time_preferences":["evening"],"session_duration":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "read", decode[availability.Goal](t, rec).UID)

	rec = s.do(t, http.MethodGet, "/api/v1/goals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ListGoalsResponse](t, rec).Goals, 1)

	rec = s.do(t, http.MethodPost, "/api/v1/goals/read/plan?diagnostic=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decode[availability.ScheduleResult](t, rec)
	require.Len(t, plan.TimeOptions, 1)
	assert.Equal(t, availability.Evening, plan.TimeOptions[0].DayPart)
	assert.Equal(t, 12, plan.EventCount)
	require.NotNil(t, plan.Diagnostics)
	assert.False(t, plan.Diagnostics.Incomplete)

	rec = s.do(t, http.MethodPost, "/api/v1/goals/read/plan?diagnostic=maybe", "")
	assertError(t, rec, http.StatusBadRequest, serrors.ErrCodeInvalidArgument)

	rec = s.do(t, http.MethodPatch, "/api/v1/goals/read", `{"deadline":"someday"}`)
	assertError(t, rec, http.StatusBadRequest, serrors.ErrCodeInvalidArgument)

	rec = s.do(t, http.MethodPatch, "/api/v1/goals/read", `{"frequency":"daily"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "daily", decode[availability.Goal](t, rec).Frequency)

	rec = s.do(t, http.MethodDelete, "/api/v1/goals/read", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/goals/read", "")
	assertError(t, rec, http.StatusNotFound, serrors.ErrCodeNotFound)
}

func TestPlanRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/plans",
		`{"goal":{"description":"Run","frequency":"daily","deadline":"2026-10-25","time_preferences":["morning"]},"diagnostic":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decode[availability.ScheduleResult](t, rec)
	assert.Equal(t, 7, plan.EventCount)
	require.Len(t, plan.TimeOptions, 1)
	assert.Len(t, plan.TimeOptions[0].Events, 7)

	rec = s.do(t, http.MethodPost, "/api/v1/plans", `{"goal":`)
	assertError(t, rec, http.StatusBadRequest, serrors.ErrCodeInvalidArgument)
}

func TestSearchSlotsRoute(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	end := time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC).Unix()
	_, err := s.store.CreateSchedule(ctx, &store.Schedule{
		Title:   "Lunch with team",
		StartTs: time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC).Unix(),
		EndTs:   &end,
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/api/v1/slots:search", `{"text":"tomorrow afternoon","duration_minutes":30}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[slotsResponse](t, rec)
	require.Len(t, result.Slots, 3)
	assert.Equal(t, "2026-10-20", result.Slots[0].Date)
	assert.Equal(t, "14:00", result.Slots[0].StartTime)
	assert.Equal(t, "14:30", result.Slots[0].EndTime)

	rec = s.do(t, http.MethodPost, "/api/v1/slots", `{"duration_minutes":60,"target_date":"2026-10-20","window":{"day_part":"afternoon"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result = decode[slotsResponse](t, rec)
	require.NotEmpty(t, result.Slots)
	assert.Equal(t, "14:00", result.Slots[0].StartTime)

	rec = s.do(t, http.MethodPost, "/api/v1/slots", `{"duration_minutes":0}`)
	assertError(t, rec, http.StatusBadRequest, serrors.ErrCodeInvalidArgument)
}

func TestParseAndRecurrenceRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/time-requests:parse", `{"text":"tomorrow at 3pm"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	parsed := decode[map[string]any](t, rec)
	assert.Equal(t, "2026-10-20", parsed["date"])
	assert.Equal(t, true, parsed["is_exact"])

	rec = s.do(t, http.MethodPost, "/api/v1/time-requests:parse", `{"text":""}`)
	assertError(t, rec, http.StatusBadRequest, serrors.ErrCodeInvalidArgument)

	rec = s.do(t, http.MethodPost, "/api/v1/recurrences", `{"frequency":"weekly","start":"2026-10-19"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	desc := decode[map[string]any](t, rec)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", desc["rule"])

	rec = s.do(t, http.MethodPost, "/api/v1/recurrences", `{"frequency":"once"}`)
	assertError(t, rec, http.StatusBadRequest, serrors.ErrCodeInvalidArgument)
}

func TestApplyPlanAndBusyRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/busy?start=2026-10-21&end=2026-10-21", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[ListBusyResponse](t, rec).Busy)

	rec = s.do(t, http.MethodPost, "/api/v1/plans:apply",
		`{"title":"Deep work","events":[{"date":"2026-10-21","start_time":"09:00","end_time":"10:30"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode[schedule.ApplyResult](t, rec).ScheduleUIDs, 1)

	rec = s.do(t, http.MethodGet, "/api/v1/busy?start=2026-10-21&end=2026-10-21", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	busy := decode[ListBusyResponse](t, rec).Busy
	require.Len(t, busy, 1)
	assert.True(t, busy[0].Start.Equal(time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC)))
	assert.True(t, busy[0].End.Equal(time.Date(2026, 10, 21, 10, 30, 0, 0, time.UTC)))

	rec = s.do(t, http.MethodGet, "/api/v1/busy?start=2026-10-21", "")
	assertError(t, rec, http.StatusBadRequest, serrors.ErrCodeInvalidArgument)
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/time-requests:parse", `{"text":"today"}`)

	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "freeslot_requests_total")
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   serrors.ErrorCode
	}{
		{"coded", serrors.NotFound("goal", "x"), http.StatusNotFound, serrors.ErrCodeNotFound},
		{"rate limited", echo.NewHTTPError(http.StatusTooManyRequests, serrors.RateLimitExceeded("slow down")), http.StatusTooManyRequests, serrors.ErrCodeRateLimitExceeded},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, serrors.ErrCodeNotFound},
		{"calendar down", serrors.CalendarUnavailable(context.DeadlineExceeded), http.StatusBadGateway, serrors.ErrCodeCalendarUnavailable},
		{"plain", assert.AnError, http.StatusInternalServerError, serrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
