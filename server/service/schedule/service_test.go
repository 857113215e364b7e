package schedule

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/freeslot/plugin/ai/aitime"
	serrors "github.com/hrygo/freeslot/server/internal/errors"
	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/store"
)

// MockStoreForSchedule is an in-memory Store.
type MockStoreForSchedule struct {
	mu        sync.Mutex
	busy      []availability.BusyInterval
	busyErr   error
	busyCalls int
	schedules []*store.Schedule
	goals     []*store.Goal
	nextID    int32
}

func (m *MockStoreForSchedule) ListBusyIntervals(_ context.Context, start, end time.Time, _ *time.Location) ([]availability.BusyInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busyCalls++
	if m.busyErr != nil {
		return nil, m.busyErr
	}
	var result []availability.BusyInterval
	for _, b := range m.busy {
		if b.Overlaps(start, end) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *MockStoreForSchedule) CreateSchedule(_ context.Context, create *store.Schedule) (*store.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	create.ID = m.nextID
	if create.UID == "" {
		create.UID = fmt.Sprintf("schedule-%d", create.ID)
	}
	m.schedules = append(m.schedules, create)
	return create, nil
}

func (m *MockStoreForSchedule) CreateGoal(_ context.Context, create *store.Goal) (*store.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	create.ID = m.nextID
	if create.UID == "" {
		create.UID = fmt.Sprintf("goal-%d", create.ID)
	}
	if create.RowStatus == "" {
		create.RowStatus = store.Normal
	}
	m.goals = append(m.goals, create)
	return create, nil
}

func (m *MockStoreForSchedule) ListGoals(_ context.Context, find *store.FindGoal) ([]*store.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*store.Goal, 0)
	for _, g := range m.goals {
		if find.ID != nil && g.ID != *find.ID {
			continue
		}
		if find.UID != nil && g.UID != *find.UID {
			continue
		}
		if find.RowStatus != nil && g.RowStatus != *find.RowStatus {
			continue
		}
		result = append(result, g)
	}
	return result, nil
}

func (m *MockStoreForSchedule) GetGoal(ctx context.Context, find *store.FindGoal) (*store.Goal, error) {
	list, err := m.ListGoals(ctx, find)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (m *MockStoreForSchedule) UpdateGoal(_ context.Context, update *store.UpdateGoal) (*store.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.goals {
		if g.ID != update.ID {
			continue
		}
		if update.Description != nil {
			g.Description = *update.Description
		}
		if update.Deadline != nil {
			g.Deadline = *update.Deadline
		}
		if update.Frequency != nil {
			g.Frequency = *update.Frequency
		}
		if update.TimePreferences != nil {
			g.TimePreferences = *update.TimePreferences
		}
		return g, nil
	}
	return nil, errors.Errorf("goal %d not found", update.ID)
}

func (m *MockStoreForSchedule) DeleteGoal(_ context.Context, delete *store.DeleteGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, g := range m.goals {
		if g.ID == delete.ID {
			m.goals = append(m.goals[:i], m.goals[i+1:]...)
			return nil
		}
	}
	return errors.Errorf("goal %d not found", delete.ID)
}

type fakeSource struct {
	name  string
	busy  []availability.BusyInterval
	err   error
	block bool
}

func (f *fakeSource) Name() string { return f.name }

// gatedSource blocks every fetch until release is closed and reports the
// first one on started.
type gatedSource struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedSource) Name() string { return "gated" }

func (g *gatedSource) BusyIntervals(ctx context.Context, _, _ time.Time) ([]availability.BusyInterval, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeSource) BusyIntervals(ctx context.Context, _, _ time.Time) ([]availability.BusyInterval, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.busy, f.err
}

// Monday 2026-10-19 08:00 UTC.
var testNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
}

func wholeDay(day int) availability.BusyInterval {
	return availability.BusyInterval{Start: at(day, 0, 0), End: at(day+1, 0, 0)}
}

func newTestService(st *MockStoreForSchedule, sources ...BusySource) Service {
	now := testNow
	return NewService(st, sources, Config{
		Location:    time.UTC,
		Now:         func() time.Time { return now },
		TimeService: &aitime.MockTimeService{FixedNow: &now},
	})
}

func hours(h float64) *float64 { return &h }

func TestPlan_MergesStoreAndFeedBusy(t *testing.T) {
	ctx := context.Background()
	st := &MockStoreForSchedule{busy: []availability.BusyInterval{wholeDay(20)}}
	feed := &fakeSource{name: "work", busy: []availability.BusyInterval{wholeDay(21)}}
	svc := newTestService(st, feed)

	result, err := svc.Plan(ctx, availability.Goal{
		Description:     "Morning run",
		Frequency:       "daily",
		Deadline:        "2026-10-25",
		TimePreferences: []availability.TimePreference{availability.PreferMorning},
		SessionDuration: hours(1),
	}, true)
	require.NoError(t, err)
	require.Len(t, result.TimeOptions, 1)

	busy := []availability.BusyInterval{wholeDay(20), wholeDay(21)}
	for _, ev := range result.TimeOptions[0].Events {
		for _, b := range busy {
			assert.False(t, b.Overlaps(ev.Start, ev.End), "event %s %s overlaps busy time", ev.Date, ev.StartTime)
		}
		assert.LessOrEqual(t, ev.Date, "2026-10-25")
	}

	require.NotNil(t, result.Diagnostics)
	assert.True(t, result.Incomplete())
	assert.Equal(t, 7, result.Diagnostics.SessionsNeeded)
	assert.Equal(t, 5, result.Diagnostics.SessionsFound)
	assert.Equal(t, 2, result.Diagnostics.MissingSessions)
	assert.NotEmpty(t, result.Diagnostics.Alternatives)
	for _, alt := range result.Diagnostics.Alternatives {
		for _, b := range busy {
			assert.False(t, b.Overlaps(alt.Start, alt.End))
		}
	}
}

func TestPlan_BusyCache(t *testing.T) {
	ctx := context.Background()
	st := &MockStoreForSchedule{}
	svc := newTestService(st)
	goal := availability.Goal{Description: "Read", Frequency: "weekly"}

	_, err := svc.Plan(ctx, goal, false)
	require.NoError(t, err)
	_, err = svc.Plan(ctx, goal, false)
	require.NoError(t, err)
	assert.Equal(t, 1, st.busyCalls)

	svc.InvalidateBusyCache()
	_, err = svc.Plan(ctx, goal, false)
	require.NoError(t, err)
	assert.Equal(t, 2, st.busyCalls)
}

func TestPlan_InvalidateDuringFetch(t *testing.T) {
	ctx := context.Background()
	st := &MockStoreForSchedule{}
	gate := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	svc := newTestService(st, gate)
	goal := availability.Goal{Description: "Read", Frequency: "weekly"}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Plan(ctx, goal, false)
		done <- err
	}()
	<-gate.started
	svc.InvalidateBusyCache()
	close(gate.release)
	require.NoError(t, <-done)

	// The first result predates the invalidation, so it was not cached.
	_, err := svc.Plan(ctx, goal, false)
	require.NoError(t, err)
	_, err = svc.Plan(ctx, goal, false)
	require.NoError(t, err)
	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Equal(t, 2, st.busyCalls)
}

func TestPlan_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		store   *MockStoreForSchedule
		sources []BusySource
		timeout time.Duration
		goal    availability.Goal
		code    serrors.ErrorCode
	}{
		{
			name:  "malformed deadline",
			store: &MockStoreForSchedule{},
			goal:  availability.Goal{Description: "Read", Deadline: "next month"},
			code:  serrors.ErrCodeInvalidArgument,
		},
		{
			name:  "unknown preference",
			store: &MockStoreForSchedule{},
			goal:  availability.Goal{Description: "Read", TimePreferences: []availability.TimePreference{"night"}},
			code:  serrors.ErrCodeInvalidArgument,
		},
		{
			name:  "store unavailable",
			store: &MockStoreForSchedule{busyErr: errors.New("database is locked")},
			goal:  availability.Goal{Description: "Read"},
			code:  serrors.ErrCodeCalendarUnavailable,
		},
		{
			name:    "feed unavailable",
			store:   &MockStoreForSchedule{},
			sources: []BusySource{&fakeSource{name: "work", err: errors.New("502 bad gateway")}},
			goal:    availability.Goal{Description: "Read"},
			code:    serrors.ErrCodeCalendarUnavailable,
		},
		{
			name:    "slow feed",
			store:   &MockStoreForSchedule{},
			sources: []BusySource{&fakeSource{name: "slow", block: true}},
			timeout: 20 * time.Millisecond,
			goal:    availability.Goal{Description: "Read"},
			code:    serrors.ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.store, tt.sources, Config{
				Location:       time.UTC,
				Now:            func() time.Time { return testNow },
				RequestTimeout: tt.timeout,
			})
			_, err := svc.Plan(ctx, tt.goal, false)
			require.Error(t, err)
			assert.True(t, serrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestPlan_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(&MockStoreForSchedule{}, &fakeSource{name: "slow", block: true})

	_, err := svc.Plan(ctx, availability.Goal{Description: "Read"}, false)
	require.Error(t, err)
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeContextCanceled), "got %v", err)
}

func TestPlanGoal(t *testing.T) {
	ctx := context.Background()
	st := &MockStoreForSchedule{}
	svc := newTestService(st)

	_, err := svc.PlanGoal(ctx, "missing", false)
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeNotFound))

	goal, err := svc.CreateGoal(ctx, availability.Goal{
		UID:             "read-book",
		Description:     "Read a book",
		Frequency:       "3x per week",
		TimePreferences: []availability.TimePreference{availability.PreferEvening},
		SessionDuration: hours(1),
	})
	require.NoError(t, err)

	result, err := svc.PlanGoal(ctx, goal.UID, false)
	require.NoError(t, err)
	require.Len(t, result.TimeOptions, 1)
	assert.Equal(t, availability.Evening, result.TimeOptions[0].DayPart)
	assert.Equal(t, 12, result.EventCount)
	assert.Equal(t, 60, result.SessionMinutes)
}

func TestFindSlotsFromText(t *testing.T) {
	ctx := context.Background()
	st := &MockStoreForSchedule{busy: []availability.BusyInterval{{Start: at(20, 12, 0), End: at(20, 14, 0)}}}
	svc := newTestService(st)

	result, err := svc.FindSlotsFromText(ctx, "tomorrow afternoon", 30)
	require.NoError(t, err)
	require.NotNil(t, result.TimeRequest)
	assert.Equal(t, "2026-10-20", result.TimeRequest.DateString())
	assert.False(t, result.TimeRequest.IsExact)

	var starts []string
	for _, slot := range result.Slots {
		assert.Equal(t, "2026-10-20", slot.Date)
		starts = append(starts, slot.StartTime)
	}
	assert.Equal(t, []string{"14:00", "14:30", "15:00"}, starts)
}

func TestFindSlotsFromText_ExactWindowWidens(t *testing.T) {
	svc := newTestService(&MockStoreForSchedule{})

	result, err := svc.FindSlotsFromText(context.Background(), "tomorrow at 3pm", 90)
	require.NoError(t, err)
	assert.True(t, result.TimeRequest.IsExact)
	require.Len(t, result.Slots, 1)
	assert.Equal(t, "15:00", result.Slots[0].StartTime)
	assert.Equal(t, "16:30", result.Slots[0].EndTime)
}

func TestFindSlots_Validation(t *testing.T) {
	svc := newTestService(&MockStoreForSchedule{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  *FindSlotsRequest
	}{
		{name: "nil request", req: nil},
		{name: "zero duration", req: &FindSlotsRequest{}},
		{name: "longer than a day", req: &FindSlotsRequest{DurationMinutes: 1500}},
		{name: "bad deadline", req: &FindSlotsRequest{DurationMinutes: 30, Deadline: "friday"}},
		{name: "bad target date", req: &FindSlotsRequest{DurationMinutes: 30, TargetDate: "2026/10/20"}},
		{name: "empty window", req: &FindSlotsRequest{DurationMinutes: 30, Window: &availability.Window{StartMinute: 600, EndMinute: 600}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.FindSlots(ctx, tt.req)
			assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument), "got %v", err)
		})
	}
}

func TestFindSlots_Deadline(t *testing.T) {
	st := &MockStoreForSchedule{busy: []availability.BusyInterval{
		{Start: at(19, 0, 0), End: at(20, 21, 0)},
	}}
	svc := newTestService(st)

	result, err := svc.FindSlots(context.Background(), &FindSlotsRequest{
		DurationMinutes: 60,
		Deadline:        "2026-10-20",
	})
	require.NoError(t, err)
	require.Len(t, result.Slots, 1)
	assert.Equal(t, "2026-10-20", result.Slots[0].Date)
	assert.Equal(t, "21:00", result.Slots[0].StartTime)
}

func TestFindSlots_BeyondBusyRange(t *testing.T) {
	far := testNow.AddDate(0, 0, 400)
	farDay := availability.BusyInterval{Start: far.Truncate(24 * time.Hour), End: far.Truncate(24 * time.Hour).AddDate(0, 0, 1)}
	st := &MockStoreForSchedule{busy: []availability.BusyInterval{farDay}}
	svc := newTestService(st)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *FindSlotsRequest
	}{
		{name: "target date", req: &FindSlotsRequest{DurationMinutes: 30, TargetDate: far.Format(time.DateOnly)}},
		{name: "deadline", req: &FindSlotsRequest{DurationMinutes: 30, Deadline: far.Format(time.DateOnly)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.FindSlots(ctx, tt.req)
			assert.Nil(t, result, "a fully busy day must never come back free")
			assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument), "got %v", err)
		})
	}

	_, err := svc.Plan(ctx, availability.Goal{Description: "Read", Deadline: far.Format(time.DateOnly)}, true)
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument), "got %v", err)

	// The last day of the range is still searched against its busy data.
	edge := testNow.AddDate(0, 0, MaxPlanDays-1).Truncate(24 * time.Hour)
	st.busy = append(st.busy, availability.BusyInterval{Start: edge, End: edge.AddDate(0, 0, 1)})
	result, err := svc.FindSlots(ctx, &FindSlotsRequest{DurationMinutes: 30, TargetDate: edge.Format(time.DateOnly)})
	require.NoError(t, err)
	assert.Empty(t, result.Slots)
}

func TestParseTimeRequest(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&MockStoreForSchedule{})

	parsed, err := svc.ParseTimeRequest(ctx, "next tuesday 3pm")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20", parsed.DateString())
	assert.True(t, parsed.IsExact)

	_, err = svc.ParseTimeRequest(ctx, "   ")
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument))

	failing := NewService(&MockStoreForSchedule{}, nil, Config{
		Now:         func() time.Time { return testNow },
		TimeService: &aitime.MockTimeService{Err: errors.New("parser offline")},
	})
	_, err = failing.ParseTimeRequest(ctx, "tomorrow")
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument))
}

func TestBuildRecurrence(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&MockStoreForSchedule{})

	desc, err := svc.BuildRecurrence(ctx, "3x per week", "2026-10-19", "")
	require.NoError(t, err)
	assert.Contains(t, desc.Rule, "FREQ=WEEKLY")
	assert.Contains(t, desc.Rule, "BYDAY=MO,WE,FR")
	assert.Equal(t, 12, desc.Count)

	desc, err = svc.BuildRecurrence(ctx, "daily", "", "2026-12-31")
	require.NoError(t, err)
	require.NotNil(t, desc.Until)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC), *desc.Until)

	_, err = svc.BuildRecurrence(ctx, "once", "2026-10-19", "")
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument))

	_, err = svc.BuildRecurrence(ctx, "daily", "19.10.2026", "")
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument))
}

func TestApplyPlan_Sessions(t *testing.T) {
	ctx := context.Background()
	st := &MockStoreForSchedule{}
	svc := newTestService(st)

	_, err := svc.CreateGoal(ctx, availability.Goal{UID: "run", Description: "Morning run"})
	require.NoError(t, err)
	_, err = svc.BusyIntervals(ctx, at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)
	require.Equal(t, 1, st.busyCalls)

	result, err := svc.ApplyPlan(ctx, &ApplyRequest{
		GoalUID: "run",
		Events: []availability.SessionEvent{
			{Date: "2026-10-21", StartTime: "07:00", EndTime: "08:00"},
			{Date: "2026-10-20", StartTime: "23:00", EndTime: "00:00"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.ScheduleUIDs, 2)
	assert.Nil(t, result.Recurrence)

	require.Len(t, st.schedules, 2)
	first, second := st.schedules[0], st.schedules[1]
	assert.Equal(t, "Morning run", first.Title)
	assert.Equal(t, "run", first.GoalUID)
	assert.Equal(t, at(20, 23, 0).Unix(), first.StartTs)
	assert.Equal(t, at(21, 0, 0).Unix(), *first.EndTs)
	assert.Equal(t, at(21, 7, 0).Unix(), second.StartTs)

	// The write invalidates cached busy time.
	_, err = svc.BusyIntervals(ctx, at(19, 0, 0), at(26, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, st.busyCalls)
}

func TestApplyPlan_Recurring(t *testing.T) {
	st := &MockStoreForSchedule{}
	svc := newTestService(st)

	result, err := svc.ApplyPlan(context.Background(), &ApplyRequest{
		Title:     "Guitar",
		Recurring: true,
		Frequency: "daily",
		Deadline:  "2026-10-25",
		Events: []availability.SessionEvent{
			{Date: "2026-10-19", StartTime: "18:00", EndTime: "19:00"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Recurrence)
	assert.Equal(t, 7, result.Recurrence.Count)

	require.Len(t, st.schedules, 1)
	row := st.schedules[0]
	require.NotNil(t, row.RecurrenceRule)
	assert.Equal(t, result.Recurrence.Rule, *row.RecurrenceRule)
	require.NotNil(t, row.RecurrenceEndTs)
	assert.Equal(t, at(25, 19, 0).Unix(), *row.RecurrenceEndTs)
}

func TestApplyPlan_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&MockStoreForSchedule{})

	tests := []struct {
		name string
		req  *ApplyRequest
		code serrors.ErrorCode
	}{
		{name: "no events", req: &ApplyRequest{}, code: serrors.ErrCodeInvalidArgument},
		{
			name: "unknown goal",
			req:  &ApplyRequest{GoalUID: "nope", Events: []availability.SessionEvent{{Date: "2026-10-20", StartTime: "09:00", EndTime: "10:00"}}},
			code: serrors.ErrCodeNotFound,
		},
		{
			name: "end before start",
			req:  &ApplyRequest{Events: []availability.SessionEvent{{Date: "2026-10-20", StartTime: "10:00", EndTime: "09:00"}}},
			code: serrors.ErrCodeInvalidArgument,
		},
		{
			name: "one-shot frequency",
			req: &ApplyRequest{
				Recurring: true,
				Events:    []availability.SessionEvent{{Date: "2026-10-20", StartTime: "09:00", EndTime: "10:00"}},
			},
			code: serrors.ErrCodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyPlan(ctx, tt.req)
			assert.True(t, serrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestGoalLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&MockStoreForSchedule{})

	_, err := svc.CreateGoal(ctx, availability.Goal{Description: " "})
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument))

	created, err := svc.CreateGoal(ctx, availability.Goal{UID: "piano", Description: "Practice piano", Frequency: "daily"})
	require.NoError(t, err)
	assert.Equal(t, "piano", created.UID)

	_, err = svc.CreateGoal(ctx, availability.Goal{UID: "piano", Description: "Again"})
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument))

	goals, err := svc.ListGoals(ctx)
	require.NoError(t, err)
	assert.Len(t, goals, 1)

	badDeadline := "soon"
	_, err = svc.UpdateGoal(ctx, "piano", &GoalPatch{Deadline: &badDeadline})
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument))

	frequency := "2x per week"
	updated, err := svc.UpdateGoal(ctx, "piano", &GoalPatch{Frequency: &frequency})
	require.NoError(t, err)
	assert.Equal(t, "2x per week", updated.Frequency)

	got, err := svc.GetGoal(ctx, "piano")
	require.NoError(t, err)
	assert.Equal(t, "Practice piano", got.Description)

	require.NoError(t, svc.DeleteGoal(ctx, "piano"))
	_, err = svc.GetGoal(ctx, "piano")
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeNotFound))
	assert.True(t, serrors.IsCode(svc.DeleteGoal(ctx, "piano"), serrors.ErrCodeNotFound))
}

func TestBusyIntervals_Validation(t *testing.T) {
	svc := newTestService(&MockStoreForSchedule{})
	ctx := context.Background()

	_, err := svc.BusyIntervals(ctx, at(20, 0, 0), at(19, 0, 0))
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument))

	_, err = svc.BusyIntervals(ctx, at(1, 0, 0), at(1, 0, 0).AddDate(2, 0, 0))
	assert.True(t, serrors.IsCode(err, serrors.ErrCodeInvalidArgument))
}
