package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/store"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
}

func unix(t time.Time) *int64 {
	ts := t.Unix()
	return &ts
}

func spans(busy []availability.BusyInterval) []string {
	out := make([]string, 0, len(busy))
	for _, b := range busy {
		out = append(out, b.Start.UTC().Format("01-02 15:04")+" "+b.End.UTC().Format("01-02 15:04"))
	}
	return out
}

func TestScheduleStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	schedule, err := ts.CreateSchedule(ctx, &store.Schedule{
		Title:   "Standup",
		StartTs: at(19, 9, 0).Unix(),
		EndTs:   unix(at(19, 9, 30)),
	})
	require.NoError(t, err)
	require.NotEmpty(t, schedule.UID)
	require.Equal(t, store.Normal, schedule.RowStatus)
	require.Greater(t, schedule.ID, int32(0))

	title := "Daily standup"
	rule := "FREQ=DAILY;COUNT=5"
	require.NoError(t, ts.UpdateSchedule(ctx, &store.UpdateSchedule{
		ID:             schedule.ID,
		Title:          &title,
		RecurrenceRule: &rule,
	}))

	got, err := ts.GetSchedule(ctx, &store.FindSchedule{UID: &schedule.UID})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, title, got.Title)
	require.True(t, got.IsRecurring())
	require.Equal(t, rule, *got.RecurrenceRule)

	require.NoError(t, ts.DeleteSchedule(ctx, &store.DeleteSchedule{ID: schedule.ID}))
	got, err = ts.GetSchedule(ctx, &store.FindSchedule{UID: &schedule.UID})
	require.NoError(t, err)
	require.Nil(t, got)

	require.Error(t, ts.DeleteSchedule(ctx, &store.DeleteSchedule{ID: schedule.ID}))
}

func TestScheduleStore_RejectsInvalidRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.CreateSchedule(ctx, &store.Schedule{
		Title:   "Backwards",
		StartTs: at(19, 10, 0).Unix(),
		EndTs:   unix(at(19, 9, 0)),
	})
	require.Error(t, err)

	bad := "FREQ=SOMETIMES"
	_, err = ts.CreateSchedule(ctx, &store.Schedule{
		Title:          "Bad rule",
		StartTs:        at(19, 9, 0).Unix(),
		EndTs:          unix(at(19, 10, 0)),
		RecurrenceRule: &bad,
	})
	require.Error(t, err)
}

func TestScheduleStore_ListByGoal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	for i, goalUID := range []string{"goal-a", "goal-a", "goal-b"} {
		_, err := ts.CreateSchedule(ctx, &store.Schedule{
			Title:   "Session",
			StartTs: at(20+i, 18, 0).Unix(),
			EndTs:   unix(at(20+i, 19, 0)),
			GoalUID: goalUID,
		})
		require.NoError(t, err)
	}

	goalUID := "goal-a"
	list, err := ts.ListSchedules(ctx, &store.FindSchedule{GoalUID: &goalUID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[0].StartTs < list[1].StartTs)

	limit := 1
	list, err = ts.ListSchedules(ctx, &store.FindSchedule{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestListBusyIntervals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	weekly := "FREQ=WEEKLY"
	daily := "FREQ=DAILY"
	rows := []*store.Schedule{
		{Title: "One-off", StartTs: at(19, 9, 0).Unix(), EndTs: unix(at(19, 10, 0))},
		{Title: "Weekly review", StartTs: at(6, 14, 0).Unix(), EndTs: unix(at(6, 15, 0)), RecurrenceRule: &weekly},
		{Title: "Offsite", StartTs: at(21, 0, 0).Unix(), AllDay: true},
		{Title: "Cancelled", StartTs: at(22, 9, 0).Unix(), EndTs: unix(at(22, 10, 0)), RowStatus: store.Archived},
		{Title: "Later", StartTs: time.Date(2026, 11, 5, 9, 0, 0, 0, time.UTC).Unix(), EndTs: unix(time.Date(2026, 11, 5, 10, 0, 0, 0, time.UTC))},
		{Title: "Reminder", StartTs: at(23, 12, 0).Unix()},
		{Title: "Short run", StartTs: at(19, 7, 0).Unix(), EndTs: unix(at(19, 7, 30)), RecurrenceRule: &daily, RecurrenceEndTs: unix(at(21, 0, 0))},
	}
	for _, row := range rows {
		_, err := ts.CreateSchedule(ctx, row)
		require.NoError(t, err)
	}

	busy, err := ts.ListBusyIntervals(ctx, at(19, 0, 0), at(26, 0, 0), time.UTC)
	require.NoError(t, err)

	require.Equal(t, []string{
		"10-19 07:00 10-19 07:30",
		"10-19 09:00 10-19 10:00",
		"10-20 07:00 10-20 07:30",
		"10-20 14:00 10-20 15:00",
		"10-21 00:00 10-22 00:00",
	}, spans(busy))
}

func TestListBusyIntervals_AllDayUsesRowTimezone(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	_, err = ts.CreateSchedule(ctx, &store.Schedule{
		Title:    "Holiday",
		StartTs:  time.Date(2026, 10, 21, 0, 0, 0, 0, tokyo).Unix(),
		AllDay:   true,
		Timezone: "Asia/Tokyo",
	})
	require.NoError(t, err)

	busy, err := ts.ListBusyIntervals(ctx, at(19, 0, 0), at(26, 0, 0), time.UTC)
	require.NoError(t, err)
	require.Equal(t, []string{"10-20 15:00 10-21 15:00"}, spans(busy))
}
