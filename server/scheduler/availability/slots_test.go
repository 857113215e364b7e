package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSlots(t *testing.T) {
	tomorrow := day(1)
	afternoon := Afternoon.Window()
	yesterday := day(-1)

	tests := []struct {
		name string
		now  time.Time
		req  SlotRequest
		busy []BusyInterval
		want []string
	}{
		{
			name: "tomorrow afternoon",
			now:  clock(0, 10, 0),
			req:  SlotRequest{DurationMinutes: 30, Window: &afternoon, TargetDate: &tomorrow},
			want: []string{"12:00", "12:30", "13:00"},
		},
		{
			name: "skips a meeting",
			now:  clock(0, 10, 0),
			req:  SlotRequest{DurationMinutes: 30, Window: &afternoon, TargetDate: &tomorrow},
			busy: []BusyInterval{{Start: clock(1, 12, 0), End: clock(1, 13, 0)}},
			want: []string{"13:00", "13:30", "14:00"},
		},
		{
			name: "no window searches every day part from now",
			now:  clock(0, 20, 0),
			req:  SlotRequest{DurationMinutes: 30},
			want: []string{"20:30", "21:00", "21:30"},
		},
		{
			name: "deadline already passed",
			now:  clock(0, 10, 0),
			req:  SlotRequest{DurationMinutes: 30, Deadline: &yesterday},
			want: []string{},
		},
		{
			name: "longer than any day part",
			now:  clock(0, 10, 0),
			req:  SlotRequest{DurationMinutes: 7 * 60},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindSlots(tt.req, tt.busy, Options{Now: tt.now})
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, startTimes(got))
		})
	}
}

func TestFindSlots_RollsOverToNextDay(t *testing.T) {
	got := FindSlots(SlotRequest{DurationMinutes: 60}, nil, Options{Now: clock(0, 21, 0)})

	require.Len(t, got, 3)
	assert.Equal(t, "2026-10-20", got[0].Date)
	assert.Equal(t, "06:00", got[0].StartTime)
}

func TestFindAlternatives(t *testing.T) {
	opts := Options{Now: clock(0, 5, 0)}
	deadline := day(0)

	got := FindAlternatives(AlternativeRequest{
		DurationMinutes: 60,
		Deadline:        &deadline,
		Exclude:         []BusyInterval{{Start: clock(0, 6, 0), End: clock(0, 7, 0)}},
		Limit:           4,
	}, nil, opts)

	assert.Equal(t, []string{"07:00", "08:00", "09:00", "10:00"}, startTimes(got))

	none := FindAlternatives(AlternativeRequest{DurationMinutes: 60, Limit: 0}, nil, opts)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
