package timezone

import (
	"testing"
	"time"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{name: "UTC", tz: "UTC"},
		{name: "empty string defaults to UTC", tz: ""},
		{name: "Europe/Paris", tz: "Europe/Paris"},
		{name: "America/New_York", tz: "America/New_York"},
		{name: "invalid timezone", tz: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseTimezone(tt.tz)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTimezone() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if loc == nil {
				t.Errorf("ParseTimezone() returned nil location")
			}
		})
	}
}

func TestIsValidTimezone(t *testing.T) {
	tests := []struct {
		name string
		tz   string
		want bool
	}{
		{"UTC", "UTC", true},
		{"empty", "", true},
		{"Asia/Tokyo", "Asia/Tokyo", true},
		{"invalid", "Invalid/Timezone", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTimezone(tt.tz); got != tt.want {
				t.Errorf("IsValidTimezone() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartOfDay(t *testing.T) {
	// 2025-01-21 14:30:00 UTC is 22:30 in Shanghai.
	testTime := time.Date(2025, 1, 21, 14, 30, 0, 0, time.UTC)

	loc, _ := ParseTimezone("Asia/Shanghai")
	got := StartOfDay(testTime, loc)

	want := time.Date(2025, 1, 20, 16, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}

func TestEndOfDay(t *testing.T) {
	testTime := time.Date(2025, 1, 21, 14, 30, 0, 0, time.UTC)

	loc, _ := ParseTimezone("Asia/Shanghai")
	got := EndOfDay(testTime, loc)

	if got.Hour() != 23 || got.Day() != 21 {
		t.Errorf("EndOfDay() = %v, want 2025-01-21 23:59:59 local", got)
	}
	if got.Location() != loc {
		t.Errorf("EndOfDay() location = %v, want %v", got.Location(), loc)
	}
}

func TestDaysBetween(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{
			name: "same day",
			a:    time.Date(2026, 10, 17, 8, 0, 0, 0, ny),
			b:    time.Date(2026, 10, 17, 23, 0, 0, 0, ny),
			want: 0,
		},
		{
			name: "one week",
			a:    time.Date(2026, 10, 17, 23, 0, 0, 0, ny),
			b:    time.Date(2026, 10, 24, 1, 0, 0, 0, ny),
			want: 7,
		},
		{
			name: "across DST end",
			a:    time.Date(2026, 10, 31, 12, 0, 0, 0, ny),
			b:    time.Date(2026, 11, 2, 12, 0, 0, 0, ny),
			want: 2,
		},
		{
			name: "backwards",
			a:    time.Date(2026, 10, 17, 12, 0, 0, 0, ny),
			b:    time.Date(2026, 10, 15, 12, 0, 0, 0, ny),
			want: -2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b, ny); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAddDaysAndAtClock(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	base := time.Date(2026, 10, 31, 15, 45, 0, 0, ny)

	next := AddDays(base, 2, ny)
	if got := FormatDate(next, ny); got != "2026-11-02" {
		t.Errorf("AddDays() = %s, want 2026-11-02", got)
	}
	if next.Hour() != 0 || next.Minute() != 0 {
		t.Errorf("AddDays() should land on midnight, got %v", next)
	}

	at := AtClock(next, 9*60+30, ny)
	if got := FormatClock(at, ny); got != "09:30" {
		t.Errorf("AtClock() = %s, want 09:30", got)
	}
}

func TestParseDateAndClock(t *testing.T) {
	loc := mustLoad(t, "Europe/Paris")

	d, err := ParseDate("2026-10-19", loc)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.Location() != loc || d.Day() != 19 {
		t.Errorf("ParseDate() = %v", d)
	}
	if _, err := ParseDate("19/10/2026", loc); err == nil {
		t.Errorf("ParseDate() expected error for non-ISO date")
	}

	m, err := ParseClock("14:30")
	if err != nil || m != 870 {
		t.Errorf("ParseClock() = %d, %v, want 870", m, err)
	}
	if _, err := ParseClock("2pm"); err == nil {
		t.Errorf("ParseClock() expected error for 2pm")
	}
	if got := FormatMinuteOfDay(1320); got != "22:00" {
		t.Errorf("FormatMinuteOfDay() = %s, want 22:00", got)
	}
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := ParseTimezone(name)
	if err != nil {
		t.Fatal(err)
	}
	return loc
}
