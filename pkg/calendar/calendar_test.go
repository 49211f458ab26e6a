package calendar

import (
	"testing"
	"time"
)

func TestFirstOfNextMonth(t *testing.T) {
	cases := []struct {
		in, want time.Time
	}{
		{Date(2024, time.January, 15), Date(2024, time.February, 1)},
		{Date(2024, time.January, 31), Date(2024, time.February, 1)},
		{Date(2024, time.December, 1), Date(2025, time.January, 1)},
		{Date(2024, time.February, 29), Date(2024, time.March, 1)},
	}
	for _, c := range cases {
		if got := FirstOfNextMonth(c.in); !got.Equal(c.want) {
			t.Errorf("FirstOfNextMonth(%s) = %s, want %s", Format(c.in), Format(got), Format(c.want))
		}
	}
}

func TestAddMonths(t *testing.T) {
	start := Date(2024, time.November, 1)
	if got := AddMonths(start, 3); !got.Equal(Date(2025, time.February, 1)) {
		t.Fatalf("got %s", Format(got))
	}
	if got := AddMonths(start, 0); !got.Equal(start) {
		t.Fatalf("got %s", Format(got))
	}
}

func TestEndOfMonthAfter(t *testing.T) {
	cases := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{Date(2024, time.January, 15), 2, Date(2024, time.March, 31)},
		{Date(2023, time.December, 31), 2, Date(2024, time.February, 29)},
		{Date(2023, time.November, 10), 2, Date(2024, time.January, 31)},
		{Date(2024, time.April, 30), 0, Date(2024, time.April, 30)},
	}
	for _, c := range cases {
		if got := EndOfMonthAfter(c.in, c.n); !got.Equal(c.want) {
			t.Errorf("EndOfMonthAfter(%s, %d) = %s, want %s", Format(c.in), c.n, Format(got), Format(c.want))
		}
	}
}

func TestDaysBetween(t *testing.T) {
	due := Date(2024, time.March, 1)
	if got := DaysBetween(due, Date(2024, time.March, 6)); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if got := DaysBetween(due, Date(2024, time.February, 20)); got != -10 {
		t.Errorf("expected -10, got %d", got)
	}
	if got := DaysBetween(due, due); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	late := time.Date(2024, time.March, 2, 23, 59, 0, 0, time.UTC)
	if got := DaysBetween(due, late); got != 1 {
		t.Errorf("time of day must be ignored, got %d", got)
	}
}

func TestParseFormat(t *testing.T) {
	d, err := Parse("2025-07-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !d.Equal(Date(2025, time.July, 1)) {
		t.Fatalf("got %v", d)
	}
	if Format(d) != "2025-07-01" {
		t.Fatalf("format: %s", Format(d))
	}
	if _, err := Parse("2025-13-01"); err == nil {
		t.Fatalf("expected error for invalid month")
	}
}
