package recurrence

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestNext_Daily(t *testing.T) {
	for k := 1; k <= 10; k++ {
		got := Next(date(2024, 12, 30), Rule{Frequency: FreqDaily, Interval: k})
		want := date(2024, 12, 30).AddDays(k)
		if got != want {
			t.Fatalf("interval %d: expected %v, got %v", k, want, got)
		}
	}
}

func TestNext_IntervalBelowOneTreatedAsOne(t *testing.T) {
	got := Next(date(2024, 3, 1), Rule{Frequency: FreqDaily, Interval: 0})
	if got != date(2024, 3, 2) {
		t.Fatalf("expected 2024-03-02, got %v", got)
	}
}

func TestNext_WeeklySimple(t *testing.T) {
	got := Next(date(2024, 1, 1), Rule{Frequency: FreqWeekly, Interval: 2})
	if got != date(2024, 1, 15) {
		t.Fatalf("expected 2024-01-15, got %v", got)
	}
}

func TestNext_WeeklyWithDays(t *testing.T) {
	rule := Rule{Frequency: FreqWeekly, Interval: 1, DaysOfWeek: []int{3, 1}}

	cases := []struct {
		anchor civil.Date
		want   civil.Date
	}{
		// Monday -> Wednesday of the same week.
		{date(2024, 1, 1), date(2024, 1, 3)},
		// Wednesday -> Monday of next week.
		{date(2024, 1, 3), date(2024, 1, 8)},
		// Sunday (start of week) -> Monday.
		{date(2024, 1, 7), date(2024, 1, 8)},
		// Saturday -> Monday.
		{date(2024, 1, 6), date(2024, 1, 8)},
	}
	for _, tc := range cases {
		if got := Next(tc.anchor, rule); got != tc.want {
			t.Fatalf("anchor %v: expected %v, got %v", tc.anchor, tc.want, got)
		}
	}
}

func TestNext_WeeklyWithDaysInterval(t *testing.T) {
	rule := Rule{Frequency: FreqWeekly, Interval: 3, DaysOfWeek: []int{1, 3}}
	// Wednesday Jan 3 -> Monday three weeks later.
	if got := Next(date(2024, 1, 3), rule); got != date(2024, 1, 22) {
		t.Fatalf("expected 2024-01-22, got %v", got)
	}
}

func TestNext_MonthlySimpleClamps(t *testing.T) {
	rule := Rule{Frequency: FreqMonthly, Interval: 1}

	if got := Next(date(2024, 1, 31), rule); got != date(2024, 2, 29) {
		t.Fatalf("leap year: expected 2024-02-29, got %v", got)
	}
	if got := Next(date(2023, 1, 31), rule); got != date(2023, 2, 28) {
		t.Fatalf("non-leap year: expected 2023-02-28, got %v", got)
	}
	if got := Next(date(2024, 11, 15), Rule{Frequency: FreqMonthly, Interval: 3}); got != date(2025, 2, 15) {
		t.Fatalf("year rollover: expected 2025-02-15, got %v", got)
	}
}

func TestNextWithDay_MonthlyKeepsPreferredDay(t *testing.T) {
	rule := Rule{Frequency: FreqMonthly, Interval: 1}
	if got := NextWithDay(date(2024, 2, 29), rule, 31); got != date(2024, 3, 31) {
		t.Fatalf("expected 2024-03-31, got %v", got)
	}
	// Plain Next drifts to the anchor's day.
	if got := Next(date(2024, 2, 29), rule); got != date(2024, 3, 29) {
		t.Fatalf("expected 2024-03-29, got %v", got)
	}
}

func TestNext_MonthlyWithDays(t *testing.T) {
	rule := Rule{Frequency: FreqMonthly, Interval: 1, DaysOfMonth: []int{15, 1}}

	if got := Next(date(2024, 1, 10), rule); got != date(2024, 1, 15) {
		t.Fatalf("expected 2024-01-15, got %v", got)
	}
	if got := Next(date(2024, 1, 15), rule); got != date(2024, 2, 1) {
		t.Fatalf("expected 2024-02-01, got %v", got)
	}
}

func TestNext_MonthlyDay31Clamps(t *testing.T) {
	rule := Rule{Frequency: FreqMonthly, Interval: 1, DaysOfMonth: []int{31}}

	if got := Next(date(2024, 1, 31), rule); got != date(2024, 2, 29) {
		t.Fatalf("expected 2024-02-29, got %v", got)
	}
	// The clamped day is not strictly after Feb 29, so move on.
	if got := Next(date(2024, 2, 29), rule); got != date(2024, 3, 31) {
		t.Fatalf("expected 2024-03-31, got %v", got)
	}
	if got := Next(date(2023, 1, 31), rule); got != date(2023, 2, 28) {
		t.Fatalf("expected 2023-02-28, got %v", got)
	}
}

func TestNext_YearlySimpleLeapDay(t *testing.T) {
	rule := Rule{Frequency: FreqYearly, Interval: 1}
	if got := Next(date(2024, 2, 29), rule); got != date(2025, 2, 28) {
		t.Fatalf("expected 2025-02-28, got %v", got)
	}
	if got := NextWithDay(date(2027, 2, 28), rule, 29); got != date(2028, 2, 29) {
		t.Fatalf("expected 2028-02-29, got %v", got)
	}
}

func TestNext_YearlyWithMonths(t *testing.T) {
	rule := Rule{Frequency: FreqYearly, Interval: 2, MonthsOfYear: []int{6, 0}}

	if got := Next(date(2024, 1, 31), rule); got != date(2024, 7, 31) {
		t.Fatalf("expected 2024-07-31, got %v", got)
	}
	if got := Next(date(2024, 7, 31), rule); got != date(2026, 1, 31) {
		t.Fatalf("expected 2026-01-31, got %v", got)
	}
}

func TestNext_MismatchedSelectorsIgnored(t *testing.T) {
	rule := Rule{
		Frequency:    FreqDaily,
		Interval:     1,
		DaysOfWeek:   []int{1},
		DaysOfMonth:  []int{15},
		MonthsOfYear: []int{5},
	}
	if got := Next(date(2024, 1, 1), rule); got != date(2024, 1, 2) {
		t.Fatalf("expected 2024-01-02, got %v", got)
	}

	monthly := Rule{Frequency: FreqMonthly, Interval: 1, DaysOfWeek: []int{1}}
	if got := Next(date(2024, 1, 10), monthly); got != date(2024, 2, 10) {
		t.Fatalf("expected 2024-02-10, got %v", got)
	}
}

func TestNext_OutOfRangeSelectorValuesIgnored(t *testing.T) {
	rule := Rule{Frequency: FreqWeekly, Interval: 1, DaysOfWeek: []int{9, -1}}
	if got := Next(date(2024, 1, 1), rule); got != date(2024, 1, 8) {
		t.Fatalf("expected simple weekly fallback 2024-01-08, got %v", got)
	}
}

func TestNext_AlwaysStrictlyGreater(t *testing.T) {
	rules := []Rule{
		{Frequency: FreqDaily, Interval: 1},
		{Frequency: FreqWeekly, Interval: 1, DaysOfWeek: []int{0, 6}},
		{Frequency: FreqMonthly, Interval: 1, DaysOfMonth: []int{29, 30, 31}},
		{Frequency: FreqMonthly, Interval: 1},
		{Frequency: FreqYearly, Interval: 1, MonthsOfYear: []int{1}},
		{Frequency: "bogus", Interval: 1},
	}

	for _, rule := range rules {
		cur := date(2023, 12, 25)
		for i := 0; i < 400; i++ {
			next := Next(cur, rule)
			if !next.After(cur) {
				t.Fatalf("rule %+v: Next(%v) = %v is not after anchor", rule, cur, next)
			}
			cur = next
		}
	}
}
