package recurrence

import (
	"time"

	"cloud.google.com/go/civil"
)

// Next returns the first candidate date strictly after anchor.
// The day-of-month used by monthly and yearly rules is taken from anchor.
func Next(anchor civil.Date, r Rule) civil.Date {
	return NextWithDay(anchor, r, anchor.Day)
}

// NextWithDay is Next with an explicit preferred day-of-month for monthly
// rules without a day selector and for yearly rules. The generator passes
// the template's day so a clamped month (Jan 31 -> Feb 29) does not shift
// the rest of the series.
func NextWithDay(anchor civil.Date, r Rule, preferredDay int) civil.Date {
	step := r.interval()
	if preferredDay < 1 || preferredDay > 31 {
		preferredDay = anchor.Day
	}

	switch r.Frequency {
	case FreqWeekly:
		return nextWeekly(anchor, r.weekdays(), step)
	case FreqMonthly:
		return nextMonthly(anchor, r.monthdays(), step, preferredDay)
	case FreqYearly:
		return nextYearly(anchor, r.months(), step, preferredDay)
	default:
		return anchor.AddDays(step)
	}
}

func nextWeekly(anchor civil.Date, days []int, step int) civil.Date {
	if len(days) == 0 {
		return anchor.AddDays(7 * step)
	}

	wd := int(weekday(anchor))
	for _, d := range days {
		if d > wd {
			return anchor.AddDays(d - wd)
		}
	}

	// Weeks start on Sunday.
	weekStart := anchor.AddDays(-wd)
	return weekStart.AddDays(7*step + days[0])
}

func nextMonthly(anchor civil.Date, days []int, step, preferredDay int) civil.Date {
	if len(days) == 0 {
		y, m := addMonths(anchor.Year, anchor.Month, step)
		return civil.Date{Year: y, Month: m, Day: clampDay(y, m, preferredDay)}
	}

	for _, d := range days {
		if day := clampDay(anchor.Year, anchor.Month, d); day > anchor.Day {
			return civil.Date{Year: anchor.Year, Month: anchor.Month, Day: day}
		}
	}

	y, m := addMonths(anchor.Year, anchor.Month, step)
	return civil.Date{Year: y, Month: m, Day: clampDay(y, m, days[0])}
}

func nextYearly(anchor civil.Date, months []int, step, preferredDay int) civil.Date {
	if len(months) == 0 {
		y := anchor.Year + step
		return civil.Date{Year: y, Month: anchor.Month, Day: clampDay(y, anchor.Month, preferredDay)}
	}

	current := int(anchor.Month) - 1
	for _, m := range months {
		if m > current {
			month := time.Month(m + 1)
			return civil.Date{Year: anchor.Year, Month: month, Day: clampDay(anchor.Year, month, preferredDay)}
		}
	}

	y := anchor.Year + step
	month := time.Month(months[0] + 1)
	return civil.Date{Year: y, Month: month, Day: clampDay(y, month, preferredDay)}
}

// addMonths moves (year, month) forward by n months without touching the day.
func addMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := int(month) - 1 + n
	year += idx / 12
	idx %= 12
	return year, time.Month(idx + 1)
}

// clampDay limits day to the last valid day of the given month.
func clampDay(year int, month time.Month, day int) int {
	if last := daysIn(year, month); day > last {
		return last
	}
	return day
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
