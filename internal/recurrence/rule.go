package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"
)

// Frequency is the base period of a recurring series.
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
	FreqYearly  Frequency = "yearly"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqYearly:
		return true
	}
	return false
}

var (
	ErrInvalidFrequency  = errors.New("recurrence: unknown frequency")
	ErrInvalidInterval   = errors.New("recurrence: interval must be >= 1")
	ErrInvalidDayOfWeek  = errors.New("recurrence: day of week must be in 0..6")
	ErrInvalidDayOfMonth = errors.New("recurrence: day of month must be in 1..31")
	ErrInvalidMonth      = errors.New("recurrence: month must be in 0..11")
	ErrInvalidCount      = errors.New("recurrence: occurrence count must be >= 1")
	ErrBothTerminators   = errors.New("recurrence: end date and occurrence count are mutually exclusive")
	ErrInvalidException  = errors.New("recurrence: exception date is not a valid calendar date")
)

// Rule describes how a template event repeats.
//
// DaysOfWeek uses 0=Sunday..6=Saturday and only applies to weekly rules.
// DaysOfMonth (1..31) only applies to monthly rules, MonthsOfYear
// (0=January..11=December) only to yearly rules. Selectors that do not
// match the frequency are ignored.
type Rule struct {
	Frequency    Frequency
	Interval     int
	DaysOfWeek   []int
	DaysOfMonth  []int
	MonthsOfYear []int

	// EndDate is inclusive.
	EndDate         *civil.Date
	OccurrenceCount *int

	// Exceptions are matched by calendar date only.
	Exceptions []civil.Date
}

// Validate checks the rule at authoring time and reports every violation.
// The stepper and the generator never call it: they tolerate bad input by
// falling back to simple recurrence.
func (r Rule) Validate() error {
	var errs []error

	if !r.Frequency.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency))
	}
	if r.Interval < 1 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidInterval, r.Interval))
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidDayOfWeek, d))
		}
	}
	for _, d := range r.DaysOfMonth {
		if d < 1 || d > 31 {
			errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidDayOfMonth, d))
		}
	}
	for _, m := range r.MonthsOfYear {
		if m < 0 || m > 11 {
			errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidMonth, m))
		}
	}
	if r.OccurrenceCount != nil && *r.OccurrenceCount < 1 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidCount, *r.OccurrenceCount))
	}
	if r.OccurrenceCount != nil && r.EndDate != nil {
		errs = append(errs, ErrBothTerminators)
	}
	for _, ex := range r.Exceptions {
		if !ex.IsValid() {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidException, ex))
		}
	}

	return errors.Join(errs...)
}

// interval returns the effective step, treating anything below 1 as 1.
func (r Rule) interval() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// weekdays returns the sorted, deduplicated, in-range weekday selector for
// weekly rules and nil for every other frequency.
func (r Rule) weekdays() []int {
	if r.Frequency != FreqWeekly {
		return nil
	}
	return normalizeSet(r.DaysOfWeek, 0, 6)
}

func (r Rule) monthdays() []int {
	if r.Frequency != FreqMonthly {
		return nil
	}
	return normalizeSet(r.DaysOfMonth, 1, 31)
}

func (r Rule) months() []int {
	if r.Frequency != FreqYearly {
		return nil
	}
	return normalizeSet(r.MonthsOfYear, 0, 11)
}

// matches reports whether d conforms to the rule's selector for its
// frequency. Rules without a selector match every date.
func (r Rule) matches(d civil.Date) bool {
	switch r.Frequency {
	case FreqWeekly:
		if days := r.weekdays(); len(days) > 0 {
			return slices.Contains(days, int(weekday(d)))
		}
	case FreqMonthly:
		if days := r.monthdays(); len(days) > 0 {
			for _, day := range days {
				if clampDay(d.Year, d.Month, day) == d.Day {
					return true
				}
			}
			return false
		}
	case FreqYearly:
		if months := r.months(); len(months) > 0 {
			return slices.Contains(months, int(d.Month)-1)
		}
	}
	return true
}

// IsException reports whether d is listed in the rule's exceptions.
func (r Rule) IsException(d civil.Date) bool {
	return slices.Contains(r.Exceptions, d)
}

// WithException returns a copy of the rule with d appended to the exceptions
// (no-op when it is already there).
func (r Rule) WithException(d civil.Date) Rule {
	if r.IsException(d) {
		return r
	}
	out := r
	out.Exceptions = append(slices.Clone(r.Exceptions), d)
	slices.SortFunc(out.Exceptions, compareDates)
	return out
}

func normalizeSet(in []int, lo, hi int) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, 0, len(in))
	for _, v := range in {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
