package recurrence

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// RFCCompatible reports whether RFC 5545 expansion of the rule yields the
// same dates as Generate. RFC 5545 drops dates that do not exist in a month
// while this package clamps them to the month end, so rules that may land
// past day 28 diverge.
func (r Rule) RFCCompatible(templateDate civil.Date) bool {
	switch r.Frequency {
	case FreqMonthly:
		if days := r.monthdays(); len(days) > 0 {
			return days[len(days)-1] <= 28
		}
		return templateDate.Day <= 28
	case FreqYearly:
		return templateDate.Day <= 28
	}
	return true
}

// RRule converts the rule into a teambition rrule anchored at dtstart.
// Exceptions are not part of an RRULE; callers add them as EXDATEs.
func (r Rule) RRule(dtstart time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Interval: r.interval(),
		Dtstart:  dtstart,
	}

	switch r.Frequency {
	case FreqDaily:
		opt.Freq = rrule.DAILY
	case FreqWeekly:
		opt.Freq = rrule.WEEKLY
		for _, d := range r.weekdays() {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
		// RFC weeks must match the Sunday-started weeks used by Next.
		opt.Wkst = rrule.SU
	case FreqMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = r.monthdays()
	case FreqYearly:
		opt.Freq = rrule.YEARLY
		for _, m := range r.months() {
			opt.Bymonth = append(opt.Bymonth, m+1)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}

	if r.OccurrenceCount != nil {
		opt.Count = *r.OccurrenceCount
	}
	if r.EndDate != nil {
		// Inclusive end date: anything starting that day is still in.
		opt.Until = r.EndDate.AddDays(1).In(dtstart.Location()).Add(-time.Second)
	}

	return rrule.NewRRule(opt)
}

// RRuleString renders the RRULE value (without the "RRULE:" prefix).
func (r Rule) RRuleString(dtstart time.Time) (string, error) {
	rr, err := r.RRule(dtstart)
	if err != nil {
		return "", err
	}
	opt := rr.OrigOptions
	opt.Dtstart = time.Time{}
	return opt.RRuleString(), nil
}
