package recurrence

import (
	"iter"
	"time"

	"cloud.google.com/go/civil"
)

const defaultMaxOccurrences = 5000

type options struct {
	existing map[civil.Date]struct{}
	max      int
}

// Option tunes a single Generate call.
type Option func(*options)

// WithExisting excludes dates that already have a materialized instance
// (matched against the instance's original start date).
func WithExisting(dates ...civil.Date) Option {
	return func(o *options) {
		if o.existing == nil {
			o.existing = make(map[civil.Date]struct{}, len(dates))
		}
		for _, d := range dates {
			o.existing[d] = struct{}{}
		}
	}
}

// WithMaxOccurrences caps the number of emitted dates. Values <= 0 keep the
// default cap.
func WithMaxOccurrences(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.max = n
		}
	}
}

// Result is the outcome of GenerateResult.
type Result struct {
	Dates []civil.Date
	// Truncated is set when the max occurrences cap stopped generation
	// before the window was exhausted.
	Truncated bool
}

// Candidates yields every date of the series in order, starting from the
// template date, until EndDate or OccurrenceCount stops it. Exceptions are
// not removed here: they still consume a slot of OccurrenceCount.
// A rule without a terminator yields an unbounded sequence.
func Candidates(r Rule, templateDate civil.Date) iter.Seq[civil.Date] {
	return func(yield func(civil.Date) bool) {
		cur := templateDate
		if !r.matches(cur) {
			cur = NextWithDay(cur, r, templateDate.Day)
		}

		for n := 0; ; n++ {
			if r.EndDate != nil && cur.After(*r.EndDate) {
				return
			}
			if r.OccurrenceCount != nil && n >= *r.OccurrenceCount {
				return
			}
			if !yield(cur) {
				return
			}
			cur = NextWithDay(cur, r, templateDate.Day)
		}
	}
}

// Generate expands r into the occurrence dates that fall into
// [windowStart, windowEnd], compared as calendar dates in templateStart's
// location. The result is strictly increasing and never contains an
// exception or an existing date. windowEnd before windowStart yields nil.
func Generate(r Rule, templateStart, windowStart, windowEnd time.Time, opts ...Option) []civil.Date {
	return GenerateResult(r, templateStart, windowStart, windowEnd, opts...).Dates
}

// GenerateResult is Generate that also reports truncation.
func GenerateResult(r Rule, templateStart, windowStart, windowEnd time.Time, opts ...Option) Result {
	o := options{max: defaultMaxOccurrences}
	for _, opt := range opts {
		opt(&o)
	}

	var res Result
	if windowEnd.Before(windowStart) {
		return res
	}

	loc := templateStart.Location()
	from := civil.DateOf(windowStart.In(loc))
	to := civil.DateOf(windowEnd.In(loc))

	exceptions := make(map[civil.Date]struct{}, len(r.Exceptions))
	for _, ex := range r.Exceptions {
		exceptions[ex] = struct{}{}
	}

	for cand := range Candidates(r, civil.DateOf(templateStart)) {
		if cand.After(to) {
			break
		}
		if cand.Before(from) {
			continue
		}
		if _, ok := exceptions[cand]; ok {
			continue
		}
		if _, ok := o.existing[cand]; ok {
			continue
		}
		if len(res.Dates) >= o.max {
			res.Truncated = true
			break
		}
		res.Dates = append(res.Dates, cand)
	}

	return res
}

// Last returns the final date of a terminated series. ok is false for
// rules without EndDate or OccurrenceCount.
func Last(r Rule, templateDate civil.Date) (last civil.Date, ok bool) {
	if r.EndDate == nil && r.OccurrenceCount == nil {
		return civil.Date{}, false
	}
	for d := range Candidates(r, templateDate) {
		last, ok = d, true
	}
	return last, ok
}

// OccursOn reports whether d is a live occurrence of the series started on
// templateDate: a candidate within the terminators and not an exception.
func OccursOn(r Rule, templateDate, d civil.Date) bool {
	if r.IsException(d) || d.Before(templateDate) {
		return false
	}
	for cand := range Candidates(r, templateDate) {
		if !cand.Before(d) {
			return cand == d
		}
	}
	return false
}
