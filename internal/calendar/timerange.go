// Package calendar holds window and paging helpers shared by the transport
// layer.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeRange = errors.New("invalid time range")

// TimeRange is the closed query window [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange requires both bounds. A reversed range is allowed and is
// Empty.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// ParseTimeRange reads RFC 3339 bounds.
func ParseTimeRange(start, end string) (TimeRange, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: start: %w", ErrInvalidTimeRange, err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: end: %w", ErrInvalidTimeRange, err)
	}
	return NewTimeRange(s, e)
}

// Empty reports a reversed range.
func (tr TimeRange) Empty() bool {
	return tr.End.Before(tr.Start)
}

// Clamp cuts the range to at most maxDuration after Start.
// maxDuration <= 0 disables the limit.
func (tr TimeRange) Clamp(maxDuration time.Duration) TimeRange {
	if maxDuration > 0 && tr.End.Sub(tr.Start) > maxDuration {
		tr.End = tr.Start.Add(maxDuration)
	}
	return tr
}
