package series

import "errors"

var (
	ErrInvalidEvent    = errors.New("series: invalid event")
	ErrInvalidRule     = errors.New("series: invalid recurrence rule")
	ErrNotRecurring    = errors.New("series: event is not a recurring series")
	ErrNotInstance     = errors.New("series: event is not a series instance")
	ErrNotOccurrence   = errors.New("series: date is not an occurrence of the series")
	ErrSeriesCancelled = errors.New("series: series is cancelled")
	ErrSeriesDraft     = errors.New("series: series is not active")
	ErrIDConflict      = errors.New("series: occurrence id is taken by another event")
)
