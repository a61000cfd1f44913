package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Kind of calendar entry stored in the events table.
type EventKind string

const (
	// EventKindStandalone is a one-off event without a rule.
	EventKindStandalone EventKind = "standalone"
	// EventKindSeries is the template of a recurring series; it owns one RecurrenceRule.
	EventKindSeries EventKind = "series"
	// EventKindInstance is a materialized occurrence of a series.
	EventKindInstance EventKind = "instance"
)

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCancelled EventStatus = "cancelled"
)

// Series lifecycle, set on series templates only.
type SeriesStatus string

const (
	SeriesStatusDraft     SeriesStatus = "draft"
	SeriesStatusActive    SeriesStatus = "active"
	SeriesStatusCancelled SeriesStatus = "cancelled"
)

// events
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Kind EventKind `gorm:"type:varchar(16);not null;index"`

	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
	Location    string `gorm:"type:varchar(255)"`
	Color       string `gorm:"type:varchar(32)"`

	// IANA zone of the template; occurrence time-of-day is kept in this zone.
	TimeZone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	StartsAt time.Time `gorm:"not null;index"`
	EndsAt   time.Time `gorm:"not null;index"`

	Status       EventStatus  `gorm:"type:varchar(16);not null;default:'scheduled';index"`
	SeriesStatus SeriesStatus `gorm:"type:varchar(16);index"`

	// Instance fields. ParentEventID is a plain foreign key, never a loaded pointer.
	ParentEventID     *uuid.UUID      `gorm:"type:uuid;index;uniqueIndex:idx_events_parent_original,priority:1"`
	OriginalStartDate *datatypes.Date `gorm:"type:date;uniqueIndex:idx_events_parent_original,priority:2"`
	// IsModified marks an instance edited away from the template.
	IsModified bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Duration of the event; for a series template this is the duration every
// generated instance inherits.
func (e *Event) Duration() time.Duration {
	return e.EndsAt.Sub(e.StartsAt)
}

// Loc resolves TimeZone, falling back to UTC for empty or unknown zones.
func (e *Event) Loc() *time.Location {
	if e.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalStart is StartsAt in the event's own zone.
func (e *Event) LocalStart() time.Time {
	return e.StartsAt.In(e.Loc())
}

// OriginalDate returns the unmodified occurrence date of an instance.
func (e *Event) OriginalDate() (civil.Date, bool) {
	if e.OriginalStartDate == nil {
		return civil.Date{}, false
	}
	return CivilDate(*e.OriginalStartDate), true
}

// Overlaps reports whether the event intersects the closed window [from, to].
func (e *Event) Overlaps(from, to time.Time) bool {
	return !e.StartsAt.After(to) && !e.EndsAt.Before(from)
}

// IsInstance reports whether the event was derived from a series.
func (e *Event) IsInstance() bool {
	return e.Kind == EventKindInstance && e.ParentEventID != nil
}

// DateOf converts a calendar date to the stored date column value.
func DateOf(d civil.Date) datatypes.Date {
	return datatypes.Date(d.In(time.UTC))
}

// CivilDate converts a stored date column value back to a calendar date.
func CivilDate(d datatypes.Date) civil.Date {
	return civil.DateOf(time.Time(d))
}
