package model

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leganyst/event-series/internal/recurrence"
)

// recurrence_rules: exactly one per series template.
type RecurrenceRule struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Frequency string `gorm:"type:varchar(16);not null"`
	Interval  int    `gorm:"not null;default:1"`

	// Selector sets stored as JSON arrays of ints.
	DaysOfWeek   datatypes.JSON `gorm:"type:jsonb"`
	DaysOfMonth  datatypes.JSON `gorm:"type:jsonb"`
	MonthsOfYear datatypes.JSON `gorm:"type:jsonb"`

	EndDate         *datatypes.Date `gorm:"type:date"`
	OccurrenceCount *int

	// Excluded calendar dates as a JSON array of "YYYY-MM-DD" strings.
	Exceptions datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Event *Event `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// NewRecurrenceRule builds the row for eventID from a domain rule.
func NewRecurrenceRule(eventID uuid.UUID, r recurrence.Rule) (*RecurrenceRule, error) {
	row := &RecurrenceRule{
		ID:              uuid.New(),
		EventID:         eventID,
		Frequency:       string(r.Frequency),
		Interval:        r.Interval,
		OccurrenceCount: r.OccurrenceCount,
	}
	if err := row.SetRule(r); err != nil {
		return nil, err
	}
	return row, nil
}

// SetRule overwrites every rule column from r, keeping ID and EventID.
func (row *RecurrenceRule) SetRule(r recurrence.Rule) error {
	var err error
	row.Frequency = string(r.Frequency)
	row.Interval = r.Interval
	row.OccurrenceCount = r.OccurrenceCount

	if row.DaysOfWeek, err = encodeInts(r.DaysOfWeek); err != nil {
		return fmt.Errorf("encode days of week: %w", err)
	}
	if row.DaysOfMonth, err = encodeInts(r.DaysOfMonth); err != nil {
		return fmt.Errorf("encode days of month: %w", err)
	}
	if row.MonthsOfYear, err = encodeInts(r.MonthsOfYear); err != nil {
		return fmt.Errorf("encode months of year: %w", err)
	}

	row.EndDate = nil
	if r.EndDate != nil {
		d := DateOf(*r.EndDate)
		row.EndDate = &d
	}

	exceptions := make([]string, 0, len(r.Exceptions))
	for _, ex := range r.Exceptions {
		exceptions = append(exceptions, ex.String())
	}
	raw, err := json.Marshal(exceptions)
	if err != nil {
		return fmt.Errorf("encode exceptions: %w", err)
	}
	row.Exceptions = raw
	return nil
}

// Rule decodes the row into the domain rule.
func (row *RecurrenceRule) Rule() (recurrence.Rule, error) {
	r := recurrence.Rule{
		Frequency:       recurrence.Frequency(row.Frequency),
		Interval:        row.Interval,
		OccurrenceCount: row.OccurrenceCount,
	}

	var err error
	if r.DaysOfWeek, err = decodeInts(row.DaysOfWeek); err != nil {
		return r, fmt.Errorf("decode days of week: %w", err)
	}
	if r.DaysOfMonth, err = decodeInts(row.DaysOfMonth); err != nil {
		return r, fmt.Errorf("decode days of month: %w", err)
	}
	if r.MonthsOfYear, err = decodeInts(row.MonthsOfYear); err != nil {
		return r, fmt.Errorf("decode months of year: %w", err)
	}

	if row.EndDate != nil {
		d := CivilDate(*row.EndDate)
		r.EndDate = &d
	}

	if len(row.Exceptions) > 0 {
		var raw []string
		if err := json.Unmarshal(row.Exceptions, &raw); err != nil {
			return r, fmt.Errorf("decode exceptions: %w", err)
		}
		for _, s := range raw {
			d, err := civil.ParseDate(s)
			if err != nil {
				return r, fmt.Errorf("decode exception %q: %w", s, err)
			}
			r.Exceptions = append(r.Exceptions, d)
		}
	}

	return r, nil
}

func encodeInts(v []int) (datatypes.JSON, error) {
	if v == nil {
		v = []int{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func decodeInts(raw datatypes.JSON) ([]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
