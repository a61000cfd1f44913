package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// modified_occurrences: occurrence dates detached from their series by an
// edit. Generation must never recreate or overwrite the mapped instance.
type ModifiedOccurrence struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ParentEventID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_modified_parent_date,priority:1"`
	OccurrenceDate datatypes.Date `gorm:"type:date;not null;uniqueIndex:idx_modified_parent_date,priority:2"`

	InstanceID uuid.UUID `gorm:"type:uuid;not null;index"`

	CreatedAt time.Time `gorm:"not null"`
}
