package model

import (
	"time"

	"github.com/google/uuid"
)

// Тип записи аудита серии.
type AuditType string

const (
	AuditSeriesCreated       AuditType = "series_created"
	AuditSeriesActivated     AuditType = "series_activated"
	AuditSeriesCancelled     AuditType = "series_cancelled"
	AuditRuleUpdated         AuditType = "rule_updated"
	AuditOccurrenceModified  AuditType = "occurrence_modified"
	AuditOccurrenceCancelled AuditType = "occurrence_cancelled"
	AuditInstanceDeleted     AuditType = "instance_deleted"
)

// series_audit: lifecycle log of a series.
type AuditEntry struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Type AuditType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	SeriesID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	InstanceID *uuid.UUID `gorm:"type:uuid;index"`

	Details string `gorm:"type:text"`
}

func (AuditEntry) TableName() string { return "series_audit" }
