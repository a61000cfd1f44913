package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей календаря серий.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Event{},
		&RecurrenceRule{},
		&ModifiedOccurrence{},
		&AuditEntry{},
	)
}
