package model

import "time"

// AvailabilitySlot is a scraped, time-bounded record of a must-reserve space's
// reservation state. Slots may overlap or repeat; the resolver tolerates both.
type AvailabilitySlot struct {
	ID        int64     `gorm:"autoIncrement;primaryKey"`
	SpaceID   int64     `gorm:"not null;index:idx_slot_space_start"`
	StartTime time.Time `gorm:"not null;index:idx_slot_space_start"`
	EndTime   time.Time `gorm:"not null"`
	Available bool      `gorm:"not null"`
	ScrapedAt time.Time `gorm:"not null;index"`
}
