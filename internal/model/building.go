package model

import "time"

// Building represents a physical structure containing one or more study spaces.
type Building struct {
	ID          string   `gorm:"primaryKey;size:32" json:"building_id"`
	Name        string   `gorm:"uniqueIndex;size:128;not null" json:"name"`
	HasPrinter  *bool    `json:"has_printer"`
	OpeningTime string   `gorm:"size:16" json:"opening_time"`
	ClosingTime string   `gorm:"size:16" json:"closing_time"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Spaces []Space `gorm:"foreignKey:BuildingID"`
}
