package model

import "time"

// Space represents an individually bookable or open study area.
type Space struct {
	ID             int64   `gorm:"primaryKey" json:"id"` // Upstream ID
	Name           string  `gorm:"size:256;not null" json:"name"`
	Capacity       *int    `json:"capacity"`
	MustReserve    bool    `gorm:"not null" json:"must_reserve"`
	TechEnhanced   bool    `gorm:"not null" json:"tech_enhanced"`
	Indoor         bool    `gorm:"not null" json:"indoor"`
	TalkingAllowed bool    `gorm:"not null" json:"talking_allowed"`
	BuildingID     *string `gorm:"index;size:32" json:"building_id"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Building *Building `gorm:"constraint:OnDelete:SET NULL"`
}
