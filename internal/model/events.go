package model

import (
	"time"

	"gorm.io/datatypes"
)

// Session end reasons observed from the client.
const (
	EndReasonUserExit      = "user_exit"
	EndReasonUserEnd       = "user_end"
	EndReasonNoise         = "noise"
	EndReasonAppBackground = "app_background"
)

// StudySession records one stay at a study space.
type StudySession struct {
	ID         string     `gorm:"primaryKey;size:64" json:"session_id"`
	UserID     string     `gorm:"index;size:64;not null" json:"user_id"`
	SpaceID    int64      `gorm:"not null" json:"study_space_id"`
	BuildingID *string    `gorm:"size:32" json:"building_id"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	EndedAt    *time.Time `json:"ended_at"`
	DurationMS *int64     `json:"duration_ms"`
	EndReason  *string    `gorm:"size:32" json:"ended_reason"`

	// Ambient context stamped at write time.
	StartWeather   *string  `gorm:"size:64" json:"start_weather"`
	SessionTraffic *float64 `json:"session_traffic"`
}

// Bookmark marks a space a user saved. Deletion is a soft delete so the
// preference model still sees historical interest.
type Bookmark struct {
	ID         string     `gorm:"primaryKey;size:64"`
	UserID     string     `gorm:"index:idx_bookmark_user_space,unique;size:64;not null" json:"user_id"`
	SpaceID    int64      `gorm:"index:idx_bookmark_user_space,unique;not null" json:"study_space_id"`
	BuildingID *string    `gorm:"size:32" json:"building_id"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at"`
}

// SpotFeedback holds a user's latest rating for a space (1-5). Latest rating
// per (user, space) wins via upsert.
type SpotFeedback struct {
	UserID     string    `gorm:"primaryKey;size:64" json:"user_id"`
	SpaceID    int64     `gorm:"primaryKey" json:"study_space_id"`
	BuildingID *string   `gorm:"size:32" json:"building_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (SpotFeedback) TableName() string { return "spot_feedback" }

// SpotDetailView records the user opening a space's detail panel.
type SpotDetailView struct {
	ID         string     `gorm:"primaryKey;size:64"`
	UserID     string     `gorm:"index;size:64;not null" json:"user_id"`
	SpaceID    int64      `gorm:"not null" json:"study_space_id"`
	BuildingID *string    `gorm:"size:32" json:"building_id"`
	OpenedAt   time.Time  `gorm:"not null" json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at"`
	DwellMS    *int64     `json:"dwell_ms"`
	Source     *string    `gorm:"size:32" json:"source"`
	ListRank   *int       `json:"list_rank"`
}

// SearchFilterLog keeps the user's last submitted search filters, one row per
// user. Raw holds the payload exactly as submitted.
type SearchFilterLog struct {
	UserID         string         `gorm:"primaryKey;size:64" json:"user_id"`
	MinCapacity    *int           `json:"min_capacity"`
	MaxCapacity    *int           `json:"max_capacity"`
	TechEnhanced   *bool          `json:"tech_enhanced"`
	HasPrinter     *bool          `json:"has_printer"`
	Indoor         *bool          `json:"is_indoor"`
	TalkingAllowed *bool          `json:"is_talking_allowed"`
	Raw            datatypes.JSON `json:"raw"`
	UpdatedAt      time.Time      `gorm:"not null"`
}
