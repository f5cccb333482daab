package model

import "time"

// HourlyWeather is a scraped per-hour weather observation used to label
// study sessions at write time.
type HourlyWeather struct {
	ID          int64  `gorm:"autoIncrement;primaryKey"`
	Date        string `gorm:"size:16;not null;uniqueIndex:idx_weather_date_hour"`
	Hour        string `gorm:"size:8;not null;uniqueIndex:idx_weather_date_hour"` // "HH:MM"
	WeatherText string `gorm:"size:64;not null"`
}

func (HourlyWeather) TableName() string { return "hourly_weather" }

// LibraryTraffic is a scraped occupancy sample for a building.
type LibraryTraffic struct {
	ID                int64     `gorm:"autoIncrement;primaryKey"`
	BuildingID        *string   `gorm:"size:32;index"`
	LocationName      string    `gorm:"size:128;not null"`
	TrafficCount      int       `gorm:"not null"`
	TrafficPercentage float64   `gorm:"not null"`
	Timestamp         time.Time `gorm:"not null;index"`
}

func (LibraryTraffic) TableName() string { return "library_traffic" }
