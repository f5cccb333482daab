package model

import "time"

// User identifies an app user. Rows are append-only and never deleted.
type User struct {
	ID        string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"not null"`
}
