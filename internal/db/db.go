package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studyspot-backend/config"
	"studyspot-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.ApplyPostgresDDL && cfg.Driver == "postgres" {
		if err := applyPostgresDDL(db); err != nil {
			log.Printf("Warning: failed to apply some postgres DDL: %v. Continuing without it.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs AutoMigrate for every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Building{},
		&model.Space{},
		&model.AvailabilitySlot{},
		&model.User{},
		&model.StudySession{},
		&model.Bookmark{},
		&model.SpotFeedback{},
		&model.SpotDetailView{},
		&model.SearchFilterLog{},
		&model.HourlyWeather{},
		&model.LibraryTraffic{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// applyPostgresDDL adds covering indexes the availability resolver and event
// readers lean on. AutoMigrate covers the basics; these are query-shaped.
func applyPostgresDDL(db *gorm.DB) error {
	ddls := []string{
		// Window-coverage lookups: fresh, available slots per space.
		"CREATE INDEX IF NOT EXISTS idx_slots_space_avail_scraped ON availability_slots (space_id, available, scraped_at DESC);",

		// Per-user event reads for profile builds.
		"CREATE INDEX IF NOT EXISTS idx_sessions_user_space ON study_sessions (user_id, space_id);",
		"CREATE INDEX IF NOT EXISTS idx_views_user_space ON spot_detail_views (user_id, space_id);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
