package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studyspot-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Dimension reads.
	AllSpaceIDs(ctx context.Context) ([]int64, error)
	SpaceDetails(ctx context.Context, ids []int64) ([]SpaceDetail, error)
	AllSpaceDetails(ctx context.Context) ([]SpaceDetail, error)
	Buildings(ctx context.Context) ([]BuildingSummary, error)

	// Availability.
	MustReserveIDs(ctx context.Context, ids []int64) ([]int64, error)
	SlotsForSpaces(ctx context.Context, ids []int64, scrapedSince time.Time) ([]model.AvailabilitySlot, error)
	ReplaceAvailability(ctx context.Context, slots []model.AvailabilitySlot) error

	// Loader upserts.
	UpsertBuildings(ctx context.Context, buildings []model.Building) error
	UpsertSpaces(ctx context.Context, spaces []model.Space) error

	// Per-user event history.
	SessionsForUser(ctx context.Context, userID string) ([]model.StudySession, error)
	BookmarksForUser(ctx context.Context, userID string) ([]model.Bookmark, error)
	FeedbackForUser(ctx context.Context, userID string) ([]model.SpotFeedback, error)
	ViewsForUser(ctx context.Context, userID string) ([]model.SpotDetailView, error)
	FilterLogForUser(ctx context.Context, userID string) (*model.SearchFilterLog, error)

	// Event writes.
	EnsureUser(ctx context.Context, userID string) error
	CreateSession(ctx context.Context, session *model.StudySession) error
	SaveBookmark(ctx context.Context, bookmark *model.Bookmark) error
	DeleteBookmark(ctx context.Context, userID string, spaceID int64, at time.Time) error
	UpsertFeedback(ctx context.Context, feedback *model.SpotFeedback) error
	CreateView(ctx context.Context, view *model.SpotDetailView) error
	SaveFilterLog(ctx context.Context, entry *model.SearchFilterLog) error

	// Ambient context for session enrichment.
	WeatherLabel(ctx context.Context, date, hour string) (*string, error)
	LatestTraffic(ctx context.Context, buildingID string) (*float64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

const detailSelect = `spaces.id, spaces.name, spaces.capacity, spaces.talking_allowed,
spaces.must_reserve, spaces.indoor, spaces.tech_enhanced, spaces.building_id,
buildings.name AS building_name, buildings.has_printer, buildings.latitude, buildings.longitude`

func (s *gormStore) AllSpaceIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&model.Space{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list space ids: %w", err)
	}
	return ids, nil
}

// SpaceDetails hydrates the requested ids. Ids with no matching space are
// silently dropped.
func (s *gormStore) SpaceDetails(ctx context.Context, ids []int64) ([]SpaceDetail, error) {
	if len(ids) == 0 {
		return []SpaceDetail{}, nil
	}
	var details []SpaceDetail
	err := s.db.WithContext(ctx).
		Table("spaces").
		Select(detailSelect).
		Joins("LEFT JOIN buildings ON buildings.id = spaces.building_id").
		Where("spaces.id IN ?", ids).
		Scan(&details).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load space details: %w", err)
	}
	return details, nil
}

// AllSpaceDetails scans every space left-joined to its building. Used by the
// index builder.
func (s *gormStore) AllSpaceDetails(ctx context.Context) ([]SpaceDetail, error) {
	var details []SpaceDetail
	err := s.db.WithContext(ctx).
		Table("spaces").
		Select(detailSelect).
		Joins("LEFT JOIN buildings ON buildings.id = spaces.building_id").
		Scan(&details).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan spaces: %w", err)
	}
	return details, nil
}

func (s *gormStore) Buildings(ctx context.Context) ([]BuildingSummary, error) {
	var buildings []BuildingSummary
	err := s.db.WithContext(ctx).
		Model(&model.Building{}).
		Select("id, name").
		Order("name").
		Scan(&buildings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	return buildings, nil
}

// MustReserveIDs returns the subset of ids whose space requires a reservation.
func (s *gormStore) MustReserveIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []int64
	err := s.db.WithContext(ctx).
		Model(&model.Space{}).
		Where("id IN ? AND must_reserve = ?", ids, true).
		Pluck("id", &out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list must-reserve spaces: %w", err)
	}
	return out, nil
}

func (s *gormStore) SlotsForSpaces(ctx context.Context, ids []int64, scrapedSince time.Time) ([]model.AvailabilitySlot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var slots []model.AvailabilitySlot
	err := s.db.WithContext(ctx).
		Where("space_id IN ? AND scraped_at > ?", ids, scrapedSince).
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load availability slots: %w", err)
	}
	return slots, nil
}

// ReplaceAvailability swaps the whole availability table for a fresh scrape
// inside one transaction, so re-ingestion is idempotent.
func (s *gormStore) ReplaceAvailability(ctx context.Context, slots []model.AvailabilitySlot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.AvailabilitySlot{}).Error; err != nil {
			return fmt.Errorf("failed to clear availability slots: %w", err)
		}
		if len(slots) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(slots, 500).Error; err != nil {
			return fmt.Errorf("failed to insert availability slots: %w", err)
		}
		return nil
	})
}

func (s *gormStore) UpsertBuildings(ctx context.Context, buildings []model.Building) error {
	if len(buildings) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "has_printer", "opening_time", "closing_time", "latitude", "longitude", "updated_at",
		}),
	}).Create(&buildings).Error
	if err != nil {
		return fmt.Errorf("batch upsert buildings failed: %w", err)
	}
	return nil
}

func (s *gormStore) UpsertSpaces(ctx context.Context, spaces []model.Space) error {
	if len(spaces) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "capacity", "must_reserve", "tech_enhanced", "indoor", "talking_allowed", "building_id", "updated_at",
		}),
	}).Create(&spaces).Error
	if err != nil {
		return fmt.Errorf("batch upsert spaces failed: %w", err)
	}
	return nil
}

func (s *gormStore) SessionsForUser(ctx context.Context, userID string) ([]model.StudySession, error) {
	var sessions []model.StudySession
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to load sessions for user %s: %w", userID, err)
	}
	return sessions, nil
}

func (s *gormStore) BookmarksForUser(ctx context.Context, userID string) ([]model.Bookmark, error) {
	var bookmarks []model.Bookmark
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Find(&bookmarks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load bookmarks for user %s: %w", userID, err)
	}
	return bookmarks, nil
}

func (s *gormStore) FeedbackForUser(ctx context.Context, userID string) ([]model.SpotFeedback, error) {
	var feedback []model.SpotFeedback
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&feedback).Error; err != nil {
		return nil, fmt.Errorf("failed to load feedback for user %s: %w", userID, err)
	}
	return feedback, nil
}

func (s *gormStore) ViewsForUser(ctx context.Context, userID string) ([]model.SpotDetailView, error) {
	var views []model.SpotDetailView
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to load detail views for user %s: %w", userID, err)
	}
	return views, nil
}

func (s *gormStore) FilterLogForUser(ctx context.Context, userID string) (*model.SearchFilterLog, error) {
	var entry model.SearchFilterLog
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load filter log for user %s: %w", userID, err)
	}
	return &entry, nil
}

func (s *gormStore) EnsureUser(ctx context.Context, userID string) error {
	user := model.User{ID: userID, CreatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error
	if err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", userID, err)
	}
	return nil
}

func (s *gormStore) CreateSession(ctx context.Context, session *model.StudySession) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(session).Error; err != nil {
		return fmt.Errorf("failed to store study session: %w", err)
	}
	return nil
}

// SaveBookmark upserts on (user, space) and revives a previously deleted row.
func (s *gormStore) SaveBookmark(ctx context.Context, bookmark *model.Bookmark) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "space_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"building_id", "created_at", "deleted_at"}),
	}).Create(bookmark).Error; err != nil {
		return fmt.Errorf("failed to store bookmark: %w", err)
	}
	return nil
}

func (s *gormStore) DeleteBookmark(ctx context.Context, userID string, spaceID int64, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&model.Bookmark{}).
		Where("user_id = ? AND space_id = ?", userID, spaceID).
		Update("deleted_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

func (s *gormStore) UpsertFeedback(ctx context.Context, feedback *model.SpotFeedback) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "space_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"building_id", "rating", "updated_at"}),
	}).Create(feedback).Error; err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}
	return nil
}

func (s *gormStore) CreateView(ctx context.Context, view *model.SpotDetailView) error {
	if err := s.db.WithContext(ctx).Create(view).Error; err != nil {
		return fmt.Errorf("failed to store detail view: %w", err)
	}
	return nil
}

func (s *gormStore) SaveFilterLog(ctx context.Context, entry *model.SearchFilterLog) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to store filter log: %w", err)
	}
	return nil
}

func (s *gormStore) WeatherLabel(ctx context.Context, date, hour string) (*string, error) {
	var row model.HourlyWeather
	err := s.db.WithContext(ctx).
		Where("date = ? AND hour = ?", date, hour).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up weather: %w", err)
	}
	return &row.WeatherText, nil
}

func (s *gormStore) LatestTraffic(ctx context.Context, buildingID string) (*float64, error) {
	var row model.LibraryTraffic
	err := s.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("timestamp DESC").
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up library traffic: %w", err)
	}
	return &row.TrafficPercentage, nil
}
