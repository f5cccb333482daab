package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"studyspot-backend/config"
	"studyspot-backend/internal/index"
	"studyspot-backend/internal/model"
	"studyspot-backend/internal/store"
)

// Service periodically ingests scraped JSON into the relational store and
// requests an index rebuild after each successful cycle.
type Service struct {
	cfg   *config.LoaderConfig
	store store.Store
	index *index.Manager
}

// NewService creates the ingest service. The index manager may be nil when no
// rebuild should follow ingest (tests).
func NewService(cfg *config.LoaderConfig, s store.Store, m *index.Manager) *Service {
	return &Service{cfg: cfg, store: s, index: m}
}

// Run ingests once at startup and then on the configured interval until ctx
// is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("loader: disabled, not starting")
		return
	}
	log.Println("loader: starting ingest service")

	s.IngestOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("loader: shutting down")
			return
		case <-timer.C:
			s.IngestOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// IngestOnce performs a single ingest cycle: buildings, then spaces, then a
// wholesale availability replace. Errors are logged per stage; a failed stage
// skips dependent stages but never crashes the service.
func (s *Service) IngestOnce(ctx context.Context) {
	log.Println("loader: executing ingest cycle")
	now := time.Now().UTC()

	if err := s.ingestBuildings(ctx); err != nil {
		log.Printf("loader: building ingest failed: %v", err)
		return
	}
	if err := s.ingestSpaces(ctx); err != nil {
		log.Printf("loader: space ingest failed: %v", err)
		return
	}
	if err := s.ingestAvailability(ctx, now); err != nil {
		log.Printf("loader: availability ingest failed: %v", err)
	}

	if s.index != nil {
		if err := s.index.RebuildOnce(ctx); err != nil {
			log.Printf("loader: post-ingest index rebuild failed: %v", err)
		}
	}
	log.Println("loader: ingest cycle finished")
}

// buildingRecord mirrors the scraped buildings_info.json entries, keyed by
// building id.
type buildingRecord struct {
	Name        string   `json:"name"`
	HasPrinter  *bool    `json:"has_printer"`
	OpeningTime string   `json:"opening_time"`
	ClosingTime string   `json:"closing_time"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// roomRecord mirrors one entry of a scraped *_room_info.json file.
type roomRecord struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Capacity       *int    `json:"capacity"`
	MustReserve    bool    `json:"must_reserve"`
	TechEnhanced   bool    `json:"tech_enhanced"`
	Indoor         bool    `json:"is_indoor"`
	TalkingAllowed bool    `json:"is_talking_allowed"`
	BuildingID     *string `json:"building_id"`
}

// slotRecord mirrors one slot of a scraped *_room_availability.json file.
type slotRecord struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	IsAvailable bool   `json:"isAvailable"`
}

func (s *Service) ingestBuildings(ctx context.Context) error {
	if s.cfg.BuildingsFile == "" {
		return nil
	}
	var records map[string]buildingRecord
	if err := readJSON(s.cfg.BuildingsFile, &records); err != nil {
		return err
	}

	buildings := make([]model.Building, 0, len(records))
	for id, r := range records {
		buildings = append(buildings, model.Building{
			ID:          id,
			Name:        r.Name,
			HasPrinter:  r.HasPrinter,
			OpeningTime: r.OpeningTime,
			ClosingTime: r.ClosingTime,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		})
	}
	if err := s.store.UpsertBuildings(ctx, buildings); err != nil {
		return err
	}
	log.Printf("loader: upserted %d buildings", len(buildings))
	return nil
}

func (s *Service) ingestSpaces(ctx context.Context) error {
	files, err := filepath.Glob(filepath.Join(s.cfg.RoomsDir, "*_room_info.json"))
	if err != nil {
		return fmt.Errorf("failed to list room files: %w", err)
	}

	var spaces []model.Space
	for _, file := range files {
		var rooms []roomRecord
		if err := readJSON(file, &rooms); err != nil {
			log.Printf("loader: skipping %s: %v", filepath.Base(file), err)
			continue
		}
		for _, r := range rooms {
			spaces = append(spaces, model.Space{
				ID:             r.ID,
				Name:           r.Name,
				Capacity:       r.Capacity,
				MustReserve:    r.MustReserve,
				TechEnhanced:   r.TechEnhanced,
				Indoor:         r.Indoor,
				TalkingAllowed: r.TalkingAllowed,
				BuildingID:     r.BuildingID,
			})
		}
	}
	if err := s.store.UpsertSpaces(ctx, spaces); err != nil {
		return err
	}
	log.Printf("loader: upserted %d spaces from %d files", len(spaces), len(files))
	return nil
}

func (s *Service) ingestAvailability(ctx context.Context, now time.Time) error {
	files, err := filepath.Glob(filepath.Join(s.cfg.AvailabilityDir, "*_room_availability.json"))
	if err != nil {
		return fmt.Errorf("failed to list availability files: %w", err)
	}
	if len(files) == 0 {
		// No scrape output yet; keep whatever slot data is in the store.
		return nil
	}

	var slots []model.AvailabilitySlot
	for _, file := range files {
		var rooms map[string][]slotRecord
		if err := readJSON(file, &rooms); err != nil {
			log.Printf("loader: skipping %s: %v", filepath.Base(file), err)
			continue
		}
		for roomID, roomSlots := range rooms {
			var spaceID int64
			if _, err := fmt.Sscanf(roomID, "%d", &spaceID); err != nil {
				log.Printf("loader: skipping availability for non-numeric room id %q", roomID)
				continue
			}
			for _, slot := range roomSlots {
				start, err := parseSlotTime(slot.Start)
				if err != nil {
					log.Printf("loader: skipping slot for room %d: %v", spaceID, err)
					continue
				}
				end, err := parseSlotTime(slot.End)
				if err != nil {
					log.Printf("loader: skipping slot for room %d: %v", spaceID, err)
					continue
				}
				slots = append(slots, model.AvailabilitySlot{
					SpaceID:   spaceID,
					StartTime: start,
					EndTime:   end,
					Available: slot.IsAvailable,
					ScrapedAt: now,
				})
			}
		}
	}

	if err := s.store.ReplaceAvailability(ctx, slots); err != nil {
		return err
	}
	log.Printf("loader: replaced availability with %d slots", len(slots))
	return nil
}

var slotLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

func parseSlotTime(raw string) (time.Time, error) {
	for _, layout := range slotLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable slot timestamp %q", raw)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
