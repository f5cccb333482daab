package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"studyspot-backend/internal/parse"
	"studyspot-backend/internal/store"
)

// Filter dimensions the index partitions spaces by.
const (
	DimCapacity     = "capacity_ranges"
	DimTalking      = "talking_allowed"
	DimStudyRoom    = "study_room"
	DimIndoor       = "indoor"
	DimTechEnhanced = "tech_enhanced"
	DimHasPrinter   = "has_printer"
	DimBuilding     = "building"
)

// Index is an immutable inverted mapping from filter dimension to bucket key
// to the set of matching space ids. Buckets keep ids sorted so rebuilding from
// an unchanged store yields a byte-identical artifact.
type Index struct {
	Dimensions map[string]map[string][]int64 `json:"dimensions"`
	SpaceCount int                           `json:"space_count"`
}

// Build scans hydrated space rows into a fresh index. Each space lands in
// exactly one bucket per dimension; spaces with an unknown capacity or an
// unknown building printer flag are excluded from that dimension entirely.
func Build(details []store.SpaceDetail) *Index {
	dims := map[string]map[string][]int64{
		DimCapacity:     {},
		DimTalking:      {},
		DimStudyRoom:    {},
		DimIndoor:       {},
		DimTechEnhanced: {},
		DimHasPrinter:   {},
		DimBuilding:     {},
	}

	add := func(dim, key string, id int64) {
		dims[dim][key] = append(dims[dim][key], id)
	}

	for _, d := range details {
		if d.Capacity != nil && *d.Capacity > 0 {
			add(DimCapacity, parse.BucketForCapacity(*d.Capacity), d.ID)
		}
		add(DimTalking, boolKey(d.TalkingAllowed), d.ID)
		add(DimStudyRoom, boolKey(d.MustReserve), d.ID)
		add(DimIndoor, boolKey(d.Indoor), d.ID)
		add(DimTechEnhanced, boolKey(d.TechEnhanced), d.ID)
		if d.HasPrinter != nil {
			add(DimHasPrinter, boolKey(*d.HasPrinter), d.ID)
		}
		if d.BuildingID != nil && *d.BuildingID != "" {
			add(DimBuilding, *d.BuildingID, d.ID)
		}
	}

	for _, buckets := range dims {
		for _, ids := range buckets {
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		}
	}

	return &Index{Dimensions: dims, SpaceCount: len(details)}
}

// Lookup returns the id set for one bucket, or ok=false when the dimension
// has no such bucket.
func (idx *Index) Lookup(dim, key string) ([]int64, bool) {
	buckets, ok := idx.Dimensions[dim]
	if !ok {
		return nil, false
	}
	ids, ok := buckets[key]
	return ids, ok
}

// Save writes the index artifact atomically: temp file in the target
// directory, then rename. Readers never observe a partial write.
func (idx *Index) Save(path string) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write index artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close index artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace index artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads a previously saved index from disk.
func LoadArtifact(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index artifact: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("index artifact is corrupt: %w", err)
	}
	if idx.Dimensions == nil {
		return nil, fmt.Errorf("index artifact is corrupt: no dimensions")
	}
	return &idx, nil
}

func boolKey(b bool) string { return strconv.FormatBool(b) }
