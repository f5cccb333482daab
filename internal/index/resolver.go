package index

import (
	"sort"
	"strings"
)

// Filters is a caller's filter set. Every key is optional; nil means the
// dimension is not constrained.
type Filters struct {
	CapacityRange  *string `json:"capacity_range"`
	TalkingAllowed *bool   `json:"talking_allowed"`
	StudyRoom      *bool   `json:"study_room"`
	Indoor         *bool   `json:"indoor"`
	TechEnhanced   *bool   `json:"tech_enhanced"`
	HasPrinter     *bool   `json:"has_printer"`
	Building       *string `json:"building"`
}

// Empty reports whether no filter key is present.
func (f Filters) Empty() bool {
	return f.CapacityRange == nil && f.TalkingAllowed == nil && f.StudyRoom == nil &&
		f.Indoor == nil && f.TechEnhanced == nil && f.HasPrinter == nil && f.Building == nil
}

// Resolve intersects per-dimension bucket lookups against the filter set.
//
// applied is false when no filter key is present: the resolver is a no-op and
// the caller must supply the full space universe itself. Any present key whose
// bucket does not exist in the index empties the whole result (fails closed).
// An empty intersection is a valid zero-match outcome, not an error.
func Resolve(idx *Index, f Filters) (ids []int64, applied bool) {
	if f.Empty() {
		return nil, false
	}

	type lookup struct {
		dim string
		key string
	}
	var lookups []lookup
	if f.CapacityRange != nil {
		lookups = append(lookups, lookup{DimCapacity, strings.TrimSpace(*f.CapacityRange)})
	}
	if f.TalkingAllowed != nil {
		lookups = append(lookups, lookup{DimTalking, boolKey(*f.TalkingAllowed)})
	}
	if f.StudyRoom != nil {
		lookups = append(lookups, lookup{DimStudyRoom, boolKey(*f.StudyRoom)})
	}
	if f.Indoor != nil {
		lookups = append(lookups, lookup{DimIndoor, boolKey(*f.Indoor)})
	}
	if f.TechEnhanced != nil {
		lookups = append(lookups, lookup{DimTechEnhanced, boolKey(*f.TechEnhanced)})
	}
	if f.HasPrinter != nil {
		lookups = append(lookups, lookup{DimHasPrinter, boolKey(*f.HasPrinter)})
	}
	if f.Building != nil {
		lookups = append(lookups, lookup{DimBuilding, strings.ToUpper(strings.TrimSpace(*f.Building))})
	}

	var result map[int64]struct{}
	for _, l := range lookups {
		bucket, ok := idx.Lookup(l.dim, l.key)
		if !ok {
			return []int64{}, true
		}
		if result == nil {
			result = make(map[int64]struct{}, len(bucket))
			for _, id := range bucket {
				result[id] = struct{}{}
			}
			continue
		}
		next := make(map[int64]struct{}, len(result))
		for _, id := range bucket {
			if _, hit := result[id]; hit {
				next[id] = struct{}{}
			}
		}
		result = next
		if len(result) == 0 {
			return []int64{}, true
		}
	}

	ids = make([]int64, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, true
}
