package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveNoFilters(t *testing.T) {
	idx := Build(sampleDetails())
	_, applied := Resolve(idx, Filters{})
	assert.False(t, applied, "an empty filter set must be a no-op")
}

func TestResolveIntersection(t *testing.T) {
	idx := Build(sampleDetails())

	// One indoor capacity-3 space and one space outside both buckets.
	ids, applied := Resolve(idx, Filters{
		CapacityRange: strPtr("1-4"),
		Indoor:        boolP(true),
	})
	assert.True(t, applied)
	assert.Equal(t, []int64{1}, ids)
}

func TestResolveFailsClosed(t *testing.T) {
	idx := Build(sampleDetails())

	testCases := []struct {
		name    string
		filters Filters
	}{
		{"invalid capacity bucket", Filters{CapacityRange: strPtr("2-6")}},
		{"unknown building", Filters{Building: strPtr("NOPE")}},
		{"unknown building with valid second key", Filters{Building: strPtr("NOPE"), Indoor: boolP(true)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ids, applied := Resolve(idx, tc.filters)
			assert.True(t, applied)
			assert.Empty(t, ids)
		})
	}
}

func TestResolveBuildingCaseInsensitive(t *testing.T) {
	idx := Build(sampleDetails())
	ids, applied := Resolve(idx, Filters{Building: strPtr("llib")})
	assert.True(t, applied)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestResolveEmptyIntersectionIsNotAnError(t *testing.T) {
	idx := Build(sampleDetails())
	// Study rooms (1) intersected with outdoor spaces (3) share nothing.
	ids, applied := Resolve(idx, Filters{
		StudyRoom: boolP(true),
		Indoor:    boolP(false),
	})
	assert.True(t, applied)
	assert.Empty(t, ids)
}
