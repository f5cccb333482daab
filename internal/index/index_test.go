package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyspot-backend/internal/store"
)

func intPtr(n int) *int       { return &n }
func boolP(b bool) *bool      { return &b }
func strPtr(s string) *string { return &s }

func sampleDetails() []store.SpaceDetail {
	return []store.SpaceDetail{
		{ID: 1, Capacity: intPtr(3), Indoor: true, TalkingAllowed: true, MustReserve: true, TechEnhanced: true, BuildingID: strPtr("LLIB"), HasPrinter: boolP(true)},
		{ID: 2, Capacity: intPtr(8), Indoor: true, TalkingAllowed: false, BuildingID: strPtr("LLIB"), HasPrinter: boolP(true)},
		{ID: 3, Capacity: intPtr(25), Indoor: false, BuildingID: strPtr("GSC"), HasPrinter: boolP(false)},
		{ID: 4, Indoor: true}, // unknown capacity, no building
	}
}

func TestBuildPartitioning(t *testing.T) {
	idx := Build(sampleDetails())

	ids, ok := idx.Lookup(DimCapacity, "1-4")
	require.True(t, ok)
	assert.Equal(t, []int64{1}, ids)

	ids, ok = idx.Lookup(DimCapacity, "5-10")
	require.True(t, ok)
	assert.Equal(t, []int64{2}, ids)

	ids, ok = idx.Lookup(DimCapacity, "20+")
	require.True(t, ok)
	assert.Equal(t, []int64{3}, ids)

	// Space 4 has no capacity and must not appear in any capacity bucket.
	for _, bucket := range idx.Dimensions[DimCapacity] {
		assert.NotContains(t, bucket, int64(4))
	}

	ids, ok = idx.Lookup(DimIndoor, "true")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2, 4}, ids)

	// Space 4 has no building, so neither printer bucket may hold it.
	for _, bucket := range idx.Dimensions[DimHasPrinter] {
		assert.NotContains(t, bucket, int64(4))
	}

	ids, ok = idx.Lookup(DimBuilding, "LLIB")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, ok = idx.Lookup(DimStudyRoom, "true")
	require.True(t, ok)
	assert.Equal(t, []int64{1}, ids)
}

func TestBuildIdempotent(t *testing.T) {
	first := Build(sampleDetails())
	second := Build(sampleDetails())
	assert.Equal(t, first.Dimensions, second.Dimensions)
}

func TestSaveAndLoadArtifact(t *testing.T) {
	idx := Build(sampleDetails())
	path := filepath.Join(t.TempDir(), "filters_index.json")

	require.NoError(t, idx.Save(path))

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, idx.Dimensions, loaded.Dimensions)
	assert.Equal(t, idx.SpaceCount, loaded.SpaceCount)

	// Saving again over the existing artifact must succeed (atomic replace).
	require.NoError(t, idx.Save(path))
}

func TestLoadArtifactMissing(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
