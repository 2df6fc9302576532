package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexUpsertGetDelete(t *testing.T) {
	idx := NewIndex()
	assert.True(t, idx.Upsert("sicily", 37.75, 15.03, nil))
	assert.False(t, idx.Upsert("sicily", 37.75, 15.03, nil), "re-adding an existing tag is an update, not an insert")
	assert.Equal(t, 1, idx.Len())

	p, ok := idx.Get("sicily")
	require.True(t, ok)
	assert.Equal(t, "sicily", p.Tag)
	assert.NotEmpty(t, p.Hash)

	assert.True(t, idx.Delete("sicily"))
	assert.False(t, idx.Delete("sicily"))
	assert.Equal(t, 0, idx.Len())
}

func TestIndexRadius(t *testing.T) {
	idx := NewIndex()
	idx.Upsert("palermo", 38.1157, 13.3615, nil)
	idx.Upsert("catania", 37.5079, 15.0830, nil)
	idx.Upsert("agrigento", 37.3257, 13.5765, nil)

	near := idx.Radius(38.1157, 13.3615, 1000)
	require.Len(t, near, 1)
	assert.Equal(t, "palermo", near[0].Point.Tag)
	assert.InDelta(t, 0, near[0].Meters, 1e-6)

	far := idx.Radius(38.1157, 13.3615, 400_000)
	require.Len(t, far, 3)
	assert.Equal(t, "palermo", far[0].Point.Tag, "origin itself sorts first")
}

func TestIndexMergeIsUnion(t *testing.T) {
	a := NewIndex()
	a.Upsert("x", 1, 1, nil)
	b := NewIndex()
	b.Upsert("y", 2, 2, nil)
	b.Upsert("x", 9, 9, nil) // same tag, different coordinates

	a.Merge(b)

	assert.Equal(t, 2, a.Len())
	p, ok := a.Get("x")
	require.True(t, ok)
	assert.Equal(t, 9.0, p.Lat, "merge upserts, so b's value for a shared tag wins")
}

func TestIndexJSONRoundTrip(t *testing.T) {
	idx := NewIndex()
	idx.Upsert("a", 10, 20, json.RawMessage(`{"note":"home"}`))
	idx.Upsert("b", -5, 100, nil)

	data, err := json.Marshal(idx)
	require.NoError(t, err)

	out := NewIndex()
	require.NoError(t, json.Unmarshal(data, out))
	assert.Equal(t, idx.Len(), out.Len())

	p, ok := out.Get("a")
	require.True(t, ok)
	assert.JSONEq(t, `{"note":"home"}`, string(p.Data))
}

func TestIndexClonedIsIndependent(t *testing.T) {
	idx := NewIndex()
	idx.Upsert("a", 1, 1, nil)
	clone := idx.Clone()
	clone.Upsert("b", 2, 2, nil)

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestHaversineMetersZeroAtSamePoint(t *testing.T) {
	assert.InDelta(t, 0, HaversineMeters(10, 20, 10, 20), 1e-9)
}

func TestToGeoJSONUsesLatLngOrder(t *testing.T) {
	idx := NewIndex()
	idx.Upsert("p", 10, 20, nil)
	fc := idx.ToGeoJSON()
	require.Len(t, fc.Features, 1)
	assert.Equal(t, []float64{10, 20}, fc.Features[0].Geometry.Coordinates)
}
