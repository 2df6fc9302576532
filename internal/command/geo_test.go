package command

import (
	"testing"
	"time"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/util"
	"github.com/stretchr/testify/require"
)

func seedGeo(t *testing.T, eng *engine.Store, now time.Time) {
	t.Helper()
	cmd := &GeoAddCmd{Key: "places", Items: []engine.GeoItem{
		{Tag: "a", Lat: 1, Lng: 1},
		{Tag: "b", Lat: 1.001, Lng: 1.001},
	}}
	require.Equal(t, int64(2), cmd.Apply(eng, nil, now).Int)
}

func TestGeoAddThenGeoPos(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	seedGeo(t, eng, now)

	f := (&GeoPosCmd{Key: "places", Tags: []string{"a", "missing"}}).Apply(eng, nil, now)
	require.Len(t, f.Items, 2)
	require.Len(t, f.Items[0].Items, 2)
	require.Empty(t, f.Items[1].Items)
}

func TestGeoDistBetweenNearbyMembers(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	seedGeo(t, eng, now)

	f := (&GeoDistCmd{Key: "places", MemberA: "a", MemberB: "b", Unit: util.UnitMeters}).Apply(eng, nil, now)
	require.NotEmpty(t, f.Bulk)
}

func TestGeoDistUnknownMemberErrors(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	seedGeo(t, eng, now)

	f := (&GeoDistCmd{Key: "places", MemberA: "a", MemberB: "ghost", Unit: util.UnitMeters}).Apply(eng, nil, now)
	require.Equal(t, "ERR member not found", f.ErrMsg)
}

func TestGeoRadiusFindsNearbyMembers(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	seedGeo(t, eng, now)

	f := (&GeoRadiusCmd{Key: "places", Lat: 1, Lng: 1, Radius: 1, Unit: util.UnitKilometers}).Apply(eng, nil, now)
	require.Len(t, f.Items, 2)
}

func TestGeoRemoveAndGeoDel(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	seedGeo(t, eng, now)

	f := (&GeoRemoveCmd{Key: "places", Tags: []string{"a"}}).Apply(eng, nil, now)
	require.Equal(t, int64(1), f.Int)

	f = (&GeoDelCmd{Key: "places"}).Apply(eng, nil, now)
	require.Equal(t, int64(1), f.Int)

	f = (&GeoDelCmd{Key: "places"}).Apply(eng, nil, now)
	require.Equal(t, int64(0), f.Int)
}

func TestGeoHashOnWrongTypeKeyErrors(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	eng.Set("notgeo", engine.StringValue("hi"), nil)

	f := (&GeoHashCmd{Key: "notgeo", Tags: []string{"a"}}).Apply(eng, nil, now)
	require.Equal(t, "ERR", f.ErrMsg)
}

func TestGeoJSONRendersFeatureCollection(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	seedGeo(t, eng, now)

	f := (&GeoJSONCmd{Key: "places"}).Apply(eng, nil, now)
	require.Contains(t, string(f.Bulk), "FeatureCollection")
}
