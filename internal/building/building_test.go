package building

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pedflow/internal/fsutil"
	"github.com/banshee-data/pedflow/internal/geometry"
	"github.com/banshee-data/pedflow/internal/testutil"
)

const twoRooms = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"id": 10, "name": "corridor"},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,4],[0,4],[0,0]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "hall"},
      "geometry": {"type": "Polygon", "coordinates": [[[10,0],[20,0],[20,10],[10,10],[10,0]]]}
    }
  ]
}`

func loadTwoRooms(t *testing.T) *Building {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/geo/rooms.geojson", []byte(twoRooms), 0o644))
	b, err := LoadGeoJSON(mfs, "/geo/rooms.geojson")
	require.NoError(t, err)
	return b
}

func TestLoadGeoJSON(t *testing.T) {
	t.Parallel()
	b := loadTwoRooms(t)
	require.Len(t, b.Rooms, 2)
	assert.Equal(t, 10, b.Rooms[0].ID)
	assert.Equal(t, "corridor", b.Rooms[0].Name)
	assert.Equal(t, 2, b.Rooms[1].ID, "defaults to the feature position")

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/bad.geojson", []byte(`{"type":"FeatureCollection","features":[`+
		`{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}]}`), 0o644))
	_, err := LoadGeoJSON(mfs, "/bad.geojson")
	assert.ErrorContains(t, err, "unsupported geometry")

	require.NoError(t, mfs.WriteFile("/empty.geojson", []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	_, err = LoadGeoJSON(mfs, "/empty.geojson")
	assert.ErrorIs(t, err, ErrNoRooms)

	_, err = LoadGeoJSON(mfs, "/missing.geojson")
	assert.Error(t, err)
}

func TestBound(t *testing.T) {
	t.Parallel()
	b := loadTwoRooms(t)
	box := b.Bound(DefaultMargin)
	assert.Equal(t, orb.Point{-10, -10}, box.Min)
	assert.Equal(t, orb.Point{30, 20}, box.Max)
}

func TestRoomForArea(t *testing.T) {
	t.Parallel()
	b := loadTwoRooms(t)

	inCorridor := geometry.NewBoxArea(1, orb.Bound{Min: orb.Point{2, 1}, Max: orb.Point{4, 3}})
	r, err := b.RoomForArea(inCorridor)
	require.NoError(t, err)
	assert.Equal(t, "corridor", r.Name)

	inHall := geometry.NewBoxArea(2, orb.Bound{Min: orb.Point{12, 5}, Max: orb.Point{14, 7}})
	r, err = b.RoomForArea(inHall)
	require.NoError(t, err)
	assert.Equal(t, "hall", r.Name)

	outside := geometry.NewBoxArea(3, orb.Bound{Min: orb.Point{30, 30}, Max: orb.Point{31, 31}})
	_, err = b.RoomForArea(outside)
	assert.ErrorIs(t, err, ErrNoRoom)

	box, err := b.GridBounds([]geometry.Area{inCorridor})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{10, 4}, box.Max)

	box, err = b.GridBounds([]geometry.Area{inCorridor, inHall})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{20, 10}, box.Max)

	_, err = b.GridBounds([]geometry.Area{outside})
	assert.ErrorIs(t, err, ErrNoRoom)
}

func TestGridBoundsMultiPolygonParts(t *testing.T) {
	t.Parallel()
	square := func(x0 float64) orb.Polygon {
		return orb.Polygon{{{x0, 0}, {x0 + 2, 0}, {x0 + 2, 2}, {x0, 2}, {x0, 0}}}
	}
	// both parts of one multi polygon feature
	b, err := New(Room{ID: 5, Polygon: square(0)}, Room{ID: 5, Polygon: square(10)})
	require.NoError(t, err)

	areas := []geometry.Area{
		geometry.NewBoxArea(1, orb.Bound{Min: orb.Point{0.5, 0.5}, Max: orb.Point{1.5, 1.5}}),
		geometry.NewBoxArea(2, orb.Bound{Min: orb.Point{10.5, 0.5}, Max: orb.Point{11.5, 1.5}}),
	}
	box, err := b.GridBounds(areas)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{0, 0}, box.Min)
	assert.Equal(t, orb.Point{12, 2}, box.Max)
}

func TestStrays(t *testing.T) {
	t.Parallel()
	b := loadTwoRooms(t)
	snap := testutil.BuildSnapshot(t, 10, 10,
		testutil.Walk{Ped: 1, First: 0, Last: 9, Start: orb.Point{1, 2}, Step: orb.Point{1, 0}},
		// leaves the corridor through its top wall at frame 4
		testutil.Walk{Ped: 2, First: 0, Last: 9, Start: orb.Point{1, 2}, Step: orb.Point{0, 0.6}},
	)

	strays := b.Strays(snap)
	require.Len(t, strays, 1)
	assert.Equal(t, 2, strays[0].Ped)
	assert.Equal(t, 4, strays[0].Frame)
	assert.True(t, b.Contains(orb.Point{10, 2}), "shared wall")
	assert.False(t, b.Contains(orb.Point{15, -1}))
}

func TestNewRequiresRooms(t *testing.T) {
	t.Parallel()
	_, err := New()
	assert.ErrorIs(t, err, ErrNoRooms)
}
