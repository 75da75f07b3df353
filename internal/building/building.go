// Package building models the walkable rooms of a scenario and resolves
// which room a measurement area belongs to.
package building

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/pedflow/internal/fsutil"
	"github.com/banshee-data/pedflow/internal/geometry"
	"github.com/banshee-data/pedflow/internal/trajectory"
)

var (
	// ErrNoRooms is returned for a building without any room.
	ErrNoRooms = errors.New("building has no rooms")
	// ErrNoRoom is returned when an area's centroid lies in no room.
	ErrNoRoom = errors.New("no room contains the measurement area")
)

// DefaultMargin is the margin added around the rooms' bounding box.
const DefaultMargin = 10.0

// Room is one walkable polygon in metres.
type Room struct {
	ID      int
	Name    string
	Polygon orb.Polygon
}

// Building is the set of rooms trajectories are expected to stay in.
type Building struct {
	Rooms []Room
}

// New returns a building made of rooms.
func New(rooms ...Room) (*Building, error) {
	if len(rooms) == 0 {
		return nil, ErrNoRooms
	}
	return &Building{Rooms: rooms}, nil
}

// LoadGeoJSON reads rooms from a GeoJSON feature collection. Polygon
// features become one room, multi polygons one room per part. The optional
// "id" and "name" properties label the rooms.
func LoadGeoJSON(fsys fsutil.FileSystem, path string) (*Building, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry file: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geometry file %s: %w", path, err)
	}

	var rooms []Room
	for i, f := range fc.Features {
		id := i + 1
		if v, ok := f.Properties["id"].(float64); ok {
			id = int(v)
		}
		name, _ := f.Properties["name"].(string)

		switch g := f.Geometry.(type) {
		case orb.Polygon:
			rooms = append(rooms, Room{ID: id, Name: name, Polygon: g})
		case orb.MultiPolygon:
			for _, p := range g {
				rooms = append(rooms, Room{ID: id, Name: name, Polygon: p})
			}
		default:
			return nil, fmt.Errorf("feature %d: unsupported geometry %s", i, f.Geometry.GeoJSONType())
		}
	}
	return New(rooms...)
}

// Polygons returns the room polygons in room order.
func (b *Building) Polygons() []orb.Polygon {
	out := make([]orb.Polygon, len(b.Rooms))
	for i, r := range b.Rooms {
		out[i] = r.Polygon
	}
	return out
}

// Bound returns the envelope of all rooms padded by margin.
func (b *Building) Bound(margin float64) orb.Bound {
	box, _ := geometry.BoundingBox(b.Polygons(), margin)
	return box
}

// Contains reports whether p lies in any room, boundary included.
func (b *Building) Contains(p orb.Point) bool {
	for _, r := range b.Rooms {
		if geometry.CoveredBy(p, r.Polygon) {
			return true
		}
	}
	return false
}

// RoomForArea returns the first room that covers the centroid of the area.
func (b *Building) RoomForArea(a geometry.Area) (Room, error) {
	i, err := b.roomIndex(a)
	if err != nil {
		return Room{}, err
	}
	return b.Rooms[i], nil
}

func (b *Building) roomIndex(a geometry.Area) (int, error) {
	c, _ := planar.CentroidArea(a.Polygon())
	for i, r := range b.Rooms {
		if geometry.CoveredBy(c, r.Polygon) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("area %d centroid (%.2f, %.2f): %w", a.ID(), c[0], c[1], ErrNoRoom)
}

// GridBounds returns the envelope of the rooms holding the given areas,
// which bounds any per-area spatial grid. Parts of a multi polygon share
// an ID, so rooms are told apart by position.
func (b *Building) GridBounds(areas []geometry.Area) (orb.Bound, error) {
	var polys []orb.Polygon
	seen := make(map[int]bool)
	for _, a := range areas {
		i, err := b.roomIndex(a)
		if err != nil {
			return orb.Bound{}, err
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		polys = append(polys, b.Rooms[i].Polygon)
	}
	box, ok := geometry.BoundingBox(polys, 0)
	if !ok {
		return orb.Bound{}, ErrNoRooms
	}
	return box, nil
}

// Stray is the first sample of a pedestrian found outside every room.
type Stray struct {
	Ped   int
	Frame int
	Point orb.Point
}

// Strays returns, per pedestrian, the first sample outside the building, in
// pedestrian order.
func (b *Building) Strays(snap *trajectory.Snapshot) []Stray {
	var out []Stray
	for _, ped := range snap.Pedestrians() {
		for f := 0; f < snap.NumFrames(); f++ {
			s := snap.Sample(ped, f)
			if !s.Valid || b.Contains(s.Point()) {
				continue
			}
			out = append(out, Stray{Ped: ped, Frame: f, Point: s.Point()})
			break
		}
	}
	return out
}
