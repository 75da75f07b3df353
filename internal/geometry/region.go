package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Region type tags as they appear in the configuration.
const (
	TypeBoundingBox = "BoundingBox"
	TypePolygon     = "Polygon"
	TypeLine        = "Line"
)

// ErrDegenerate is returned for regions whose shape cannot be measured.
var ErrDegenerate = errors.New("degenerate region")

// zTolerance is the maximum height difference for a sample to count as being
// on the same level as a region.
const zTolerance = 1e-9

// Region is the capability shared by every measurement region.
type Region interface {
	ID() int
	// Type returns the configuration tag. Algorithms never switch on it.
	Type() string
	// ZPos returns the height the region lives at, if one was configured.
	ZPos() (float64, bool)
}

// Area is a region with an interior.
type Area interface {
	Region
	Contains(p orb.Point) bool
	CoveredBy(p orb.Point) bool
	// Edges returns the outer ring edges in ring order.
	Edges() []Segment
	Polygon() orb.Polygon
	Bound() orb.Bound
	// MovementLength is the length of the area in the main walking direction.
	MovementLength() (float64, bool)
	OrthogonalLength() (float64, bool)
}

// Line is a region made of a single segment.
type Line interface {
	Region
	Segment() Segment
}

// SameLevel reports whether a sample at height z belongs to the region's
// level. Regions without a z position accept every sample.
func SameLevel(r Region, z float64) bool {
	zr, ok := r.ZPos()
	if !ok {
		return true
	}
	return math.Abs(zr-z) <= zTolerance
}

// Lengths holds the optional extents of an area.
type Lengths struct {
	Movement   float64
	Orthogonal float64
}

// PolygonArea is a polygonal measurement area, optionally with holes.
type PolygonArea struct {
	id      int
	tag     string
	poly    orb.Polygon
	z       float64
	hasZ    bool
	lengths Lengths
}

// NewPolygonArea builds an area from its outer ring and optional holes. Open
// rings are closed. Lengths that are zero or negative are treated as unset.
func NewPolygonArea(id int, tag string, outer []orb.Point, holes ...[]orb.Point) *PolygonArea {
	if tag == "" {
		tag = TypePolygon
	}
	poly := orb.Polygon{closeRing(outer)}
	for _, h := range holes {
		poly = append(poly, closeRing(h))
	}
	return &PolygonArea{id: id, tag: tag, poly: poly}
}

// NewBoxArea builds a rectangular BoundingBox area from an orb bound.
func NewBoxArea(id int, b orb.Bound) *PolygonArea {
	return &PolygonArea{
		id:   id,
		tag:  TypeBoundingBox,
		poly: orb.Polygon{b.ToRing()},
	}
}

// WithZ sets the height of the area and returns it.
func (a *PolygonArea) WithZ(z float64) *PolygonArea {
	a.z = z
	a.hasZ = true
	return a
}

// WithLengths sets the movement and orthogonal lengths and returns the area.
func (a *PolygonArea) WithLengths(l Lengths) *PolygonArea {
	a.lengths = l
	return a
}

func closeRing(pts []orb.Point) orb.Ring {
	ring := make(orb.Ring, len(pts), len(pts)+1)
	copy(ring, pts)
	if len(ring) > 0 && !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring
}

func (a *PolygonArea) ID() int      { return a.id }
func (a *PolygonArea) Type() string { return a.tag }

func (a *PolygonArea) ZPos() (float64, bool) { return a.z, a.hasZ }

func (a *PolygonArea) Contains(p orb.Point) bool  { return Contains(p, a.poly) }
func (a *PolygonArea) CoveredBy(p orb.Point) bool { return CoveredBy(p, a.poly) }

func (a *PolygonArea) Polygon() orb.Polygon { return a.poly }
func (a *PolygonArea) Bound() orb.Bound     { return a.poly.Bound() }

func (a *PolygonArea) Edges() []Segment {
	if len(a.poly) == 0 {
		return nil
	}
	return ringEdges(a.poly[0])
}

func (a *PolygonArea) MovementLength() (float64, bool) {
	return a.lengths.Movement, a.lengths.Movement > 0
}

func (a *PolygonArea) OrthogonalLength() (float64, bool) {
	return a.lengths.Orthogonal, a.lengths.Orthogonal > 0
}

// Centroid returns the area-weighted centroid of the outer ring minus holes.
func (a *PolygonArea) Centroid() orb.Point {
	c, _ := planar.CentroidArea(a.poly)
	return c
}

// VertexCount returns the number of distinct vertices of the outer ring.
func (a *PolygonArea) VertexCount() int {
	if len(a.poly) == 0 {
		return 0
	}
	n := len(a.poly[0])
	if n > 1 && a.poly[0][0].Equal(a.poly[0][n-1]) {
		n--
	}
	return n
}

// Validate reports ErrDegenerate when the outer ring has fewer than three
// vertices.
func (a *PolygonArea) Validate() error {
	if n := a.VertexCount(); n < 3 {
		return fmt.Errorf("area %d has %d vertices, need at least 3: %w", a.id, n, ErrDegenerate)
	}
	return nil
}

// LineArea is a measurement line.
type LineArea struct {
	id   int
	seg  Segment
	z    float64
	hasZ bool
}

// NewLineArea builds a measurement line between two endpoints.
func NewLineArea(id int, start, end orb.Point) *LineArea {
	return &LineArea{id: id, seg: Segment{A: start, B: end}}
}

// WithZ sets the height of the line and returns it.
func (l *LineArea) WithZ(z float64) *LineArea {
	l.z = z
	l.hasZ = true
	return l
}

func (l *LineArea) ID() int               { return l.id }
func (l *LineArea) Type() string          { return TypeLine }
func (l *LineArea) ZPos() (float64, bool) { return l.z, l.hasZ }
func (l *LineArea) Segment() Segment      { return l.seg }

// Validate reports ErrDegenerate when both endpoints coincide.
func (l *LineArea) Validate() error {
	if l.seg.Degenerate() {
		return fmt.Errorf("line %d has coincident endpoints: %w", l.id, ErrDegenerate)
	}
	return nil
}

// LineWithin reports whether both endpoints of the line are covered by the
// area and both live at the same height.
func LineWithin(l Line, a Area) bool {
	s := l.Segment()
	if !a.CoveredBy(s.A) || !a.CoveredBy(s.B) {
		return false
	}
	zl, okL := l.ZPos()
	za, okA := a.ZPos()
	if okL != okA {
		return false
	}
	return !okL || math.Abs(zl-za) <= zTolerance
}
