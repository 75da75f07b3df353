package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// BoundaryEpsilon is the absolute distance under which a point counts as
// lying on a region edge.
const BoundaryEpsilon = 1e-9

// Segment is a closed straight segment between two points.
type Segment struct {
	A orb.Point
	B orb.Point
}

// Length returns the euclidean length of the segment.
func (s Segment) Length() float64 {
	return planar.Distance(s.A, s.B)
}

// Degenerate reports whether both endpoints coincide.
func (s Segment) Degenerate() bool {
	return s.Length() <= BoundaryEpsilon
}

// OnBoundary reports whether p lies on any ring of the polygon.
func OnBoundary(p orb.Point, poly orb.Polygon) bool {
	for _, ring := range poly {
		for _, e := range ringEdges(ring) {
			if DistanceToSegment(p, e) <= BoundaryEpsilon {
				return true
			}
		}
	}
	return false
}

// CoveredBy reports whether p is inside the polygon or on its boundary.
func CoveredBy(p orb.Point, poly orb.Polygon) bool {
	if len(poly) == 0 || len(poly[0]) < 3 {
		return false
	}
	if planar.PolygonContains(poly, p) {
		return true
	}
	return OnBoundary(p, poly)
}

// Contains reports whether p lies strictly inside the polygon. Points on the
// outer ring or on a hole ring are not contained.
func Contains(p orb.Point, poly orb.Polygon) bool {
	if len(poly) == 0 || len(poly[0]) < 3 {
		return false
	}
	return planar.PolygonContains(poly, p) && !OnBoundary(p, poly)
}

// DistanceToSegment returns the shortest distance from p to s.
func DistanceToSegment(p orb.Point, s Segment) float64 {
	return planar.DistanceFromSegment(s.A, s.B, p)
}

// Distance returns the shortest distance from p to the nearest vertex or edge
// of g.
func Distance(p orb.Point, g orb.Geometry) float64 {
	return planar.DistanceFrom(g, p)
}

// Intersects reports whether two segments share at least one point, touching
// endpoints included.
func Intersects(a, b Segment) bool {
	d1 := orientation(b.A, b.B, a.A)
	d2 := orientation(b.A, b.B, a.B)
	d3 := orientation(a.A, a.B, b.A)
	d4 := orientation(a.A, a.B, b.B)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// collinear and touching cases
	if d1 == 0 && onSegment(a.A, b) {
		return true
	}
	if d2 == 0 && onSegment(a.B, b) {
		return true
	}
	if d3 == 0 && onSegment(b.A, a) {
		return true
	}
	if d4 == 0 && onSegment(b.B, a) {
		return true
	}
	return false
}

// orientation returns the sign of the cross product (b-a)x(c-a), snapped to
// zero within BoundaryEpsilon.
func orientation(a, b, c orb.Point) int {
	v := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	switch {
	case math.Abs(v) <= BoundaryEpsilon:
		return 0
	case v > 0:
		return 1
	default:
		return -1
	}
}

func onSegment(p orb.Point, s Segment) bool {
	return p[0] >= math.Min(s.A[0], s.B[0])-BoundaryEpsilon &&
		p[0] <= math.Max(s.A[0], s.B[0])+BoundaryEpsilon &&
		p[1] >= math.Min(s.A[1], s.B[1])-BoundaryEpsilon &&
		p[1] <= math.Max(s.A[1], s.B[1])+BoundaryEpsilon
}

// ringEdges returns the edges of a ring, closing it if the last vertex does
// not repeat the first.
func ringEdges(r orb.Ring) []Segment {
	n := len(r)
	if n < 2 {
		return nil
	}
	edges := make([]Segment, 0, n)
	for i := 0; i < n-1; i++ {
		edges = append(edges, Segment{A: r[i], B: r[i+1]})
	}
	if !r[0].Equal(r[n-1]) {
		edges = append(edges, Segment{A: r[n-1], B: r[0]})
	}
	return edges
}

// BoundingBox returns the envelope of the union of the polygons, expanded by
// margin on every side. ok is false when there is nothing to bound.
func BoundingBox(polygons []orb.Polygon, margin float64) (box orb.Bound, ok bool) {
	for _, poly := range polygons {
		if len(poly) == 0 || len(poly[0]) == 0 {
			continue
		}
		if !ok {
			box = poly.Bound()
			ok = true
			continue
		}
		box = box.Union(poly.Bound())
	}
	if !ok {
		return orb.Bound{}, false
	}
	return box.Pad(margin), true
}
