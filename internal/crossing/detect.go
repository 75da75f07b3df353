package crossing

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/banshee-data/pedflow/internal/geometry"
	"github.com/banshee-data/pedflow/internal/trajectory"
)

// Unset marks an exit that was never observed because the pedestrian was
// still inside at the last frame of the trajectory. Aggregation treats it as
// leaving after that frame.
const Unset = -1

// Interval is one stay of a pedestrian inside an area. Entrance and Exit are
// re-based frame numbers; the stay covers [Entrance, Exit).
type Interval struct {
	Entrance      int
	Exit          int
	EntrancePoint orb.Point
	ExitPoint     orb.Point
}

// Open reports whether the pedestrian was still inside at the last frame of
// the trajectory.
func (iv Interval) Open() bool { return iv.Exit == Unset }

// Detect scans the path of one pedestrian, indexed by frame, and returns
// every interval it spends inside area, in frame order. Samples that are not
// valid or lie on a different level than the area are treated as absent.
func Detect(path []trajectory.Sample, area geometry.Area, p Policy) []Interval {
	d := &detector{
		path:      path,
		area:      area,
		policy:    p,
		edges:     area.Edges(),
		entryEdge: -1,
	}
	return d.scan()
}

// DetectFirst returns the first interval of the path, for consumers that
// measure a single stay. ok is false when the pedestrian never entered.
func DetectFirst(path []trajectory.Sample, area geometry.Area, p Policy) (iv Interval, ok bool) {
	ivs := Detect(path, area, p)
	if len(ivs) == 0 {
		return Interval{}, false
	}
	return ivs[0], true
}

// DetectAll runs Detect for every pedestrian of the snapshot. Pedestrians
// that never entered are absent from the result.
func DetectAll(snap *trajectory.Snapshot, area geometry.Area, p Policy) map[int][]Interval {
	out := make(map[int][]Interval)
	for _, ped := range snap.Pedestrians() {
		if ivs := Detect(snap.Path(ped), area, p); len(ivs) > 0 {
			out[ped] = ivs
		}
	}
	return out
}

type detector struct {
	path   []trajectory.Sample
	area   geometry.Area
	policy Policy
	edges  []geometry.Segment

	// entryEdge is the edge index crossed by the open interval, -1 if the
	// pedestrian was first seen inside.
	entryEdge int

	in  bool
	cur Interval
	out []Interval
}

func (d *detector) scan() []Interval {
	last := -1
	for f := range d.path {
		s, ok := d.sample(f)
		if !ok {
			continue
		}
		last = f
		if d.policy.Interpolation != NoInterpolation {
			d.stepInterpolated(f, s)
		} else {
			d.step(f, s)
		}
	}
	if d.in {
		// a track that ends inside, before the trajectory does, leaves
		// after its last usable sample
		if last < len(d.path)-1 {
			d.cur.Exit = last + 1
			d.cur.ExitPoint = d.path[last].Point()
		}
		d.out = append(d.out, d.cur)
	}
	return d.out
}

// sample returns the usable sample at f, if any.
func (d *detector) sample(f int) (trajectory.Sample, bool) {
	if f < 0 || f >= len(d.path) {
		return trajectory.Sample{}, false
	}
	s := d.path[f]
	if !s.Valid || !geometry.SameLevel(d.area, s.Z) {
		return trajectory.Sample{}, false
	}
	return s, true
}

// ruleSample picks the sample a rule is tested on. A look-ahead rule has no
// sample when the successor is missing.
func (d *detector) ruleSample(r Rule, f int, cur trajectory.Sample) (trajectory.Sample, bool) {
	if r.Sample == Current {
		return cur, true
	}
	return d.sample(f + 1)
}

func (d *detector) inside(s trajectory.Sample, b Boundary) bool {
	if b == Inclusive {
		return d.area.CoveredBy(s.Point())
	}
	return d.area.Contains(s.Point())
}

func (d *detector) enter(f int, p orb.Point) {
	d.cur = Interval{Entrance: f, Exit: Unset, EntrancePoint: p}
	d.in = true
}

func (d *detector) leave(f int, p orb.Point) {
	d.cur.Exit = f
	d.cur.ExitPoint = p
	d.out = append(d.out, d.cur)
	d.in = false
	d.entryEdge = -1
}

func (d *detector) step(f int, s trajectory.Sample) {
	if !d.in {
		if t, ok := d.ruleSample(d.policy.Entrance, f, s); ok && d.inside(t, d.policy.Entrance.Boundary) {
			d.enter(f, s.Point())
		}
		return
	}
	if t, ok := d.ruleSample(d.policy.Exit, f, s); ok && !d.inside(t, d.policy.Exit.Boundary) {
		d.leave(f, s.Point())
	}
}

func (d *detector) stepInterpolated(f int, s trajectory.Sample) {
	covered := d.area.CoveredBy(s.Point())
	next, hasNext := d.sample(f + 1)

	if !d.in {
		switch {
		case covered:
			// first observation, or first after a gap, is already inside
			d.entryEdge = -1
			d.enter(f, s.Point())
		case hasNext && d.area.CoveredBy(next.Point()):
			seg := geometry.Segment{A: s.Point(), B: next.Point()}
			edge := d.crossedEdge(seg, s.Point())
			frame := d.assign(f, s, next, edge)
			d.entryEdge = edge
			d.enter(frame, d.path[frame].Point())
		}
		return
	}

	switch {
	case !covered:
		// the outside neighbour was missing, so the crossing is this sample
		d.leave(f, s.Point())
	case hasNext && !d.area.CoveredBy(next.Point()):
		seg := geometry.Segment{A: s.Point(), B: next.Point()}
		edge := d.exitEdge(seg, next.Point())
		frame := d.assign(f, s, next, edge)
		d.leave(frame, d.path[frame].Point())
	}
}

// crossedEdge returns the index of the edge intersected by seg that is
// closest to the outside sample, or -1.
func (d *detector) crossedEdge(seg geometry.Segment, outside orb.Point) int {
	best, bestDist := -1, math.Inf(1)
	for i, e := range d.edges {
		if !geometry.Intersects(seg, e) {
			continue
		}
		if dist := geometry.DistanceToSegment(outside, e); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// exitEdge pairs a quadrilateral's entry edge p with edge (p+2) mod 4.
// Other shapes, and stays without a known entry edge, use the edge crossed.
func (d *detector) exitEdge(seg geometry.Segment, outside orb.Point) int {
	if len(d.edges) == 4 && d.entryEdge >= 0 {
		return (d.entryEdge + 2) % 4
	}
	return d.crossedEdge(seg, outside)
}

// assign gives the crossing between frames f and f+1 to the sample nearer
// the edge. Without an edge the crossing goes to f+1.
func (d *detector) assign(f int, a, b trajectory.Sample, edge int) int {
	if edge < 0 {
		return f + 1
	}
	e := d.edges[edge]
	d1 := geometry.DistanceToSegment(a.Point(), e)
	d2 := geometry.DistanceToSegment(b.Point(), e)
	if d.policy.Interpolation == TiesEarlier {
		if d1 <= d2 {
			return f
		}
		return f + 1
	}
	if d1 < d2 {
		return f
	}
	return f + 1
}
