package crossing

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pedflow/internal/geometry"
	"github.com/banshee-data/pedflow/internal/trajectory"
)

// box2 is the square [0,2]x[0,2]; its edges run bottom, right, top, left.
func box2() *geometry.PolygonArea {
	return geometry.NewPolygonArea(1, geometry.TypeBoundingBox,
		[]orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}})
}

// walkX builds a path along y=1 with one sample per frame.
func walkX(xs ...float64) []trajectory.Sample {
	path := make([]trajectory.Sample, len(xs))
	for i, x := range xs {
		path[i] = trajectory.Sample{X: x, Y: 1, Valid: true}
	}
	return path
}

func allPolicies() []Policy {
	return Named()
}

func TestUnbrokenRunGivesOneInterval(t *testing.T) {
	t.Parallel()
	path := walkX(-1, -0.5, 0.5, 1.0, 1.5, 3, 4)

	for _, p := range allPolicies() {
		t.Run(p.Name, func(t *testing.T) {
			ivs := Detect(path, box2(), p)
			require.Len(t, ivs, 1)
			assert.NotEqual(t, Unset, ivs[0].Exit)
			assert.LessOrEqual(t, ivs[0].Entrance, ivs[0].Exit)
		})
	}
}

func TestPolicyFrames(t *testing.T) {
	t.Parallel()
	path := walkX(-1, -0.5, 0.5, 1.0, 1.5, 3, 4)

	tests := []struct {
		policy       Policy
		entrance     int
		exit         int
		entrancePt   orb.Point
		checkEntryPt bool
	}{
		{policy: StrictCurrent, entrance: 2, exit: 5, entrancePt: orb.Point{0.5, 1}, checkEntryPt: true},
		{policy: InclusiveCurrent, entrance: 2, exit: 5},
		{policy: StrictEntryInclusiveExit, entrance: 2, exit: 5},
		{policy: StrictLookAhead, entrance: 1, exit: 4, entrancePt: orb.Point{-0.5, 1}, checkEntryPt: true},
		{policy: CurrentEntryLookAheadExit, entrance: 2, exit: 4},
		{policy: LookAheadInclusiveEntryStrictExit, entrance: 1, exit: 4},
		{policy: EdieDefault, entrance: 2, exit: 5},
		// entry tie between -0.5 and 0.5, exit edge x=2 is nearer frame 4
		{policy: NearestLater, entrance: 2, exit: 4},
		{policy: NearestEarlier, entrance: 1, exit: 4},
	}
	for _, tt := range tests {
		t.Run(tt.policy.Name, func(t *testing.T) {
			ivs := Detect(path, box2(), tt.policy)
			require.Len(t, ivs, 1)
			assert.Equal(t, tt.entrance, ivs[0].Entrance, "entrance")
			assert.Equal(t, tt.exit, ivs[0].Exit, "exit")
			if tt.checkEntryPt {
				assert.Equal(t, tt.entrancePt, ivs[0].EntrancePoint)
			}
		})
	}
}

func TestBoundarySamples(t *testing.T) {
	t.Parallel()

	t.Run("entering on the edge", func(t *testing.T) {
		path := walkX(-1, 0, 1, 3)
		assert.Equal(t, 2, Detect(path, box2(), StrictCurrent)[0].Entrance)
		assert.Equal(t, 1, Detect(path, box2(), InclusiveCurrent)[0].Entrance)
		assert.Equal(t, 1, Detect(path, box2(), EdieDefault)[0].Entrance)
	})

	t.Run("leaving on the edge", func(t *testing.T) {
		path := walkX(-1, 1, 2, 3)
		assert.Equal(t, 2, Detect(path, box2(), EdieDefault)[0].Exit)
		assert.Equal(t, 3, Detect(path, box2(), InclusiveCurrent)[0].Exit)
	})

	t.Run("walking along the edge", func(t *testing.T) {
		path := make([]trajectory.Sample, 3)
		for i := range path {
			path[i] = trajectory.Sample{X: float64(i) * 0.5, Y: 0, Valid: true}
		}
		assert.Empty(t, Detect(path, box2(), StrictCurrent))
		ivs := Detect(path, box2(), InclusiveCurrent)
		require.Len(t, ivs, 1)
		assert.True(t, ivs[0].Open())
	})

	t.Run("edie policy along the edge", func(t *testing.T) {
		// entering needs the closed area and leaving the open interior, so
		// every boundary sample starts a stay and the next one ends it
		path := make([]trajectory.Sample, 4)
		for i := range path {
			path[i] = trajectory.Sample{X: float64(i) * 0.5, Y: 0, Valid: true}
		}
		ivs := Detect(path, box2(), EdieDefault)
		require.Len(t, ivs, 2)
		assert.Equal(t, 0, ivs[0].Entrance)
		assert.Equal(t, 1, ivs[0].Exit)
		assert.Equal(t, 2, ivs[1].Entrance)
		assert.Equal(t, 3, ivs[1].Exit)
	})
}

func TestReentry(t *testing.T) {
	t.Parallel()
	path := walkX(-1, 1, 3, 1.5, 0.5, -2)

	ivs := Detect(path, box2(), StrictCurrent)
	require.Len(t, ivs, 2)
	assert.Equal(t, Interval{Entrance: 1, Exit: 2, EntrancePoint: orb.Point{1, 1}, ExitPoint: orb.Point{3, 1}}, ivs[0])
	assert.Equal(t, 3, ivs[1].Entrance)
	assert.Equal(t, 5, ivs[1].Exit)
	assert.LessOrEqual(t, ivs[0].Exit, ivs[1].Entrance)

	first, ok := DetectFirst(path, box2(), StrictCurrent)
	require.True(t, ok)
	assert.Equal(t, ivs[0], first)
}

func TestNeverEntered(t *testing.T) {
	t.Parallel()
	path := walkX(-3, -2, -1, 3)
	for _, p := range allPolicies() {
		assert.Empty(t, Detect(path, box2(), p), p.Name)
	}
	_, ok := DetectFirst(path, box2(), StrictCurrent)
	assert.False(t, ok)
}

func TestInsideAtStartAndEnd(t *testing.T) {
	t.Parallel()
	path := walkX(-1, -1, 1, 1.2, 1.4)
	path[0].Valid = false
	path[1].Valid = false

	for _, p := range allPolicies() {
		t.Run(p.Name, func(t *testing.T) {
			ivs := Detect(path, box2(), p)
			require.Len(t, ivs, 1)
			assert.Equal(t, 2, ivs[0].Entrance, "first observed frame")
			assert.True(t, ivs[0].Open())
			assert.Equal(t, Unset, ivs[0].Exit)
		})
	}
}

func TestAbsentSamplesNeverCross(t *testing.T) {
	t.Parallel()
	// the area contains the origin, so zero-valued absent samples would
	// register as inside if they were used
	area := geometry.NewPolygonArea(2, "", []orb.Point{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}})
	path := []trajectory.Sample{
		{X: 5, Y: 5, Valid: true},
		{},
		{},
		{X: 6, Y: 6, Valid: true},
	}
	for _, p := range allPolicies() {
		assert.Empty(t, Detect(path, area, p), p.Name)
	}
}

func TestLookAheadSkipsMissingSuccessor(t *testing.T) {
	t.Parallel()
	path := walkX(-1, -1, 1, 1.5)
	path[1].Valid = false

	ivs := Detect(path, box2(), StrictLookAhead)
	require.Len(t, ivs, 1)
	assert.Equal(t, 2, ivs[0].Entrance)
	assert.True(t, ivs[0].Open(), "no successor after the last frame")
}

func TestInterpolationTies(t *testing.T) {
	t.Parallel()
	// frame 10 outside at x=-1 and frame 11 inside at x=1 straddle the left
	// edge at equal distance
	path := make([]trajectory.Sample, 12)
	path[10] = trajectory.Sample{X: -1, Y: 1, Valid: true}
	path[11] = trajectory.Sample{X: 1, Y: 1, Valid: true}

	later := Detect(path, box2(), NearestLater)
	require.Len(t, later, 1)
	assert.Equal(t, 11, later[0].Entrance)

	earlier := Detect(path, box2(), NearestEarlier)
	require.Len(t, earlier, 1)
	assert.Equal(t, 10, earlier[0].Entrance)
	assert.Equal(t, orb.Point{-1, 1}, earlier[0].EntrancePoint)
}

func TestInterpolationNearerSampleWins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		from float64
		to   float64
		want int
	}{
		{"outside sample nearer", -0.2, 1, 0},
		{"inside sample nearer", -1, 0.2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := walkX(tt.from, tt.to)
			for _, p := range []Policy{NearestLater, NearestEarlier} {
				ivs := Detect(path, box2(), p)
				require.Len(t, ivs, 1)
				assert.Equal(t, tt.want, ivs[0].Entrance, p.Name)
			}
		})
	}
}

func TestInterpolationExitEdge(t *testing.T) {
	t.Parallel()

	t.Run("rectangle uses the opposite edge", func(t *testing.T) {
		// enters through x=0 and turns back; distances are measured to x=2
		path := walkX(-1, 0.4, -0.1)
		ivs := Detect(path, box2(), NearestLater)
		require.Len(t, ivs, 1)
		assert.Equal(t, 1, ivs[0].Entrance)
		assert.Equal(t, 1, ivs[0].Exit)
	})

	t.Run("other shapes use the crossed edge", func(t *testing.T) {
		tri := geometry.NewPolygonArea(3, "", []orb.Point{{0, 0}, {4, 0}, {0, 4}})
		path := walkX(-1, 0.5, -0.1)
		ivs := Detect(path, tri, NearestLater)
		require.Len(t, ivs, 1)
		assert.Equal(t, 1, ivs[0].Entrance)
		assert.Equal(t, 2, ivs[0].Exit)
	})
}

func TestLevelFilter(t *testing.T) {
	t.Parallel()
	area := box2().WithZ(0)
	path := walkX(-1, 1, 1.5, 3)
	for i := range path {
		path[i].Z = 3
	}
	assert.Empty(t, Detect(path, area, StrictCurrent), "samples on another level are absent")

	path[1].Z = 0
	path[2].Z = 0
	ivs := Detect(path, area, StrictCurrent)
	require.Len(t, ivs, 1)
	assert.Equal(t, 1, ivs[0].Entrance)
	assert.Equal(t, 3, ivs[0].Exit, "the last sample is on another level")
}

func TestTrackEndingInside(t *testing.T) {
	t.Parallel()
	// observed in frames 0..3 of a 6 frame trajectory
	path := walkX(-1, 0.5, 1, 1.5, 0, 0)
	path[4].Valid = false
	path[5].Valid = false

	for _, p := range allPolicies() {
		t.Run(p.Name, func(t *testing.T) {
			ivs := Detect(path, box2(), p)
			require.Len(t, ivs, 1)
			assert.False(t, ivs[0].Open())
			assert.Equal(t, 4, ivs[0].Exit, "one past the last observation")
			assert.Equal(t, orb.Point{1.5, 1}, ivs[0].ExitPoint)
		})
	}
}

func TestDetectAll(t *testing.T) {
	t.Parallel()
	tbl, err := trajectory.NewTable(10, 0, 4)
	require.NoError(t, err)
	// centimetres, converted to metres by the converter
	for f, x := range []float64{-100, 50, 150, 300} {
		require.NoError(t, tbl.Set(7, f, x, 100, 0))
	}
	require.NoError(t, tbl.Set(8, 0, -500, 100, 0))
	snap := trajectory.NewConverter(tbl).Snapshot()

	got := DetectAll(snap, box2(), StrictCurrent)
	require.Len(t, got, 1)
	require.Len(t, got[7], 1)
	assert.Equal(t, 1, got[7][0].Entrance)
	assert.Equal(t, 3, got[7][0].Exit)
}

func TestByName(t *testing.T) {
	t.Parallel()
	for _, name := range Names() {
		p, err := ByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name)
	}

	assert.Contains(t, Names(), EdieDefault.Name)
	assert.Len(t, Names(), len(Named()))

	p, err := ByName(" Nearest-Later ")
	require.NoError(t, err)
	assert.Equal(t, NearestLater, p)

	_, err = ByName("sideways")
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	assert.True(t, StrictLookAhead.LooksAhead())
	assert.True(t, NearestEarlier.LooksAhead())
	assert.False(t, EdieDefault.LooksAhead())
}
