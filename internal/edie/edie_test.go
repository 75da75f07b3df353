package edie

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pedflow/internal/crossing"
	"github.com/banshee-data/pedflow/internal/geometry"
	"github.com/banshee-data/pedflow/internal/testutil"
)

func corridor() *geometry.PolygonArea {
	return geometry.NewPolygonArea(1, geometry.TypeBoundingBox,
		[]orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}}).
		WithLengths(geometry.Lengths{Movement: 2, Orthogonal: 2})
}

func TestAggregateSingleWalker(t *testing.T) {
	t.Parallel()
	// 2.0 m in 16 frames at 16 fps through a 2.0 m long area
	snap := testutil.BuildSnapshot(t, 16, 17, testutil.Walk{
		Ped: 1, First: 0, Last: 16, Start: orb.Point{0, 1}, Step: orb.Point{0.125, 0},
	})
	ivs := crossing.DetectAll(snap, corridor(), crossing.EdieDefault)
	require.Len(t, ivs[1], 1)
	assert.Equal(t, 0, ivs[1][0].Entrance)

	got, err := Aggregate(snap, ivs, Params{DeltaT: 16, Length: 2})
	require.NoError(t, err)

	want := []Window{{
		Index: 0, StartFrame: 0, EndFrame: 16,
		Density: 0.5, Flow: 1.0, Velocity: 2.0, HasData: true,
	}}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateClipsIntervals(t *testing.T) {
	t.Parallel()
	walk := func(ped int) testutil.Walk {
		return testutil.Walk{Ped: ped, First: 0, Last: 39, Step: orb.Point{0.1, 0}}
	}
	snap := testutil.BuildSnapshot(t, 10, 40, walk(1), walk(2), walk(3))

	intervals := map[int][]crossing.Interval{
		1: {{Entrance: 12, Exit: 17}},             // inside one window
		2: {{Entrance: 5, Exit: 25}},              // spans three windows
		3: {{Entrance: 35, Exit: crossing.Unset}}, // still inside at the end
	}
	got, err := Aggregate(snap, intervals, Params{DeltaT: 10, Length: 1})
	require.NoError(t, err)
	require.Len(t, got, 4)

	density := []float64{0.5, 1.5, 0.5, 0.5}
	// the open interval has samples up to frame 39 only
	flow := []float64{0.5, 1.5, 0.5, 0.4}
	for k, w := range got {
		assert.Equal(t, k*10, w.StartFrame)
		assert.Equal(t, k*10+10, w.EndFrame)
		assert.InDelta(t, density[k], w.Density, 1e-9, "density window %d", k)
		assert.InDelta(t, flow[k], w.Flow, 1e-9, "flow window %d", k)
		assert.True(t, w.HasData)
	}
}

func TestVelocityIsFlowOverDensity(t *testing.T) {
	t.Parallel()
	snap := testutil.BuildSnapshot(t, 10, 60,
		testutil.Walk{Ped: 1, First: 0, Last: 59, Start: orb.Point{-1, 0.5}, Step: orb.Point{0.07, 0}},
		testutil.Walk{Ped: 2, First: 5, Last: 45, Start: orb.Point{-0.5, 1.5}, Step: orb.Point{0.05, 0.001}},
		testutil.Walk{Ped: 3, First: 20, Last: 59, Start: orb.Point{2.5, 1}, Step: orb.Point{-0.09, 0}},
	)
	ivs := crossing.DetectAll(snap, corridor(), crossing.EdieDefault)
	require.NotEmpty(t, ivs)

	got, err := Aggregate(snap, ivs, Params{DeltaT: 10, Length: 2})
	require.NoError(t, err)
	require.Len(t, got, 6)

	withData := 0
	for _, w := range got {
		if !w.HasData {
			continue
		}
		withData++
		assert.InDelta(t, w.Flow/w.Density, w.Velocity, 1e-9, "window %d", w.Index)
	}
	assert.Greater(t, withData, 0)
}

func TestEmptyWindowsHaveNoData(t *testing.T) {
	t.Parallel()
	snap := testutil.BuildSnapshot(t, 10, 30, testutil.Walk{
		Ped: 1, First: 0, Last: 29, Start: orb.Point{1, 1}, Step: orb.Point{0.01, 0},
	})
	intervals := map[int][]crossing.Interval{1: {{Entrance: 0, Exit: 10}}}

	got, err := Aggregate(snap, intervals, Params{DeltaT: 10, Length: 2})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].HasData)
	for _, w := range got[1:] {
		assert.False(t, w.HasData)
		assert.Zero(t, w.Density)
		assert.Zero(t, w.Flow)
		assert.Zero(t, w.Velocity)
	}
}

func TestAggregatePedestrianLeavesDataSet(t *testing.T) {
	t.Parallel()
	// observed inside in frames 0..7 of 32, then gone
	snap := testutil.BuildSnapshot(t, 16, 32, testutil.Walk{
		Ped: 1, First: 0, Last: 7, Start: orb.Point{0.5, 1}, Step: orb.Point{0.1, 0},
	})
	ivs := crossing.DetectAll(snap, corridor(), crossing.EdieDefault)
	require.Len(t, ivs[1], 1)
	assert.Equal(t, 0, ivs[1][0].Entrance)
	assert.Equal(t, 8, ivs[1][0].Exit, "one past the last observation")
	assert.InDelta(t, 1.2, ivs[1][0].ExitPoint[0], 1e-9)

	got, err := Aggregate(snap, ivs, Params{DeltaT: 16, Length: 2})
	require.NoError(t, err)

	// 8 frames inside, 0.7 m walked between the 8 samples
	want := []Window{
		{Index: 0, StartFrame: 0, EndFrame: 16, Density: 0.25, Flow: 0.35, Velocity: 1.4, HasData: true},
		{Index: 1, StartFrame: 16, EndFrame: 32},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateErrors(t *testing.T) {
	t.Parallel()
	snap := testutil.BuildSnapshot(t, 10, 20, testutil.Walk{Ped: 1, First: 0, Last: 19})
	some := map[int][]crossing.Interval{1: {{Entrance: 0, Exit: crossing.Unset}}}

	tests := []struct {
		name      string
		intervals map[int][]crossing.Interval
		params    Params
		wantErr   error
	}{
		{"length not set", some, Params{DeltaT: 10}, ErrLengthNotSet},
		{"negative length", some, Params{DeltaT: 10, Length: -1}, ErrLengthNotSet},
		{"zero window", some, Params{DeltaT: 0, Length: 1}, ErrInvalidWindow},
		{"window too large", some, Params{DeltaT: 21, Length: 1}, ErrWindowTooLarge},
		{"nobody entered", map[int][]crossing.Interval{}, Params{DeltaT: 10, Length: 1}, ErrNoOccupancy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(snap, tt.intervals, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWindowCount(t *testing.T) {
	t.Parallel()
	snap := testutil.BuildSnapshot(t, 10, 25, testutil.Walk{Ped: 1, First: 0, Last: 24})
	some := map[int][]crossing.Interval{1: {{Entrance: 0, Exit: crossing.Unset}}}

	got, err := Aggregate(snap, some, Params{DeltaT: 10, Length: 1})
	require.NoError(t, err)
	assert.Len(t, got, 2, "the partial trailing window is dropped")

	got, err = Aggregate(snap, some, Params{DeltaT: 25, Length: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPathLength(t *testing.T) {
	t.Parallel()
	full := testutil.BuildSnapshot(t, 10, 6, testutil.Walk{
		Ped: 1, First: 0, Last: 5, Step: orb.Point{0.3, 0.4},
	})
	// frame 2 missing; the walk is straight so the length is unchanged
	holed := testutil.BuildSnapshot(t, 10, 6,
		testutil.Walk{Ped: 1, First: 0, Last: 1, Step: orb.Point{0.3, 0.4}},
		testutil.Walk{Ped: 1, First: 3, Last: 5, Start: orb.Point{0.9, 1.2}, Step: orb.Point{0.3, 0.4}},
	)
	require.False(t, holed.Sample(1, 2).Valid)

	assert.InDelta(t, 2.5, PathLength(full, 1, 0, 5), 1e-9)
	assert.InDelta(t, 2.5, PathLength(holed, 1, 0, 5), 1e-9)
	assert.InDelta(t, 1.0, PathLength(full, 1, 1, 3), 1e-9)
	assert.InDelta(t, 2.5, PathLength(full, 1, -3, 99), 1e-9, "clamped")
	assert.Zero(t, PathLength(full, 1, 3, 3))
	assert.Zero(t, PathLength(full, 42, 0, 5), "unknown pedestrian")
}
